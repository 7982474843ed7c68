// Package http provides the HTTP delivery layer of the shortener: JSON
// management endpoints under /shorten, the public redirect, health, metrics
// and API docs.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/shortlink/pkg/middleware/recoverer"
)

const defaultSwaggerFile = "./docs/swagger.yml"

type routerOptions struct {
	gatherer    prometheus.Gatherer
	swaggerFile string
	now         func() time.Time
}

type RouterOption func(opts *routerOptions)

// WithGatherer sets the registry served on /metrics.
func WithGatherer(gatherer prometheus.Gatherer) RouterOption {
	return func(opts *routerOptions) {
		opts.gatherer = gatherer
	}
}

func WithSwaggerFile(path string) RouterOption {
	return func(opts *routerOptions) {
		opts.swaggerFile = path
	}
}

func WithClock(now func() time.Time) RouterOption {
	return func(opts *routerOptions) {
		opts.now = now
	}
}

// NewRouter initializes a chi router with middleware and all routes of the service.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts ...RouterOption) *chi.Mux {
	options := &routerOptions{
		gatherer:    prometheus.DefaultGatherer,
		swaggerFile: defaultSwaggerFile,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(options)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))

	r.NotFound(routeNotFound)

	health := newHealthHandler(options.now)
	r.Get("/health", health.health)

	r.Handle("/metrics", promhttp.HandlerFor(options.gatherer, promhttp.HandlerOpts{}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, options.swaggerFile)
	})

	h := newURLHandler(urlUseCase, validator.New())

	r.Route("/shorten", func(r chi.Router) {
		r.Post("/", h.shortenURL)

		r.Route("/{shortCode}", func(r chi.Router) {
			r.Get("/", h.resolveShortCode)
			r.Put("/", h.modifyURL)
			r.Delete("/", h.deactivateURL)
			r.Get("/stats", h.getURLStats)
		})
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
