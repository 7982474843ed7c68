package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	memorycache "github.com/vadimbarashkov/shortlink/internal/adapter/cache/memory"
	rediscache "github.com/vadimbarashkov/shortlink/internal/adapter/cache/redis"
	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	pgpkg "github.com/vadimbarashkov/shortlink/pkg/postgres"
	redispkg "github.com/vadimbarashkov/shortlink/pkg/redis"
	"github.com/vadimbarashkov/shortlink/pkg/worker"
)

const shutdownTimeout = 10 * time.Second

type urlCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

func newLogger(cfg *config.Config, w io.Writer) *httplog.Logger {
	return httplog.NewLogger("shortlink", httplog.Options{
		JSON:     cfg.Log.JSON,
		LogLevel: cfg.Log.SlogLevel(),
		Concise:  !cfg.Log.JSON,
		Tags: map[string]string{
			"env": cfg.Env,
		},
		Writer: w,
	})
}

// newCache returns nil when caching is disabled. The returned redis client,
// if any, must be closed by the caller.
func newCache(ctx context.Context, cfg *config.Config) (urlCache, *goredis.Client, error) {
	const op = "app.newCache"

	switch cfg.Cache.Driver {
	case config.CacheRedis:
		client, err := redispkg.New(
			ctx,
			cfg.Redis.Addr,
			redispkg.WithPassword(cfg.Redis.Password),
			redispkg.WithDB(cfg.Redis.DB),
			redispkg.WithDialTimeout(cfg.Redis.DialTimeout),
			redispkg.WithReadTimeout(cfg.Redis.ReadTimeout),
			redispkg.WithWriteTimeout(cfg.Redis.WriteTimeout),
			redispkg.WithPoolSize(cfg.Redis.PoolSize),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		return rediscache.New(client), client, nil
	case config.CacheMemory:
		c, err := memorycache.New(cfg.Cache.MemorySize)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}

		return c, nil, nil
	case config.CacheNone:
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("%s: unknown cache driver %q", op, cfg.Cache.Driver)
	}
}

// Run wires the service from cfg and serves HTTP until ctx is done.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg, os.Stdout)

	db, err := pgpkg.New(
		ctx,
		cfg.Postgres.DSN(),
		pgpkg.WithConnectTimeout(cfg.Postgres.ConnectTimeout),
		pgpkg.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pgpkg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pgpkg.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pgpkg.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := pgpkg.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN(), pgpkg.WithMigrateLogger(logger.Logger)); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	cache, redisClient, err := newCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	generator, err := shortcode.NewNanoID(cfg.ShortCodeLength)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pool := worker.New(logger.Logger, cfg.Worker.MaxConcurrency)
	defer pool.Wait()

	opts := []usecase.Option{
		usecase.WithLogger(logger.Logger),
		usecase.WithMetrics(metrics.New(prometheus.DefaultRegisterer)),
		usecase.WithCacheTTL(cfg.Cache.TTL),
	}
	if cache != nil {
		opts = append(opts, usecase.WithCache(cache))
	}

	urlRepo := postgres.NewURLRepository(db)
	urlUseCase := usecase.New(urlRepo, generator, pool, opts...)

	router := delivery.NewRouter(logger, urlUseCase, delivery.WithGatherer(prometheus.DefaultGatherer))

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("cache", cfg.Cache.Driver),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
