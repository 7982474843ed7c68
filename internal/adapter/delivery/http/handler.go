package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

type urlUseCase interface {
	ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error)
	ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, bool, error)
	ModifyURL(ctx context.Context, shortCode, originalURL string) (*entity.URL, bool, error)
	DeactivateURL(ctx context.Context, shortCode string) (bool, error)
	GetURLStats(ctx context.Context, shortCode string) (*entity.URL, bool, error)
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate) *urlHandler {
	return &urlHandler{
		useCase:  useCase,
		validate: validate,
	}
}

// decodeURLRequest writes a 400 response and returns false when the body is
// missing, malformed or has no url.
func (h *urlHandler) decodeURLRequest(w http.ResponseWriter, r *http.Request) (urlRequest, bool) {
	var req urlRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			response.Render(w, r, response.EmptyRequestBody)
			return req, false
		}

		response.Render(w, r, response.InvalidRequestBody)
		return req, false
	}

	if err := h.validate.Struct(req); err != nil {
		response.Render(w, r, response.URLRequired)
		return req, false
	}

	return req, true
}

// renderError maps a use case error to a response. Anything that is not a
// validation failure is logged with the request and reported as a 500.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *entity.ValidationError
	if errors.As(err, &validationErr) {
		response.Render(w, r, response.InvalidData(validationErr.Messages))
		return
	}

	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
	response.Render(w, r, response.ServerError)
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeURLRequest(w, r)
	if !ok {
		return
	}

	url, err := h.useCase.ShortenURL(r.Context(), req.URL)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toURLResponse(url))
}

func (h *urlHandler) resolveShortCode(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, found, err := h.useCase.ResolveShortCode(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if !found {
		response.Render(w, r, response.URLNotFound)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLResponse(url))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, found, err := h.useCase.ResolveShortCode(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if !found {
		response.Render(w, r, response.URLNotFound)
		return
	}

	http.Redirect(w, r, url.OriginalURL, http.StatusMovedPermanently)
}

func (h *urlHandler) modifyURL(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeURLRequest(w, r)
	if !ok {
		return
	}

	shortCode := chi.URLParam(r, "shortCode")

	url, found, err := h.useCase.ModifyURL(r.Context(), shortCode, req.URL)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if !found {
		response.Render(w, r, response.URLNotFound)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLResponse(url))
}

func (h *urlHandler) deactivateURL(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	removed, err := h.useCase.DeactivateURL(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if !removed {
		response.Render(w, r, response.URLNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, found, err := h.useCase.GetURLStats(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if !found {
		response.Render(w, r, response.URLNotFound)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLStatsResponse(url))
}

type healthHandler struct {
	startedAt time.Time
	now       func() time.Time
}

func newHealthHandler(now func() time.Time) *healthHandler {
	return &healthHandler{
		startedAt: now(),
		now:       now,
	}
}

func (h *healthHandler) health(w http.ResponseWriter, r *http.Request) {
	now := h.now()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, healthResponse{
		Status:    "OK",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Uptime:    now.Sub(h.startedAt).Seconds(),
	})
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	response.Render(w, r, response.RouteNotFound(r.URL.Path))
}
