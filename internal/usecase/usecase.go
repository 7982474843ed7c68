// Package usecase implements URL shortening on top of a durable repository
// and an optional cache. The cache is an optimization only: every cache failure
// is logged and the operation continues on the durable path.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
	"github.com/vadimbarashkov/shortlink/pkg/worker"
)

const (
	// MaxShortCodeAttempts bounds the search for an unused short code.
	MaxShortCodeAttempts = 10
	// MaxURLLength is the longest original URL accepted, in characters.
	MaxURLLength = 2048
	// DefaultCacheTTL is how long a cached record may serve reads.
	DefaultCacheTTL = 24 * time.Hour

	cacheKeyPrefix = "url:"
)

var urlValidationTag = fmt.Sprintf("required,url,max=%d", MaxURLLength)

type urlRepository interface {
	Exists(ctx context.Context, shortCode string) (bool, error)
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	IncrementAccessCount(ctx context.Context, shortCode string) error
	Update(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	Remove(ctx context.Context, shortCode string) (bool, error)
}

type urlCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type backgroundRunner interface {
	Go(ctx context.Context, name string, task worker.Task)
}

type URLUseCase struct {
	urlRepo   urlRepository
	cache     urlCache
	generator shortcode.Generator
	tasks     backgroundRunner
	validate  *validator.Validate
	logger    *slog.Logger
	metrics   *metrics.Metrics
	cacheTTL  time.Duration
}

type Option func(uc *URLUseCase)

// WithCache enables the cache-aside path. Without it every read goes to the repository.
func WithCache(cache urlCache) Option {
	return func(uc *URLUseCase) {
		uc.cache = cache
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(uc *URLUseCase) {
		if ttl > 0 {
			uc.cacheTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(uc *URLUseCase) {
		uc.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *URLUseCase) {
		uc.metrics = m
	}
}

// New builds the use case. tasks runs the detached access counter updates
// issued on cache hits.
func New(urlRepo urlRepository, generator shortcode.Generator, tasks backgroundRunner, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		urlRepo:   urlRepo,
		generator: generator,
		tasks:     tasks,
		validate:  validator.New(),
		logger:    slog.Default(),
		cacheTTL:  DefaultCacheTTL,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.metrics == nil {
		uc.metrics = metrics.New(prometheus.NewRegistry())
	}

	return uc
}

// ShortenURL validates originalURL, allocates an unused short code and stores the record.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	if err := uc.validateURL(originalURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for attempt := 0; attempt < MaxShortCodeAttempts; attempt++ {
		shortCode, err := uc.generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		exists, err := uc.urlRepo.Exists(ctx, shortCode)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to check short code: %w: %w", op, entity.ErrStorage, err)
		}

		if exists {
			uc.metrics.CodeCollision()
			continue
		}

		url, err := uc.urlRepo.Save(ctx, shortCode, originalURL)
		if err != nil {
			// Another writer took the code between the check and the insert.
			if errors.Is(err, entity.ErrShortCodeExists) {
				uc.metrics.CodeCollision()
				continue
			}

			return nil, fmt.Errorf("%s: failed to save url: %w: %w", op, entity.ErrStorage, err)
		}

		uc.cacheURL(ctx, url)

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, entity.ErrCodeGenerationExhausted)
}

// ResolveShortCode returns the record for shortCode and counts the access.
// The boolean is false when no record exists.
//
// A cache hit returns immediately and increments the durable counter in the
// background. A miss reads the repository, increments the counter before
// returning and repopulates the cache.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, bool, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	if url, ok := uc.cachedURL(ctx, shortCode); ok {
		uc.tasks.Go(ctx, "increment access count", func(ctx context.Context) error {
			if err := uc.urlRepo.IncrementAccessCount(ctx, shortCode); err != nil {
				uc.metrics.AccessCountFailure(metrics.PathAsync)
				return fmt.Errorf("%s: short code %q: %w", op, shortCode, err)
			}

			return nil
		})

		return url, true, nil
	}

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("%s: failed to resolve short code: %w: %w", op, entity.ErrStorage, err)
	}

	if err := uc.urlRepo.IncrementAccessCount(ctx, shortCode); err != nil {
		uc.metrics.AccessCountFailure(metrics.PathSync)
		uc.logger.ErrorContext(ctx, "failed to increment access count",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}

	uc.cacheURL(ctx, url)

	return url, true, nil
}

// ModifyURL replaces the original URL behind shortCode. The cache entry is
// removed only after the repository write succeeded.
func (uc *URLUseCase) ModifyURL(ctx context.Context, shortCode, originalURL string) (*entity.URL, bool, error) {
	const op = "usecase.URLUseCase.ModifyURL"

	if err := uc.validateURL(originalURL); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	url, err := uc.urlRepo.Update(ctx, shortCode, originalURL)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("%s: failed to modify url: %w: %w", op, entity.ErrStorage, err)
	}

	uc.invalidate(ctx, shortCode)

	return url, true, nil
}

// DeactivateURL deletes the record and reports whether one was removed.
func (uc *URLUseCase) DeactivateURL(ctx context.Context, shortCode string) (bool, error) {
	const op = "usecase.URLUseCase.DeactivateURL"

	removed, err := uc.urlRepo.Remove(ctx, shortCode)
	if err != nil {
		return false, fmt.Errorf("%s: failed to deactivate url: %w: %w", op, entity.ErrStorage, err)
	}

	if removed {
		uc.invalidate(ctx, shortCode)
	}

	return removed, nil
}

// GetURLStats reads the durable record, bypassing the cache and leaving the
// access counter untouched.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, bool, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("%s: failed to get url stats: %w: %w", op, entity.ErrStorage, err)
	}

	return url, true, nil
}

func (uc *URLUseCase) validateURL(rawURL string) error {
	err := uc.validate.Var(rawURL, urlValidationTag)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &entity.ValidationError{Messages: []string{messageForTag("")}}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, messageForTag(fe.Tag()))
	}

	return &entity.ValidationError{Messages: msgs}
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "url is required"
	case "url":
		return "invalid url format"
	case "max":
		return "url is too long"
	default:
		return "invalid url"
	}
}

func cacheKey(shortCode string) string {
	return cacheKeyPrefix + shortCode
}

func (uc *URLUseCase) cachedURL(ctx context.Context, shortCode string) (*entity.URL, bool) {
	if uc.cache == nil {
		return nil, false
	}

	val, err := uc.cache.Get(ctx, cacheKey(shortCode))
	if err != nil {
		if errors.Is(err, entity.ErrCacheMiss) {
			uc.metrics.CacheLookup(metrics.ResultMiss)
			return nil, false
		}

		uc.metrics.CacheLookup(metrics.ResultError)
		uc.logger.WarnContext(ctx, "failed to read url from cache",
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
		return nil, false
	}

	var url entity.URL
	if err := json.Unmarshal([]byte(val), &url); err != nil {
		uc.metrics.CacheLookup(metrics.ResultError)
		uc.logger.WarnContext(ctx, "dropping undecodable cache entry",
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
		uc.invalidate(ctx, shortCode)
		return nil, false
	}

	uc.metrics.CacheLookup(metrics.ResultHit)

	return &url, true
}

func (uc *URLUseCase) cacheURL(ctx context.Context, url *entity.URL) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(url)
	if err != nil {
		uc.logger.WarnContext(ctx, "failed to encode url for cache",
			slog.String("short_code", url.ShortCode),
			slog.Any("err", err),
		)
		return
	}

	if err := uc.cache.Set(ctx, cacheKey(url.ShortCode), string(data), uc.cacheTTL); err != nil {
		uc.metrics.CacheError(metrics.OpSet)
		uc.logger.WarnContext(ctx, "failed to cache url",
			slog.String("short_code", url.ShortCode),
			slog.Any("err", err),
		)
	}
}

func (uc *URLUseCase) invalidate(ctx context.Context, shortCode string) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Delete(ctx, cacheKey(shortCode)); err != nil {
		uc.metrics.CacheError(metrics.OpDelete)
		uc.logger.WarnContext(ctx, "failed to invalidate cached url",
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}
}
