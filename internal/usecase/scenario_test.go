package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/shortlink/internal/adapter/cache/memory"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
	"github.com/vadimbarashkov/shortlink/pkg/worker"
)

type scenario struct {
	repo *fakeRepository
	pool *worker.Pool
	uc   *URLUseCase
}

func newScenario(t testing.TB, cache urlCache) *scenario {
	t.Helper()

	gen, err := shortcode.NewNanoID(shortcode.DefaultLength)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newFakeRepository()
	pool := worker.New(logger, 8)

	opts := []Option{WithLogger(logger)}
	if cache != nil {
		opts = append(opts, WithCache(cache))
	}

	return &scenario{
		repo: repo,
		pool: pool,
		uc:   New(repo, gen, pool, opts...),
	}
}

func newMemoryCache(t testing.TB) *memory.Cache {
	t.Helper()

	c, err := memory.New(1000)
	require.NoError(t, err)

	return c
}

func cacheVariants() map[string]func(t testing.TB) urlCache {
	return map[string]func(t testing.TB) urlCache{
		"memory cache":  func(t testing.TB) urlCache { return newMemoryCache(t) },
		"failing cache": func(testing.TB) urlCache { return &failingCache{} },
		"no cache":      func(testing.TB) urlCache { return nil },
	}
}

func TestScenario_Lifecycle(t *testing.T) {
	for name, newCache := range cacheVariants() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newScenario(t, newCache(t))

			created, err := s.uc.ShortenURL(ctx, "https://example.com/a/b?c=1")
			require.NoError(t, err)
			assert.Len(t, created.ShortCode, shortcode.DefaultLength)

			url, found, err := s.uc.ResolveShortCode(ctx, created.ShortCode)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "https://example.com/a/b?c=1", url.OriginalURL)

			s.pool.Wait()

			stats, found, err := s.uc.GetURLStats(ctx, created.ShortCode)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, int64(1), stats.AccessCount)

			updated, found, err := s.uc.ModifyURL(ctx, created.ShortCode, "https://example.com/new")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, created.ID, updated.ID)

			url, found, err = s.uc.ResolveShortCode(ctx, created.ShortCode)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "https://example.com/new", url.OriginalURL)

			removed, err := s.uc.DeactivateURL(ctx, created.ShortCode)
			require.NoError(t, err)
			assert.True(t, removed)

			url, found, err = s.uc.ResolveShortCode(ctx, created.ShortCode)
			assert.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, url)

			removed, err = s.uc.DeactivateURL(ctx, created.ShortCode)
			assert.NoError(t, err)
			assert.False(t, removed)

			s.pool.Wait()
		})
	}
}

func TestScenario_AccessCountPerResolution(t *testing.T) {
	const resolutions = 25

	for name, newCache := range cacheVariants() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newScenario(t, newCache(t))

			created, err := s.uc.ShortenURL(ctx, "https://example.com")
			require.NoError(t, err)

			var wg sync.WaitGroup
			for i := 0; i < resolutions; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()

					_, found, err := s.uc.ResolveShortCode(ctx, created.ShortCode)
					assert.NoError(t, err)
					assert.True(t, found)
				}()
			}
			wg.Wait()
			s.pool.Wait()

			stats, found, err := s.uc.GetURLStats(ctx, created.ShortCode)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, int64(resolutions), stats.AccessCount)
		})
	}
}

func TestScenario_UniqueCodes(t *testing.T) {
	const (
		workers   = 8
		perWorker = 50
	)

	ctx := context.Background()
	s := newScenario(t, newMemoryCache(t))

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		codes = make(map[string]string)
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()

			for i := 0; i < perWorker; i++ {
				originalURL := fmt.Sprintf("https://example.com/%d/%d", w, i)

				url, err := s.uc.ShortenURL(ctx, originalURL)
				if !assert.NoError(t, err) {
					return
				}

				mu.Lock()
				_, dup := codes[url.ShortCode]
				codes[url.ShortCode] = originalURL
				mu.Unlock()

				assert.False(t, dup, "duplicate short code %q", url.ShortCode)
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, codes, workers*perWorker)
	assert.Equal(t, workers*perWorker, s.repo.Len())

	for code, originalURL := range codes {
		url, found, err := s.uc.ResolveShortCode(ctx, code)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, originalURL, url.OriginalURL)
	}

	s.pool.Wait()
}

func TestScenario_InvalidInputWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newScenario(t, newMemoryCache(t))

	for _, raw := range []string{"", "example", "ftp//missing-colon", "https://example.com/" + strings.Repeat("a", MaxURLLength)} {
		url, err := s.uc.ShortenURL(ctx, raw)

		var validationErr *entity.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Nil(t, url)
	}

	assert.Zero(t, s.repo.Len())
}

func TestScenario_UnknownCode(t *testing.T) {
	ctx := context.Background()
	s := newScenario(t, newMemoryCache(t))

	url, found, err := s.uc.ResolveShortCode(ctx, "missing")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, url)
	assert.Zero(t, s.repo.Len())

	url, found, err = s.uc.ModifyURL(ctx, "missing", "https://example.com")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, url)
	assert.Zero(t, s.repo.Len())
}

func TestScenario_SequentialGenerator(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	pool := worker.New(slog.New(slog.NewTextHandler(io.Discard, nil)), 1)
	uc := New(repo, &sequenceGenerator{}, pool, WithCache(newMemoryCache(t)))

	first, err := uc.ShortenURL(ctx, "https://example.com/1")
	require.NoError(t, err)
	second, err := uc.ShortenURL(ctx, "https://example.com/2")
	require.NoError(t, err)

	assert.Equal(t, "c000001", first.ShortCode)
	assert.Equal(t, "c000002", second.ShortCode)
	assert.NotEqual(t, first.ID, second.ID)

	pool.Wait()
}
