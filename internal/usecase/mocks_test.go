package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	args := r.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

func (r *MockURLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	args := r.Called(ctx, shortCode, originalURL)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) IncrementAccessCount(ctx context.Context, shortCode string) error {
	args := r.Called(ctx, shortCode)
	return args.Error(0)
}

func (r *MockURLRepository) Update(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	args := r.Called(ctx, shortCode, originalURL)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) Remove(ctx context.Context, shortCode string) (bool, error) {
	args := r.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

// stubGenerator returns codes in order and repeats the last one forever.
type stubGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
	err   error
}

func (g *stubGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++

	if g.err != nil {
		return "", g.err
	}

	i := g.calls - 1
	if i >= len(g.codes) {
		i = len(g.codes) - 1
	}

	return g.codes[i], nil
}

// sequenceGenerator yields a fresh code on every call.
type sequenceGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.n++
	return fmt.Sprintf("c%06d", g.n), nil
}

var errCacheDown = errors.New("cache is down")

// failingCache fails every call, like an unreachable Redis.
type failingCache struct {
	mu    sync.Mutex
	calls int
}

func (c *failingCache) count() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *failingCache) Get(context.Context, string) (string, error) {
	c.count()
	return "", errCacheDown
}

func (c *failingCache) Set(context.Context, string, string, time.Duration) error {
	c.count()
	return errCacheDown
}

func (c *failingCache) Delete(context.Context, string) error {
	c.count()
	return errCacheDown
}

// fakeRepository is an in-memory repository with the same not-found and
// uniqueness semantics as the PostgreSQL one.
type fakeRepository struct {
	mu     sync.Mutex
	nextID int64
	urls   map[string]entity.URL
	now    time.Time
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		urls: make(map[string]entity.URL),
		now:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeRepository) tick() time.Time {
	r.now = r.now.Add(time.Second)
	return r.now
}

func (r *fakeRepository) Exists(_ context.Context, shortCode string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.urls[shortCode]
	return ok, nil
}

func (r *fakeRepository) Save(_ context.Context, shortCode, originalURL string) (*entity.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[shortCode]; ok {
		return nil, entity.ErrShortCodeExists
	}

	r.nextID++
	now := r.tick()

	url := entity.URL{
		ID:          r.nextID,
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.urls[shortCode] = url

	return &url, nil
}

func (r *fakeRepository) RetrieveByShortCode(_ context.Context, shortCode string) (*entity.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	url, ok := r.urls[shortCode]
	if !ok {
		return nil, entity.ErrURLNotFound
	}

	return &url, nil
}

func (r *fakeRepository) IncrementAccessCount(_ context.Context, shortCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	url, ok := r.urls[shortCode]
	if !ok {
		return nil
	}

	url.AccessCount++
	url.UpdatedAt = r.tick()
	r.urls[shortCode] = url

	return nil
}

func (r *fakeRepository) Update(_ context.Context, shortCode, originalURL string) (*entity.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	url, ok := r.urls[shortCode]
	if !ok {
		return nil, entity.ErrURLNotFound
	}

	url.OriginalURL = originalURL
	url.UpdatedAt = r.tick()
	r.urls[shortCode] = url

	return &url, nil
}

func (r *fakeRepository) Remove(_ context.Context, shortCode string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.urls[shortCode]; !ok {
		return false, nil
	}

	delete(r.urls, shortCode)
	return true, nil
}

func (r *fakeRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.urls)
}
