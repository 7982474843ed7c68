package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type MockURLUseCase struct {
	mock.Mock
}

func (m *MockURLUseCase) ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	args := m.Called(ctx, originalURL)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *MockURLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, bool, error) {
	args := m.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Bool(1), args.Error(2)
}

func (m *MockURLUseCase) ModifyURL(ctx context.Context, shortCode, originalURL string) (*entity.URL, bool, error) {
	args := m.Called(ctx, shortCode, originalURL)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Bool(1), args.Error(2)
}

func (m *MockURLUseCase) DeactivateURL(ctx context.Context, shortCode string) (bool, error) {
	args := m.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockURLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, bool, error) {
	args := m.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Bool(1), args.Error(2)
}
