package http

import (
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// urlRequest is the body of the shorten and modify requests.
type urlRequest struct {
	URL string `json:"url" validate:"required"`
}

type urlResponse struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	ShortCode string    `json:"shortCode"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toURLResponse(url *entity.URL) urlResponse {
	return urlResponse{
		ID:        url.ID,
		URL:       url.OriginalURL,
		ShortCode: url.ShortCode,
		CreatedAt: url.CreatedAt,
		UpdatedAt: url.UpdatedAt,
	}
}

type urlStatsResponse struct {
	urlResponse
	AccessCount int64 `json:"accessCount"`
}

func toURLStatsResponse(url *entity.URL) urlStatsResponse {
	return urlStatsResponse{
		urlResponse: toURLResponse(url),
		AccessCount: url.AccessCount,
	}
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}
