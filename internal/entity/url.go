// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL, along with its
// associated metadata, and the error taxonomy shared by the use case and adapters.
package entity

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrShortCodeExists is returned when attempting to create a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned by repositories when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrCodeGenerationExhausted is returned when no unused short code could be generated within the retry bound.
	ErrCodeGenerationExhausted = errors.New("unable to generate a unique short code")
	// ErrStorage marks failures of the durable store.
	ErrStorage = errors.New("storage failure")
	// ErrCacheMiss is returned by cache adapters when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
)

// ValidationError is returned when user input does not pass validation.
// Messages are human-readable and safe to show to clients.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// URL represents a shortened URL.
type URL struct {
	ID          int64     `json:"id"`        // ID is the unique identifier of the URL in the database.
	ShortCode   string    `json:"shortCode"` // ShortCode is the generated code used to shorten the original URL.
	OriginalURL string    `json:"url"`       // OriginalURL is the full URL that the short code resolves to.
	URLStats              // URLStats contains statistics about the URL.
	CreatedAt   time.Time `json:"createdAt"` // CreatedAt is the timestamp when the URL was created.
	UpdatedAt   time.Time `json:"updatedAt"` // UpdatedAt is the timestamp when the URL was last updated.
}

// URLStats contains statistics related to a shortened URL.
type URLStats struct {
	AccessCount int64 `json:"accessCount"` // AccessCount is the number of times the shortened URL has been accessed.
}
