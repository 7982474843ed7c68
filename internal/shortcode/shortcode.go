// Package shortcode generates random fixed-length short codes.
package shortcode

import (
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet is the case-sensitive alphanumeric alphabet short codes are drawn from.
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	MinLength     = 6
	MaxLength     = 8
	DefaultLength = 7
)

var ErrInvalidLength = fmt.Errorf("short code length must be between %d and %d", MinLength, MaxLength)

// Generator produces candidate short codes.
type Generator interface {
	Generate() (string, error)
}

// NanoID draws every character independently and uniformly from its alphabet.
// It holds no mutable state and is safe for concurrent use.
type NanoID struct {
	length   int
	alphabet string
}

func NewNanoID(length int) (*NanoID, error) {
	const op = "shortcode.NewNanoID"

	if length < MinLength || length > MaxLength {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidLength)
	}

	return &NanoID{
		length:   length,
		alphabet: Alphabet,
	}, nil
}

func (g *NanoID) Generate() (string, error) {
	const op = "shortcode.NanoID.Generate"

	if g.alphabet == "" {
		return "", fmt.Errorf("%s: %w", op, errors.New("empty alphabet"))
	}

	code, err := gonanoid.Generate(g.alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}
