// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/newsrank/internal/config"
)

// MaxInputRunes is the longest text sent to a provider. Longer input is cut.
const MaxInputRunes = 8000

var (
	// ErrUnavailable is returned when no provider is configured or the
	// provider's circuit is open.
	ErrUnavailable = errors.New("embedding provider unavailable")

	// ErrEmptyInput is returned for blank text.
	ErrEmptyInput = errors.New("embedding input is empty")
)

// Provider turns text into a fixed-length vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Model() string
}

// New builds the provider selected by cfg, wrapped in a circuit breaker.
// The "none" provider is returned unwrapped.
func New(cfg config.EmbeddingConfig) (Provider, error) {
	var p Provider
	switch cfg.Provider {
	case "", "none":
		return Noop{}, nil
	case "openai":
		p = NewOpenAI(cfg)
	case "cohere":
		p = NewCohere(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	return NewBreaker(p, cfg.Provider, cfg.Breaker), nil
}

// Truncate trims text and cuts it to MaxInputRunes.
func Truncate(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MaxInputRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxInputRunes])
}

// Noop is the provider used when embeddings are disabled.
type Noop struct{}

func (Noop) Embed(context.Context, string) ([]float64, error) { return nil, ErrUnavailable }

func (Noop) Model() string { return "none" }
