// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package embedding

import (
	"context"
	"fmt"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/resilience"
)

// Breaker guards a Provider with a circuit breaker. Rejected calls return an
// error wrapping ErrUnavailable. Empty input never counts as a failure.
type Breaker struct {
	next Provider
	cb   *resilience.Breaker[[]float64]
}

// NewBreaker wraps p. The breaker is named "embedding-<name>".
func NewBreaker(p Provider, name string, cfg config.BreakerConfig) *Breaker {
	return &Breaker{
		next: p,
		cb:   resilience.NewBreaker[[]float64]("embedding-"+name, cfg),
	}
}

func (b *Breaker) Model() string { return b.next.Model() }

func (b *Breaker) Embed(ctx context.Context, text string) ([]float64, error) {
	if Truncate(text) == "" {
		return nil, ErrEmptyInput
	}
	vec, err := b.cb.Execute(func() ([]float64, error) {
		return b.next.Embed(ctx, text)
	})
	if resilience.IsRejected(err) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return vec, err
}
