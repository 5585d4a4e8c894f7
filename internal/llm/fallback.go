// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/models"
)

// Fallback serves Secondary's result whenever Primary errors.
type Fallback struct {
	Primary   Extractor
	Secondary Extractor
	logger    zerolog.Logger
}

// NewFallback creates a Fallback.
func NewFallback(primary, secondary Extractor) *Fallback {
	return &Fallback{
		Primary:   primary,
		Secondary: secondary,
		logger:    logging.WithComponent("llm"),
	}
}

func (f *Fallback) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	kw, err := f.Primary.ExtractKeywords(ctx, text)
	if err == nil {
		return kw, nil
	}
	f.logger.Warn().Err(err).Msg("Keyword extraction failed, using fallback")
	return f.Secondary.ExtractKeywords(ctx, text)
}

func (f *Fallback) Analyze(ctx context.Context, article models.Article) (Analysis, error) {
	a, err := f.Primary.Analyze(ctx, article)
	if err == nil {
		return a, nil
	}
	f.logger.Warn().Err(err).Int64("article_id", article.ID).Msg("Article analysis failed, using fallback")
	return f.Secondary.Analyze(ctx, article)
}
