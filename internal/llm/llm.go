// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package llm extracts topic keywords and article analyses, either from an
// OpenAI-compatible chat completion API or from a local term-frequency
// heuristic.
package llm

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/models"
)

// MaxPromptRunes caps the article text placed in a prompt.
const MaxPromptRunes = 1000

// Sentiment values.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// DefaultImportance is used when no model judged the article.
const DefaultImportance = 5

// ErrUnavailable is returned when the provider's circuit is open.
var ErrUnavailable = errors.New("llm provider unavailable")

// Analysis is the structured judgement of one article.
type Analysis struct {
	Topics     []string `json:"topics"`
	Sentiment  string   `json:"sentiment"`
	Importance float64  `json:"importance"`
	Summary    string   `json:"summary"`
}

// Extractor produces keywords for interest learning and analyses for
// article scoring.
type Extractor interface {
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
	Analyze(ctx context.Context, article models.Article) (Analysis, error)
}

// New builds the extractor selected by cfg. Network providers fall back to
// the heuristic on error.
func New(cfg config.LLMConfig) (Extractor, error) {
	switch cfg.Provider {
	case "", "none":
		return NewHeuristic(), nil
	case "openai":
		return NewFallback(NewOpenAI(cfg), NewHeuristic()), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// normalize clamps importance to [0,10] and fills blanks with defaults.
func (a Analysis) normalize(article models.Article) Analysis {
	switch a.Sentiment {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
	default:
		a.Sentiment = SentimentNeutral
	}
	if a.Importance < 0 {
		a.Importance = 0
	}
	if a.Importance > 10 {
		a.Importance = 10
	}
	if a.Summary == "" {
		a.Summary = truncateRunes(article.Description, 100)
	}
	if a.Topics == nil {
		a.Topics = []string{}
	}
	return a
}
