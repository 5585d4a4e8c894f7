// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package feedback turns likes and dislikes into interest updates.
//
// Processing a feedback request appends it to the action log, extracts
// keywords from the article's title and description, and shifts the user's
// weight for each keyword by one interest step (up for a like, down for a
// dislike). A FeedbackRecorded event is then published so the recommendation
// cache for the user is invalidated. Event delivery is best effort: a
// publish failure is logged and the request still succeeds.
package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/database"
	"github.com/tomtom215/newsrank/internal/eventprocessor"
	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
	"github.com/tomtom215/newsrank/internal/recommend"
)

// DefaultInterestStep is the weight change applied per keyword.
const DefaultInterestStep = 0.1

var (
	// ErrInvalidAction is returned for actions other than like and dislike.
	ErrInvalidAction = errors.New("invalid feedback action")
	// ErrArticleNotFound is returned when the article does not exist.
	ErrArticleNotFound = errors.New("article not found")
)

// Store is the persistence the processor needs.
type Store interface {
	RecordUserAction(ctx context.Context, userID string, articleID int64, action string) error
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	UpdateUserInterests(ctx context.Context, userID string, keywords []string, delta float64) error
}

// KeywordExtractor pulls interest keywords out of article text.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}

// PreferenceRefresher recomputes a user's embedding preference vector.
type PreferenceRefresher interface {
	RefreshUserPreference(ctx context.Context, userID string) ([]float64, error)
}

// EventPublisher publishes FeedbackRecorded events.
type EventPublisher interface {
	PublishFeedback(ctx context.Context, event *eventprocessor.FeedbackRecorded) error
}

// Result is the outcome of a processed feedback request.
type Result struct {
	Success  bool     `json:"success"`
	Keywords []string `json:"keywords"`
}

// Processor handles feedback requests.
type Processor struct {
	store     Store
	extractor KeywordExtractor
	step      float64
	vectors   PreferenceRefresher
	events    EventPublisher
	logger    zerolog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithInterestStep overrides DefaultInterestStep. Non-positive steps are ignored.
func WithInterestStep(step float64) Option {
	return func(p *Processor) {
		if step > 0 {
			p.step = step
		}
	}
}

// WithPreferenceRefresher refreshes the user's preference vector after
// interests change.
func WithPreferenceRefresher(r PreferenceRefresher) Option {
	return func(p *Processor) { p.vectors = r }
}

// WithEventPublisher publishes a FeedbackRecorded event per processed request.
func WithEventPublisher(pub EventPublisher) Option {
	return func(p *Processor) { p.events = pub }
}

// NewProcessor creates a processor.
func NewProcessor(store Store, extractor KeywordExtractor, opts ...Option) *Processor {
	p := &Processor{
		store:     store,
		extractor: extractor,
		step:      DefaultInterestStep,
		logger:    logging.WithComponent("feedback"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process records a like or dislike and updates the user's interests.
func (p *Processor) Process(ctx context.Context, userID string, articleID int64, action string) (*Result, error) {
	result, err := p.process(ctx, userID, articleID, action)
	metrics.FeedbackTotal.WithLabelValues(actionLabel(action), outcome(err)).Inc()
	return result, err
}

func (p *Processor) process(ctx context.Context, userID string, articleID int64, action string) (*Result, error) {
	if !models.ValidAction(action) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	userID, err := recommend.NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	log := p.logger.With().Str("user_id", userID).Int64("article_id", articleID).Str("action", action).Logger()

	if err := p.store.RecordUserAction(ctx, userID, articleID, action); err != nil {
		return nil, fmt.Errorf("record feedback: %w", err)
	}

	article, err := p.store.GetArticle(ctx, articleID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrArticleNotFound, articleID)
	}
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}

	keywords, err := p.extractor.ExtractKeywords(ctx, article.Title+" "+article.Description)
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}
	if keywords == nil {
		keywords = []string{}
	}

	if len(keywords) > 0 {
		delta := p.step
		if action == models.ActionDislike {
			delta = -delta
		}
		if err := p.store.UpdateUserInterests(ctx, userID, keywords, delta); err != nil {
			return nil, fmt.Errorf("update interests: %w", err)
		}
	}

	if p.vectors != nil {
		if _, err := p.vectors.RefreshUserPreference(ctx, userID); err != nil {
			log.Warn().Err(err).Msg("Failed to refresh preference vector")
		}
	}

	if p.events != nil {
		event := eventprocessor.NewFeedbackRecorded(userID, articleID, action, keywords)
		if err := p.events.PublishFeedback(ctx, event); err != nil {
			log.Warn().Err(err).Str("event_id", event.EventID).Msg("Failed to publish feedback event")
		}
	}

	log.Debug().Strs("keywords", keywords).Msg("Feedback processed")
	return &Result{Success: true, Keywords: keywords}, nil
}

func actionLabel(action string) string {
	if models.ValidAction(action) {
		return action
	}
	return "invalid"
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidAction), errors.Is(err, recommend.ErrInvalidUser):
		return "rejected"
	case errors.Is(err, ErrArticleNotFound):
		return "not_found"
	default:
		return "error"
	}
}
