// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package api

import (
	"context"
	"io"
	"time"

	"github.com/tomtom215/newsrank/internal/feedback"
	"github.com/tomtom215/newsrank/internal/ingest"
	"github.com/tomtom215/newsrank/internal/models"
	"github.com/tomtom215/newsrank/internal/recommend"
)

// Recommender serves ranked feeds. Implemented by *recommend.Engine.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	Stats(ctx context.Context) recommend.Stats
}

// FeedbackProcessor records likes and dislikes. Implemented by *feedback.Processor.
type FeedbackProcessor interface {
	Process(ctx context.Context, userID string, articleID int64, action string) (*feedback.Result, error)
}

// FeedImporter loads feed documents. Implemented by *ingest.Importer.
type FeedImporter interface {
	Import(ctx context.Context, sourceID int64, r io.Reader) (*ingest.ImportResult, error)
}

// Store is the database access used directly by handlers. Implemented by
// *database.DB.
type Store interface {
	ListActiveSources(ctx context.Context) ([]models.Source, error)
	CreateSource(ctx context.Context, src *models.Source) error
	SystemStats(ctx context.Context, userID string) (*models.SystemStats, error)
	Ping(ctx context.Context) error
}

// Options tunes request handling.
type Options struct {
	// RequestTimeout bounds each recommendation and import request.
	RequestTimeout time.Duration
	// Version is reported by /health.
	Version string
}

// DefaultOptions returns the limits used when none are configured.
func DefaultOptions() Options {
	return Options{
		RequestTimeout: 30 * time.Second,
		Version:        "dev",
	}
}

// Handler contains the dependencies of the API handlers.
//
// Handler methods are split across files:
//   - handlers_recommend.go: recommendations and cache stats
//   - handlers_feedback.go: article feedback
//   - handlers_sources.go: sources and feed import
//   - handlers_health.go: health and system stats
type Handler struct {
	engine    Recommender
	feedback  FeedbackProcessor
	importer  FeedImporter
	store     Store
	opts      Options
	startTime time.Time
}

// NewHandler creates the API handler. Zero option fields take the defaults.
func NewHandler(engine Recommender, fb FeedbackProcessor, importer FeedImporter, store Store, opts Options) *Handler {
	def := DefaultOptions()
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = def.RequestTimeout
	}
	if opts.Version == "" {
		opts.Version = def.Version
	}
	return &Handler{
		engine:    engine,
		feedback:  fb,
		importer:  importer,
		store:     store,
		opts:      opts,
		startTime: time.Now(),
	}
}
