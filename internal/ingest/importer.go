// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/database"
	"github.com/tomtom215/newsrank/internal/llm"
	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
)

var (
	// ErrInvalidFeed is returned when a document cannot be parsed as a feed.
	ErrInvalidFeed = errors.New("invalid feed document")
	// ErrSourceNotFound is returned when importing into an unknown source.
	ErrSourceNotFound = errors.New("source not found")
	// ErrDocumentTooLarge is returned when a document exceeds the size limit.
	ErrDocumentTooLarge = errors.New("feed document too large")
)

// Store is the persistence the importer needs.
type Store interface {
	GetSource(ctx context.Context, id int64) (*models.Source, error)
	UpsertSource(ctx context.Context, name, url, category string) (int64, error)
	InsertArticles(ctx context.Context, articles []models.Article) ([]models.Article, error)
	UpdateArticleScore(ctx context.Context, id int64, score float64) error
}

// Analyzer scores new articles.
type Analyzer interface {
	Analyze(ctx context.Context, article models.Article) (llm.Analysis, error)
}

// Indexer stores embedding vectors for new articles.
type Indexer interface {
	IndexArticle(ctx context.Context, article models.Article) error
}

// Importer loads feed documents into the article store.
type Importer struct {
	store    Store
	analyzer Analyzer
	indexer  Indexer
	mapper   *Mapper
	maxItems int
	maxBytes int64
	logger   zerolog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithAnalyzer scores each new article with the analysis importance.
func WithAnalyzer(a Analyzer) Option {
	return func(i *Importer) { i.analyzer = a }
}

// WithIndexer embeds each new article.
func WithIndexer(ix Indexer) Option {
	return func(i *Importer) { i.indexer = ix }
}

// WithLimits caps items per import and document size. Zero means unlimited.
func WithLimits(maxItems int, maxBytes int64) Option {
	return func(i *Importer) {
		i.maxItems = maxItems
		i.maxBytes = maxBytes
	}
}

// NewImporter creates an importer.
func NewImporter(store Store, opts ...Option) *Importer {
	i := &Importer{
		store:  store,
		mapper: NewMapper(),
		logger: logging.WithComponent("ingest"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import parses the feed document r and stores its new articles under
// sourceID. Analysis and indexing failures are logged per article and do
// not fail the import.
func (i *Importer) Import(ctx context.Context, sourceID int64, r io.Reader) (*ImportResult, error) {
	start := time.Now()

	source, err := i.store.GetSource(ctx, sourceID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrSourceNotFound, sourceID)
	}
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}

	if i.maxBytes > 0 {
		doc, err := io.ReadAll(io.LimitReader(r, i.maxBytes+1))
		if err != nil {
			return nil, fmt.Errorf("read feed document: %w", err)
		}
		if int64(len(doc)) > i.maxBytes {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrDocumentTooLarge, i.maxBytes)
		}
		r = bytes.NewReader(doc)
	}
	articles, err := i.mapper.ParseFeed(ctx, r, *source)
	if err != nil {
		return nil, err
	}
	if i.maxItems > 0 && len(articles) > i.maxItems {
		articles = articles[:i.maxItems]
	}

	result := &ImportResult{SourceID: sourceID, Found: len(articles)}
	metrics.ImportArticles.WithLabelValues("found").Add(float64(len(articles)))

	inserted, err := i.store.InsertArticles(ctx, articles)
	if err != nil {
		return nil, fmt.Errorf("save articles: %w", err)
	}
	result.Inserted = len(inserted)
	metrics.ImportArticles.WithLabelValues("inserted").Add(float64(len(inserted)))

	for _, a := range inserted {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		a.SourceName = source.Name
		a.SourceCategory = source.Category
		i.enrich(ctx, &a, result)
	}

	result.Duration = time.Since(start)
	i.logger.Info().
		Int64("source_id", sourceID).
		Int("found", result.Found).
		Int("inserted", result.Inserted).
		Int("analyzed", result.Analyzed).
		Int("indexed", result.Indexed).
		Int("failures", result.Failures).
		Dur("duration", result.Duration).
		Msg("Feed import completed")
	return result, nil
}

func (i *Importer) enrich(ctx context.Context, a *models.Article, result *ImportResult) {
	log := i.logger.With().Int64("article_id", a.ID).Logger()

	if i.analyzer != nil {
		analysis, err := i.analyzer.Analyze(ctx, *a)
		if err == nil {
			err = i.store.UpdateArticleScore(ctx, a.ID, analysis.Importance)
		}
		if err != nil {
			result.Failures++
			metrics.ImportArticles.WithLabelValues("analyze_failed").Inc()
			log.Warn().Err(err).Msg("Failed to analyze article")
		} else {
			a.Score = analysis.Importance
			result.Analyzed++
		}
	}

	if i.indexer != nil {
		if err := i.indexer.IndexArticle(ctx, *a); err != nil {
			result.Failures++
			metrics.ImportArticles.WithLabelValues("index_failed").Inc()
			log.Warn().Err(err).Msg("Failed to index article vectors")
		} else {
			result.Indexed++
		}
	}
}

// SeedSources registers the given sources, skipping urls already present.
// It returns the number of sources processed.
func (i *Importer) SeedSources(ctx context.Context, sources []config.FeedSource) (int, error) {
	n := 0
	for _, s := range sources {
		if s.Name == "" || s.URL == "" {
			i.logger.Warn().Str("name", s.Name).Str("url", s.URL).Msg("Skipping incomplete seed source")
			continue
		}
		category := s.Category
		if category == "" {
			category = models.DefaultCategory
		}
		if _, err := i.store.UpsertSource(ctx, s.Name, s.URL, category); err != nil {
			return n, fmt.Errorf("seed source %s: %w", s.Name, err)
		}
		n++
	}
	i.logger.Info().Int("sources", n).Msg("Seeded feed sources")
	return n, nil
}
