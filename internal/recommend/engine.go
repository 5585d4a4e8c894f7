// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/newsrank/internal/cache"
	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/metrics"
)

// DefaultUserID is used when a request carries no user id.
const DefaultUserID = "default"

// MaxUserIDLength bounds user ids accepted by Recommend.
const MaxUserIDLength = 128

// ErrInvalidUser is returned for user ids that are too long or contain
// control characters.
var ErrInvalidUser = errors.New("invalid user id")

// Engine runs the recall, ranking, cache and pagination pipeline.
//
// Engine is safe for concurrent use. Its configuration is fixed at
// construction.
type Engine struct {
	cfg     Config
	store   Store
	vectors VectorRecaller
	cache   *cache.Cache
	flight  *singleflight.Group
	now     func() time.Time
	logger  zerolog.Logger
}

// NewEngine creates an engine. vectors may be nil to disable vector recall
// and c may be nil to run without a cache.
func NewEngine(cfg Config, store Store, vectors VectorRecaller, c *cache.Cache) (*Engine, error) {
	if store == nil {
		return nil, errors.New("recommend: store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}

	e := &Engine{
		cfg:     *cfg.Clone(),
		store:   store,
		vectors: vectors,
		cache:   c,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logging.WithComponent("recommend"),
	}
	if cfg.Cache.SingleFlight {
		e.flight = &singleflight.Group{}
	}
	return e, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	return *e.cfg.Clone()
}

// Recommend returns one page of ranked candidates for req.UserID. A cached
// ranked list is served unless req.ForceRefresh is set; otherwise the list
// is recalled, ranked and written back to the cache before paginating.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	userID, err := NormalizeUserID(req.UserID)
	if err != nil {
		return nil, err
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = e.cfg.DefaultPageSize
	}

	opts := cache.Options{
		Page:          req.Page,
		PageSize:      req.PageSize,
		ForceRefresh:  req.ForceRefresh,
		EnableExplain: req.EnableExplain,
	}
	key := cache.Key(userID, opts)
	log := e.logger.With().
		Str("user_id", userID).
		Str("request_id", logging.RequestIDFromContext(ctx)).
		Logger()

	if ranked, ok := e.cached(ctx, req, key); ok {
		metrics.RecommendationsTotal.WithLabelValues("hit").Inc()
		log.Debug().Int("page", req.Page).Msg("Serving cached recommendations")
		return e.respond(ctx, ranked, req, true), nil
	}

	ranked, err := e.compute(ctx, userID, key, opts)
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("Recommendation pipeline failed")
		return nil, err
	}

	outcome := "miss"
	if req.ForceRefresh {
		outcome = "bypass"
	}
	metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()
	return e.respond(ctx, ranked, req, false), nil
}

func (e *Engine) cached(ctx context.Context, req Request, key string) ([]Candidate, bool) {
	if e.cache == nil || req.ForceRefresh {
		return nil, false
	}
	start := time.Now()
	var ranked []Candidate
	ok := e.cache.Get(ctx, key, &ranked)
	metrics.RecordStage("cache_get", time.Since(start))
	return ranked, ok
}

// compute generates the ranked list, sharing one computation between
// concurrent callers with the same key when single flight is enabled.
//
// The shared computation runs under the context of the caller that started
// it. When that context is canceled, callers that joined with a live context
// recompute on their own context instead of inheriting the cancellation.
func (e *Engine) compute(ctx context.Context, userID, key string, opts cache.Options) ([]Candidate, error) {
	if e.flight == nil {
		return e.generate(ctx, userID, key, opts)
	}
	v, err, shared := e.flight.Do(key, func() (any, error) {
		return e.generate(ctx, userID, key, opts)
	})
	if err != nil && shared && ctx.Err() == nil && isContextErr(err) {
		e.logger.Debug().Str("cache_key", key).Err(err).
			Msg("Shared recommendation computation was canceled, recomputing")
		return e.generate(ctx, userID, key, opts)
	}
	if err != nil {
		return nil, err
	}
	if shared {
		e.logger.Debug().Str("cache_key", key).Msg("Shared in-flight recommendation computation")
	}
	return v.([]Candidate), nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (e *Engine) generate(ctx context.Context, userID, key string, opts cache.Options) ([]Candidate, error) {
	start := time.Now()
	candidates := e.recall(ctx, userID)
	metrics.RecordStage("recall", time.Since(start))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("recall for user %s: %w", userID, err)
	}

	start = time.Now()
	ranked := e.rank(ctx, userID, candidates, opts.EnableExplain)
	metrics.RecordStage("rank", time.Since(start))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rank for user %s: %w", userID, err)
	}

	e.logger.Debug().
		Str("user_id", userID).
		Int("candidates", len(candidates)).
		Int("ranked", len(ranked)).
		Dur("duration", time.Since(start)).
		Msg("Generated recommendations")

	if e.cache != nil {
		start = time.Now()
		e.cache.Put(ctx, key, userID, ranked, opts)
		metrics.RecordStage("cache_put", time.Since(start))
	}
	return ranked, nil
}

func (e *Engine) respond(ctx context.Context, ranked []Candidate, req Request, cacheUsed bool) *Response {
	page, p := Paginate(ranked, req.Page, req.PageSize)
	return &Response{
		Data:       page,
		Pagination: p,
		Metadata: Metadata{
			CacheUsed:        cacheUsed,
			GeneratedAt:      e.now().Format(time.RFC3339),
			AlgorithmVersion: AlgorithmVersion,
			TotalCandidates:  len(ranked),
			RequestID:        logging.RequestIDFromContext(ctx),
		},
	}
}

// NormalizeUserID trims id and maps an empty id to DefaultUserID.
func NormalizeUserID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultUserID, nil
	}
	if len(id) > MaxUserIDLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidUser, MaxUserIDLength)
	}
	if strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: contains control characters", ErrInvalidUser)
	}
	return id, nil
}

// Stats is the body of GET /api/recommendations/stats.
type Stats struct {
	CacheSize     int64         `json:"cache_size"`
	CacheHitRate  string        `json:"cache_hit_rate"`
	RecallConfig  RecallConfig  `json:"recall_config"`
	RankingConfig RankingConfig `json:"ranking_config"`
	CacheConfig   CacheConfig   `json:"cache_config"`
	CacheDetails  cache.Stats   `json:"cache_details"`
}

// Stats reports cache usage and the active configuration.
func (e *Engine) Stats(ctx context.Context) Stats {
	details := cache.Stats{HitRate: "0%"}
	if e.cache != nil {
		details = e.cache.Stats(ctx)
	}
	return Stats{
		CacheSize:     details.TotalEntries,
		CacheHitRate:  details.HitRate,
		RecallConfig:  e.cfg.Recall,
		RankingConfig: e.cfg.Ranking,
		CacheConfig:   e.cfg.Cache,
		CacheDetails:  details,
	}
}
