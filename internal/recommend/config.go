// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package recommend

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/newsrank/internal/config"
)

// Config is the engine's settings. The engine keeps its own copy, so
// changing a Config after NewEngine has no effect on it.
type Config struct {
	Recall  RecallConfig  `json:"recall"`
	Ranking RankingConfig `json:"ranking"`
	Cache   CacheConfig   `json:"cache"`

	// DefaultPageSize replaces a zero Request.PageSize.
	DefaultPageSize int `json:"default_page_size"`
}

// ChannelConfig configures one recall channel.
type ChannelConfig struct {
	Enabled       bool    `json:"enabled"`
	Weight        float64 `json:"weight"`
	CandidateSize int     `json:"candidate_size"`
}

// RecallConfig configures the four channels and their query parameters.
type RecallConfig struct {
	Vector        ChannelConfig `json:"vector_recall"`
	Tag           ChannelConfig `json:"tag_recall"`
	Collaborative ChannelConfig `json:"collaborative_recall"`
	Trending      ChannelConfig `json:"trending_recall"`

	TopInterests   int           `json:"top_interests"`
	SimilarUsers   int           `json:"similar_users"`
	MinCommonLikes int           `json:"min_common_likes"`
	TrendingWindow time.Duration `json:"trending_window"`
	ChannelTimeout time.Duration `json:"channel_timeout"`
}

// RankingConfig holds the factor weights and diversification limits.
type RankingConfig struct {
	Relevance float64 `json:"relevance"`
	Interest  float64 `json:"interest"`
	Diversity float64 `json:"diversity"`
	Freshness float64 `json:"freshness"`

	// TagScoreDivisor scales the unbounded tag score into relevance.
	TagScoreDivisor float64 `json:"tag_score_divisor"`
	// InterestDivisor scales matched interest weight plus source preference.
	InterestDivisor float64 `json:"interest_divisor"`

	DiversifyAbove   int     `json:"diversify_above"`
	MaxPerSource     int     `json:"max_per_source"`
	MaxPerCategory   int     `json:"max_per_category"`
	FillRatio        float64 `json:"fill_ratio"`
	DiversityPenalty float64 `json:"diversity_penalty"`
}

// CacheConfig mirrors the cache settings the engine reports in stats.
type CacheConfig struct {
	Backend      string        `json:"backend"`
	TTL          time.Duration `json:"ttl"`
	MaxEntries   int           `json:"max_cache_size"`
	SingleFlight bool          `json:"single_flight"`
}

// DefaultConfig returns the stock channel sizes and weights.
func DefaultConfig() Config {
	return Config{
		Recall: RecallConfig{
			Vector:         ChannelConfig{Enabled: true, Weight: 0.4, CandidateSize: 200},
			Tag:            ChannelConfig{Enabled: true, Weight: 0.3, CandidateSize: 150},
			Collaborative:  ChannelConfig{Enabled: true, Weight: 0.2, CandidateSize: 100},
			Trending:       ChannelConfig{Enabled: true, Weight: 0.1, CandidateSize: 50},
			TopInterests:   10,
			SimilarUsers:   10,
			MinCommonLikes: 2,
			TrendingWindow: 7 * 24 * time.Hour,
			ChannelTimeout: 5 * time.Second,
		},
		Ranking: RankingConfig{
			Relevance:        0.4,
			Interest:         0.3,
			Diversity:        0.2,
			Freshness:        0.1,
			TagScoreDivisor:  10,
			InterestDivisor:  5,
			DiversifyAbove:   10,
			MaxPerSource:     3,
			MaxPerCategory:   5,
			FillRatio:        0.8,
			DiversityPenalty: 0.8,
		},
		Cache: CacheConfig{
			Backend:      "sql",
			TTL:          30 * time.Minute,
			MaxEntries:   1000,
			SingleFlight: true,
		},
		DefaultPageSize: 20,
	}
}

// FromAppConfig derives the engine config from the application config.
func FromAppConfig(cfg *config.Config) Config {
	channel := func(c config.ChannelConfig) ChannelConfig {
		return ChannelConfig{Enabled: c.Enabled, Weight: c.Weight, CandidateSize: c.CandidateSize}
	}
	r, k := cfg.Recall, cfg.Ranking
	return Config{
		Recall: RecallConfig{
			Vector:         channel(r.Vector),
			Tag:            channel(r.Tag),
			Collaborative:  channel(r.Collaborative),
			Trending:       channel(r.Trending),
			TopInterests:   r.TopInterests,
			SimilarUsers:   r.SimilarUsers,
			MinCommonLikes: r.MinCommonLikes,
			TrendingWindow: r.TrendingWindow,
			ChannelTimeout: r.ChannelTimeout,
		},
		Ranking: RankingConfig{
			Relevance:        k.RelevanceWeight,
			Interest:         k.InterestWeight,
			Diversity:        k.DiversityWeight,
			Freshness:        k.FreshnessWeight,
			TagScoreDivisor:  k.TagScoreDivisor,
			InterestDivisor:  k.InterestDivisor,
			DiversifyAbove:   k.DiversifyAbove,
			MaxPerSource:     k.MaxPerSource,
			MaxPerCategory:   k.MaxPerCategory,
			FillRatio:        k.FillRatio,
			DiversityPenalty: k.DiversityPenalty,
		},
		Cache: CacheConfig{
			Backend:      cfg.Cache.Backend,
			TTL:          cfg.Cache.TTL,
			MaxEntries:   cfg.Cache.MaxEntries,
			SingleFlight: cfg.Cache.SingleFlight,
		},
		DefaultPageSize: cfg.API.DefaultPageSize,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	channels := []struct {
		name string
		ch   ChannelConfig
	}{
		{"vector", c.Recall.Vector},
		{"tag", c.Recall.Tag},
		{"collaborative", c.Recall.Collaborative},
		{"trending", c.Recall.Trending},
	}
	for _, ch := range channels {
		if ch.ch.Weight < 0 || math.IsNaN(ch.ch.Weight) {
			return fmt.Errorf("recall.%s.weight must be non-negative, got %f", ch.name, ch.ch.Weight)
		}
		if ch.ch.Enabled && ch.ch.CandidateSize < 1 {
			return fmt.Errorf("recall.%s.candidate_size must be positive, got %d", ch.name, ch.ch.CandidateSize)
		}
	}
	if c.Recall.TopInterests < 1 {
		return fmt.Errorf("recall.top_interests must be positive, got %d", c.Recall.TopInterests)
	}
	if c.Recall.SimilarUsers < 1 {
		return fmt.Errorf("recall.similar_users must be positive, got %d", c.Recall.SimilarUsers)
	}
	if c.Recall.MinCommonLikes < 1 {
		return fmt.Errorf("recall.min_common_likes must be positive, got %d", c.Recall.MinCommonLikes)
	}
	if c.Recall.TrendingWindow <= 0 {
		return fmt.Errorf("recall.trending_window must be positive, got %v", c.Recall.TrendingWindow)
	}
	if c.Recall.ChannelTimeout < 0 {
		return fmt.Errorf("recall.channel_timeout must be non-negative, got %v", c.Recall.ChannelTimeout)
	}

	weights := []struct {
		name string
		w    float64
	}{
		{"relevance", c.Ranking.Relevance},
		{"interest", c.Ranking.Interest},
		{"diversity", c.Ranking.Diversity},
		{"freshness", c.Ranking.Freshness},
	}
	for _, w := range weights {
		if w.w < 0 || math.IsNaN(w.w) {
			return fmt.Errorf("ranking.%s must be non-negative, got %f", w.name, w.w)
		}
	}
	if c.Ranking.TagScoreDivisor <= 0 {
		return fmt.Errorf("ranking.tag_score_divisor must be positive, got %f", c.Ranking.TagScoreDivisor)
	}
	if c.Ranking.InterestDivisor <= 0 {
		return fmt.Errorf("ranking.interest_divisor must be positive, got %f", c.Ranking.InterestDivisor)
	}
	if c.Ranking.DiversifyAbove < 0 {
		return fmt.Errorf("ranking.diversify_above must be non-negative, got %d", c.Ranking.DiversifyAbove)
	}
	if c.Ranking.MaxPerSource < 1 || c.Ranking.MaxPerCategory < 1 {
		return fmt.Errorf("ranking.max_per_source and max_per_category must be positive, got %d and %d",
			c.Ranking.MaxPerSource, c.Ranking.MaxPerCategory)
	}
	if c.Ranking.FillRatio < 0 || c.Ranking.FillRatio > 1 {
		return fmt.Errorf("ranking.fill_ratio must be in [0, 1], got %f", c.Ranking.FillRatio)
	}
	if c.Ranking.DiversityPenalty < 0 || c.Ranking.DiversityPenalty > 1 {
		return fmt.Errorf("ranking.diversity_penalty must be in [0, 1], got %f", c.Ranking.DiversityPenalty)
	}

	if c.DefaultPageSize < 1 {
		return fmt.Errorf("default_page_size must be positive, got %d", c.DefaultPageSize)
	}
	return nil
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	// All nested structs hold only value types.
	clone := *c
	return &clone
}

// MarshalJSON implements custom JSON marshaling for duration fields.
func (r RecallConfig) MarshalJSON() ([]byte, error) {
	type Alias RecallConfig
	return json.Marshal(&struct {
		Alias
		TrendingWindow string `json:"trending_window"`
		ChannelTimeout string `json:"channel_timeout"`
	}{
		Alias:          Alias(r),
		TrendingWindow: r.TrendingWindow.String(),
		ChannelTimeout: r.ChannelTimeout.String(),
	})
}

// MarshalJSON implements custom JSON marshaling for duration fields.
func (c CacheConfig) MarshalJSON() ([]byte, error) {
	type Alias CacheConfig
	return json.Marshal(&struct {
		Alias
		TTL string `json:"ttl"`
	}{
		Alias: Alias(c),
		TTL:   c.TTL.String(),
	})
}
