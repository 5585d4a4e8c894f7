// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for inconsistent or missing values.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateLogging,
		c.validateAPI,
		c.validateRecall,
		c.validateRanking,
		c.validateCache,
		c.validateEmbedding,
		c.validateLLM,
		c.validateEvents,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "", "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "duckdb", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be duckdb or sqlite, got %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0, got %d", c.Database.Threads)
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be positive, got %v", c.Database.QueryTimeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be positive, got %d", c.API.DefaultPageSize)
	}
	return nil
}

func (c *Config) validateRecall() error {
	channels := map[string]ChannelConfig{
		"vector":        c.Recall.Vector,
		"tag":           c.Recall.Tag,
		"collaborative": c.Recall.Collaborative,
		"trending":      c.Recall.Trending,
	}
	for name, ch := range channels {
		if ch.Weight < 0 {
			return fmt.Errorf("recall.%s.weight must be >= 0, got %v", name, ch.Weight)
		}
		if ch.Enabled && ch.CandidateSize < 1 {
			return fmt.Errorf("recall.%s.candidate_size must be positive, got %d", name, ch.CandidateSize)
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
	return nil
}

func (c *Config) validateRanking() error {
	r := c.Ranking
	for name, w := range map[string]float64{
		"relevance_weight": r.RelevanceWeight,
		"interest_weight":  r.InterestWeight,
		"diversity_weight": r.DiversityWeight,
		"freshness_weight": r.FreshnessWeight,
	} {
		if w < 0 {
			return fmt.Errorf("ranking.%s must be >= 0, got %v", name, w)
		}
	}
	if sum := r.RelevanceWeight + r.InterestWeight + r.DiversityWeight + r.FreshnessWeight; sum > 1.0001 {
		return fmt.Errorf("ranking weights must sum to at most 1, got %.4f", sum)
	}
	if r.TagScoreDivisor <= 0 || r.InterestDivisor <= 0 {
		return fmt.Errorf("ranking divisors must be positive")
	}
	if r.MaxPerSource < 1 || r.MaxPerCategory < 1 {
		return fmt.Errorf("ranking.max_per_source and ranking.max_per_category must be positive")
	}
	if r.FillRatio < 0 || r.FillRatio > 1 {
		return fmt.Errorf("ranking.fill_ratio must be within [0,1], got %v", r.FillRatio)
	}
	if r.DiversityPenalty < 0 || r.DiversityPenalty > 1 {
		return fmt.Errorf("ranking.diversity_penalty must be within [0,1], got %v", r.DiversityPenalty)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %v", c.Cache.TTL)
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.EvictionQueue < 1 {
		return fmt.Errorf("cache.eviction_queue must be positive, got %d", c.Cache.EvictionQueue)
	}
	switch c.Cache.Backend {
	case "sql", "memory":
	case "badger":
		if c.Cache.BadgerPath == "" {
			return fmt.Errorf("CACHE_BADGER_PATH is required when CACHE_BACKEND=badger")
		}
	case "redis":
		if err := validateRedisURL(c.Cache.RedisURL); err != nil {
			return fmt.Errorf("REDIS_URL is invalid: %w", err)
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be sql, memory, badger or redis, got %q", c.Cache.Backend)
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	switch c.Embedding.Provider {
	case "none":
		return nil
	case "openai", "cohere":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("EMBEDDING_API_KEY is required when EMBEDDING_PROVIDER=%s", c.Embedding.Provider)
		}
		if c.Embedding.BaseURL != "" {
			if err := validateHTTPURL(c.Embedding.BaseURL, "EMBEDDING_BASE_URL"); err != nil {
				return err
			}
		}
		return validateBreaker("embedding", c.Embedding.Breaker)
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be none, openai or cohere, got %q", c.Embedding.Provider)
	}
}

func (c *Config) validateLLM() error {
	if c.LLM.InterestStep <= 0 {
		return fmt.Errorf("LLM_INTEREST_STEP must be positive, got %v", c.LLM.InterestStep)
	}
	switch c.LLM.Provider {
	case "none":
		return nil
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		if c.LLM.RequestsPerSecond <= 0 {
			return fmt.Errorf("LLM_REQUESTS_PER_SECOND must be positive, got %v", c.LLM.RequestsPerSecond)
		}
		if c.LLM.BaseURL != "" {
			if err := validateHTTPURL(c.LLM.BaseURL, "LLM_BASE_URL"); err != nil {
				return err
			}
		}
		return validateBreaker("llm", c.LLM.Breaker)
	default:
		return fmt.Errorf("LLM_PROVIDER must be none or openai, got %q", c.LLM.Provider)
	}
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "gochannel":
		return nil
	case "nats":
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("EVENTS_BACKEND must be gochannel or nats, got %q", c.Events.Backend)
	}
}

func validateBreaker(name string, b BreakerConfig) error {
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		return fmt.Errorf("%s.breaker.failure_ratio must be within (0,1], got %v", name, b.FailureRatio)
	}
	if b.OpenTimeout <= 0 {
		return fmt.Errorf("%s.breaker.open_timeout must be positive, got %v", name, b.OpenTimeout)
	}
	return nil
}
