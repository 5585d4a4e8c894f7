// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package config loads application configuration.
//
// Sources are layered with Koanf v2, lowest priority first:
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables (see envMappings)
//
// A Config is immutable after Load returns and is safe for concurrent reads.
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Security  SecurityConfig  `koanf:"security"`
	API       APIConfig       `koanf:"api"`
	Recall    RecallConfig    `koanf:"recall"`
	Ranking   RankingConfig   `koanf:"ranking"`
	Cache     CacheConfig     `koanf:"cache"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	LLM       LLMConfig       `koanf:"llm"`
	Events    EventsConfig    `koanf:"events"`
	Feeds     FeedsConfig     `koanf:"feeds"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// DatabaseConfig selects and tunes the relational store.
type DatabaseConfig struct {
	// Driver is "duckdb" (default) or "sqlite".
	Driver       string        `koanf:"driver"`
	Path         string        `koanf:"path"`
	MaxMemory    string        `koanf:"max_memory"` // DuckDB only
	Threads      int           `koanf:"threads"`    // DuckDB only, 0 = NumCPU
	QueryTimeout time.Duration `koanf:"query_timeout"`
	SkipIndexes  bool          `koanf:"skip_indexes"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds request throttling and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// APIConfig holds pagination limits for HTTP handlers.
type APIConfig struct {
	DefaultPageSize int           `koanf:"default_page_size"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
}

// ChannelConfig configures one recall channel.
type ChannelConfig struct {
	Enabled       bool    `koanf:"enabled"`
	Weight        float64 `koanf:"weight"`
	CandidateSize int     `koanf:"candidate_size"`
}

// RecallConfig configures the four recall channels.
type RecallConfig struct {
	Vector        ChannelConfig `koanf:"vector"`
	Tag           ChannelConfig `koanf:"tag"`
	Collaborative ChannelConfig `koanf:"collaborative"`
	Trending      ChannelConfig `koanf:"trending"`

	TopInterests   int           `koanf:"top_interests"`
	SimilarUsers   int           `koanf:"similar_users"`
	MinCommonLikes int           `koanf:"min_common_likes"`
	TrendingWindow time.Duration `koanf:"trending_window"`
	ChannelTimeout time.Duration `koanf:"channel_timeout"`
}

// RankingConfig holds the hybrid scoring weights and diversification limits.
type RankingConfig struct {
	RelevanceWeight float64 `koanf:"relevance_weight"`
	InterestWeight  float64 `koanf:"interest_weight"`
	DiversityWeight float64 `koanf:"diversity_weight"`
	FreshnessWeight float64 `koanf:"freshness_weight"`

	TagScoreDivisor float64 `koanf:"tag_score_divisor"`
	InterestDivisor float64 `koanf:"interest_divisor"`

	DiversifyAbove   int     `koanf:"diversify_above"`
	MaxPerSource     int     `koanf:"max_per_source"`
	MaxPerCategory   int     `koanf:"max_per_category"`
	FillRatio        float64 `koanf:"fill_ratio"`
	DiversityPenalty float64 `koanf:"diversity_penalty"`
}

// CacheConfig configures the persisted recommendation cache.
type CacheConfig struct {
	// Backend is "sql" (default, same database as articles), "memory",
	// "badger" or "redis".
	Backend          string        `koanf:"backend"`
	TTL              time.Duration `koanf:"ttl"`
	MaxEntries       int           `koanf:"max_entries"`
	EvictionQueue    int           `koanf:"eviction_queue"`
	EvictionInterval time.Duration `koanf:"eviction_interval"`
	SingleFlight     bool          `koanf:"single_flight"`
	BadgerPath       string        `koanf:"badger_path"`
	RedisURL         string        `koanf:"redis_url"`
	RedisKeyPrefix   string        `koanf:"redis_key_prefix"`
}

// BreakerConfig tunes a circuit breaker around an external API.
type BreakerConfig struct {
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
	Interval     time.Duration `koanf:"interval"`
	OpenTimeout  time.Duration `koanf:"open_timeout"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is "none", "openai" or "cohere".
	Provider string        `koanf:"provider"`
	APIKey   string        `koanf:"api_key"`
	Model    string        `koanf:"model"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
	Breaker  BreakerConfig `koanf:"breaker"`
}

// LLMConfig selects the keyword extractor.
type LLMConfig struct {
	// Provider is "none" (local heuristic) or "openai".
	Provider          string        `koanf:"provider"`
	APIKey            string        `koanf:"api_key"`
	Model             string        `koanf:"model"`
	BaseURL           string        `koanf:"base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	InterestStep      float64       `koanf:"interest_step"`
	AnalyzeOnImport   bool          `koanf:"analyze_on_import"`
	Breaker           BreakerConfig `koanf:"breaker"`
}

// EventsConfig configures the feedback event bus.
type EventsConfig struct {
	// Backend is "gochannel" (in-process) or "nats".
	Backend      string        `koanf:"backend"`
	NATSURL      string        `koanf:"nats_url"`
	QueueGroup   string        `koanf:"queue_group"`
	RetryCount   int           `koanf:"retry_count"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// FeedSource is a seed entry for rss_sources.
type FeedSource struct {
	Name     string `koanf:"name"`
	URL      string `koanf:"url"`
	Category string `koanf:"category"`
}

// FeedsConfig configures feed document import.
type FeedsConfig struct {
	SeedDefaults      bool         `koanf:"seed_defaults"`
	DefaultSources    []FeedSource `koanf:"default_sources"`
	MaxItemsPerImport int          `koanf:"max_items_per_import"`
	MaxDocumentBytes  int64        `koanf:"max_document_bytes"`
}

// Load loads configuration from defaults, config file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "" || c.Server.Environment == "development"
}
