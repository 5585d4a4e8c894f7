// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/newsrank/config.yaml",
	"/etc/newsrank/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Driver:       "duckdb",
			Path:         "/data/newsrank.duckdb",
			MaxMemory:    "1GB",
			Threads:      0,
			QueryTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		API: APIConfig{
			DefaultPageSize: 20,
			RequestTimeout:  15 * time.Second,
		},
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
			RelevanceWeight:  0.4,
			InterestWeight:   0.3,
			DiversityWeight:  0.2,
			FreshnessWeight:  0.1,
			TagScoreDivisor:  10,
			InterestDivisor:  5,
			DiversifyAbove:   10,
			MaxPerSource:     3,
			MaxPerCategory:   5,
			FillRatio:        0.8,
			DiversityPenalty: 0.8,
		},
		Cache: CacheConfig{
			Backend:          "sql",
			TTL:              30 * time.Minute,
			MaxEntries:       1000,
			EvictionQueue:    16,
			EvictionInterval: 5 * time.Minute,
			SingleFlight:     true,
			BadgerPath:       "/data/reccache",
			RedisKeyPrefix:   "newsrank:",
		},
		Embedding: EmbeddingConfig{
			Provider: "none",
			Timeout:  30 * time.Second,
			Breaker:  defaultBreaker(),
		},
		LLM: LLMConfig{
			Provider:          "none",
			Model:             "gpt-3.5-turbo",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
			InterestStep:      0.1,
			Breaker:           defaultBreaker(),
		},
		Events: EventsConfig{
			Backend:      "gochannel",
			NATSURL:      "nats://127.0.0.1:4222",
			QueueGroup:   "newsrank",
			RetryCount:   3,
			RetryBackoff: 100 * time.Millisecond,
			CloseTimeout: 10 * time.Second,
		},
		Feeds: FeedsConfig{
			SeedDefaults:      true,
			DefaultSources:    defaultSources(),
			MaxItemsPerImport: 500,
			MaxDocumentBytes:  10 << 20,
		},
	}
}

func defaultBreaker() BreakerConfig {
	return BreakerConfig{
		MinRequests:  10,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		OpenTimeout:  2 * time.Minute,
	}
}

func defaultSources() []FeedSource {
	return []FeedSource{
		{Name: "GitHub Blog", URL: "https://github.blog/feed/", Category: "tech"},
		{Name: "Stack Overflow Blog", URL: "https://stackoverflow.blog/feed/", Category: "tech"},
		{Name: "Hacker News", URL: "https://news.ycombinator.com/rss", Category: "tech"},
		{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", Category: "tech"},
		{Name: "BBC News", URL: "http://feeds.bbci.co.uk/news/rss.xml", Category: "general"},
		{Name: "Associated Press", URL: "https://apnews.com/index.rss", Category: "general"},
		{Name: "TechCrunch Startups", URL: "https://techcrunch.com/category/startups/feed/", Category: "business"},
		{Name: "Smashing Magazine", URL: "https://www.smashingmagazine.com/feed/", Category: "design"},
	}
}

// LoadWithKoanf loads configuration with ENV > file > defaults precedence and
// validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as env strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unlisted variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"db_driver":         "database.driver",
	"db_path":           "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"db_query_timeout":  "database.query_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"api_default_page_size": "api.default_page_size",
	"api_request_timeout":   "api.request_timeout",

	"recall_vector_enabled":        "recall.vector.enabled",
	"recall_vector_size":           "recall.vector.candidate_size",
	"recall_tag_enabled":           "recall.tag.enabled",
	"recall_tag_size":              "recall.tag.candidate_size",
	"recall_collaborative_enabled": "recall.collaborative.enabled",
	"recall_collaborative_size":    "recall.collaborative.candidate_size",
	"recall_trending_enabled":      "recall.trending.enabled",
	"recall_trending_size":         "recall.trending.candidate_size",
	"recall_trending_window":       "recall.trending_window",
	"recall_channel_timeout":       "recall.channel_timeout",

	"ranking_tag_score_divisor": "ranking.tag_score_divisor",
	"ranking_interest_divisor":  "ranking.interest_divisor",

	"cache_backend":           "cache.backend",
	"cache_ttl":               "cache.ttl",
	"cache_max_entries":       "cache.max_entries",
	"cache_eviction_interval": "cache.eviction_interval",
	"cache_single_flight":     "cache.single_flight",
	"cache_badger_path":       "cache.badger_path",
	"redis_url":               "cache.redis_url",

	"embedding_provider": "embedding.provider",
	"embedding_model":    "embedding.model",
	"embedding_base_url": "embedding.base_url",
	"embedding_api_key":  "embedding.api_key",
	"cohere_api_key":     "embedding.api_key",

	"llm_provider":            "llm.provider",
	"llm_model":               "llm.model",
	"llm_base_url":            "llm.base_url",
	"openai_api_key":          "llm.api_key",
	"llm_requests_per_second": "llm.requests_per_second",
	"llm_interest_step":       "llm.interest_step",
	"llm_analyze_on_import":   "llm.analyze_on_import",

	"events_backend": "events.backend",
	"nats_url":       "events.nats_url",

	"feeds_seed_defaults": "feeds.seed_defaults",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
