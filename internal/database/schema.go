// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
schema.go - Per-Driver DDL

Tables:
  - rss_sources: registered feeds, unique by url
  - articles: feed items, unique by url
  - user_preferences: append-only like/dislike log
  - user_interests: keyword weights, unique per (user_id, keyword)
  - article_embeddings: title and content vectors stored as JSON arrays
  - user_preference_vectors: the latest interest embedding per user
  - recommendation_cache: ranked result sets keyed by cache_key

DuckDB has no AUTOINCREMENT, so ids come from sequences. Everything after
CREATE TABLE is shared.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/tomtom215/newsrank/internal/config"
)

// Supported drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

// dialect captures everything that differs between the two engines.
type dialect interface {
	driverName() string
	dsn(cfg *config.DatabaseConfig) string
	singleConnection() bool
	tableQueries() []string
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "", DriverDuckDB:
		return duckdbDialect{}, nil
	case DriverSQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type duckdbDialect struct{}

func (duckdbDialect) driverName() string { return DriverDuckDB }

func (duckdbDialect) singleConnection() bool { return false }

// Disable auto-install/auto-load to prevent hangs in restricted network environments
func (duckdbDialect) dsn(cfg *config.DatabaseConfig) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}
	path := cfg.Path
	if isMemoryPath(path) {
		path = ""
	}
	return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, threads, maxMemory)
}

func (duckdbDialect) tableQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS rss_sources_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS articles_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS user_preferences_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS recommendation_cache_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS rss_sources (
			id BIGINT PRIMARY KEY DEFAULT nextval('rss_sources_id_seq'),
			name TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			category TEXT,
			active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id BIGINT PRIMARY KEY DEFAULT nextval('articles_id_seq'),
			source_id BIGINT,
			title TEXT NOT NULL,
			description TEXT,
			content TEXT,
			url TEXT NOT NULL UNIQUE,
			pub_date TIMESTAMP,
			author TEXT,
			categories TEXT,
			score DOUBLE DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_preferences (
			id BIGINT PRIMARY KEY DEFAULT nextval('user_preferences_id_seq'),
			user_id TEXT NOT NULL DEFAULT 'default',
			article_id BIGINT NOT NULL,
			action TEXT NOT NULL CHECK (action IN ('like', 'dislike')),
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_interests (
			user_id TEXT NOT NULL DEFAULT 'default',
			keyword TEXT NOT NULL,
			weight DOUBLE DEFAULT 1.0,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, keyword)
		)`,
		`CREATE TABLE IF NOT EXISTS article_embeddings (
			article_id BIGINT PRIMARY KEY,
			title_embedding TEXT NOT NULL,
			content_embedding TEXT NOT NULL,
			model TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_preference_vectors (
			user_id TEXT PRIMARY KEY,
			preference_embedding TEXT NOT NULL,
			keywords TEXT,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS recommendation_cache (
			id BIGINT PRIMARY KEY DEFAULT nextval('recommendation_cache_id_seq'),
			cache_key TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			data TEXT NOT NULL,
			options TEXT,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			hit_count BIGINT DEFAULT 0
		)`,
	}
}

type sqliteDialect struct{}

func (sqliteDialect) driverName() string { return DriverSQLite }

func (sqliteDialect) singleConnection() bool { return true }

func (sqliteDialect) dsn(cfg *config.DatabaseConfig) string {
	path := cfg.Path
	if isMemoryPath(path) {
		path = ":memory:"
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(0)&_time_format=sqlite"
}

func (sqliteDialect) tableQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS rss_sources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			category TEXT,
			active BOOLEAN DEFAULT 1,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_id INTEGER,
			title TEXT NOT NULL,
			description TEXT,
			content TEXT,
			url TEXT NOT NULL UNIQUE,
			pub_date DATETIME,
			author TEXT,
			categories TEXT,
			score REAL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_preferences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL DEFAULT 'default',
			article_id INTEGER NOT NULL,
			action TEXT NOT NULL CHECK (action IN ('like', 'dislike')),
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_interests (
			user_id TEXT NOT NULL DEFAULT 'default',
			keyword TEXT NOT NULL,
			weight REAL DEFAULT 1.0,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, keyword)
		)`,
		`CREATE TABLE IF NOT EXISTS article_embeddings (
			article_id INTEGER PRIMARY KEY,
			title_embedding TEXT NOT NULL,
			content_embedding TEXT NOT NULL,
			model TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_preference_vectors (
			user_id TEXT PRIMARY KEY,
			preference_embedding TEXT NOT NULL,
			keywords TEXT,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS recommendation_cache (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cache_key TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			data TEXT NOT NULL,
			options TEXT,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			hit_count INTEGER DEFAULT 0
		)`,
	}
}

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the tables for the configured driver
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.dialect.tableQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// createIndexes creates query indexes unless cfg.SkipIndexes is set.
func (db *DB) createIndexes() error {
	if db.cfg.SkipIndexes {
		return nil
	}

	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}

func indexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_prefs_user ON user_preferences(user_id, article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_prefs_article ON user_preferences(article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_key ON recommendation_cache(cache_key)`,
		`CREATE INDEX IF NOT EXISTS idx_user_expires ON recommendation_cache(user_id, expires_at)`,
	}
}
