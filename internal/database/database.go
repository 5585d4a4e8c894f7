// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/logging"
)

// DB wraps the SQL connection and provides data access methods
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	dialect dialect

	// striped by cache_key; serializes hit-count updates and upserts of
	// one key within the process so DuckDB sees fewer write conflicts
	keyLocks [cacheLockStripes]sync.Mutex
}

// New opens the configured driver and creates the schema idempotently.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is nil")
	}

	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	// Ensure parent directory exists for database file
	if !isMemoryPath(cfg.Path) {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open(d.driverName(), d.dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg, dialect: d}
	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("driver", d.driverName()).
		Str("path", cfg.Path).
		Msg("Database initialized")

	return db, nil
}

// initialize creates tables then indexes.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}
	return db.createIndexes()
}

// configureConnectionPool sets connection pool parameters.
// An in-memory SQLite database lives on a single connection, and SQLite
// serializes writers anyway, so SQLite is pinned to one connection.
func (db *DB) configureConnectionPool() {
	if db.dialect.singleConnection() {
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
		return
	}
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.dialect.driverName()
}

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return ErrDatabaseClosed
	}
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

// queryContext bounds ctx with the configured query timeout.
func (db *DB) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.cfg.QueryTimeout)
}

// now returns the current time in UTC at microsecond precision, the
// resolution both engines store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func isMemoryPath(path string) bool {
	return path == "" || path == ":memory:"
}

// scanTime accepts a driver time.Time or the text form SQLite returns when
// a column's declared type is lost (RETURNING, subqueries).
type scanTime struct {
	Time time.Time
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (s *scanTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		s.Time = time.Time{}
		return nil
	case time.Time:
		s.Time = v.UTC()
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

func (s *scanTime) parse(v string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			s.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized time format %q", v)
}
