// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/newsrank/internal/models"
)

// ErrSourceExists is returned by CreateSource when the url is already registered.
var ErrSourceExists = errors.New("source with this url already exists")

const sourceColumns = `id, name, url, COALESCE(category, ''), active, created_at`

// CreateSource registers a feed. An empty category becomes "general".
func (db *DB) CreateSource(ctx context.Context, src *models.Source) error {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	if strings.TrimSpace(src.Category) == "" {
		src.Category = models.DefaultCategory
	}
	src.Active = true
	src.CreatedAt = now()

	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO rss_sources (name, url, category, active, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		src.Name, src.URL, src.Category, src.Active, src.CreatedAt,
	).Scan(&src.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrSourceExists
		}
		return fmt.Errorf("failed to create source: %w", err)
	}
	return nil
}

// UpsertSource inserts the source unless its url exists and returns the row id
// either way. Used for seeding the default feed list.
func (db *DB) UpsertSource(ctx context.Context, name, url, category string) (int64, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	if strings.TrimSpace(category) == "" {
		category = models.DefaultCategory
	}

	if _, err := db.conn.ExecContext(ctx, `
		INSERT INTO rss_sources (name, url, category, active, created_at)
		VALUES (?, ?, ?, TRUE, ?)
		ON CONFLICT (url) DO NOTHING`,
		name, url, category, now(),
	); err != nil {
		return 0, fmt.Errorf("failed to upsert source %s: %w", url, err)
	}

	var id int64
	if err := db.conn.QueryRowContext(ctx, `SELECT id FROM rss_sources WHERE url = ?`, url).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read source id for %s: %w", url, err)
	}
	return id, nil
}

// GetSource returns ErrNotFound for an unknown id.
func (db *DB) GetSource(ctx context.Context, id int64) (*models.Source, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM rss_sources WHERE id = ?`, id)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source %d: %w", id, err)
	}
	return src, nil
}

// ListActiveSources returns active feeds ordered by name.
func (db *DB) ListActiveSources(ctx context.Context) ([]models.Source, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT `+sourceColumns+`
		FROM rss_sources WHERE active = TRUE ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer closeRows(rows, "sources")

	sources := []models.Source{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*models.Source, error) {
	var src models.Source
	if err := row.Scan(&src.ID, &src.Name, &src.URL, &src.Category, &src.Active, &src.CreatedAt); err != nil {
		return nil, err
	}
	return &src, nil
}
