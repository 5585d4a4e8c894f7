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
	"time"

	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
)

// articleColumns selects an article joined with its source. Every query
// using it must alias articles as a and rss_sources as s.
const articleColumns = `a.id, COALESCE(a.source_id, 0), a.title, COALESCE(a.description, ''),
	COALESCE(a.content, ''), a.url, a.pub_date, COALESCE(a.author, ''),
	COALESCE(a.categories, ''), COALESCE(a.score, 0), a.created_at,
	COALESCE(s.name, ''), COALESCE(s.category, '')`

const articleFrom = ` FROM articles a LEFT JOIN rss_sources s ON a.source_id = s.id`

// excludeActed filters out articles the bound user already liked or disliked.
const excludeActed = ` a.id NOT IN (SELECT article_id FROM user_preferences WHERE user_id = ?)`

// InsertArticles inserts articles whose url is not yet stored and returns the
// newly inserted ones with their ids. Duplicates are skipped silently.
func (db *DB) InsertArticles(ctx context.Context, articles []models.Article) ([]models.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (source_id, title, description, content, url, pub_date, author, categories, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare article insert: %w", err)
	}
	defer closeQuietly(stmt)

	inserted := make([]models.Article, 0, len(articles))
	for i := range articles {
		a := articles[i]
		a.CreatedAt = now()
		var pubDate any
		if !a.PubDate.IsZero() {
			a.PubDate = a.PubDate.UTC()
			pubDate = a.PubDate
		}

		err := stmt.QueryRowContext(ctx,
			a.SourceID, a.Title, a.Description, a.Content, a.URL, pubDate,
			a.Author, a.Categories, a.Score, a.CreatedAt,
		).Scan(&a.ID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert article %s: %w", a.URL, err)
		}
		inserted = append(inserted, a)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit articles: %w", err)
	}
	return inserted, nil
}

// GetArticle returns ErrNotFound for an unknown id.
func (db *DB) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+articleColumns+articleFrom+` WHERE a.id = ?`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article %d: %w", id, err)
	}
	return a, nil
}

// GetArticlesByIDs loads the given articles, skipping any the user has acted
// on when excludeUser is non-empty. Order is unspecified.
func (db *DB) GetArticlesByIDs(ctx context.Context, ids []int64, excludeUser string) ([]models.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `SELECT ` + articleColumns + articleFrom + ` WHERE a.id IN (` + placeholders(len(ids)) + `)`
	if excludeUser != "" {
		query += ` AND` + excludeActed
		args = append(args, excludeUser)
	}

	return db.queryArticles(ctx, query, args...)
}

// UpdateArticleScore sets the stored importance score.
func (db *DB) UpdateArticleScore(ctx context.Context, id int64, score float64) error {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `UPDATE articles SET score = ? WHERE id = ?`, score, id)
	if err != nil {
		return fmt.Errorf("failed to update score for article %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// queryArticles runs an article query and collects all rows before returning.
func (db *DB) queryArticles(ctx context.Context, query string, args ...any) ([]models.Article, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "articles", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer closeRows(rows, "articles")

	var articles []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func scanArticle(row rowScanner, extra ...any) (*models.Article, error) {
	var (
		a       models.Article
		pubDate sql.NullTime
	)
	dest := []any{
		&a.ID, &a.SourceID, &a.Title, &a.Description, &a.Content, &a.URL, &pubDate,
		&a.Author, &a.Categories, &a.Score, &a.CreatedAt, &a.SourceName, &a.SourceCategory,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if pubDate.Valid {
		a.PubDate = pubDate.Time
	}
	return &a, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
