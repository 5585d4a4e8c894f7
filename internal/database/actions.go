// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package database

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/tomtom215/newsrank/internal/models"
)

// RecordUserAction appends to the feedback log. The log is never updated.
func (db *DB) RecordUserAction(ctx context.Context, userID string, articleID int64, action string) error {
	if !models.ValidAction(action) {
		return fmt.Errorf("invalid action %q", action)
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, article_id, action, created_at)
		VALUES (?, ?, ?, ?)`,
		userID, articleID, action, now(),
	); err != nil {
		return fmt.Errorf("failed to record %s for article %d: %w", action, articleID, err)
	}
	return nil
}

// ActedArticleIDs returns the set of articles the user liked or disliked.
func (db *DB) ActedArticleIDs(ctx context.Context, userID string) (map[int64]struct{}, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT article_id FROM user_preferences WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query acted articles: %w", err)
	}
	defer closeRows(rows, "acted articles")

	acted := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan article id: %w", err)
		}
		acted[id] = struct{}{}
	}
	return acted, rows.Err()
}

// PreferenceStats counts the user's likes and dislikes.
func (db *DB) PreferenceStats(ctx context.Context, userID string) (models.PreferenceStats, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	var stats models.PreferenceStats
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN action = 'like' THEN 1 END),
			COUNT(CASE WHEN action = 'dislike' THEN 1 END)
		FROM user_preferences WHERE user_id = ?`, userID,
	).Scan(&stats.Likes, &stats.Dislikes)
	if err != nil {
		return stats, fmt.Errorf("failed to query preference stats: %w", err)
	}
	return stats, nil
}

// SourcePreference scores the user's affinity for a source:
// max(0, (likes - 0.5*dislikes) / 10) over the articles from that source.
func (db *DB) SourcePreference(ctx context.Context, userID string, sourceID int64) (float64, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	var likes, dislikes int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN up.action = 'like' THEN 1 END),
			COUNT(CASE WHEN up.action = 'dislike' THEN 1 END)
		FROM user_preferences up
		JOIN articles a ON up.article_id = a.id
		WHERE up.user_id = ? AND a.source_id = ?`, userID, sourceID,
	).Scan(&likes, &dislikes)
	if err != nil {
		return 0, fmt.Errorf("failed to query source preference: %w", err)
	}
	return math.Max(0, (float64(likes)-0.5*float64(dislikes))/10), nil
}

// UpdateUserInterests adds delta to the weight of each keyword, creating the
// row at weight=delta the first time. Keywords are stored lowercased.
func (db *DB) UpdateUserInterests(ctx context.Context, userID string, keywords []string, delta float64) error {
	if len(keywords) == 0 {
		return nil
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	ts := now()
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_interests (user_id, keyword, weight, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, keyword) DO UPDATE SET
				weight = user_interests.weight + EXCLUDED.weight,
				updated_at = EXCLUDED.updated_at`,
			userID, kw, delta, ts,
		); err != nil {
			return fmt.Errorf("failed to update interest %q: %w", kw, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit interests: %w", err)
	}
	return nil
}

// TopInterests returns the user's n highest-weighted keywords.
func (db *DB) TopInterests(ctx context.Context, userID string, n int) ([]models.UserInterest, error) {
	return db.userInterests(ctx, userID, n)
}

// UserInterests returns every keyword weight for the user, heaviest first.
func (db *DB) UserInterests(ctx context.Context, userID string) ([]models.UserInterest, error) {
	return db.userInterests(ctx, userID, 0)
}

func (db *DB) userInterests(ctx context.Context, userID string, limit int) ([]models.UserInterest, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	query := `SELECT user_id, keyword, COALESCE(weight, 1.0), updated_at
		FROM user_interests WHERE user_id = ?
		ORDER BY weight DESC, keyword`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interests: %w", err)
	}
	defer closeRows(rows, "interests")

	var interests []models.UserInterest
	for rows.Next() {
		var ui models.UserInterest
		if err := rows.Scan(&ui.UserID, &ui.Keyword, &ui.Weight, &ui.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interest: %w", err)
		}
		interests = append(interests, ui)
	}
	return interests, rows.Err()
}

// SystemStats totals articles and sources and adds the user's feedback counts.
func (db *DB) SystemStats(ctx context.Context, userID string) (*models.SystemStats, error) {
	userStats, err := db.PreferenceStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	stats := &models.SystemStats{UserStats: userStats}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&stats.TotalArticles); err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM rss_sources WHERE active = TRUE`).Scan(&stats.TotalSources); err != nil {
		return nil, fmt.Errorf("failed to count sources: %w", err)
	}
	return stats, nil
}
