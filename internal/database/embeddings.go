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

	"github.com/goccy/go-json"

	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/models"
)

// VectorStats summarizes stored embeddings.
type VectorStats struct {
	ArticleVectors int    `json:"total_article_vectors"`
	UserVectors    int    `json:"total_user_preference_vectors"`
	Dimension      int    `json:"vector_dimension"`
	Model          string `json:"embedding_model"`
}

// SaveEmbedding stores or replaces the vectors for an article.
func (db *DB) SaveEmbedding(ctx context.Context, e models.ArticleEmbedding) error {
	title, err := json.Marshal(e.TitleEmbedding)
	if err != nil {
		return fmt.Errorf("failed to encode title embedding: %w", err)
	}
	content, err := json.Marshal(e.ContentEmbedding)
	if err != nil {
		return fmt.Errorf("failed to encode content embedding: %w", err)
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, `
		INSERT INTO article_embeddings (article_id, title_embedding, content_embedding, model, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (article_id) DO UPDATE SET
			title_embedding = EXCLUDED.title_embedding,
			content_embedding = EXCLUDED.content_embedding,
			model = EXCLUDED.model,
			created_at = EXCLUDED.created_at`,
		e.ArticleID, string(title), string(content), e.Model, now(),
	); err != nil {
		return fmt.Errorf("failed to save embedding for article %d: %w", e.ArticleID, err)
	}
	return nil
}

// ArticleEmbeddings returns stored vectors for every article excludeUser has
// not acted on. Rows with undecodable vectors are skipped.
func (db *DB) ArticleEmbeddings(ctx context.Context, excludeUser string) ([]models.ArticleEmbedding, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT e.article_id, e.title_embedding, e.content_embedding, COALESCE(e.model, '')
		FROM article_embeddings e
		WHERE e.article_id NOT IN (SELECT article_id FROM user_preferences WHERE user_id = ?)
		ORDER BY e.article_id`, excludeUser)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer closeRows(rows, "embeddings")

	var out []models.ArticleEmbedding
	for rows.Next() {
		var (
			e              models.ArticleEmbedding
			title, content string
		)
		if err := rows.Scan(&e.ArticleID, &title, &content, &e.Model); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		if err := json.Unmarshal([]byte(title), &e.TitleEmbedding); err != nil {
			logging.Warn().Err(err).Int64("article_id", e.ArticleID).Msg("Skipping corrupt title embedding")
			continue
		}
		if err := json.Unmarshal([]byte(content), &e.ContentEmbedding); err != nil {
			logging.Warn().Err(err).Int64("article_id", e.ArticleID).Msg("Skipping corrupt content embedding")
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveUserPreferenceVector stores the latest interest embedding for a user.
func (db *DB) SaveUserPreferenceVector(ctx context.Context, userID string, vec []float64, keywords []string) error {
	v, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to encode preference vector: %w", err)
	}
	kw, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_preference_vectors (user_id, preference_embedding, keywords, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			preference_embedding = EXCLUDED.preference_embedding,
			keywords = EXCLUDED.keywords,
			updated_at = EXCLUDED.updated_at`,
		userID, string(v), string(kw), now(),
	); err != nil {
		return fmt.Errorf("failed to save preference vector for %s: %w", userID, err)
	}
	return nil
}

// UserPreferenceVector returns ErrNotFound when none is stored.
func (db *DB) UserPreferenceVector(ctx context.Context, userID string) ([]float64, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	var raw string
	err := db.conn.QueryRowContext(ctx,
		`SELECT preference_embedding FROM user_preference_vectors WHERE user_id = ?`, userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference vector for %s: %w", userID, err)
	}

	var vec []float64
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, fmt.Errorf("failed to decode preference vector for %s: %w", userID, err)
	}
	return vec, nil
}

// VectorStats counts stored vectors. Dimension and model come from the most
// recently stored article vector.
func (db *DB) VectorStats(ctx context.Context) (VectorStats, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	var stats VectorStats
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM article_embeddings`).Scan(&stats.ArticleVectors); err != nil {
		return stats, fmt.Errorf("failed to count article vectors: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_preference_vectors`).Scan(&stats.UserVectors); err != nil {
		return stats, fmt.Errorf("failed to count user vectors: %w", err)
	}

	var raw string
	err := db.conn.QueryRowContext(ctx, `
		SELECT title_embedding, COALESCE(model, '') FROM article_embeddings
		ORDER BY created_at DESC LIMIT 1`).Scan(&raw, &stats.Model)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("failed to sample article vector: %w", err)
	}
	var vec []float64
	if json.Unmarshal([]byte(raw), &vec) == nil {
		stats.Dimension = len(vec)
	}
	return stats, nil
}
