// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
recall.go - Candidate Queries for the Recall Channels

Each query returns at most limit rows and never returns an article the
target user has already acted on (trending is global and excludes nothing).

DuckDB rejects non-aggregated columns under GROUP BY a.id, so aggregates are
computed in a subquery over user_preferences and joined back to articles.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
)

// ScoredArticle is an article with the raw score a recall query computed.
type ScoredArticle struct {
	models.Article
	Score float64
}

// SimilarUser is another user who liked the same articles.
type SimilarUser struct {
	UserID      string
	CommonLikes int
}

// TagCandidates returns recent articles whose category list contains any of
// keywords, case-insensitively, newest first.
func (db *DB) TagCandidates(ctx context.Context, userID string, keywords []string, limit int) ([]models.Article, error) {
	conds := make([]string, 0, len(keywords))
	args := make([]any, 0, len(keywords)+2)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		conds = append(conds, `LOWER(COALESCE(a.categories, '')) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(kw)+"%")
	}
	if len(conds) == 0 {
		return nil, nil
	}
	args = append(args, userID, limit)

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	query := `SELECT ` + articleColumns + articleFrom + `
		WHERE (` + strings.Join(conds, " OR ") + `)
		AND` + excludeActed + `
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?`
	return db.queryArticles(ctx, query, args...)
}

// SimilarUsers finds up to limit users who liked at least minCommon of the
// same articles as userID, most overlap first.
func (db *DB) SimilarUsers(ctx context.Context, userID string, minCommon, limit int) ([]SimilarUser, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT u2.user_id, COUNT(*) AS common_likes
		FROM user_preferences u1
		JOIN user_preferences u2 ON u1.article_id = u2.article_id
		WHERE u1.user_id = ? AND u2.user_id <> ?
		AND u1.action = 'like' AND u2.action = 'like'
		GROUP BY u2.user_id
		HAVING COUNT(*) >= ?
		ORDER BY common_likes DESC, u2.user_id
		LIMIT ?`, userID, userID, minCommon, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar users: %w", err)
	}
	defer closeRows(rows, "similar users")

	var users []SimilarUser
	for rows.Next() {
		var u SimilarUser
		if err := rows.Scan(&u.UserID, &u.CommonLikes); err != nil {
			return nil, fmt.Errorf("failed to scan similar user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CollaborativeCandidates returns articles liked by any of peers that userID
// has not acted on. Score is the like count among peers; ties go to the
// newer article.
func (db *DB) CollaborativeCandidates(ctx context.Context, userID string, peers []string, limit int) ([]ScoredArticle, error) {
	if len(peers) == 0 {
		return nil, nil
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	args := make([]any, 0, len(peers)+2)
	for _, p := range peers {
		args = append(args, p)
	}
	args = append(args, userID, limit)

	query := `SELECT ` + articleColumns + `, c.like_count
		FROM (
			SELECT up.article_id, COUNT(*) AS like_count
			FROM user_preferences up
			WHERE up.user_id IN (` + placeholders(len(peers)) + `)
			AND up.action = 'like'
			GROUP BY up.article_id
		) c
		JOIN articles a ON a.id = c.article_id
		LEFT JOIN rss_sources s ON a.source_id = s.id
		WHERE` + excludeActed + `
		ORDER BY c.like_count DESC, a.created_at DESC, a.id DESC
		LIMIT ?`
	return db.queryScoredArticles(ctx, query, args...)
}

// TrendingCandidates returns articles created after since that have at least
// one interaction, scored 2 per like and -1 per dislike across all users.
func (db *DB) TrendingCandidates(ctx context.Context, since time.Time, limit int) ([]ScoredArticle, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	query := `SELECT ` + articleColumns + `, t.trending_score
		FROM (
			SELECT up.article_id,
				COUNT(*) AS interaction_count,
				CAST(SUM(CASE WHEN up.action = 'like' THEN 2 ELSE -1 END) AS BIGINT) AS trending_score
			FROM user_preferences up
			GROUP BY up.article_id
		) t
		JOIN articles a ON a.id = t.article_id
		LEFT JOIN rss_sources s ON a.source_id = s.id
		WHERE a.created_at > ? AND t.interaction_count > 0
		ORDER BY t.trending_score DESC, a.created_at DESC, a.id DESC
		LIMIT ?`
	return db.queryScoredArticles(ctx, query, since.UTC(), limit)
}

func (db *DB) queryScoredArticles(ctx context.Context, query string, args ...any) ([]ScoredArticle, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "user_preferences", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer closeRows(rows, "candidates")

	var out []ScoredArticle
	for rows.Next() {
		var score int64
		a, err := scanArticle(rows, &score)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		out = append(out, ScoredArticle{Article: *a, Score: float64(score)})
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
