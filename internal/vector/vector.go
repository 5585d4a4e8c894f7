// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package vector stores article embeddings and scores them against a user's
// interest vector for the vector recall channel.
package vector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/tomtom215/newsrank/internal/database"
	"github.com/tomtom215/newsrank/internal/embedding"
	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/models"
)

// Score weights for personalized recommendations and free-text search.
const (
	PersonalTitleWeight   = 0.6
	PersonalContentWeight = 0.4
	SearchTitleWeight     = 0.7
	SearchContentWeight   = 0.3
)

// DefaultPreferenceKeywords caps how many positive interests feed the
// preference vector.
const DefaultPreferenceKeywords = 10

// Store is the subset of the candidate store the service needs.
type Store interface {
	SaveEmbedding(ctx context.Context, e models.ArticleEmbedding) error
	ArticleEmbeddings(ctx context.Context, excludeUser string) ([]models.ArticleEmbedding, error)
	TopInterests(ctx context.Context, userID string, n int) ([]models.UserInterest, error)
	SaveUserPreferenceVector(ctx context.Context, userID string, vec []float64, keywords []string) error
	UserPreferenceVector(ctx context.Context, userID string) ([]float64, error)
	VectorStats(ctx context.Context) (database.VectorStats, error)
}

// Match is an article id with its similarity to a query or user vector.
type Match struct {
	ArticleID  int64   `json:"article_id"`
	Similarity float64 `json:"similarity_score"`
}

// Service computes and compares embeddings.
type Service struct {
	store    Store
	provider embedding.Provider
	keywords int
	logger   zerolog.Logger
}

// NewService creates a Service.
func NewService(store Store, provider embedding.Provider) *Service {
	return &Service{
		store:    store,
		provider: provider,
		keywords: DefaultPreferenceKeywords,
		logger:   logging.WithComponent("vector"),
	}
}

// Enabled reports whether a real embedding provider is configured.
func (s *Service) Enabled() bool {
	_, noop := s.provider.(embedding.Noop)
	return !noop
}

// IndexArticle embeds the title and the full text of a and stores both.
func (s *Service) IndexArticle(ctx context.Context, a models.Article) error {
	title, err := s.provider.Embed(ctx, a.Title)
	if err != nil {
		return fmt.Errorf("failed to embed title of article %d: %w", a.ID, err)
	}
	body := strings.Join(nonEmpty(a.Title, a.Description, a.Content), " ")
	content, err := s.provider.Embed(ctx, body)
	if err != nil {
		return fmt.Errorf("failed to embed content of article %d: %w", a.ID, err)
	}
	return s.store.SaveEmbedding(ctx, models.ArticleEmbedding{
		ArticleID:        a.ID,
		TitleEmbedding:   title,
		ContentEmbedding: content,
		Model:            s.provider.Model(),
	})
}

// RefreshUserPreference re-embeds the user's positive interests and stores
// the result. It returns nil, nil when the user has no positive interest.
func (s *Service) RefreshUserPreference(ctx context.Context, userID string) ([]float64, error) {
	interests, err := s.store.TopInterests(ctx, userID, s.keywords)
	if err != nil {
		return nil, err
	}
	keywords := make([]string, 0, len(interests))
	for _, in := range interests {
		if in.Weight > 0 {
			keywords = append(keywords, in.Keyword)
		}
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	vec, err := s.provider.Embed(ctx, strings.Join(keywords, " "))
	if err != nil {
		return nil, fmt.Errorf("failed to embed preferences of %s: %w", userID, err)
	}
	if err := s.store.SaveUserPreferenceVector(ctx, userID, vec, keywords); err != nil {
		return nil, err
	}
	return vec, nil
}

// UserPreferenceVector returns the stored vector, computing it from the
// user's interests when none is stored yet.
func (s *Service) UserPreferenceVector(ctx context.Context, userID string) ([]float64, error) {
	vec, err := s.store.UserPreferenceVector(ctx, userID)
	if err == nil {
		return vec, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	return s.RefreshUserPreference(ctx, userID)
}

// PersonalizedRecommendations ranks articles the user has not acted on by
// 0.6 title similarity plus 0.4 content similarity to the user's vector.
func (s *Service) PersonalizedRecommendations(ctx context.Context, userID string, limit int) ([]Match, error) {
	pref, err := s.UserPreferenceVector(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(pref) == 0 {
		s.logger.Debug().Str("user_id", userID).Msg("No preference vector")
		return nil, nil
	}
	return s.rank(ctx, pref, userID, PersonalTitleWeight, PersonalContentWeight, limit)
}

// FindSimilar ranks all indexed articles against free text, weighting title
// similarity 0.7 and content similarity 0.3.
func (s *Service) FindSimilar(ctx context.Context, query string, limit int) ([]Match, error) {
	q, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.rank(ctx, q, "", SearchTitleWeight, SearchContentWeight, limit)
}

func (s *Service) rank(ctx context.Context, q []float64, excludeUser string, wTitle, wContent float64, limit int) ([]Match, error) {
	stored, err := s.store.ArticleEmbeddings(ctx, excludeUser)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(stored))
	for _, e := range stored {
		score := wTitle*Cosine(q, e.TitleEmbedding) + wContent*Cosine(q, e.ContentEmbedding)
		matches = append(matches, Match{ArticleID: e.ArticleID, Similarity: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Stats reports stored vector counts.
func (s *Service) Stats(ctx context.Context) (database.VectorStats, error) {
	return s.store.VectorStats(ctx)
}

// Cosine returns the cosine similarity of a and b, or 0 when their lengths
// differ or either has zero norm.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
