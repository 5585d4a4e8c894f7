// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package recommend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/newsrank/internal/database"
	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
	"github.com/tomtom215/newsrank/internal/vector"
)

// Store is the candidate data the engine reads. *database.DB implements it.
type Store interface {
	TopInterests(ctx context.Context, userID string, n int) ([]models.UserInterest, error)
	TagCandidates(ctx context.Context, userID string, keywords []string, limit int) ([]models.Article, error)
	SimilarUsers(ctx context.Context, userID string, minCommon, limit int) ([]database.SimilarUser, error)
	CollaborativeCandidates(ctx context.Context, userID string, peers []string, limit int) ([]database.ScoredArticle, error)
	TrendingCandidates(ctx context.Context, since time.Time, limit int) ([]database.ScoredArticle, error)
	GetArticlesByIDs(ctx context.Context, ids []int64, excludeUser string) ([]models.Article, error)
	SourcePreference(ctx context.Context, userID string, sourceID int64) (float64, error)
}

// VectorRecaller returns articles ranked by embedding similarity to the
// user's interests. *vector.Service implements it.
type VectorRecaller interface {
	PersonalizedRecommendations(ctx context.Context, userID string, limit int) ([]vector.Match, error)
}

// hit is one article produced by a channel with that channel's raw score.
type hit struct {
	article models.Article
	score   float64
}

type channel struct {
	source RecallSource
	cfg    ChannelConfig
	fetch  func(ctx context.Context, userID string, limit int) ([]hit, error)
}

// channels lists the recall channels in merge order.
func (e *Engine) channels() []channel {
	return []channel{
		{SourceVector, e.cfg.Recall.Vector, e.vectorRecall},
		{SourceTag, e.cfg.Recall.Tag, e.tagRecall},
		{SourceCollaborative, e.cfg.Recall.Collaborative, e.collaborativeRecall},
		{SourceTrending, e.cfg.Recall.Trending, e.trendingRecall},
	}
}

// recall runs every enabled channel concurrently and merges the results by
// article id. A failing channel contributes nothing; it never fails the
// recall as a whole.
func (e *Engine) recall(ctx context.Context, userID string) []Candidate {
	chans := e.channels()
	results := make([][]hit, len(chans))

	var wg sync.WaitGroup
	for idx, ch := range chans {
		if !ch.cfg.Enabled {
			continue
		}
		wg.Add(1)
		go func(idx int, ch channel) {
			defer wg.Done()
			results[idx] = e.runChannel(ctx, userID, ch)
		}(idx, ch)
	}
	wg.Wait()

	m := newCandidateMap()
	for idx, ch := range chans {
		m.add(ch.source, results[idx])
	}
	return m.list()
}

func (e *Engine) runChannel(ctx context.Context, userID string, ch channel) (hits []hit) {
	name := ch.source.String()
	if e.cfg.Recall.ChannelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Recall.ChannelTimeout)
		defer cancel()
	}

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			hits = nil
		}
		if err != nil {
			e.logger.Warn().Err(err).
				Str("user_id", userID).
				Str("stage", "recall").
				Str("channel", name).
				Msg("Recall channel failed, continuing without it")
			hits = nil
		}
		metrics.RecordRecallChannel(name, len(hits), err)
	}()

	hits, err = ch.fetch(ctx, userID, ch.cfg.CandidateSize)
	if len(hits) > ch.cfg.CandidateSize {
		hits = hits[:ch.cfg.CandidateSize]
	}
	return hits
}

func (e *Engine) vectorRecall(ctx context.Context, userID string, limit int) ([]hit, error) {
	if e.vectors == nil {
		return nil, nil
	}
	matches, err := e.vectors.PersonalizedRecommendations(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("personalized recommendations: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ArticleID
	}
	articles, err := e.store.GetArticlesByIDs(ctx, ids, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}

	// Keep similarity order; the store does not guarantee one.
	hits := make([]hit, 0, len(articles))
	for _, m := range matches {
		if a, ok := byID[m.ArticleID]; ok {
			hits = append(hits, hit{article: a, score: m.Similarity})
		}
	}
	return hits, nil
}

func (e *Engine) tagRecall(ctx context.Context, userID string, limit int) ([]hit, error) {
	interests, err := e.store.TopInterests(ctx, userID, e.cfg.Recall.TopInterests)
	if err != nil {
		return nil, fmt.Errorf("top interests: %w", err)
	}
	if len(interests) == 0 {
		return nil, nil
	}

	keywords := make([]string, len(interests))
	for i, in := range interests {
		keywords[i] = in.Keyword
	}
	articles, err := e.store.TagCandidates(ctx, userID, keywords, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]hit, len(articles))
	for i, a := range articles {
		hits[i] = hit{article: a, score: matchedInterestWeight(a.Categories, interests)}
	}
	return hits, nil
}

func (e *Engine) collaborativeRecall(ctx context.Context, userID string, limit int) ([]hit, error) {
	peers, err := e.store.SimilarUsers(ctx, userID, e.cfg.Recall.MinCommonLikes, e.cfg.Recall.SimilarUsers)
	if err != nil {
		return nil, fmt.Errorf("similar users: %w", err)
	}
	if len(peers) == 0 {
		return nil, nil
	}

	ids := make([]string, len(peers))
	for i, p := range peers {
		ids[i] = p.UserID
	}
	scored, err := e.store.CollaborativeCandidates(ctx, userID, ids, limit)
	if err != nil {
		return nil, err
	}
	return scoredHits(scored), nil
}

func (e *Engine) trendingRecall(ctx context.Context, _ string, limit int) ([]hit, error) {
	scored, err := e.store.TrendingCandidates(ctx, e.now().Add(-e.cfg.Recall.TrendingWindow), limit)
	if err != nil {
		return nil, err
	}
	return scoredHits(scored), nil
}

func scoredHits(scored []database.ScoredArticle) []hit {
	hits := make([]hit, len(scored))
	for i, s := range scored {
		hits[i] = hit{article: s.Article, score: s.Score}
	}
	return hits
}

// matchedInterestWeight sums the weights of interests whose keyword occurs
// in categories, case-insensitively. A zero weight counts as 1.
func matchedInterestWeight(categories string, interests []models.UserInterest) float64 {
	if categories == "" {
		return 0
	}
	lower := strings.ToLower(categories)
	var sum float64
	for _, in := range interests {
		kw := strings.ToLower(strings.TrimSpace(in.Keyword))
		if kw == "" || !strings.Contains(lower, kw) {
			continue
		}
		w := in.Weight
		if w == 0 {
			w = 1
		}
		sum += w
	}
	return sum
}

// candidateMap accumulates channel results keyed by article id while
// preserving first-seen order.
type candidateMap struct {
	index map[int64]int
	items []Candidate
}

func newCandidateMap() *candidateMap {
	return &candidateMap{index: make(map[int64]int)}
}

// add merges one channel's hits. The first channel to produce an article
// sets its RecallScore; later channels only add their flag and raw score.
func (m *candidateMap) add(source RecallSource, hits []hit) {
	for _, h := range hits {
		if i, ok := m.index[h.article.ID]; ok {
			c := &m.items[i]
			c.RecallSource |= source
			setChannelScore(c, source, h.score)
			continue
		}
		c := Candidate{Article: h.article, RecallSource: source, RecallScore: h.score}
		setChannelScore(&c, source, h.score)
		m.index[h.article.ID] = len(m.items)
		m.items = append(m.items, c)
	}
}

func (m *candidateMap) list() []Candidate {
	return m.items
}

func setChannelScore(c *Candidate, source RecallSource, score float64) {
	switch source {
	case SourceVector:
		c.SimilarityScore = score
	case SourceTag:
		c.TagScore = score
	case SourceCollaborative:
		c.CollabScore = score
	case SourceTrending:
		c.TrendingScore = score
	}
}
