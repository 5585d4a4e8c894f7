// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
)

// maxPreferenceLookups bounds concurrent source preference queries per request.
const maxPreferenceLookups = 4

// rankContext holds the per-user lookups shared by every candidate.
type rankContext struct {
	interests  []models.UserInterest
	sourcePref map[int64]float64
	now        time.Time
}

// rank scores every candidate, diversifies the list and sorts it by final
// score, highest first. Lookup failures fall back to zero contributions.
func (e *Engine) rank(ctx context.Context, userID string, candidates []Candidate, explain bool) []Candidate {
	if len(candidates) == 0 {
		return []Candidate{}
	}

	rc := e.rankContext(ctx, userID, candidates)
	w := e.cfg.Ranking
	for i := range candidates {
		c := &candidates[i]
		s := e.scores(c, rc)
		c.RankingScores = &s
		c.FinalScore = sanitize(w.Relevance*s.Relevance + w.Interest*s.Interest +
			w.Diversity*s.Diversity + w.Freshness*s.Freshness)
		if explain {
			c.Explanation = explanation(c, s)
		}
	}

	ranked := e.diversify(candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	return ranked
}

func (e *Engine) rankContext(ctx context.Context, userID string, candidates []Candidate) *rankContext {
	rc := &rankContext{sourcePref: make(map[int64]float64), now: e.now()}

	interests, err := e.store.TopInterests(ctx, userID, e.cfg.Recall.TopInterests)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Str("stage", "rank").
			Msg("Failed to load interests, scoring without them")
	}
	rc.interests = interests

	sources := make(map[int64]struct{})
	for i := range candidates {
		sources[candidates[i].SourceID] = struct{}{}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPreferenceLookups)
	for id := range sources {
		g.Go(func() error {
			pref, err := e.store.SourcePreference(gctx, userID, id)
			if err != nil {
				e.logger.Warn().Err(err).Str("user_id", userID).Str("stage", "rank").
					Int64("source_id", id).Msg("Failed to load source preference")
				pref = 0
			}
			mu.Lock()
			rc.sourcePref[id] = pref
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // lookups never return errors

	return rc
}

func (e *Engine) scores(c *Candidate, rc *rankContext) Scores {
	w := e.cfg.Ranking
	return Scores{
		Relevance: sanitize(math.Max(finite(c.SimilarityScore), finite(c.TagScore)/w.TagScoreDivisor)),
		Interest: sanitize(math.Min(1,
			(matchedInterestWeight(c.Categories, rc.interests)+finite(rc.sourcePref[c.SourceID]))/w.InterestDivisor)),
		Diversity: diversityScore(&c.Article),
		Freshness: freshnessScore(&c.Article, rc.now),
	}
}

// finite maps NaN and infinities to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// sanitize maps non-finite values to 0 and clamps to [0, 1].
func sanitize(v float64) float64 {
	return math.Max(0, math.Min(1, finite(v)))
}

// diversityScore rewards mid-length titles and multi-category articles.
func diversityScore(a *models.Article) float64 {
	score := 0.5
	if n := utf8.RuneCountInString(a.Title); n > 20 && n < 100 {
		score += 0.2
	}
	if cats := a.CategoryList(); len(cats) > 0 {
		score += math.Min(0.3, 0.1*float64(len(cats)))
	}
	return sanitize(score)
}

// freshnessScore is a step function of article age. Articles without a
// timestamp score 0.5; future-dated ones count as brand new.
func freshnessScore(a *models.Article, now time.Time) float64 {
	ts := a.CreatedAt
	if ts.IsZero() {
		ts = a.PubDate
	}
	if ts.IsZero() {
		return 0.5
	}

	hours := now.Sub(ts).Hours()
	switch {
	case hours <= 1:
		return 1.0
	case hours <= 6:
		return 0.9
	case hours <= 24:
		return 0.7
	case hours <= 72:
		return 0.5
	case hours <= 168:
		return 0.3
	default:
		return 0.1
	}
}

// diversify limits how many top-ranked articles share a source or category.
// Lists at or below DiversifyAbove are returned untouched. Over-limit
// candidates are penalized while the output is short of FillRatio and
// appended unchanged afterwards, so no candidate is dropped.
func (e *Engine) diversify(candidates []Candidate) []Candidate {
	cfg := e.cfg.Ranking
	if len(candidates) <= cfg.DiversifyAbove {
		return candidates
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FinalScore > sorted[j].FinalScore
	})

	out := make([]Candidate, 0, len(sorted))
	taken := make([]bool, len(sorted))
	perSource := make(map[string]int)
	perCategory := make(map[string]int)
	fillLimit := float64(len(sorted)) * cfg.FillRatio
	penalized := 0

	for i := range sorted {
		c := sorted[i]
		src, cat := sourceKey(&c.Article), categoryKey(&c.Article)

		switch {
		case perSource[src] < cfg.MaxPerSource && perCategory[cat] < cfg.MaxPerCategory:
			perSource[src]++
			perCategory[cat]++
		case float64(len(out)) < fillLimit:
			c.FinalScore *= cfg.DiversityPenalty
			penalized++
		default:
			continue
		}
		out = append(out, c)
		taken[i] = true
	}

	for i := range sorted {
		if !taken[i] {
			out = append(out, sorted[i])
		}
	}

	metrics.RankingPenalized.Add(float64(penalized))
	return out
}

func sourceKey(a *models.Article) string {
	if a.SourceName != "" {
		return a.SourceName
	}
	return strconv.FormatInt(a.SourceID, 10)
}

func categoryKey(a *models.Article) string {
	if a.SourceCategory != "" {
		return a.SourceCategory
	}
	return models.DefaultCategory
}

func explanation(c *Candidate, s Scores) string {
	var reasons []string
	if s.Relevance > 0.7 {
		reasons = append(reasons, fmt.Sprintf("highly relevant to your interests (%.0f%%)", s.Relevance*100))
	}
	if s.Interest > 0.6 {
		reasons = append(reasons, "based on your reading preferences")
	}
	if s.Freshness > 0.8 {
		reasons = append(reasons, "newest trending content")
	}
	if c.RecallSource.Count() > 1 {
		reasons = append(reasons, "recommended by multiple strategies")
	}
	if len(reasons) == 0 {
		return "recommended by the algorithm"
	}
	return strings.Join(reasons, "; ")
}
