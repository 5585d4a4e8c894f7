// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package llm

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/tomtom215/newsrank/internal/models"
)

// MaxKeywords is the most keywords the heuristic returns.
const MaxKeywords = 5

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about above after again against all also am an and any are as at be because been
		before being below between both but by can could did do does doing down during each
		few for from further had has have having he her here hers herself him himself his how
		i if in into is it its itself just more most my myself new news no nor not now of off
		on once only or other our ours ourselves out over own same says said she should so some
		such than that the their theirs them themselves then there these they this those
		through to too under until up very was we were what when where which while who whom
		why will with would you your yours yourself yourselves one two year years first last
		get gets got make makes made like via amp`) {
		stopwords[w] = struct{}{}
	}
}

// Heuristic extracts the most frequent non-stopword terms. It needs no
// network and never fails.
type Heuristic struct{}

// NewHeuristic returns the offline extractor.
func NewHeuristic() Heuristic { return Heuristic{} }

// ExtractKeywords returns up to MaxKeywords lowercased terms of at least three
// characters, most frequent first, ties in order of first appearance.
func (Heuristic) ExtractKeywords(_ context.Context, text string) ([]string, error) {
	return topTerms(text, MaxKeywords), nil
}

// Analyze returns neutral defaults with topics from ExtractKeywords.
func (h Heuristic) Analyze(ctx context.Context, article models.Article) (Analysis, error) {
	topics, _ := h.ExtractKeywords(ctx, article.Title+" "+article.Description)
	return Analysis{
		Topics:     topics,
		Sentiment:  SentimentNeutral,
		Importance: DefaultImportance,
	}.normalize(article), nil
}

func topTerms(text string, n int) []string {
	type term struct {
		word  string
		count int
	}
	seen := map[string]*term{}
	var order []*term

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	for _, w := range words {
		w = strings.Trim(w, "-")
		if len([]rune(w)) < 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if t, ok := seen[w]; ok {
			t.count++
			continue
		}
		t := &term{word: w, count: 1}
		seen[w] = t
		order = append(order, t)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})
	if len(order) > n {
		order = order[:n]
	}
	out := make([]string, len(order))
	for i, t := range order {
		out[i] = t.word
	}
	return out
}
