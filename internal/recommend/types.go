// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package recommend

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/newsrank/internal/models"
)

// AlgorithmVersion is reported in every response's metadata.
const AlgorithmVersion = "2.0"

// RecallSource is the set of recall channels that produced a candidate.
type RecallSource uint8

// Recall channels, in merge order.
const (
	SourceVector RecallSource = 1 << iota
	SourceTag
	SourceCollaborative
	SourceTrending
)

var sourceNames = []struct {
	flag RecallSource
	name string
}{
	{SourceVector, "vector"},
	{SourceTag, "tag"},
	{SourceCollaborative, "collaborative"},
	{SourceTrending, "trending"},
}

// Has reports whether s contains every channel in other.
func (s RecallSource) Has(other RecallSource) bool {
	return other != 0 && s&other == other
}

// Count is the number of channels in s.
func (s RecallSource) Count() int {
	return bits.OnesCount8(uint8(s))
}

// String joins channel names with commas in merge order, e.g. "vector,tag".
func (s RecallSource) String() string {
	names := make([]string, 0, 4)
	for _, n := range sourceNames {
		if s&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// ParseRecallSource is the inverse of String.
func ParseRecallSource(v string) (RecallSource, error) {
	var s RecallSource
	if v == "" {
		return 0, nil
	}
	for _, part := range strings.Split(v, ",") {
		found := false
		for _, n := range sourceNames {
			if n.name == strings.TrimSpace(part) {
				s |= n.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown recall channel %q", part)
		}
	}
	return s, nil
}

// MarshalJSON encodes the set as its comma-joined name.
func (s RecallSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a comma-joined channel list.
func (s *RecallSource) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := ParseRecallSource(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Scores are the four normalized ranking factors, each in [0, 1].
type Scores struct {
	Relevance float64 `json:"relevance"`
	Interest  float64 `json:"interest"`
	Diversity float64 `json:"diversity"`
	Freshness float64 `json:"freshness"`
}

// Candidate is an article with its recall provenance and, after ranking,
// its scores. The first channel to produce an article sets RecallScore;
// every channel that produces it sets its own raw score field.
type Candidate struct {
	models.Article

	RecallSource    RecallSource `json:"recall_source"`
	RecallScore     float64      `json:"recall_score"`
	SimilarityScore float64      `json:"similarity_score,omitempty"`
	TagScore        float64      `json:"tag_score,omitempty"`
	CollabScore     float64      `json:"collab_score,omitempty"`
	TrendingScore   float64      `json:"trending_score,omitempty"`

	RankingScores *Scores `json:"ranking_scores,omitempty"`
	FinalScore    float64 `json:"final_score"`
	Explanation   string  `json:"explanation,omitempty"`
}

// Request is one recommendation query. Zero Page and PageSize take the
// configured defaults; other values are passed through to pagination as-is.
type Request struct {
	UserID        string
	Page          int
	PageSize      int
	ForceRefresh  bool
	EnableExplain bool
}

// Pagination describes the returned slice of the ranked list. Page and
// page size are echoed as requested, even when out of range.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	CacheUsed        bool   `json:"cache_used"`
	GeneratedAt      string `json:"generated_at"`
	AlgorithmVersion string `json:"algorithm_version"`
	TotalCandidates  int    `json:"total_candidates"`
	RequestID        string `json:"request_id,omitempty"`
}

// Response is the body of GET /api/recommendations.
type Response struct {
	Data       []Candidate `json:"data"`
	Pagination Pagination  `json:"pagination"`
	Metadata   Metadata    `json:"metadata"`
}
