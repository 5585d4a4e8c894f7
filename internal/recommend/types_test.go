// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package recommend

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestRecallSource_String(t *testing.T) {
	tests := []struct {
		source RecallSource
		want   string
	}{
		{0, ""},
		{SourceVector, "vector"},
		{SourceTrending | SourceVector, "vector,trending"},
		{SourceTag | SourceCollaborative, "tag,collaborative"},
		{SourceVector | SourceTag | SourceCollaborative | SourceTrending, "vector,tag,collaborative,trending"},
	}
	for _, tt := range tests {
		if got := tt.source.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		parsed, err := ParseRecallSource(tt.want)
		if err != nil || parsed != tt.source {
			t.Errorf("ParseRecallSource(%q) = %v, %v", tt.want, parsed, err)
		}
	}
}

func TestRecallSource_HasAndCount(t *testing.T) {
	s := SourceVector | SourceTrending
	if !s.Has(SourceVector) || !s.Has(SourceTrending) || s.Has(SourceTag) || s.Has(0) {
		t.Errorf("Has() wrong for %s", s)
	}
	if s.Count() != 2 || SourceTag.Count() != 1 {
		t.Errorf("Count() = %d", s.Count())
	}
}

func TestParseRecallSource_Unknown(t *testing.T) {
	if _, err := ParseRecallSource("vector,popular"); err == nil {
		t.Error("ParseRecallSource() accepted an unknown channel")
	}
}

func TestCandidate_JSON(t *testing.T) {
	c := Candidate{RecallSource: SourceTag | SourceCollaborative, RecallScore: 3, TagScore: 3, CollabScore: 2}
	c.ID = 42
	c.Title = "Hello"

	b, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["recall_source"] != "tag,collaborative" || raw["id"] != float64(42) {
		t.Errorf("encoded candidate = %s", b)
	}
	if _, ok := raw["similarity_score"]; ok {
		t.Errorf("zero similarity_score was encoded: %s", b)
	}

	var back Candidate
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.RecallSource != c.RecallSource || back.ID != 42 || back.CollabScore != 2 {
		t.Errorf("decoded candidate = %+v", back)
	}
}
