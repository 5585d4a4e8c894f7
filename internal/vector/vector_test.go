// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package vector

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/newsrank/internal/database"
	"github.com/tomtom215/newsrank/internal/embedding"
	"github.com/tomtom215/newsrank/internal/models"
)

// fakeProvider maps exact input text to a vector; unknown text fails.
type fakeProvider struct {
	mu      sync.Mutex
	vectors map[string][]float64
	inputs  []string
}

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return v, nil
}

func (f *fakeProvider) Model() string { return "fake-3d" }

type fakeStore struct {
	embeddings map[int64]models.ArticleEmbedding
	acted      map[string]map[int64]bool
	interests  map[string][]models.UserInterest
	prefs      map[string][]float64
	prefWrites int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		embeddings: map[int64]models.ArticleEmbedding{},
		acted:      map[string]map[int64]bool{},
		interests:  map[string][]models.UserInterest{},
		prefs:      map[string][]float64{},
	}
}

func (s *fakeStore) SaveEmbedding(_ context.Context, e models.ArticleEmbedding) error {
	s.embeddings[e.ArticleID] = e
	return nil
}

func (s *fakeStore) ArticleEmbeddings(_ context.Context, excludeUser string) ([]models.ArticleEmbedding, error) {
	var out []models.ArticleEmbedding
	for id := int64(1); id <= int64(len(s.embeddings)+10); id++ {
		e, ok := s.embeddings[id]
		if !ok || s.acted[excludeUser][id] {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) TopInterests(_ context.Context, userID string, n int) ([]models.UserInterest, error) {
	in := s.interests[userID]
	if n > 0 && len(in) > n {
		in = in[:n]
	}
	return in, nil
}

func (s *fakeStore) SaveUserPreferenceVector(_ context.Context, userID string, vec []float64, _ []string) error {
	s.prefs[userID] = vec
	s.prefWrites++
	return nil
}

func (s *fakeStore) UserPreferenceVector(_ context.Context, userID string) ([]float64, error) {
	v, ok := s.prefs[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return v, nil
}

func (s *fakeStore) VectorStats(context.Context) (database.VectorStats, error) {
	return database.VectorStats{ArticleVectors: len(s.embeddings), UserVectors: len(s.prefs)}, nil
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"zero norm", []float64{0, 0}, []float64{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIndexArticle(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float64{
		"Go 1.24":                    {1, 0, 0},
		"Go 1.24 Release notes Body": {0, 1, 0},
	}}
	store := newFakeStore()
	svc := NewService(store, provider)

	a := models.Article{ID: 7, Title: "Go 1.24", Description: "Release notes", Content: "Body"}
	if err := svc.IndexArticle(context.Background(), a); err != nil {
		t.Fatalf("IndexArticle() error = %v", err)
	}
	got := store.embeddings[7]
	if got.Model != "fake-3d" || got.TitleEmbedding[0] != 1 || got.ContentEmbedding[1] != 1 {
		t.Errorf("stored embedding = %+v", got)
	}

	if err := svc.IndexArticle(context.Background(), models.Article{ID: 8, Title: "unknown"}); err == nil {
		t.Error("IndexArticle() with failing provider returned nil error")
	}
	if _, ok := store.embeddings[8]; ok {
		t.Error("failed article was stored")
	}
}

func TestPersonalizedRecommendations(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float64{"golang databases": {1, 0, 0}}}
	store := newFakeStore()
	store.interests["alice"] = []models.UserInterest{
		{Keyword: "golang", Weight: 2},
		{Keyword: "databases", Weight: 0.5},
		{Keyword: "crypto", Weight: -1},
	}
	store.embeddings[1] = models.ArticleEmbedding{ArticleID: 1, TitleEmbedding: []float64{1, 0, 0}, ContentEmbedding: []float64{0, 1, 0}}
	store.embeddings[2] = models.ArticleEmbedding{ArticleID: 2, TitleEmbedding: []float64{0, 1, 0}, ContentEmbedding: []float64{1, 0, 0}}
	store.embeddings[3] = models.ArticleEmbedding{ArticleID: 3, TitleEmbedding: []float64{1, 0, 0}, ContentEmbedding: []float64{1, 0, 0}}
	store.embeddings[4] = models.ArticleEmbedding{ArticleID: 4, TitleEmbedding: []float64{1, 0, 0}, ContentEmbedding: []float64{1, 0, 0}}
	store.acted["alice"] = map[int64]bool{4: true}

	svc := NewService(store, provider)
	got, err := svc.PersonalizedRecommendations(context.Background(), "alice", 2)
	if err != nil {
		t.Fatalf("PersonalizedRecommendations() error = %v", err)
	}
	want := []Match{{ArticleID: 3, Similarity: 1}, {ArticleID: 1, Similarity: 0.6}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PersonalizedRecommendations() mismatch (-want +got):\n%s", diff)
	}
	if store.prefWrites != 1 {
		t.Errorf("preference vector written %d times, want 1", store.prefWrites)
	}

	// the stored vector is reused
	if _, err := svc.PersonalizedRecommendations(context.Background(), "alice", 2); err != nil {
		t.Fatal(err)
	}
	if len(provider.inputs) != 1 {
		t.Errorf("provider called %d times, want 1", len(provider.inputs))
	}
}

func TestPersonalizedRecommendations_NoInterests(t *testing.T) {
	store := newFakeStore()
	store.interests["bob"] = []models.UserInterest{{Keyword: "spam", Weight: -0.2}}
	svc := NewService(store, &fakeProvider{})

	got, err := svc.PersonalizedRecommendations(context.Background(), "bob", 10)
	if err != nil || got != nil {
		t.Errorf("PersonalizedRecommendations() = %v, %v; want nil, nil", got, err)
	}
}

func TestPersonalizedRecommendations_ProviderUnavailable(t *testing.T) {
	store := newFakeStore()
	store.interests["carol"] = []models.UserInterest{{Keyword: "go", Weight: 1}}
	svc := NewService(store, embedding.Noop{})

	if svc.Enabled() {
		t.Error("Enabled() = true for Noop provider")
	}
	if _, err := svc.PersonalizedRecommendations(context.Background(), "carol", 10); !errors.Is(err, embedding.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestFindSimilar(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float64{"query": {0, 1}}}
	store := newFakeStore()
	store.embeddings[1] = models.ArticleEmbedding{ArticleID: 1, TitleEmbedding: []float64{0, 1}, ContentEmbedding: []float64{1, 0}}
	store.embeddings[2] = models.ArticleEmbedding{ArticleID: 2, TitleEmbedding: []float64{1, 0}, ContentEmbedding: []float64{0, 1}}

	got, err := NewService(store, provider).FindSimilar(context.Background(), "query", 0)
	if err != nil {
		t.Fatalf("FindSimilar() error = %v", err)
	}
	want := []Match{{ArticleID: 1, Similarity: 0.7}, {ArticleID: 2, Similarity: 0.3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindSimilar() mismatch (-want +got):\n%s", diff)
	}
}
