// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/database"
	"github.com/tomtom215/newsrank/internal/llm"
	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
)

type fakeStore struct {
	sources   map[int64]models.Source
	urls      map[string]bool
	nextID    int64
	scores    map[int64]float64
	upserted  []string
	insertErr error
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sources: map[int64]models.Source{1: {ID: 1, Name: "Tech Daily", Category: "technology"}},
		urls:    map[string]bool{},
		scores:  map[int64]float64{},
		nextID:  100,
	}
}

func (s *fakeStore) GetSource(_ context.Context, id int64) (*models.Source, error) {
	src, ok := s.sources[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &src, nil
}

func (s *fakeStore) UpsertSource(_ context.Context, name, url, category string) (int64, error) {
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	s.upserted = append(s.upserted, name+"|"+url+"|"+category)
	return int64(len(s.upserted)), nil
}

func (s *fakeStore) InsertArticles(_ context.Context, articles []models.Article) ([]models.Article, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	var out []models.Article
	for _, a := range articles {
		if s.urls[a.URL] {
			continue
		}
		s.urls[a.URL] = true
		s.nextID++
		a.ID = s.nextID
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeStore) UpdateArticleScore(_ context.Context, id int64, score float64) error {
	s.scores[id] = score
	return nil
}

type fakeAnalyzer struct {
	failTitle string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, a models.Article) (llm.Analysis, error) {
	if a.Title == f.failTitle {
		return llm.Analysis{}, errors.New("model overloaded")
	}
	return llm.Analysis{Importance: float64(len(a.Title) % 10), Sentiment: "neutral"}, nil
}

type fakeIndexer struct {
	indexed []models.Article
	err     error
}

func (f *fakeIndexer) IndexArticle(_ context.Context, a models.Article) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, a)
	return nil
}

func TestImport(t *testing.T) {
	store := newFakeStore()
	ix := &fakeIndexer{}
	imp := NewImporter(store, WithAnalyzer(&fakeAnalyzer{}), WithIndexer(ix))

	inserted := testutil.ToFloat64(metrics.ImportArticles.WithLabelValues("inserted"))

	res, err := imp.Import(context.Background(), 1, strings.NewReader(rssDoc))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Found != 2 || res.Inserted != 2 || res.Analyzed != 2 || res.Indexed != 2 || res.Failures != 0 {
		t.Errorf("result = %+v", res)
	}
	if got := testutil.ToFloat64(metrics.ImportArticles.WithLabelValues("inserted")) - inserted; got != 2 {
		t.Errorf("inserted metric delta = %v, want 2", got)
	}

	wantScores := map[int64]float64{101: float64(len("Go 1.26 released") % 10), 102: float64(len("Guid only") % 10)}
	if diff := cmp.Diff(wantScores, store.scores); diff != "" {
		t.Errorf("scores mismatch (-want +got):\n%s", diff)
	}
	for _, a := range ix.indexed {
		if a.SourceName != "Tech Daily" || a.SourceCategory != "technology" || a.ID == 0 {
			t.Errorf("indexed article missing source join or id: %+v", a)
		}
	}
	if diff := cmp.Diff(models.ImportResponse{SourceID: 1, Found: 2, Inserted: 2}, res.Response()); diff != "" {
		t.Errorf("Response() mismatch (-want +got):\n%s", diff)
	}

	// The same document again finds everything but inserts nothing.
	res, err = imp.Import(context.Background(), 1, strings.NewReader(rssDoc))
	if err != nil {
		t.Fatal(err)
	}
	if res.Found != 2 || res.Inserted != 0 || res.Analyzed != 0 {
		t.Errorf("re-import result = %+v", res)
	}
}

func TestImport_EnrichFailuresAreCounted(t *testing.T) {
	store := newFakeStore()
	imp := NewImporter(store,
		WithAnalyzer(&fakeAnalyzer{failTitle: "Guid only"}),
		WithIndexer(&fakeIndexer{err: errors.New("embedding offline")}))

	res, err := imp.Import(context.Background(), 1, strings.NewReader(rssDoc))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Inserted != 2 || res.Analyzed != 1 || res.Indexed != 0 || res.Failures != 3 {
		t.Errorf("result = %+v", res)
	}
}

func TestImport_Errors(t *testing.T) {
	storeErr := errors.New("disk full")

	tests := []struct {
		name    string
		source  int64
		doc     string
		opts    []Option
		setup   func(*fakeStore)
		wantErr error
	}{
		{name: "unknown source", source: 42, doc: rssDoc, wantErr: ErrSourceNotFound},
		{name: "invalid document", source: 1, doc: "<html></html>", wantErr: ErrInvalidFeed},
		{name: "document too large", source: 1, doc: rssDoc, opts: []Option{WithLimits(0, 64)}, wantErr: ErrDocumentTooLarge},
		{name: "insert failure", source: 1, doc: rssDoc, setup: func(s *fakeStore) { s.insertErr = storeErr }, wantErr: storeErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			if tt.setup != nil {
				tt.setup(store)
			}
			res, err := NewImporter(store, tt.opts...).Import(context.Background(), tt.source, strings.NewReader(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Import() error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Errorf("Import() result = %+v, want nil", res)
			}
		})
	}
}

func TestImport_Limits(t *testing.T) {
	store := newFakeStore()
	imp := NewImporter(store, WithLimits(1, int64(len(rssDoc))))

	res, err := imp.Import(context.Background(), 1, strings.NewReader(rssDoc))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Found != 1 || res.Inserted != 1 {
		t.Errorf("result = %+v, want one item", res)
	}
}

func TestSeedSources(t *testing.T) {
	store := newFakeStore()
	imp := NewImporter(store)

	n, err := imp.SeedSources(context.Background(), []config.FeedSource{
		{Name: "Tech", URL: "https://tech.example.com/rss", Category: "technology"},
		{Name: "Misc", URL: "https://misc.example.com/rss"},
		{Name: "", URL: "https://nameless.example.com/rss"},
	})
	if err != nil {
		t.Fatalf("SeedSources() error = %v", err)
	}
	if n != 2 {
		t.Errorf("SeedSources() = %d, want 2", n)
	}
	want := []string{
		"Tech|https://tech.example.com/rss|technology",
		"Misc|https://misc.example.com/rss|general",
	}
	if diff := cmp.Diff(want, store.upserted); diff != "" {
		t.Errorf("upserted mismatch (-want +got):\n%s", diff)
	}

	store.upsertErr = errors.New("locked")
	if _, err := imp.SeedSources(context.Background(), []config.FeedSource{{Name: "X", URL: "https://x"}}); err == nil {
		t.Error("SeedSources() ignored a store error")
	}
}
