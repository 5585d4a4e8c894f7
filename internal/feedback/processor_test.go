// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package feedback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/newsrank/internal/database"
	"github.com/tomtom215/newsrank/internal/eventprocessor"
	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
	"github.com/tomtom215/newsrank/internal/recommend"
)

type interestUpdate struct {
	user     string
	keywords []string
	delta    float64
}

type fakeStore struct {
	mu        sync.Mutex
	articles  map[int64]models.Article
	actions   []models.UserAction
	updates   []interestUpdate
	recordErr error
	getErr    error
	updateErr error
	steps     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{articles: map[int64]models.Article{
		1: {ID: 1, Title: "Go generics", Description: "type parameters explained"},
	}}
}

func (s *fakeStore) RecordUserAction(_ context.Context, userID string, articleID int64, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, "record")
	if s.recordErr != nil {
		return s.recordErr
	}
	s.actions = append(s.actions, models.UserAction{UserID: userID, ArticleID: articleID, Action: action})
	return nil
}

func (s *fakeStore) GetArticle(_ context.Context, id int64) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, "get")
	if s.getErr != nil {
		return nil, s.getErr
	}
	a, ok := s.articles[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &a, nil
}

func (s *fakeStore) UpdateUserInterests(_ context.Context, userID string, keywords []string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, "interests")
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, interestUpdate{userID, keywords, delta})
	return nil
}

type fakeExtractor struct {
	keywords []string
	err      error
	text     string
}

func (f *fakeExtractor) ExtractKeywords(_ context.Context, text string) ([]string, error) {
	f.text = text
	return f.keywords, f.err
}

type fakePublisher struct {
	events []*eventprocessor.FeedbackRecorded
	err    error
}

func (f *fakePublisher) PublishFeedback(_ context.Context, e *eventprocessor.FeedbackRecorded) error {
	f.events = append(f.events, e)
	return f.err
}

type fakeRefresher struct {
	users []string
	err   error
}

func (f *fakeRefresher) RefreshUserPreference(_ context.Context, userID string) ([]float64, error) {
	f.users = append(f.users, userID)
	return nil, f.err
}

func TestProcess_Like(t *testing.T) {
	store := newFakeStore()
	ext := &fakeExtractor{keywords: []string{"go", "generics"}}
	pub := &fakePublisher{}
	ref := &fakeRefresher{}
	p := NewProcessor(store, ext, WithEventPublisher(pub), WithPreferenceRefresher(ref))

	res, err := p.Process(context.Background(), "alice", 1, models.ActionLike)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if diff := cmp.Diff(&Result{Success: true, Keywords: []string{"go", "generics"}}, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if ext.text != "Go generics type parameters explained" {
		t.Errorf("extractor saw %q", ext.text)
	}
	if diff := cmp.Diff([]string{"record", "get", "interests"}, store.steps); diff != "" {
		t.Errorf("step order mismatch (-want +got):\n%s", diff)
	}
	want := []interestUpdate{{"alice", []string{"go", "generics"}, DefaultInterestStep}}
	if diff := cmp.Diff(want, store.updates, cmp.AllowUnexported(interestUpdate{})); diff != "" {
		t.Errorf("interest updates mismatch (-want +got):\n%s", diff)
	}
	if len(pub.events) != 1 || pub.events[0].UserID != "alice" || pub.events[0].ArticleID != 1 {
		t.Errorf("published events = %+v", pub.events)
	}
	if diff := cmp.Diff([]string{"alice"}, ref.users); diff != "" {
		t.Errorf("refreshed users mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_DislikeUsesNegativeStep(t *testing.T) {
	store := newFakeStore()
	p := NewProcessor(store, &fakeExtractor{keywords: []string{"go"}}, WithInterestStep(0.25))

	if _, err := p.Process(context.Background(), "bob", 1, models.ActionDislike); err != nil {
		t.Fatal(err)
	}
	if len(store.updates) != 1 || store.updates[0].delta != -0.25 {
		t.Errorf("updates = %+v, want one update with delta -0.25", store.updates)
	}
}

func TestProcess_EmptyUserIsDefault(t *testing.T) {
	store := newFakeStore()
	p := NewProcessor(store, &fakeExtractor{keywords: []string{"go"}})

	if _, err := p.Process(context.Background(), "  ", 1, models.ActionLike); err != nil {
		t.Fatal(err)
	}
	if store.actions[0].UserID != recommend.DefaultUserID {
		t.Errorf("recorded user %q, want %q", store.actions[0].UserID, recommend.DefaultUserID)
	}
}

func TestProcess_NoKeywordsSkipsInterestUpdate(t *testing.T) {
	store := newFakeStore()
	p := NewProcessor(store, &fakeExtractor{})

	res, err := p.Process(context.Background(), "carol", 1, models.ActionLike)
	if err != nil {
		t.Fatal(err)
	}
	if res.Keywords == nil || len(res.Keywords) != 0 {
		t.Errorf("Keywords = %#v, want empty non-nil", res.Keywords)
	}
	if len(store.updates) != 0 {
		t.Errorf("interests updated without keywords: %+v", store.updates)
	}
}

func TestProcess_Errors(t *testing.T) {
	storeErr := errors.New("disk full")

	tests := []struct {
		name      string
		article   int64
		action    string
		user      string
		setup     func(*fakeStore, *fakeExtractor)
		wantErr   error
		wantSteps []string
		wantLabel string
	}{
		{
			name: "invalid action", article: 1, action: "share",
			wantErr: ErrInvalidAction, wantSteps: nil, wantLabel: "rejected",
		},
		{
			name: "invalid user", article: 1, action: models.ActionLike, user: strings.Repeat("u", 200),
			wantErr: recommend.ErrInvalidUser, wantSteps: nil, wantLabel: "rejected",
		},
		{
			name: "missing article", article: 99, action: models.ActionLike,
			wantErr: ErrArticleNotFound, wantSteps: []string{"record", "get"}, wantLabel: "not_found",
		},
		{
			name: "record failure", article: 1, action: models.ActionLike,
			setup:   func(s *fakeStore, _ *fakeExtractor) { s.recordErr = storeErr },
			wantErr: storeErr, wantSteps: []string{"record"}, wantLabel: "error",
		},
		{
			name: "article lookup failure", article: 1, action: models.ActionDislike,
			setup:   func(s *fakeStore, _ *fakeExtractor) { s.getErr = storeErr },
			wantErr: storeErr, wantSteps: []string{"record", "get"}, wantLabel: "error",
		},
		{
			name: "extractor failure", article: 1, action: models.ActionLike,
			setup:   func(_ *fakeStore, e *fakeExtractor) { e.err = storeErr },
			wantErr: storeErr, wantSteps: []string{"record", "get"}, wantLabel: "error",
		},
		{
			name: "interest update failure", article: 1, action: models.ActionLike,
			setup:   func(s *fakeStore, _ *fakeExtractor) { s.updateErr = storeErr },
			wantErr: storeErr, wantSteps: []string{"record", "get", "interests"}, wantLabel: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			ext := &fakeExtractor{keywords: []string{"go"}}
			if tt.setup != nil {
				tt.setup(store, ext)
			}
			pub := &fakePublisher{}
			p := NewProcessor(store, ext, WithEventPublisher(pub))

			label := actionLabel(tt.action)
			before := testutil.ToFloat64(metrics.FeedbackTotal.WithLabelValues(label, tt.wantLabel))

			res, err := p.Process(context.Background(), tt.user, tt.article, tt.action)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Process() error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Errorf("Process() result = %+v, want nil", res)
			}
			if diff := cmp.Diff(tt.wantSteps, store.steps); diff != "" {
				t.Errorf("steps mismatch (-want +got):\n%s", diff)
			}
			if len(pub.events) != 0 {
				t.Errorf("event published for failed feedback: %+v", pub.events)
			}
			if got := testutil.ToFloat64(metrics.FeedbackTotal.WithLabelValues(label, tt.wantLabel)) - before; got != 1 {
				t.Errorf("feedback_total{%s,%s} delta = %v, want 1", label, tt.wantLabel, got)
			}
		})
	}
}

func TestProcess_SideEffectFailuresDoNotFail(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{err: errors.New("broker down")}
	ref := &fakeRefresher{err: errors.New("embedding offline")}
	p := NewProcessor(store, &fakeExtractor{keywords: []string{"go"}},
		WithEventPublisher(pub), WithPreferenceRefresher(ref))

	res, err := p.Process(context.Background(), "dave", 1, models.ActionLike)
	if err != nil {
		t.Fatalf("Process() error = %v, want nil", err)
	}
	if !res.Success || len(pub.events) != 1 || len(ref.users) != 1 {
		t.Errorf("result = %+v, events = %d, refreshes = %d", res, len(pub.events), len(ref.users))
	}
}

func TestWithInterestStep_IgnoresNonPositive(t *testing.T) {
	p := NewProcessor(newFakeStore(), &fakeExtractor{}, WithInterestStep(0), WithInterestStep(-1))
	if p.step != DefaultInterestStep {
		t.Errorf("step = %v, want %v", p.step, DefaultInterestStep)
	}
}
