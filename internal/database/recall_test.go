// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/newsrank/internal/models"
)

func titles(articles []models.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title
	}
	return out
}

func scoredTitles(articles []ScoredArticle) map[string]float64 {
	out := make(map[string]float64, len(articles))
	for _, a := range articles {
		out[a.Title] = a.Score
	}
	return out
}

func TestTagCandidates(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		sid := seedSource(t, db, "wire", "tech")
		seedArticle(t, db, sid, "GoRelease", "Programming, Go")
		seedArticle(t, db, sid, "Elections", "politics")
		acted := seedArticle(t, db, sid, "GoTooling", "go, tools")
		seedArticle(t, db, sid, "Percent", "100%_growth")
		seedArticle(t, db, sid, "Rust", "programming, rust")
		_ = db.RecordUserAction(ctx, "alice", acted, models.ActionLike)

		got, err := db.TagCandidates(ctx, "alice", []string{"GO", "rust"}, 10)
		if err != nil {
			t.Fatalf("TagCandidates() error = %v", err)
		}
		// newest first, acted-on article excluded
		if diff := cmp.Diff([]string{"Rust", "GoRelease"}, titles(got)); diff != "" {
			t.Errorf("TagCandidates() mismatch (-want +got):\n%s", diff)
		}

		limited, err := db.TagCandidates(ctx, "alice", []string{"programming"}, 1)
		if err != nil {
			t.Fatalf("TagCandidates() error = %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("limit ignored: %d rows", len(limited))
		}

		wild, err := db.TagCandidates(ctx, "alice", []string{"%"}, 10)
		if err != nil {
			t.Fatalf("TagCandidates() error = %v", err)
		}
		if diff := cmp.Diff([]string{"Percent"}, titles(wild)); diff != "" {
			t.Errorf("LIKE wildcard not escaped (-want +got):\n%s", diff)
		}

		none, err := db.TagCandidates(ctx, "alice", []string{" ", ""}, 10)
		if err != nil || none != nil {
			t.Errorf("TagCandidates(blank) = %v, %v; want nil, nil", none, err)
		}
	})
}

func TestSimilarUsersAndCollaborative(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		sid := seedSource(t, db, "wire", "")
		a := seedArticle(t, db, sid, "A", "")
		b := seedArticle(t, db, sid, "B", "")
		c := seedArticle(t, db, sid, "C", "")
		d := seedArticle(t, db, sid, "D", "")
		e := seedArticle(t, db, sid, "E", "")

		like := func(user string, ids ...int64) {
			for _, id := range ids {
				if err := db.RecordUserAction(ctx, user, id, models.ActionLike); err != nil {
					t.Fatalf("RecordUserAction() error = %v", err)
				}
			}
		}
		like("alice", a, b)
		like("bob", a, b, c, d)
		like("carol", a, b, d)
		like("dave", a, e) // only one in common

		peers, err := db.SimilarUsers(ctx, "alice", 2, 10)
		if err != nil {
			t.Fatalf("SimilarUsers() error = %v", err)
		}
		want := []SimilarUser{{UserID: "bob", CommonLikes: 2}, {UserID: "carol", CommonLikes: 2}}
		if diff := cmp.Diff(want, peers); diff != "" {
			t.Errorf("SimilarUsers() mismatch (-want +got):\n%s", diff)
		}

		got, err := db.CollaborativeCandidates(ctx, "alice", []string{"bob", "carol"}, 10)
		if err != nil {
			t.Fatalf("CollaborativeCandidates() error = %v", err)
		}
		if diff := cmp.Diff(map[string]float64{"D": 2, "C": 1}, scoredTitles(got)); diff != "" {
			t.Errorf("CollaborativeCandidates() mismatch (-want +got):\n%s", diff)
		}
		if len(got) > 0 && got[0].Title != "D" {
			t.Errorf("first candidate = %s, want D", got[0].Title)
		}

		empty, err := db.CollaborativeCandidates(ctx, "alice", nil, 10)
		if err != nil || empty != nil {
			t.Errorf("CollaborativeCandidates(no peers) = %v, %v", empty, err)
		}
	})
}

func TestTrendingCandidates(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		sid := seedSource(t, db, "wire", "")
		hot := seedArticle(t, db, sid, "Hot", "")
		mixed := seedArticle(t, db, sid, "Mixed", "")
		seedArticle(t, db, sid, "Quiet", "")

		for _, u := range []string{"u1", "u2", "u3"} {
			_ = db.RecordUserAction(ctx, u, hot, models.ActionLike)
		}
		_ = db.RecordUserAction(ctx, "u1", mixed, models.ActionLike)
		_ = db.RecordUserAction(ctx, "u2", mixed, models.ActionDislike)
		_ = db.RecordUserAction(ctx, "u3", mixed, models.ActionDislike)

		got, err := db.TrendingCandidates(ctx, time.Now().Add(-7*24*time.Hour), 10)
		if err != nil {
			t.Fatalf("TrendingCandidates() error = %v", err)
		}
		if diff := cmp.Diff(map[string]float64{"Hot": 6, "Mixed": 0}, scoredTitles(got)); diff != "" {
			t.Errorf("TrendingCandidates() mismatch (-want +got):\n%s", diff)
		}

		future, err := db.TrendingCandidates(ctx, time.Now().Add(time.Hour), 10)
		if err != nil {
			t.Fatalf("TrendingCandidates() error = %v", err)
		}
		if len(future) != 0 {
			t.Errorf("window excluded nothing: %d rows", len(future))
		}
	})
}

func TestGetArticlesByIDs_ExcludesActed(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		sid := seedSource(t, db, "wire", "")
		a := seedArticle(t, db, sid, "A", "")
		b := seedArticle(t, db, sid, "B", "")
		_ = db.RecordUserAction(ctx, "alice", a, models.ActionDislike)

		got, err := db.GetArticlesByIDs(ctx, []int64{a, b, 9999}, "alice")
		if err != nil {
			t.Fatalf("GetArticlesByIDs() error = %v", err)
		}
		if diff := cmp.Diff([]string{"B"}, titles(got)); diff != "" {
			t.Errorf("GetArticlesByIDs() mismatch (-want +got):\n%s", diff)
		}

		all, err := db.GetArticlesByIDs(ctx, []int64{a, b}, "")
		if err != nil {
			t.Fatalf("GetArticlesByIDs() error = %v", err)
		}
		if len(all) != 2 {
			t.Errorf("GetArticlesByIDs(no exclusion) = %d rows, want 2", len(all))
		}
	})
}
