// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
)

func TestMiddlewareConfigFromSecurity(t *testing.T) {
	t.Parallel()

	got := MiddlewareConfigFromSecurity(config.SecurityConfig{
		CORSOrigins:     []string{"https://news.example.com"},
		RateLimitReqs:   5,
		RateLimitWindow: 10 * time.Second,
	})
	if diff := cmp.Diff([]string{"https://news.example.com"}, got.CORSAllowedOrigins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if got.RateLimitRequests != 5 || got.RateLimitWindow != 10*time.Second || got.RateLimitDisabled {
		t.Errorf("rate limit = %d/%v disabled=%v", got.RateLimitRequests, got.RateLimitWindow, got.RateLimitDisabled)
	}

	def := MiddlewareConfigFromSecurity(config.SecurityConfig{})
	if def.RateLimitRequests != 100 || def.RateLimitWindow != time.Minute {
		t.Errorf("zero security config should keep defaults, got %d/%v", def.RateLimitRequests, def.RateLimitWindow)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t)
	cfg := DefaultMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	h := NewHandler(ts.engine, ts.feedback, ts.importer, ts.store, Options{})
	handler := NewRouter(h, NewMiddleware(cfg)).Setup()

	hits := testutil.ToFloat64(metrics.APIRateLimitHits)

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/recommendations/stats", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			if got := decode[models.ErrorResponse](t, rec).Error.Code; got != ErrCodeTooManyRequests {
				t.Errorf("429 code = %q", got)
			}
		}
	}
	if diff := cmp.Diff([]int{200, 200, 429}, codes); diff != "" {
		t.Errorf("status codes mismatch (-want +got):\n%s", diff)
	}
	if got := testutil.ToFloat64(metrics.APIRateLimitHits) - hits; got != 1 {
		t.Errorf("rate limit hits delta = %v, want 1", got)
	}

	// /health is outside /api and is never limited.
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("/health status = %d", rec.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	cfg := DefaultMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://news.example.com"}
	cfg.RateLimitDisabled = true
	ts := newTestServer(t)
	handler := NewRouter(NewHandler(ts.engine, ts.feedback, ts.importer, ts.store, Options{}), NewMiddleware(cfg)).Setup()

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://news.example.com", want: "https://news.example.com"},
		{origin: "https://evil.example.com", want: ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/articles/1/feedback", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}
