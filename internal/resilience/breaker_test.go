// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/metrics"
)

var errSimulated = errors.New("simulated provider failure")

func testBreakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		MinRequests:  10,
		FailureRatio: 0.6,
		Interval:     time.Second,
		OpenTimeout:  100 * time.Millisecond,
	}
}

func fail() (string, error)    { return "", errSimulated }
func succeed() (string, error) { return "ok", nil }

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b := NewBreaker[string]("test-opens", testBreakerConfig())

	if b.State() != gobreaker.StateClosed {
		t.Fatalf("initial state = %v, want closed", b.State())
	}

	for i := 0; i < 10; i++ {
		fn := fail
		if i >= 7 {
			fn = succeed
		}
		_, _ = b.Execute(fn)
	}
	// 7 of 10 failed; the next failure re-evaluates the ratio
	_, _ = b.Execute(fail)

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	calls := 0
	_, err := b.Execute(func() (string, error) {
		calls++
		return "ok", nil
	})
	if !IsRejected(err) {
		t.Errorf("Execute() on open circuit error = %v, want rejection", err)
	}
	if calls != 0 {
		t.Errorf("wrapped function ran %d times on open circuit", calls)
	}
}

func TestBreaker_StaysClosedBelowThreshold(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		total    int
	}{
		{"below minimum requests", 9, 9},
		{"below failure ratio", 5, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBreaker[string]("test-closed-"+tt.name, testBreakerConfig())
			for i := 0; i < tt.total; i++ {
				fn := succeed
				if i < tt.failures {
					fn = fail
				}
				_, _ = b.Execute(fn)
			}
			if b.State() != gobreaker.StateClosed {
				t.Errorf("state = %v, want closed", b.State())
			}
		})
	}
}

func TestBreaker_RecoversAfterTimeout(t *testing.T) {
	b := NewBreaker[string]("test-recovers", testBreakerConfig())
	for i := 0; i < 10; i++ {
		_, _ = b.Execute(fail)
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	time.Sleep(150 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if _, err := b.Execute(succeed); err != nil {
			t.Fatalf("probe %d error = %v", i, err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state after successful probes = %v, want closed", b.State())
	}
}

func TestBreaker_Metrics(t *testing.T) {
	const name = "test-metrics"
	b := NewBreaker[string](name, testBreakerConfig())

	success := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues(name, "success"))
	failure := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues(name, "failure"))

	_, _ = b.Execute(succeed)
	_, _ = b.Execute(fail)
	_, _ = b.Execute(fail)

	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues(name, "success")) - success; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues(name, "failure")) - failure; got != 2 {
		t.Errorf("failure delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name)); got != 2 {
		t.Errorf("consecutive failures = %v, want 2", got)
	}
}

func TestBreaker_Defaults(t *testing.T) {
	b := NewBreaker[int]("test-defaults", config.BreakerConfig{})
	for i := 0; i < 9; i++ {
		_, _ = b.Execute(func() (int, error) { return 0, errSimulated })
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("zero config tripped after 9 requests, want default minimum of 10")
	}
	if b.Name() != "test-defaults" {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  string
		value float64
	}{
		{gobreaker.StateClosed, "closed", 0},
		{gobreaker.StateHalfOpen, "half-open", 1},
		{gobreaker.StateOpen, "open", 2},
		{gobreaker.State(99), "unknown", -1},
	}
	for _, tt := range tests {
		if got := StateString(tt.state); got != tt.want {
			t.Errorf("StateString(%v) = %q, want %q", tt.state, got, tt.want)
		}
		if got := stateToFloat(tt.state); got != tt.value {
			t.Errorf("stateToFloat(%v) = %v, want %v", tt.state, got, tt.value)
		}
	}
}
