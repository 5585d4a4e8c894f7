// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package eventprocessor

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/newsrank/internal/metrics"
)

func feedbackMessage(t *testing.T, e *FeedbackRecorded) *message.Message {
	t.Helper()
	payload, err := NewSerializer().Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	return message.NewMessage(e.EventID, payload)
}

func TestCacheInvalidationHandler(t *testing.T) {
	tests := []struct {
		name        string
		failN       int
		msg         func(t *testing.T) *message.Message
		wantErr     bool
		wantStats   CacheInvalidationStats
		wantFailure float64
	}{
		{
			name: "invalidates user",
			msg: func(t *testing.T) *message.Message {
				return feedbackMessage(t, NewFeedbackRecorded("alice", 1, "like", nil))
			},
			wantStats: CacheInvalidationStats{Handled: 1, Invalidated: 2},
		},
		{
			name:  "store failure is retried",
			failN: 1,
			msg: func(t *testing.T) *message.Message {
				return feedbackMessage(t, NewFeedbackRecorded("alice", 1, "like", nil))
			},
			wantErr:     true,
			wantFailure: 1,
		},
		{
			name: "malformed payload is dropped",
			msg: func(*testing.T) *message.Message {
				return message.NewMessage("bad", []byte(`{"user_id":`))
			},
			wantStats:   CacheInvalidationStats{Rejected: 1},
			wantFailure: 1,
		},
		{
			name: "invalid event is dropped",
			msg: func(*testing.T) *message.Message {
				return message.NewMessage("bad", []byte(`{"event_id":"e","user_id":"","article_id":1,"action":"like"}`))
			},
			wantStats:   CacheInvalidationStats{Rejected: 1},
			wantFailure: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(TopicFeedbackRecorded, "failure"))

			h := NewCacheInvalidationHandler(newFakeInvalidator(tt.failN))
			err := h.Handle(tt.msg(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Handle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := h.Stats(); got != tt.wantStats {
				t.Errorf("Stats() = %+v, want %+v", got, tt.wantStats)
			}
			got := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(TopicFeedbackRecorded, "failure")) - failures
			if got != tt.wantFailure {
				t.Errorf("failure metric delta = %v, want %v", got, tt.wantFailure)
			}
		})
	}
}
