// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package eventprocessor

import (
	"context"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/metrics"
)

// CacheInvalidationHandlerName is the router handler name of the cache consumer.
const CacheInvalidationHandlerName = "cache-invalidation"

// UserInvalidator deletes every cached entry belonging to a user.
type UserInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) (int64, error)
}

// CacheInvalidationHandler drops a user's cached recommendation pages when
// their feedback changes the interests ranking depends on.
type CacheInvalidationHandler struct {
	cache      UserInvalidator
	serializer *Serializer
	logger     zerolog.Logger

	handled     atomic.Int64
	invalidated atomic.Int64
	rejected    atomic.Int64
}

// CacheInvalidationStats reports handler counters.
type CacheInvalidationStats struct {
	Handled     int64 `json:"handled"`
	Invalidated int64 `json:"invalidated"`
	Rejected    int64 `json:"rejected"`
}

// NewCacheInvalidationHandler creates the handler.
func NewCacheInvalidationHandler(cache UserInvalidator) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{
		cache:      cache,
		serializer: NewSerializer(),
		logger:     logging.WithComponent("cache-invalidation"),
	}
}

// Handle processes one FeedbackRecorded message. Malformed payloads are
// acknowledged and dropped since redelivery cannot fix them; store errors
// are returned so the Retry middleware and broker redelivery apply.
func (h *CacheInvalidationHandler) Handle(msg *message.Message) error {
	event, err := h.serializer.Unmarshal(msg.Payload)
	if err != nil {
		h.rejected.Add(1)
		metrics.RecordEventConsume(TopicFeedbackRecorded, err)
		h.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed feedback event")
		return nil
	}

	removed, err := h.cache.InvalidateUser(msg.Context(), event.UserID)
	metrics.RecordEventConsume(TopicFeedbackRecorded, err)
	if err != nil {
		h.logger.Warn().Err(err).
			Str("user_id", event.UserID).
			Str("event_id", event.EventID).
			Str("stage", "invalidate").
			Msg("Cache invalidation failed")
		return err
	}

	h.handled.Add(1)
	h.invalidated.Add(removed)
	h.logger.Debug().
		Str("user_id", event.UserID).
		Int64("article_id", event.ArticleID).
		Int64("removed", removed).
		Msg("Invalidated cached recommendations")
	return nil
}

// Stats returns handler counters.
func (h *CacheInvalidationHandler) Stats() CacheInvalidationStats {
	return CacheInvalidationStats{
		Handled:     h.handled.Load(),
		Invalidated: h.invalidated.Load(),
		Rejected:    h.rejected.Load(),
	}
}
