// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/resilience"
)

// Metadata keys set on published messages.
const (
	MetadataEventType = "event_type"
	MetadataRequestID = "request_id"
)

// Publisher encodes domain events and publishes them with circuit breaker
// protection. It does not own the underlying Watermill publisher.
type Publisher struct {
	publisher  message.Publisher
	serializer *Serializer
	breaker    *resilience.Breaker[struct{}]
	mu         sync.RWMutex
	closed     bool
}

// NewPublisher wraps a Watermill publisher.
func NewPublisher(pub message.Publisher) (*Publisher, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	return &Publisher{
		publisher:  pub,
		serializer: NewSerializer(),
		breaker: resilience.NewBreaker[struct{}]("events", config.BreakerConfig{
			MinRequests:  5,
			FailureRatio: 0.6,
			Interval:     time.Minute,
			OpenTimeout:  30 * time.Second,
		}),
	}, nil
}

// PublishFeedback publishes a FeedbackRecorded event. The event ID becomes
// the message UUID and the JetStream message ID for de-duplication.
func (p *Publisher) PublishFeedback(ctx context.Context, event *FeedbackRecorded) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	payload, err := p.serializer.Marshal(event)
	if err != nil {
		metrics.RecordEventPublish(event.Topic(), err)
		return err
	}

	msg := message.NewMessage(event.EventID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataEventType, event.Topic())
	msg.Metadata.Set(natsgo.MsgIdHdr, event.EventID)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataRequestID, id)
	}
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(event.Topic(), msg)
	})
	metrics.RecordEventPublish(event.Topic(), err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Topic(), err)
	}
	return nil
}

// Close stops accepting events. The underlying publisher is left to its owner.
func (p *Publisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
