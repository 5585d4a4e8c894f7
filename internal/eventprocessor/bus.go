// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/newsrank/internal/logging"
)

// Bus owns the publisher and subscriber of the configured backend.
type Bus struct {
	backend    string
	publisher  message.Publisher
	subscriber message.Subscriber
	closeOnce  sync.Once
	closeErr   error
}

// NewLogger returns a Watermill logger that writes through the process logger.
func NewLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger())
}

// NewBus connects the configured backend. For NATS it also ensures the
// JetStream stream exists before any publisher or subscriber is created.
func NewBus(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewLogger()
	}

	switch cfg.Backend {
	case BackendNATS:
		return newNATSBus(ctx, cfg, logger)
	default:
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.OutputChannelBuffer,
		}, logger)
		return &Bus{backend: BackendGoChannel, publisher: ch, subscriber: ch}, nil
	}
}

func newNATSBus(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if err := EnsureStream(ctx, cfg); err != nil {
		return nil, err
	}

	pub, err := newNATSPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}
	sub, err := newNATSSubscriber(cfg, logger)
	if err != nil {
		_ = pub.Close()
		return nil, err
	}
	return &Bus{backend: BackendNATS, publisher: pub, subscriber: sub}, nil
}

// Backend returns the backend name.
func (b *Bus) Backend() string {
	return b.backend
}

// Publisher returns the raw Watermill publisher.
func (b *Bus) Publisher() message.Publisher {
	return b.publisher
}

// Subscriber returns the Watermill subscriber for router handlers. Closing
// the returned subscriber is a no-op: the router closes its subscribers when
// it stops, but the bus must survive router restarts. Call Bus.Close instead.
func (b *Bus) Subscriber() message.Subscriber {
	return nopCloseSubscriber{b.subscriber}
}

// Close shuts down the publisher and subscriber. It is safe to call more than once.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		var errs []error
		if err := b.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
		if any(b.subscriber) != any(b.publisher) {
			if err := b.subscriber.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close subscriber: %w", err))
			}
		}
		b.closeErr = errors.Join(errs...)
	})
	return b.closeErr
}

type nopCloseSubscriber struct {
	message.Subscriber
}

func (nopCloseSubscriber) Close() error { return nil }
