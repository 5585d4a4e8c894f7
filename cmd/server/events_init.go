// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/eventprocessor"
	"github.com/tomtom215/newsrank/internal/logging"
)

// EventComponents holds the event bus, the feedback publisher and the
// router that fans feedback events out to handlers.
type EventComponents struct {
	Bus       *eventprocessor.Bus
	Publisher *eventprocessor.Publisher
	Router    *eventprocessor.Router
}

// initEvents connects the configured bus and registers the cache
// invalidation handler on the feedback.recorded topic.
func initEvents(ctx context.Context, cfg config.EventsConfig, invalidator eventprocessor.UserInvalidator) (*EventComponents, error) {
	ecfg := eventprocessor.FromAppConfig(cfg)
	logger := eventprocessor.NewLogger()

	bus, err := eventprocessor.NewBus(ctx, ecfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect event bus: %w", err)
	}

	pub, err := eventprocessor.NewPublisher(bus.Publisher())
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("create event publisher: %w", err)
	}

	handler := eventprocessor.NewCacheInvalidationHandler(invalidator)
	router := eventprocessor.NewRouter(ecfg, logger)
	router.AddConsumerHandler(
		eventprocessor.CacheInvalidationHandlerName,
		eventprocessor.TopicFeedbackRecorded,
		bus.Subscriber(),
		handler.Handle,
	)

	logging.Info().
		Str("backend", bus.Backend()).
		Strs("handlers", router.Handlers()).
		Msg("Event bus initialized")

	return &EventComponents{Bus: bus, Publisher: pub, Router: router}, nil
}

// Close stops publishing and then closes the router and bus.
func (e *EventComponents) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	if err := e.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := e.Router.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close router: %w", err))
	}
	if err := e.Bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bus: %w", err))
	}
	return errors.Join(errs...)
}
