// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/newsrank/internal/logging"
)

// EventRouter is the consumer side of the event bus. Implemented by
// *eventprocessor.Router.
type EventRouter interface {
	Serve(ctx context.Context) error
	Handlers() []string
}

// EventRouterService runs the event router in the messaging layer.
//
// The router consumes feedback.recorded events and invalidates the
// affected user's cached recommendations. Run it with:
//
//	tree.AddMessagingService(services.NewEventRouterService(events.Router))
type EventRouterService struct {
	router EventRouter
}

// NewEventRouterService wraps router.
func NewEventRouterService(router EventRouter) *EventRouterService {
	return &EventRouterService{router: router}
}

// Serve implements suture.Service.
//
// A router without handlers would never consume anything, so Serve logs a
// warning and returns suture.ErrDoNotRestart. Otherwise it blocks in the
// router until ctx ends. A router error while ctx is still live is
// returned wrapped and the supervisor restarts the service; after
// cancellation Serve returns ctx.Err().
func (s *EventRouterService) Serve(ctx context.Context) error {
	handlers := s.router.Handlers()
	if len(handlers) == 0 {
		logging.Warn().Msg("Event router has no handlers; not starting")
		return suture.ErrDoNotRestart
	}

	logging.Info().Strs("handlers", handlers).Msg("Starting event router")
	if err := s.router.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("event router failed: %w", err)
	}
	return ctx.Err()
}

// String names the service in supervisor log lines.
func (s *EventRouterService) String() string {
	return "event-router"
}
