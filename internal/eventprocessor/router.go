// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

type consumerHandler struct {
	name       string
	topic      string
	subscriber message.Subscriber
	handler    message.NoPublishHandlerFunc
}

// Router wraps the Watermill Router with pre-configured middleware.
// Handlers are registered before Serve; each Serve call builds a fresh
// message.Router from them so the router can be restarted.
type Router struct {
	config  Config
	logger  watermill.LoggerAdapter
	mu      sync.Mutex
	specs   []consumerHandler
	current *message.Router
	running atomic.Bool
	started chan struct{}
	once    sync.Once
}

// NewRouter creates a router. A nil logger uses the process logger.
func NewRouter(cfg Config, logger watermill.LoggerAdapter) *Router {
	if logger == nil {
		logger = NewLogger()
	}
	return &Router{
		config:  cfg,
		logger:  logger,
		started: make(chan struct{}),
	}
}

// AddConsumerHandler registers a handler that doesn't produce output messages.
// Handlers added after Serve has started take effect on the next restart.
func (r *Router) AddConsumerHandler(name, topic string, subscriber message.Subscriber, handler message.NoPublishHandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = append(r.specs, consumerHandler{name: name, topic: topic, subscriber: subscriber, handler: handler})
}

// Handlers returns the registered handler names.
func (r *Router) Handlers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.specs))
	for i, s := range r.specs {
		names[i] = s.name
	}
	return names
}

// build creates a message.Router with, outer to inner:
//  1. Recoverer - panics become handler errors
//  2. Retry - exponential backoff for transient failures
func (r *Router) build() (*message.Router, error) {
	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: r.config.CloseTimeout,
	}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      r.config.RetryMaxRetries,
		InitialInterval: r.config.RetryInitialInterval,
		MaxInterval:     r.config.RetryMaxInterval,
		Multiplier:      r.config.RetryMultiplier,
		Logger:          r.logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	r.mu.Lock()
	specs := append([]consumerHandler(nil), r.specs...)
	r.mu.Unlock()
	for _, s := range specs {
		wmRouter.AddConsumerHandler(s.name, s.topic, s.subscriber, s.handler)
	}
	return wmRouter, nil
}

// Serve implements suture.Service. It runs the router until ctx is canceled.
func (r *Router) Serve(ctx context.Context) error {
	wmRouter, err := r.build()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.current = wmRouter
	r.mu.Unlock()

	go func() {
		select {
		case <-wmRouter.Running():
			r.running.Store(true)
			r.once.Do(func() { close(r.started) })
		case <-ctx.Done():
		}
	}()

	err = wmRouter.Run(ctx)
	r.running.Store(false)
	if err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

// Started returns a channel closed the first time the router is running.
func (r *Router) Started() <-chan struct{} {
	return r.started
}

// IsRunning reports whether the router is processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// Close stops the currently running router, if any.
func (r *Router) Close() error {
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()
	if current == nil {
		return nil
	}
	return current.Close()
}

// String implements fmt.Stringer for suture logging.
func (r *Router) String() string {
	return "event-router"
}
