// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultShutdownTimeout bounds connection draining when the service stops.
// In-flight recommendation requests get this long to finish before the
// listener is torn down.
const DefaultShutdownTimeout = 10 * time.Second

// HTTPServer is the lifecycle subset of *http.Server that the service needs.
//
// Tests substitute a fake so Serve can be driven without binding a port.
// *http.Server satisfies it through:
//   - ListenAndServe() error
//   - Shutdown(ctx context.Context) error
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the newsrank API server under supervision.
//
// http.Server blocks in ListenAndServe and is stopped from outside, while
// suture expects a Serve method that returns once its context ends. The
// wrapper bridges the two:
//
//  1. ListenAndServe runs in its own goroutine
//  2. Serve waits for a listener error or for ctx to end
//  3. on cancellation it drains connections with Shutdown, bounded by the
//     shutdown timeout
//
// Usage, as wired in cmd/server:
//
//	server := &http.Server{Addr: ":3000", Handler: router.Setup()}
//	svc := services.NewHTTPServerService(server, services.DefaultShutdownTimeout)
//	tree.AddAPIService(svc)
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server for the API layer of the tree.
//
// shutdownTimeout is how long Shutdown may wait for open connections.
// A non-positive value falls back to DefaultShutdownTimeout.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
//
// Steps:
//  1. start ListenAndServe in a goroutine
//  2. block until the listener fails or ctx is canceled
//  3. after cancellation, call Shutdown on a fresh timeout context and wait
//     for the listener goroutine to exit
//
// A listener failure (port in use, for example) is returned wrapped so the
// supervisor restarts the service with backoff. http.ErrServerClosed is
// expected during shutdown and is not reported. After a graceful shutdown
// Serve returns ctx.Err(), which suture treats as a normal stop.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// ctx is already canceled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String names the service in supervisor log lines.
func (h *HTTPServerService) String() string {
	return "http-server"
}
