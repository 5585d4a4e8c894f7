// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// countingService runs until canceled, failing its first fails starts.
type countingService struct {
	name    string
	fails   int32
	starts  atomic.Int32
	started chan struct{}
}

func newCountingService(name string, fails int32) *countingService {
	return &countingService{name: name, fails: fails, started: make(chan struct{}, 16)}
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}
	if n <= s.fails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func (s *countingService) waitStarts(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for int(s.starts.Load()) < n {
		select {
		case <-s.started:
		case <-deadline:
			t.Fatalf("%s started %d times, want %d", s.name, s.starts.Load(), n)
		}
	}
}

var _ suture.Service = (*countingService)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTreeConfigDefaults(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(discardLogger(), TreeConfig{FailureBackoff: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultTreeConfig()
	want.FailureBackoff = time.Second
	if tree.config != want {
		t.Errorf("config = %+v, want %+v", tree.config, want)
	}
	if tree.Root() == nil {
		t.Error("Root() = nil")
	}
}

func TestSupervisorTree_RunsEveryLayer(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(discardLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	data := newCountingService("evictor", 0)
	messaging := newCountingService("event-router", 0)
	api := newCountingService("http", 0)
	tree.AddDataService(data)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	data.waitStarts(t, 1)
	messaging.waitStarts(t, 1)
	api.waitStarts(t, 1)

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}

func TestSupervisorTree_RestartsFailedService(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(discardLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	flaky := newCountingService("event-router", 2)
	steady := newCountingService("http", 0)
	tree.AddMessagingService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	flaky.waitStarts(t, 3)
	steady.waitStarts(t, 1)
	if got := steady.starts.Load(); got != 1 {
		t.Errorf("api layer restarted %d times because of a messaging failure", got-1)
	}

	cancel()
	<-errCh
}
