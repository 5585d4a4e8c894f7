// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/newsrank/internal/metrics"
)

// fakeInvalidator records invalidated users and fails the first failN calls.
type fakeInvalidator struct {
	mu    sync.Mutex
	failN int
	calls int
	users chan string
}

func newFakeInvalidator(failN int) *fakeInvalidator {
	return &fakeInvalidator{failN: failN, users: make(chan string, 16)}
}

func (f *fakeInvalidator) InvalidateUser(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failN {
		return 0, errors.New("store offline")
	}
	f.users <- userID
	return 2, nil
}

func (f *fakeInvalidator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	cfg.CloseTimeout = 2 * time.Second
	return cfg
}

// startRouter runs the router in the background and waits until it is running.
func startRouter(t *testing.T, r *Router) (stop func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	deadline := time.After(5 * time.Second)
	for !r.IsRunning() {
		select {
		case err := <-done:
			cancel()
			t.Fatalf("router stopped early: %v", err)
		case <-deadline:
			cancel()
			t.Fatal("router did not start")
		case <-time.After(5 * time.Millisecond):
		}
	}

	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("router did not stop")
			return nil
		}
	}
}

func newTestPipeline(t *testing.T, inv UserInvalidator) (*Bus, *Router, *Publisher) {
	t.Helper()

	cfg := testConfig()
	bus, err := NewBus(context.Background(), cfg, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	router := NewRouter(cfg, watermill.NopLogger{})
	router.AddConsumerHandler(CacheInvalidationHandlerName, TopicFeedbackRecorded,
		bus.Subscriber(), NewCacheInvalidationHandler(inv).Handle)

	pub, err := NewPublisher(bus.Publisher())
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	return bus, router, pub
}

func waitUser(t *testing.T, users <-chan string) string {
	t.Helper()
	select {
	case u := <-users:
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("cache was not invalidated")
		return ""
	}
}

func TestRouter_FeedbackInvalidatesCache(t *testing.T) {
	inv := newFakeInvalidator(0)
	_, router, pub := newTestPipeline(t, inv)
	stop := startRouter(t, router)

	published := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicFeedbackRecorded, "success"))

	if err := pub.PublishFeedback(context.Background(), NewFeedbackRecorded("alice", 1, "like", []string{"go"})); err != nil {
		t.Fatalf("PublishFeedback() error = %v", err)
	}
	if got := waitUser(t, inv.users); got != "alice" {
		t.Errorf("invalidated %q, want alice", got)
	}
	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicFeedbackRecorded, "success")) - published; got != 1 {
		t.Errorf("published metric delta = %v, want 1", got)
	}

	if err := stop(); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if router.IsRunning() {
		t.Error("router still reports running")
	}
}

func TestRouter_RetriesFailedHandler(t *testing.T) {
	inv := newFakeInvalidator(2)
	_, router, pub := newTestPipeline(t, inv)
	stop := startRouter(t, router)
	defer stop() //nolint:errcheck

	if err := pub.PublishFeedback(context.Background(), NewFeedbackRecorded("bob", 2, "dislike", nil)); err != nil {
		t.Fatal(err)
	}
	if got := waitUser(t, inv.users); got != "bob" {
		t.Errorf("invalidated %q, want bob", got)
	}
	if got := inv.callCount(); got != 3 {
		t.Errorf("InvalidateUser called %d times, want 3", got)
	}
}

func TestRouter_RecoversHandlerPanic(t *testing.T) {
	cfg := testConfig()
	cfg.RetryMaxRetries = 0
	bus, err := NewBus(context.Background(), cfg, watermill.NopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	var once sync.Once
	seen := make(chan string, 4)
	router := NewRouter(cfg, watermill.NopLogger{})
	router.AddConsumerHandler("panicky", TopicFeedbackRecorded, bus.Subscriber(), func(msg *message.Message) error {
		first := false
		once.Do(func() { first = true })
		if first {
			panic("boom")
		}
		seen <- msg.UUID
		return nil
	})
	stop := startRouter(t, router)
	defer stop() //nolint:errcheck

	pub, _ := NewPublisher(bus.Publisher())
	event := NewFeedbackRecorded("carol", 3, "like", nil)
	if err := pub.PublishFeedback(context.Background(), event); err != nil {
		t.Fatal(err)
	}

	// The panic nacks the message and gochannel redelivers it.
	select {
	case id := <-seen:
		if id != event.EventID {
			t.Errorf("redelivered %q, want %q", id, event.EventID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message was not redelivered after panic")
	}
}

func TestRouter_Restart(t *testing.T) {
	inv := newFakeInvalidator(0)
	_, router, pub := newTestPipeline(t, inv)

	stop := startRouter(t, router)
	if err := stop(); !errors.Is(err, context.Canceled) {
		t.Fatalf("first Serve() = %v", err)
	}

	stop = startRouter(t, router)
	defer stop() //nolint:errcheck

	if err := pub.PublishFeedback(context.Background(), NewFeedbackRecorded("dave", 4, "like", nil)); err != nil {
		t.Fatalf("publish after restart: %v", err)
	}
	if got := waitUser(t, inv.users); got != "dave" {
		t.Errorf("invalidated %q, want dave", got)
	}
}

func TestRouter_Metadata(t *testing.T) {
	t.Parallel()

	r := NewRouter(DefaultConfig(), nil)
	if r.String() != "event-router" {
		t.Errorf("String() = %q", r.String())
	}
	r.AddConsumerHandler("a", "t", nil, nil)
	r.AddConsumerHandler("b", "t", nil, nil)
	if got := r.Handlers(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Handlers() = %v", got)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() before Serve = %v", err)
	}
}

func TestPublisher_Closed(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(context.Background(), testConfig(), watermill.NopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	pub, _ := NewPublisher(bus.Publisher())
	_ = pub.Close()
	err = pub.PublishFeedback(context.Background(), NewFeedbackRecorded("erin", 5, "like", nil))
	if !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("PublishFeedback() after Close = %v, want ErrPublisherClosed", err)
	}
}

func TestPublisher_RejectsInvalidEvent(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(context.Background(), testConfig(), watermill.NopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	pub, _ := NewPublisher(bus.Publisher())
	if err := pub.PublishFeedback(context.Background(), &FeedbackRecorded{EventID: "x"}); err == nil {
		t.Error("PublishFeedback() accepted an invalid event")
	}
}

func TestNewPublisher_Nil(t *testing.T) {
	t.Parallel()

	if _, err := NewPublisher(nil); !errors.Is(err, ErrNilPublisher) {
		t.Errorf("NewPublisher(nil) = %v, want ErrNilPublisher", err)
	}
}

func TestBus_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if bus.Backend() != BackendGoChannel {
		t.Errorf("Backend() = %q", bus.Backend())
	}
	if err := bus.Subscriber().Close(); err != nil {
		t.Errorf("subscriber Close() = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("first Close() = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestNewBus_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Backend = "kafka"
	if _, err := NewBus(context.Background(), cfg, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewBus() = %v, want ErrInvalidConfig", err)
	}
}
