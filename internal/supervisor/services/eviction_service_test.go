// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/newsrank/internal/cache"
)

type fakeLoop struct {
	err     error
	runs    atomic.Int32
	started chan struct{}
}

func (f *fakeLoop) Serve(ctx context.Context) error {
	f.runs.Add(1)
	if f.started != nil {
		close(f.started)
	}
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

type fakeSweeper struct {
	err   error
	calls atomic.Int32
}

func (f *fakeSweeper) Evict(context.Context) (cache.EvictResult, error) {
	f.calls.Add(1)
	return cache.EvictResult{Expired: 4}, f.err
}

func TestEvictionService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		startupSweep bool
		sweepErr     error
		wantSweeps   int32
	}{
		{name: "startup sweep", startupSweep: true, wantSweeps: 1},
		{name: "startup sweep failure still starts loop", startupSweep: true, sweepErr: errors.New("database is locked"), wantSweeps: 1},
		{name: "no startup sweep", startupSweep: false, wantSweeps: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			loop := &fakeLoop{started: make(chan struct{})}
			sweeper := &fakeSweeper{err: tt.sweepErr}
			svc := NewEvictionService(loop, sweeper, tt.startupSweep)

			if err := serveAndCancel(t, svc, loop.started); !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
			if got := sweeper.calls.Load(); got != tt.wantSweeps {
				t.Errorf("startup sweeps = %d, want %d", got, tt.wantSweeps)
			}
			if loop.runs.Load() != 1 {
				t.Errorf("loop runs = %d, want 1", loop.runs.Load())
			}
		})
	}
}

func TestEvictionService_LoopFailure(t *testing.T) {
	t.Parallel()

	loopErr := errors.New("signal channel closed")
	svc := NewEvictionService(&fakeLoop{err: loopErr}, nil, true)
	if err := svc.Serve(context.Background()); !errors.Is(err, loopErr) {
		t.Errorf("Serve() = %v, want %v", err, loopErr)
	}
	if svc.String() != "cache-eviction" {
		t.Errorf("String() = %q", svc.String())
	}
}
