// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package events_test

import (
	"sync/atomic"
	"testing"

	"github.com/carlowood/events"
)

// After Cancel returns, the callback is never invoked again by any
// later trigger.
func TestCancellationBarrier(t *testing.T) {
	s := events.NewServer[Foo]("foo")
	var calls atomic.Int32
	h := s.Request(func(Foo) { calls.Add(1) })

	s.Trigger(Foo{1})
	h.Cancel()
	for i := 0; i < 10; i++ {
		s.Trigger(Foo{2})
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestCanceledReportsTrueAfterCancel(t *testing.T) {
	// Canceled reports true once Cancel has returned. Calling Cancel a
	// second time is a programmer error that a debug build catches
	// (see lifecycle_debug_test.go).
	s := events.NewServer[Foo]("foo")
	h := s.Request(func(Foo) {})
	h.Cancel()
	if !h.Canceled() {
		t.Fatal("expected Canceled() == true after Cancel")
	}
}

func TestRequestWithoutBusyInterfaceRunsOnTriggeringGoroutine(t *testing.T) {
	s := events.NewServer[Foo]("foo")
	var sawGoroutine bool
	done := make(chan struct{})
	s.Request(func(Foo) {
		sawGoroutine = true
		close(done)
	})

	s.Trigger(Foo{1})
	select {
	case <-done:
	default:
		t.Fatal("callback had not run by the time Trigger returned")
	}
	if !sawGoroutine {
		t.Fatal("callback did not run")
	}
}
