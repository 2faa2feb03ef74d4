// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package events

import "testing"

type poolTestEvent struct{ N int }

// A cancelled, fully-drained request is returned to its server's
// pool rather than left for the garbage collector, so sync.Pool can
// actually reuse the node on the next Request call.
func TestCancelledRequestIsReturnedToPool(t *testing.T) {
	s := NewServer[poolTestEvent]("foo")

	h1 := s.Request(func(poolTestEvent) {})
	first := h1.req
	h1.Cancel()
	s.Trigger(poolTestEvent{}) // walks the list, finds handlingReap, and reaps it

	h2 := s.Request(func(poolTestEvent) {})
	defer h2.Cancel()
	if h2.req != first {
		t.Fatalf("second Request did not reuse the pooled node from the first")
	}
}

// release returns a queuedEventNode to its pool; a subsequent
// newQueuedEvent call should be able to reuse it.
func TestQueuedEventNodeIsReturnedToPool(t *testing.T) {
	pool := newRequestPool[poolTestEvent]()
	req := pool.getRequest(func(poolTestEvent) {}, nil, nil)

	first := pool.newQueuedEvent(req, poolTestEvent{1})
	first.release()

	second := pool.newQueuedEvent(req, poolTestEvent{2})
	if second != first {
		t.Fatalf("second newQueuedEvent did not reuse the pooled node from the first")
	}
}
