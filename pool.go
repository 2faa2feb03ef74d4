// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package events

import (
	"sync"

	"github.com/carlowood/events/xlog"
)

// requestPool is the per-event-type node allocator: a pair of
// sync.Pools, one for [Request[T]] nodes and one for the
// [queuedEvent] nodes the busy-interface drain path allocates. This
// exists purely to keep allocation off the hot path, not for
// correctness.
//
// tailscale.com/util/pool is not used here: it is an explicitly
// non-concurrent, single-owner resource pool (see its own doc
// comment), unsuited to nodes allocated from trigger/request
// goroutines and freed from trigger/cancel goroutines running
// concurrently. sync.Pool is the stdlib type built for exactly that.
type requestPool[T any] struct {
	requests sync.Pool
	events   sync.Pool
}

func newRequestPool[T any]() *requestPool[T] {
	p := &requestPool[T]{}
	p.requests.New = func() any { return newRequest[T]() }
	p.events.New = func() any { return &queuedEventNode[T]{} }
	return p
}

func (p *requestPool[T]) getRequest(callback func(T), busy *BusyInterface, log xlog.Logf) *Request[T] {
	r := p.requests.Get().(*Request[T])
	r.reset(callback, busy, p, log)
	return r
}

// putRequest returns r to the pool. The caller must guarantee r is
// unreachable from any Server's list and has no handler in flight.
func (p *requestPool[T]) putRequest(r *Request[T]) {
	r.callback = nil
	r.busy = nil
	r.next = nil
	p.requests.Put(r)
}

// queuedEventNode is the concrete backing type for [queuedEvent],
// owning a reference to the request it was queued for (keeping it
// alive even if the server's list has since been trimmed) and a copy
// of the event value.
type queuedEventNode[T any] struct {
	req  *Request[T]
	data T
	pool *sync.Pool
}

func (q *queuedEventNode[T]) rehandle() {
	if debugAssertions && q.req.busy.Depth() == 0 {
		panic("events: queued event rehandled while its BusyInterface is not busy")
	}
	q.req.callback(q.data)
}

func (q *queuedEventNode[T]) release() {
	var zero T
	q.req, q.data = nil, zero
	q.pool.Put(q)
}

func (p *requestPool[T]) newQueuedEvent(req *Request[T], data T) queuedEvent {
	qe := p.events.Get().(*queuedEventNode[T])
	qe.req = req
	qe.data = data
	qe.pool = &p.events
	return qe
}
