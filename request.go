// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package events

import (
	"sync"
	"sync/atomic"

	"github.com/carlowood/events/xlog"
)

// cancelMarker is subtracted from a Request's state on cancellation.
// state < 0 therefore means "cancelled"; state == -cancelMarker means
// "cancelled, and every handler that was in flight has since called
// stopHandling." Handler counts this large would indicate a bug
// elsewhere, so the gap between 0 and cancelMarker is not a practical
// limit.
const cancelMarker = int64(1) << 32

// handlingState is the result of [Request.startHandling].
type handlingState int

const (
	// handlingOK grants permission to run the callback. The caller
	// must pair this with exactly one [Request.stopHandling].
	handlingOK handlingState = iota
	// handlingSkip means the request is cancelled but another
	// goroutine is still handling it; leave it linked for that
	// goroutine (or a later trigger) to reap.
	handlingSkip
	// handlingReap means the request is cancelled and no handler is
	// in flight; the caller must unlink and free it.
	handlingReap
)

// Request is one live subscription on a [Server]. It is allocated and
// owned by the Server's request list; a [RequestHandle] holds only a
// non-owning reference to it, used to call [Request.cancel].
type Request[T any] struct {
	// state packs the active-handler count (bits >= 0) and the
	// cancellation marker into one atomic word, so that a cancelling
	// goroutine and an in-flight handler resolve their race with a
	// single CAS/add instead of two separately-observed flags.
	state atomic.Int64

	cancelMu   sync.Mutex
	cancelCond *sync.Cond

	// next links Request nodes into their Server's singly linked
	// list. Only the Server's list mutex may read or write it.
	next *Request[T]

	callback func(T)
	busy     *BusyInterface
	pool     *requestPool[T]
	log      xlog.Logf
}

func newRequest[T any]() *Request[T] {
	r := &Request[T]{}
	r.cancelCond = sync.NewCond(&r.cancelMu)
	return r
}

// reset prepares a pooled Request for reuse as a fresh subscription.
func (r *Request[T]) reset(callback func(T), busy *BusyInterface, pool *requestPool[T], log xlog.Logf) {
	r.state.Store(0)
	r.next = nil
	r.callback = callback
	r.busy = busy
	r.pool = pool
	r.log = log
}

// startHandling attempts to register the calling goroutine as an
// active handler. It must be called with the owning Server's list
// mutex held, and its result determines what the caller does next
// (see [Server.triggerRepeated]).
func (r *Request[T]) startHandling() handlingState {
	for {
		cur := r.state.Load()
		if cur < 0 {
			if cur == -cancelMarker {
				return handlingReap
			}
			return handlingSkip
		}
		if r.state.CompareAndSwap(cur, cur+1) {
			return handlingOK
		}
	}
}

// stopHandling releases the registration made by a prior
// [Request.startHandling] that returned handlingOK. If this was the
// last handler to leave a cancelled request, it wakes the goroutine
// parked in [Request.cancel].
func (r *Request[T]) stopHandling() {
	newState := r.state.Add(-1)
	if newState == -cancelMarker {
		// Take and release the mutex before signalling, so that the
		// canceller is guaranteed to already be parked in Cond.Wait
		// (and therefore won't miss this wakeup).
		r.cancelMu.Lock()
		r.cancelMu.Unlock()
		r.cancelCond.Signal()
	}
}

// cancel marks r permanently cancelled, so that no new handler can
// start, then blocks until every handler already in flight has called
// stopHandling. After cancel returns, no handler is running, and the
// calling goroutine is free to destroy anything the callback captured.
func (r *Request[T]) cancel() {
	newState := r.state.Add(-cancelMarker)
	old := newState + cancelMarker
	if old > 0 {
		r.cancelMu.Lock()
		for r.state.Load() != -cancelMarker {
			r.cancelCond.Wait()
		}
		r.cancelMu.Unlock()
	}
}

func (r *Request[T]) isCanceled() bool { return r.state.Load() == -cancelMarker }

// handle runs the request's callback for data, going through the
// request's busy interface (if any) to serialize delivery with every
// other request that names the same interface.
func (r *Request[T]) handle(data T) {
	if r.busy == nil {
		r.callback(data)
		return
	}
	r.handleBusy(data)
}

// handleBusy implements the drain protocol: run directly if nobody
// else is busy, otherwise queue; then, while responsible for
// draining, keep popping and re-dispatching until the queue is empty
// or another goroutine races back in.
func (r *Request[T]) handleBusy(data T) {
	if r.busy.setBusy() {
		r.callback(data)
	} else {
		r.log("events: busy interface occupied, queueing event")
		r.busy.push(r.pool.newQueuedEvent(r, data))
	}
	for r.busy.unsetBusy() {
		qe, ok := r.busy.pop()
		if !ok {
			break
		}
		if r.busy.setBusy() {
			qe.rehandle()
			qe.release()
			continue
		}
		// Someone else raced back to busy between our unsetBusy and
		// this setBusy attempt. Push the event back to the front so
		// that whoever is busy now sees it first when they drain; the
		// next unsetBusy undoes our failed setBusy and, unless we were
		// the last out after all, leaves draining to them.
		r.log("events: drain race, pushing event back to front")
		r.busy.pushFront(qe)
	}
}
