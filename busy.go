// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package events

import (
	"container/list"
	"sync/atomic"

	"github.com/carlowood/events/syncs"
)

// queuedEvent is the type-erased form of a queued callback
// invocation held by a [BusyInterface]. A BusyInterface is not typed
// to any one event type — the same interface can serialize delivery
// across requests registered on servers for different T — so its
// queue holds this interface instead of a generic struct.
type queuedEvent interface {
	// rehandle invokes the captured callback with the captured event
	// value. It does not re-check cancellation: once an event is
	// queued, it is delivered unconditionally.
	rehandle()
	// release returns the node to the pool it was allocated from.
	release()
}

// BusyInterface serializes callback delivery to one client across any
// number of [Request]s, possibly spanning several [Server] types. At
// most one callback registered against a given BusyInterface runs at
// any instant; others are queued until the running one finishes and
// drains the queue.
//
// A BusyInterface is owned by the client, not by the event system: it
// must outlive every Request that names it. Clients with a logical
// "busy" period unrelated to any one event (e.g. servicing a UI
// action) may bracket it with [BusyInterface.SetBusy] and
// [BusyInterface.UnsetBusy] directly; the drain protocol applies
// exactly as it does when entered through [Request.handle].
type BusyInterface struct {
	depth atomic.Uint32

	mu     syncs.Mutex
	events list.List // of queuedEvent
}

// SetBusy marks the caller as (one more) reason the interface is
// busy. It reports whether the caller is the sole occupant — i.e.
// whether the caller may run its callback directly instead of
// queueing it.
func (b *BusyInterface) SetBusy() bool {
	return b.depth.Add(1) == 1
}

// UnsetBusy releases one reason the interface is busy. It reports
// whether the caller was the last occupant, in which case UnsetBusy
// drains the events that queued up while busy, running their
// callbacks on the calling goroutine before it returns.
func (b *BusyInterface) UnsetBusy() bool {
	newDepth := b.depth.Add(^uint32(0)) // -1
	if debugAssertions && newDepth == ^uint32(0) {
		panic("events: BusyInterface.UnsetBusy called while not busy")
	}
	if newDepth != 0 {
		return false
	}
	// Every SetBusy below, successful or not, is undone at loop end.
	for qe, ok := b.pop(); ok; qe, ok = b.pop() {
		if b.SetBusy() {
			qe.rehandle()
			qe.release()
		} else {
			b.pushFront(qe)
		}
		if b.depth.Add(^uint32(0)) != 0 {
			break
		}
	}
	return true
}

func (b *BusyInterface) setBusy() bool   { return b.SetBusy() }
func (b *BusyInterface) unsetBusy() bool { return b.UnsetBusy() }

func (b *BusyInterface) push(e queuedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events.PushBack(e)
}

func (b *BusyInterface) pushFront(e queuedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events.PushFront(e)
}

func (b *BusyInterface) pop() (queuedEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	front := b.events.Front()
	if front == nil {
		return nil, false
	}
	b.events.Remove(front)
	return front.Value.(queuedEvent), true
}

// queued reports the number of events currently waiting to drain.
// Used only by debug/introspection.
func (b *BusyInterface) queued() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.events.Len()
}

// Depth returns the current busy depth, for introspection only.
func (b *BusyInterface) Depth() int { return int(b.depth.Load()) }
