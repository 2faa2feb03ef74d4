// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package events

import (
	"github.com/carlowood/events/syncs"
	"github.com/carlowood/events/xlog"
)

// Server is the per-event-type registry and dispatcher for T. Create
// one Server[T] per event type; every [Server.Request] on it shares
// the server's delivery semantics (one-shot or repeated, per the
// options given to [NewServer]).
type Server[T any] struct {
	name    string
	oneShot bool
	log     xlog.Logf

	mu   syncs.Mutex
	head *Request[T]
	pool *requestPool[T]

	hooks hook[TriggerEvent[T]]
}

// ServerOption configures a [Server] at construction.
type ServerOption func(*serverConfig)

type serverConfig struct {
	oneShot bool
	log     xlog.Logf
}

// OneShot makes the server deliver each trigger to every
// currently-registered request exactly once, then drop its entire
// subscriber list. Without this option a server is "repeated":
// requests stay registered across triggers until individually
// cancelled.
func OneShot() ServerOption { return func(c *serverConfig) { c.oneShot = true } }

// WithServerLogf attaches a logger used to report recoverable runtime
// conditions (cancellation races, drain contention). The logger is
// never on the critical path for correctness; passing nil (the
// default) discards these messages.
func WithServerLogf(log xlog.Logf) ServerOption {
	return func(c *serverConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// NewServer returns a new, empty Server for event type T. name is
// used only for debug/introspection, to tell a human which subsystem
// a server belongs to.
//
// Go has no per-type compile-time constant the way C++'s
// TYPE::one_shot is; the one-shot/repeated choice is instead fixed
// once, at construction, via [OneShot].
func NewServer[T any](name string, opts ...ServerOption) *Server[T] {
	cfg := serverConfig{log: xlog.Discard}
	for _, o := range opts {
		o(&cfg)
	}
	return &Server[T]{
		name:    name,
		oneShot: cfg.oneShot,
		log:     cfg.log,
		pool:    newRequestPool[T](),
	}
}

// Name returns the server's debug name.
func (s *Server[T]) Name() string { return s.name }

// OneShot reports whether s delivers each trigger at most once per
// subscriber before dropping it.
func (s *Server[T]) OneShot() bool { return s.oneShot }

// RequestOption configures a single [Server.Request] call.
type RequestOption func(*requestConfig)

type requestConfig struct {
	busy *BusyInterface
}

// WithBusyInterface binds the request to busy, so that its callback
// never runs concurrently with any other request (for any event type)
// that names the same interface.
func WithBusyInterface(busy *BusyInterface) RequestOption {
	return func(c *requestConfig) { c.busy = busy }
}

// Request registers callback to be invoked for every future trigger
// (repeated servers) or the next trigger only (one-shot servers),
// until the returned handle is cancelled. Go has no bound-member-
// function overload set to mirror; pass an ordinary closure over
// whatever receiver and extra arguments such an overload would have
// bound.
func (s *Server[T]) Request(callback func(T), opts ...RequestOption) *RequestHandle[T] {
	cfg := requestConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	req := s.pool.getRequest(callback, cfg.busy, s.log)
	s.pushFront(req)
	return newRequestHandle(req)
}

func (s *Server[T]) pushFront(r *Request[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.next = s.head
	s.head = r
}

// Trigger delivers event to every request currently registered on s,
// per the one-shot/repeated contract chosen at construction.
func (s *Server[T]) Trigger(event T) {
	if s.oneShot {
		s.triggerOneShot(event)
	} else {
		s.triggerRepeated(event)
	}
}

// triggerOneShot detaches the whole list under the mutex, then
// delivers and frees outside of it. No start/stop handling
// bookkeeping is done, because a detached node cannot be reached by
// a concurrent trigger walk. Every request on the detached list is
// delivered to, whether or not its handle has been cancelled.
func (s *Server[T]) triggerOneShot(event T) {
	s.mu.Lock()
	head := s.head
	s.head = nil
	s.mu.Unlock()

	n := 0
	for r := head; r != nil; r = r.next {
		r.handle(event)
		n++
	}
	for r := head; r != nil; {
		next := r.next
		s.pool.putRequest(r)
		r = next
	}
	if s.hooks.active() {
		s.hooks.run(TriggerEvent[T]{Event: event, Server: s.name, Delivered: n})
	}
}

// triggerRepeated walks the list with a pointer-to-pointer cursor so
// cancelled nodes can be unlinked in place: startHandling happens
// under the list mutex (so a concurrent Cancel that wins the race sees
// a live handler count and waits), the callback runs with the mutex
// released (so other triggers, registrations, and cancellations can
// proceed), and reaping happens under the mutex again (serializing
// with pushFront).
func (s *Server[T]) triggerRepeated(event T) {
	s.mu.Lock()
	cursor := &s.head
	delivered := 0
	for {
		var req *Request[T]
		for {
			req = *cursor
			if req == nil {
				break
			}
			state := req.startHandling()
			if state == handlingOK {
				break
			}
			if state == handlingReap {
				s.log("events: reaping cancelled request")
				*cursor = req.next
				s.pool.putRequest(req)
				continue
			}
			// handlingSkip: another goroutine is still handling this
			// cancelled request; leave it linked for that goroutine
			// (or a later trigger) to reap, and keep scanning.
			s.log("events: cancelled request still being handled, skipping")
			cursor = &req.next
		}
		if req == nil {
			break
		}
		s.mu.Unlock()
		req.handle(event)
		delivered++
		s.mu.Lock()
		req.stopHandling()
		cursor = &req.next
	}
	s.mu.Unlock()
	if s.hooks.active() {
		s.hooks.run(TriggerEvent[T]{Event: event, Server: s.name, Delivered: delivered})
	}
}

// liveRequests walks the list under the list mutex and counts nodes,
// for debug/introspection only (never on the dispatch path).
func (s *Server[T]) liveRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for r := s.head; r != nil; r = r.next {
		n++
	}
	return n
}

// OnTrigger registers fn to be called, synchronously and in
// registration order, after each Trigger completes. It returns a
// function that unregisters fn. Hooks never run with the list mutex
// held.
func (s *Server[T]) OnTrigger(fn func(TriggerEvent[T])) (remove func()) {
	return s.hooks.add(fn)
}

// TriggerEvent describes one completed [Server.Trigger] call, for
// observers registered with [Server.OnTrigger].
type TriggerEvent[T any] struct {
	Event     T
	Server    string
	Delivered int
}
