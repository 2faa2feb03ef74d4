// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build eventsdebug

package events

import "runtime"

const debugAssertions = true

// trackHandle arms a finalizer that fires if h is garbage collected
// without Cancel having been called. This can only catch it
// eventually (at the GC's convenience), not at the point of the bug,
// which is the best a garbage-collected language can offer in place
// of C++'s destructor-time assertion.
func trackHandle[T any](h *RequestHandle[T]) {
	runtime.SetFinalizer(h, func(h *RequestHandle[T]) {
		if !h.canceled.Load() {
			panic("events: RequestHandle dropped without calling Cancel")
		}
	})
}

func untrackHandle[T any](h *RequestHandle[T]) {
	runtime.SetFinalizer(h, nil)
}

func panicIfDebug(msg string) { panic(msg) }
