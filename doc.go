// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package events is a typed, in-process event-dispatch core.
//
// A [Server] holds the live [Request]s for one event type and
// dispatches a [Server.Trigger]ed value to each of them, either
// directly or, for a request bound to a [BusyInterface], by queueing
// it until that interface is no longer busy. A [RequestHandle]
// cancels its request exactly once, and that cancellation blocks
// until every in-flight callback for the request has returned.
//
// The package makes no assumption about how event values flow
// between goroutines beyond what's needed for delivery: callers may
// call [Server.Trigger] concurrently with [Server.Request] and
// [RequestHandle.Cancel] from any number of goroutines.
package events
