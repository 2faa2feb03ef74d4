// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build !events_mutex_debug

package syncs

import "sync"

// Mutex is an alias for sync.Mutex.
//
// It's only not a sync.Mutex when built with the events_mutex_debug
// build tag, which swaps in a version that panics on self-deadlock
// instead of hanging (see mutex_debug.go). Every list mutex,
// busy-interface queue mutex, and client registry mutex in this
// repository is declared as this type rather than sync.Mutex
// directly, so that a debug build can diagnose them.
type Mutex = sync.Mutex
