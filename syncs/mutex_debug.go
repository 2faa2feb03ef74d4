// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build events_mutex_debug

package syncs

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Mutex wraps sync.Mutex, under the events_mutex_debug build tag, with
// self-deadlock detection: if the goroutine that already holds m calls
// Lock again, Lock panics immediately with the stack of the original
// acquisition instead of hanging forever. A Server.Trigger/Request.cancel
// pair that accidentally nests their locks this way would otherwise just
// hang with no diagnostic.
type Mutex struct {
	sync.Mutex
	holder atomic.Int64           // goroutine ID currently holding m, or 0
	stack  atomic.Pointer[string] // acquisition stack of the current holder
}

func (m *Mutex) Lock() {
	gid := goroutineID()
	if m.holder.Load() == gid {
		var stack string
		if s := m.stack.Load(); s != nil {
			stack = *s
		}
		panic(fmt.Sprintf("events: Mutex relocked by goroutine %d, which already holds it; originally acquired at:\n%s", gid, stack))
	}
	m.Mutex.Lock()
	m.holder.Store(gid)
	stack := currentStack()
	m.stack.Store(&stack)
}

func (m *Mutex) Unlock() {
	m.holder.Store(0)
	m.stack.Store(nil)
	m.Mutex.Unlock()
}

// goroutineID extracts the calling goroutine's ID from runtime.Stack's
// "goroutine N [running]:" header. There is no supported API for this;
// it is only ever compiled under events_mutex_debug.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id int64
	fmt.Sscanf(string(buf[:n]), "goroutine %d ", &id)
	return id
}

func currentStack() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
