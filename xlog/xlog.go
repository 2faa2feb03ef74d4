// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package xlog defines a minimal printf-like logger type, in the style
// of tailscale.com/types/logger, plus a rate limiter for format
// strings that would otherwise flood a log under contention.
package xlog

import (
	"container/list"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Logf is a printf-like logging function. Like log.Printf, the format
// need not end in a newline. Logf values must be safe for concurrent
// use; every Logf handed to this package's types is called from
// whichever goroutine discovers something worth logging, which may be
// a trigger goroutine, a drain goroutine, or a canceller.
type Logf func(format string, args ...any)

// Discard throws away everything logged to it. It is the default used
// by every type in this repository that accepts an optional Logf.
func Discard(string, ...any) {}

// FromWriter returns a Logf that writes lines to w, prefixed with the
// standard library's timestamp format.
func FromWriter(w io.Writer) Logf {
	l := log.New(w, "", log.LstdFlags|log.Lmicroseconds)
	return func(format string, args ...any) { l.Printf(format, args...) }
}

// WithPrefix wraps f, prefixing each format string with prefix.
func WithPrefix(f Logf, prefix string) Logf {
	return func(format string, args ...any) { f(prefix+format, args...) }
}

// limitEntry is the rate-limiting state kept per distinct format
// string seen by a RateLimited logger.
type limitEntry struct {
	lim *rate.Limiter
	ele *list.Element
}

// RateLimited returns a Logf wrapping logf that allows at most one
// message per format string every interval, in bursts of up to burst,
// caching rate-limiting state for at most maxFormats distinct format
// strings (oldest evicted first). A nil logf yields Discard.
//
// This exists so that silently-absorbed runtime conditions
// (cancellation races, drain contention, stale rehandles) can still
// be surfaced to an operator without letting a pathological client
// flood the log under sustained concurrent triggering.
func RateLimited(logf Logf, interval time.Duration, burst, maxFormats int) Logf {
	if logf == nil {
		return Discard
	}
	var (
		mu    sync.Mutex
		limit = rate.Every(interval)
		seen  = make(map[string]*limitEntry)
		order = list.New()
	)
	return func(format string, args ...any) {
		mu.Lock()
		e, ok := seen[format]
		if ok {
			order.MoveToFront(e.ele)
		} else {
			e = &limitEntry{lim: rate.NewLimiter(limit, burst), ele: order.PushFront(format)}
			seen[format] = e
			if order.Len() > maxFormats {
				back := order.Back()
				delete(seen, back.Value.(string))
				order.Remove(back)
			}
		}
		allow := e.lim.Allow()
		mu.Unlock()
		if !allow {
			return
		}
		logf(format, args...)
	}
}

// StripNewline trims a single trailing newline from format, for
// callers adapting a Logf to APIs (like the standard log package)
// that already append one.
func StripNewline(format string) string {
	return strings.TrimSuffix(format, "\n")
}
