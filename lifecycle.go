// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build !eventsdebug

package events

// debugAssertions reports whether this build checks programmer
// preconditions (double-cancel, dropping a handle without cancelling
// it, unbalanced busy/unset, rehandle while not busy). Those checks
// cost a runtime.SetFinalizer per handle and a branch per
// busy-interface call, so — exactly like tailscale.com/syncs's
// ts_mutex_debug tag — they're opt-in, built with -tags eventsdebug.
const debugAssertions = false

func trackHandle[T any](*RequestHandle[T]) {}
func untrackHandle[T any](*RequestHandle[T]) {}
func panicIfDebug(string)                   {}
