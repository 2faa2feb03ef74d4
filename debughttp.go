// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package events

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carlowood/events/syncs"
)

// introspectable is satisfied by *Server[T] for any T, so a [Registry]
// can hold servers of different event types in one set. This mirrors
// tailscale.com/util/eventbus's Bus tracking *Client values for its
// own debug surface (bus.go's clients set.Set[*Client]).
type introspectable interface {
	Name() string
	OneShot() bool
	liveRequests() int
}

// Registry collects [Server]s and [BusyInterface]s for read-only HTTP
// introspection, in the spirit of tailscale.com/util/eventbus's
// Bus.Debugger()+tsweb.DebugHandler mount point
// (util/eventbus/debughttp_off.go names the concern even in builds
// that exclude it). tsweb is not available outside tailscale.com, so
// this uses chi — the example pack's one HTTP router — to serve the
// same role.
//
// A Registry never affects dispatch: every method here is read-only.
// A snapshot holds a Server's list mutex only while counting that
// server's requests, and a BusyInterface's queue mutex only while
// reading its queue length.
type Registry struct {
	mu      syncs.Mutex
	servers []introspectable
	busy    map[string]*BusyInterface
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{busy: map[string]*BusyInterface{}}
}

// AddServer registers s for introspection. Any *Server[T] satisfies
// introspectable, for whatever T the caller instantiated it with.
func (reg *Registry) AddServer(s introspectable) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.servers = append(reg.servers, s)
}

// AddBusyInterface registers b under name for introspection.
func (reg *Registry) AddBusyInterface(name string, b *BusyInterface) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.busy[name] = b
}

type serverInfo struct {
	Name         string `json:"name"`
	OneShot      bool   `json:"one_shot"`
	LiveRequests int    `json:"live_requests"`
}

type busyInfo struct {
	Name   string `json:"name"`
	Depth  int    `json:"depth"`
	Queued int    `json:"queued"`
}

func (reg *Registry) snapshotServers() []serverInfo {
	reg.mu.Lock()
	servers := append([]introspectable(nil), reg.servers...)
	reg.mu.Unlock()

	out := make([]serverInfo, len(servers))
	for i, s := range servers {
		out[i] = serverInfo{Name: s.Name(), OneShot: s.OneShot(), LiveRequests: s.liveRequests()}
	}
	return out
}

func (reg *Registry) snapshotBusy() []busyInfo {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]busyInfo, 0, len(reg.busy))
	for name, b := range reg.busy {
		out = append(out, busyInfo{Name: name, Depth: b.Depth(), Queued: b.queued()})
	}
	return out
}

// Router returns a read-only chi.Router exposing:
//
//	GET /debug/events/servers  - JSON list of registered servers
//	GET /debug/events/busy     - JSON list of registered busy interfaces
func (reg *Registry) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/debug/events/servers", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, reg.snapshotServers())
	})
	r.Get("/debug/events/busy", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, reg.snapshotBusy())
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
