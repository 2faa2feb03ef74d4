// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package events_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carlowood/events"
)

func TestRegistryServersEndpoint(t *testing.T) {
	reg := events.NewRegistry()
	s := events.NewServer[Foo]("foo")
	h := s.Request(func(Foo) {})
	defer h.Cancel()
	reg.AddServer(s)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/events/servers", nil)
	reg.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var got []struct {
		Name         string `json:"name"`
		OneShot      bool   `json:"one_shot"`
		LiveRequests int    `json:"live_requests"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "foo" || got[0].LiveRequests != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestRegistryBusyEndpoint(t *testing.T) {
	reg := events.NewRegistry()
	var bi events.BusyInterface
	bi.SetBusy()
	reg.AddBusyInterface("shared", &bi)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/events/busy", nil)
	reg.Router().ServeHTTP(rr, req)

	var got []struct {
		Name   string `json:"name"`
		Depth  int    `json:"depth"`
		Queued int    `json:"queued"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "shared" || got[0].Depth != 1 {
		t.Fatalf("got %+v", got)
	}
}
