// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func loadFixture(t *testing.T, yamlContent string) (*Scenario, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return Load(path)
}

func TestRunDeliversEachTriggerToEachClient(t *testing.T) {
	s := &Scenario{
		Clients:  []Client{{Name: "a"}, {Name: "b", Group: "g"}, {Name: "c", Group: "g"}},
		Triggers: []Trigger{{Name: "t", Seq: 1}, {Name: "t", Seq: 2}, {Name: "t", Seq: 3}},
	}
	r := Run(s, nil)
	if err := Check(s, r); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if r.Delivered[name] != 3 {
			t.Errorf("Delivered[%q] = %d, want 3", name, r.Delivered[name])
		}
	}
	if len(r.Order) != 9 {
		t.Fatalf("len(Order) = %d, want 9", len(r.Order))
	}
}

func TestRunOneShotDeliversOnlyOnce(t *testing.T) {
	s := &Scenario{
		OneShot:  true,
		Clients:  []Client{{Name: "a"}},
		Triggers: []Trigger{{Name: "t", Seq: 1}, {Name: "t", Seq: 2}},
	}
	r := Run(s, nil)
	if r.Delivered["a"] != 1 {
		t.Fatalf("Delivered[a] = %d, want 1", r.Delivered["a"])
	}
}

func TestCheckFailsOnUnsatisfiedClient(t *testing.T) {
	s := &Scenario{
		Clients:  []Client{{Name: "a"}, {Name: "ghost"}},
		Triggers: []Trigger{{Name: "t", Seq: 1}},
	}
	r := &Result{Delivered: map[string]int{"a": 1}}
	if err := Check(s, r); err == nil {
		t.Fatal("expected Check to fail when a client received 0 deliveries")
	}
}

func TestLoadRejectsScenarioWithNoClients(t *testing.T) {
	if _, err := loadFixture(t, "clients: []\ntriggers:\n  - name: t\n"); err == nil {
		t.Fatal("expected validation to reject an empty clients list")
	}
}

func TestLoadAcceptsWellFormedFixture(t *testing.T) {
	s, err := loadFixture(t, "clients:\n  - name: a\ntriggers:\n  - name: t\n    seq: 1\n")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Clients) != 1 || s.Clients[0].Name != "a" {
		t.Fatalf("got %+v", s.Clients)
	}
}
