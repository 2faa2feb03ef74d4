// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package scenario defines the YAML file format cmd/eventsdemo loads and
// plays against the events library, and the code that plays it.
package scenario

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/carlowood/events"
	"github.com/carlowood/events/xlog"
)

// Event is the payload dispatched for every trigger in a scenario.
// cmd/eventsdemo only ever instantiates events.Server[Event].
type Event struct {
	Name string `json:"name"`
	Seq  int    `json:"seq"`
}

// Client is one declared subscriber.
type Client struct {
	Name string `koanf:"name" validate:"required"`
	// Group, when non-empty, binds this client's Request to a
	// BusyInterface shared by every other client naming the same
	// group.
	Group string `koanf:"group"`
}

// Trigger is one declared Server.Trigger call, played in file order.
type Trigger struct {
	Name string `koanf:"name" validate:"required"`
	Seq  int    `koanf:"seq"`
}

// Scenario is the top-level shape of a scenario YAML file.
type Scenario struct {
	OneShot  bool      `koanf:"one_shot"`
	Clients  []Client  `koanf:"clients" validate:"required,min=1,dive"`
	Triggers []Trigger `koanf:"triggers" validate:"required,min=1,dive"`
}

// Load reads and validates the scenario file at path.
func Load(path string) (*Scenario, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("scenario: loading %s: %w", path, err)
	}

	var s Scenario
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}

	if err := validator.New().Struct(&s); err != nil {
		return nil, fmt.Errorf("scenario: validating %s: %w", path, err)
	}
	return &s, nil
}

// Result is what Run reports for one played scenario.
type Result struct {
	// Delivered counts deliveries per client name.
	Delivered map[string]int
	// Order records, in delivery order, which client names received
	// which trigger sequence numbers.
	Order []DeliveryRecord
}

// DeliveryRecord is one callback invocation, in the order it happened.
type DeliveryRecord struct {
	Client string
	Seq    int
}

// Run builds one Server[Event] from s, registers one Request per
// declared client (sharing a BusyInterface across clients in the same
// non-empty group), plays every declared trigger in order, and
// returns what was delivered to whom.
//
// log receives one line per delivery and one line per trigger.
func Run(s *Scenario, log xlog.Logf) *Result {
	if log == nil {
		log = xlog.Discard
	}

	var opts []events.ServerOption
	if s.OneShot {
		opts = append(opts, events.OneShot())
	}
	server := events.NewServer[Event]("eventsdemo", opts...)

	busyByGroup := map[string]*events.BusyInterface{}
	result := &Result{Delivered: map[string]int{}}

	var handles []*events.RequestHandle[Event]
	for _, c := range s.Clients {
		c := c
		var reqOpts []events.RequestOption
		if c.Group != "" {
			bi, ok := busyByGroup[c.Group]
			if !ok {
				bi = &events.BusyInterface{}
				busyByGroup[c.Group] = bi
			}
			reqOpts = append(reqOpts, events.WithBusyInterface(bi))
		}
		h := server.Request(func(e Event) {
			result.Delivered[c.Name]++
			result.Order = append(result.Order, DeliveryRecord{Client: c.Name, Seq: e.Seq})
			log("eventsdemo: %s delivered to %s (seq=%d)", e.Name, c.Name, e.Seq)
		}, reqOpts...)
		handles = append(handles, h)
	}
	defer func() {
		for _, h := range handles {
			if !h.Canceled() {
				h.Cancel()
			}
		}
	}()

	for _, trig := range s.Triggers {
		log("eventsdemo: triggering %s (seq=%d)", trig.Name, trig.Seq)
		server.Trigger(Event{Name: trig.Name, Seq: trig.Seq})
	}

	return result
}

// Check verifies that every declared client received exactly the
// expected number of deliveries, which for a repeated server is
// len(s.Triggers) and for a one-shot server is at most 1.
func Check(s *Scenario, r *Result) error {
	want := len(s.Triggers)
	if s.OneShot && want > 1 {
		want = 1
	}
	for _, c := range s.Clients {
		got := r.Delivered[c.Name]
		if got != want {
			return fmt.Errorf("scenario: client %q received %d deliveries, want %d", c.Name, got, want)
		}
	}
	return nil
}
