// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package event

import "sync"

// Recorder is a Publisher that keeps every event in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends e.
func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Types returns the type of every recorded event, in order.
func (r *Recorder) Types() []Type {
	events := r.Events()
	out := make([]Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

// States returns the state of every state.changed event, in order.
func (r *Recorder) States() []string {
	var out []string
	for _, e := range r.OfType(TypeStateChanged) {
		out = append(out, e.Session.State)
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
