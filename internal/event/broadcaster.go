// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package event

import (
	"log/slog"
	"sync"
)

const subscriberBuffer = 64

// Broadcaster distributes events to subscribers.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
	logger *slog.Logger
}

// NewBroadcaster creates a new broadcaster. A nil logger uses slog.Default().
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{logger: logger}
}

// Subscribe creates a channel for receiving events. The channel is closed by
// Unsubscribe or Close.
func (b *Broadcaster) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes a channel and closes it.
func (b *Broadcaster) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Publish sends an event to all subscribers without blocking.
func (b *Broadcaster) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event dropped: subscriber buffer full",
				"event_id", e.ID.String(),
				"event_type", string(e.Type),
			)
		}
	}
}

// Close closes every subscriber channel. Later Publish calls are no-ops.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
