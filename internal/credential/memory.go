// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package credential

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
	saves int
}

// NewMemoryStore creates a MemoryStore holding initial. Pass a zero
// Credentials for an empty store.
func NewMemoryStore(initial Credentials) *MemoryStore {
	return &MemoryStore{creds: initial}
}

// Load implements Store.
func (m *MemoryStore) Load(context.Context) (Credentials, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, !m.creds.IsZero()
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, c Credentials) error {
	if err := CheckRecord(c); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = c
	m.saves++
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Compile-time check.
var _ Store = (*MemoryStore)(nil)
