// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package event

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// idSource issues event ids that sort in the order events were created,
// even within one millisecond.
type idSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var ids = &idSource{entropy: ulid.Monotonic(rand.Reader, 0)}

func (s *idSource) next(at time.Time) ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), s.entropy)
}
