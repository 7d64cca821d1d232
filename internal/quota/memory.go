// Package quota bounds unauthenticated chat usage per client address.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/maggiegpt/server/internal/model"
)

// Memory is a process-local quota tracker. Entries are created lazily on
// first sight, never persisted, and cleared only by process restart. It
// is correct for a single server instance only; multi-instance
// deployments should use the Redis tracker instead.
type Memory struct {
	mu      sync.Mutex
	limit   int
	entries map[string]*entry
}

type entry struct {
	count     int
	firstSeen time.Time
}

var _ model.QuotaTracker = (*Memory)(nil)

// NewMemory creates an empty in-memory tracker with the given limit.
func NewMemory(limit int) *Memory {
	return &Memory{
		limit:   limit,
		entries: make(map[string]*entry),
	}
}

// Allow consumes one unit for the key, or fails with
// model.ErrGuestLimitReached without consuming once the limit is hit.
func (m *Memory) Allow(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{firstSeen: time.Now()}
		m.entries[key] = e
	}

	if e.count >= m.limit {
		return 0, model.ErrGuestLimitReached
	}

	e.count++
	return m.limit - e.count, nil
}
