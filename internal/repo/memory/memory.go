package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/pong/internal/domain"
)

// Store keeps the latest status per (task type, target). Keys are never
// removed. The lock is held for one key's read or write at a time.
type Store struct {
	mu       sync.Mutex
	statuses map[domain.StatusKey]domain.TargetStatus
	now      func() time.Time
}

func New() *Store {
	return &Store{
		statuses: make(map[domain.StatusKey]domain.TargetStatus),
		now:      time.Now,
	}
}

// Update stores r unless an entry with the same elapsed value is already
// present, so unchanged series keep their UpdatedAt.
func (m *Store) Update(r domain.ProbeResult) bool {
	key := domain.KeyOf(r.Type, r.Target)
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.statuses[key]; ok && old.Elapsed == r.Elapsed {
		return false
	}
	m.statuses[key] = domain.TargetStatus{
		Type:      r.Type,
		Target:    r.Target,
		Elapsed:   r.Elapsed,
		UpdatedAt: m.now().UTC(),
	}
	return true
}

func (m *Store) Get(key domain.StatusKey) (domain.TargetStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[key]
	return st, ok
}

// Snapshot copies the whole map.
func (m *Store) Snapshot() map[domain.StatusKey]domain.TargetStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.StatusKey]domain.TargetStatus, len(m.statuses))
	for k, v := range m.statuses {
		out[k] = v
	}
	return out
}

// List returns the snapshot ordered by key.
func (m *Store) List() []domain.TargetStatus {
	snap := m.Snapshot()
	keys := make([]domain.StatusKey, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]domain.TargetStatus, 0, len(keys))
	for _, k := range keys {
		out = append(out, snap[k])
	}
	return out
}

// Consume is the single writer loop: it drains results into the store
// until the channel is closed or ctx is cancelled.
func (m *Store) Consume(ctx context.Context, results <-chan domain.ProbeResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-results:
			if !ok {
				return
			}
			m.Update(r)
		}
	}
}
