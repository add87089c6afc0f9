package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. It backs development mode
// and tests; all data is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	byHash map[string]*KeyRecord
	byID   map[string]*KeyRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byHash: make(map[string]*KeyRecord),
		byID:   make(map[string]*KeyRecord),
	}
}

// GetByHash looks up a record by key hash.
func (m *MemoryStore) GetByHash(ctx context.Context, hash string) (*KeyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// Insert persists a new key record.
func (m *MemoryStore) Insert(ctx context.Context, rec *KeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	cp := *rec
	m.byHash[cp.KeyHash] = &cp
	m.byID[cp.ID] = &cp
	return nil
}

// Touch increments request_count and sets last_used_at.
func (m *MemoryStore) Touch(ctx context.Context, id string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.RequestCount++
	t := usedAt
	rec.LastUsedAt = &t
	return nil
}

// Revoke marks the key inactive.
func (m *MemoryStore) Revoke(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.Active = false
	return nil
}

// List returns all records, newest first.
func (m *MemoryStore) List(ctx context.Context) ([]*KeyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*KeyRecord, 0, len(m.byID))
	for _, rec := range m.byID {
		cp := *rec
		records = append(records, &cp)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteExpired removes records whose expiry passed before cutoff.
func (m *MemoryStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for id, rec := range m.byID {
		if rec.ExpiresAt != nil && rec.ExpiresAt.Before(cutoff) {
			delete(m.byHash, rec.KeyHash)
			delete(m.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

// Size returns the number of stored records, for tests and metrics.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
