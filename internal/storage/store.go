// Package storage persists the last successfully loaded feed snapshot so a
// restart keeps serving the previous feed until the next load.
package storage

import (
	"context"
	"sync"

	"gofinances/internal/core"
)

// SnapshotStore holds at most one snapshot: the latest good feed.
type SnapshotStore interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap core.Snapshot) error
	// Latest returns the stored snapshot; ok is false when nothing has
	// been saved yet.
	Latest(ctx context.Context) (snap core.Snapshot, ok bool, err error)
	Close() error
}

// MemoryStore keeps the snapshot in process memory only.
type MemoryStore struct {
	mu   sync.RWMutex
	snap core.Snapshot
	set  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.set = true
	return nil
}

func (s *MemoryStore) Latest(_ context.Context) (core.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.set, nil
}

func (s *MemoryStore) Close() error { return nil }
