package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store is an append-only collection of snapshots, listed most recent first.
type Store interface {
	// Append records s as the most recent snapshot.
	Append(ctx context.Context, s *Snapshot) error
	// List returns every snapshot, most recent first.
	List(ctx context.Context) ([]*Snapshot, error)
	// Get returns the snapshot with the given id.
	Get(ctx context.Context, id string) (*Snapshot, error)
}

// FailureCounter is implemented by stores that can count failed runs
// without loading every snapshot.
type FailureCounter interface {
	// CountFailed returns how many snapshots contain at least one failed node.
	CountFailed(ctx context.Context) (int, error)
}

// MemoryStore keeps snapshots for the lifetime of the process.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots []*Snapshot // most recent first
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make([]*Snapshot, 0)}
}

// Append prepends a private copy of s.
func (m *MemoryStore) Append(ctx context.Context, s *Snapshot) error {
	if s == nil {
		return errors.New("cannot append nil snapshot")
	}
	if s.ID == "" {
		return errors.New("snapshot ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.snapshots {
		if existing.ID == s.ID {
			return fmt.Errorf("snapshot %s already recorded", s.ID)
		}
	}
	m.snapshots = append([]*Snapshot{s.Clone()}, m.snapshots...)
	return nil
}

// List returns copies of all snapshots, most recent first.
func (m *MemoryStore) List(ctx context.Context) ([]*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Snapshot, len(m.snapshots))
	for i, s := range m.snapshots {
		out[i] = s.Clone()
	}
	return out, nil
}

// Get returns a copy of the snapshot with the given id.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.snapshots {
		if s.ID == id {
			return s.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
}

// Len reports how many snapshots are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}

// CountFailed returns how many snapshots contain at least one failed node.
func (m *MemoryStore) CountFailed(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.snapshots {
		if Summarize(s).Failed > 0 {
			count++
		}
	}
	return count, nil
}
