// Package memstore provides the reference rollback-capable participant: a
// keyed in-memory container with deep-copy snapshots. It is the store the
// unit-of-work contract is engineered against; heavier backends plug into the
// same contract through their own adapters.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateKey is returned by Add when the key is already present.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrForeignSnapshot is returned by Restore when handed a snapshot that
	// was not produced by a store of the same key/entity types.
	ErrForeignSnapshot = errors.New("snapshot was not produced by this store type")
)

// Store is a keyed in-memory container. The key is extracted from each entity
// by keyOf; clone must return a structurally independent copy of an entity,
// so that snapshots never alias live state in either direction. The store
// owns its locking and is safe for concurrent use; a unit of work spanning it
// still has to be confined to a single goroutine.
type Store[K comparable, E any] struct {
	mu       sync.RWMutex
	items    map[K]E
	keyOf    func(E) K
	clone    func(E) E
	retained []*snapshot[K, E]
}

type snapshot[K comparable, E any] struct {
	items map[K]E
}

// New creates an empty store.
func New[K comparable, E any](keyOf func(E) K, clone func(E) E) *Store[K, E] {
	return &Store[K, E]{
		items: make(map[K]E),
		keyOf: keyOf,
		clone: clone,
	}
}

// Add inserts an entity, rejecting duplicate keys with ErrDuplicateKey. The
// stored copy is a clone, so the caller keeps no alias into the store.
func (s *Store[K, E]) Add(entity E) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.keyOf(entity)
	if _, ok := s.items[key]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, key)
	}
	s.items[key] = s.clone(entity)
	return nil
}

// Put inserts or overwrites an entity unconditionally.
func (s *Store[K, E]) Put(entity E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[s.keyOf(entity)] = s.clone(entity)
}

// Get returns a clone of the entity under key, if present.
func (s *Store[K, E]) Get(key K) (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.items[key]
	if !ok {
		var zero E
		return zero, false
	}
	return s.clone(entity), true
}

// Delete removes the entity under key and reports whether it was present.
func (s *Store[K, E]) Delete(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	return true
}

// List returns clones of all entities, in map order.
func (s *Store[K, E]) List() []E {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]E, 0, len(s.items))
	for _, entity := range s.items {
		out = append(out, s.clone(entity))
	}
	return out
}

// Len reports the number of stored entities.
func (s *Store[K, E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Checkpoint deep-copies the current state into a new snapshot, retains it
// and returns it. Checkpoints stack: each retained snapshot remains
// restorable until Commit discards them.
func (s *Store[K, E]) Checkpoint(_ context.Context) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := &snapshot[K, E]{items: s.copyItems()}
	s.retained = append(s.retained, snap)
	return snap, nil
}

// Restore replaces live state with a deep copy of the snapshot's contents.
// Mutating the snapshot afterwards cannot leak into live state, nor the other
// way around. Retained snapshots taken at or after the restored one are
// discarded; older ones remain restorable.
func (s *Store[K, E]) Restore(_ context.Context, snap any) error {
	typed, ok := snap.(*snapshot[K, E])
	if !ok {
		return fmt.Errorf("%w: got %T", ErrForeignSnapshot, snap)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[K]E, len(typed.items))
	for key, entity := range typed.items {
		s.items[key] = s.clone(entity)
	}
	for i, retained := range s.retained {
		if retained == typed {
			s.retained = s.retained[:i]
			break
		}
	}
	return nil
}

// Commit discards all retained snapshots. Live data is untouched.
func (s *Store[K, E]) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retained = nil
	return nil
}

// RetainedSnapshots reports how many checkpoints are currently stacked.
func (s *Store[K, E]) RetainedSnapshots() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.retained)
}

func (s *Store[K, E]) copyItems() map[K]E {
	cp := make(map[K]E, len(s.items))
	for key, entity := range s.items {
		cp[key] = s.clone(entity)
	}
	return cp
}
