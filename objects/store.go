// Package objects implements the versioned object store view. It is the only
// mutable shared resource in the execution core: all mutation goes through an
// executor holding a staged view, and every write names the exact version it
// expects to replace.
package objects

import (
	"errors"
	"fmt"
	"sync"

	"github.com/objectmesh/go-objectmesh/common/types"
)

var (
	// ErrNotFound is returned when an object is not in the store.
	ErrNotFound = errors.New("object not found")
	// ErrExists is returned when creating an object with an id already in use.
	ErrExists = errors.New("object already exists")
	// ErrVersionMismatch is returned when a mutation names a version or digest
	// that is not the store's current one.
	ErrVersionMismatch = errors.New("object version mismatch")
)

// Store is an in-memory arena of versioned objects keyed by id.
type Store struct {
	mu       sync.RWMutex
	objects  map[types.ObjectID]types.Object
	watchers []func(types.ObjectID)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{objects: map[types.ObjectID]types.Object{}}
}

// Watch registers fn to be called with the id of every object that is
// written or deleted. Notifications fire after the write is visible, outside
// the store lock; fn must not block.
func (s *Store) Watch(fn func(types.ObjectID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

func (s *Store) notify(ids ...types.ObjectID) {
	s.mu.RLock()
	watchers := s.watchers
	s.mu.RUnlock()
	for _, fn := range watchers {
		for _, id := range ids {
			fn(id)
		}
	}
}

// Get returns the current state of the object with the given id.
func (s *Store) Get(id types.ObjectID) (types.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, exists := s.objects[id]
	if !exists {
		return types.Object{}, fmt.Errorf("%w: %s", ErrNotFound, id.ShortString())
	}
	return obj, nil
}

// GetRef returns the current exact-match reference for the object.
func (s *Store) GetRef(id types.ObjectID) (types.ObjectRef, error) {
	obj, err := s.Get(id)
	if err != nil {
		return types.ObjectRef{}, err
	}
	return obj.Reference(), nil
}

// Insert adds a brand-new object. The object must carry a fresh digest.
func (s *Store) Insert(obj types.Object) error {
	s.mu.Lock()
	err := s.insertLocked(obj)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(obj.ID)
	return nil
}

func (s *Store) insertLocked(obj types.Object) error {
	if _, exists := s.objects[obj.ID]; exists {
		return fmt.Errorf("%w: %s", ErrExists, obj.ID.ShortString())
	}
	s.objects[obj.ID] = obj
	return nil
}

// Update replaces the object state, failing fast unless the stored version is
// exactly expectedVersion and the new version advances it by one. This version
// check is the whole concurrency story for owned objects: concurrent attempts
// against the same version lose, they are never merged.
func (s *Store) Update(obj types.Object, expectedVersion uint64) error {
	s.mu.Lock()
	err := s.updateLocked(obj, expectedVersion)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(obj.ID)
	return nil
}

func (s *Store) updateLocked(obj types.Object, expectedVersion uint64) error {
	current, exists := s.objects[obj.ID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, obj.ID.ShortString())
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: %s stored %d expected %d",
			ErrVersionMismatch, obj.ID.ShortString(), current.Version, expectedVersion)
	}
	if obj.Version != expectedVersion+1 {
		return fmt.Errorf("%w: %s version must advance by 1, got %d after %d",
			ErrVersionMismatch, obj.ID.ShortString(), obj.Version, expectedVersion)
	}
	s.objects[obj.ID] = obj
	return nil
}

// Delete removes the object from the store.
func (s *Store) Delete(id types.ObjectID) error {
	s.mu.Lock()
	if _, exists := s.objects[id]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id.ShortString())
	}
	delete(s.objects, id)
	s.mu.Unlock()
	s.notify(id)
	return nil
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// change is a single staged write.
type change struct {
	obj             types.Object
	created         bool
	expectedVersion uint64
}

// applyChanges commits a set of staged writes atomically. Every expected
// version is re-verified under the lock; if any check fails nothing is written.
func (s *Store) applyChanges(changes []change) error {
	s.mu.Lock()
	for i := range changes {
		c := &changes[i]
		if c.created {
			if _, exists := s.objects[c.obj.ID]; exists {
				s.mu.Unlock()
				return fmt.Errorf("%w: %s", ErrExists, c.obj.ID.ShortString())
			}
			continue
		}
		current, exists := s.objects[c.obj.ID]
		if !exists {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrNotFound, c.obj.ID.ShortString())
		}
		if current.Version != c.expectedVersion {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s stored %d expected %d",
				ErrVersionMismatch, c.obj.ID.ShortString(), current.Version, c.expectedVersion)
		}
	}
	touched := make([]types.ObjectID, len(changes))
	for i := range changes {
		s.objects[changes[i].obj.ID] = changes[i].obj
		touched[i] = changes[i].obj.ID
	}
	s.mu.Unlock()
	s.notify(touched...)
	return nil
}

// SeedGenesis inserts the genesis objects. Versions and digests are assigned
// here so callers only describe id, owner and balance.
func (s *Store) SeedGenesis(genesis []types.Object) error {
	s.mu.Lock()
	seeded := make([]types.ObjectID, 0, len(genesis))
	for i := range genesis {
		obj := genesis[i]
		if obj.Version == 0 {
			obj.Version = 1
		}
		obj.RefreshDigest()
		if err := s.insertLocked(obj); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("seeding genesis: %w", err)
		}
		seeded = append(seeded, obj.ID)
	}
	s.mu.Unlock()
	s.notify(seeded...)
	return nil
}
