package objects

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/objectmesh/go-objectmesh/common/types"
)

// ObjectInfo is the read-only answer served by the query interface.
type ObjectInfo struct {
	Ref     types.ObjectRef
	Owner   types.Owner
	Balance uint64
}

// CachedReader serves object queries through an LRU cache in front of the
// store. It subscribes to store change notifications and drops the entry for
// every written or deleted object, so a cache hit answers without touching
// the store and still never returns a stale triple as current.
type CachedReader struct {
	store *Store
	cache *lru.Cache[types.ObjectID, ObjectInfo]
}

// NewCachedReader creates a reader with the given cache capacity, wired to
// the store's change notifications.
func NewCachedReader(store *Store, size int) (*CachedReader, error) {
	cache, err := lru.New[types.ObjectID, ObjectInfo](size)
	if err != nil {
		return nil, err
	}
	store.Watch(func(id types.ObjectID) {
		cache.Remove(id)
	})
	return &CachedReader{store: store, cache: cache}, nil
}

// Query returns the current info for the object with the given id.
func (r *CachedReader) Query(id types.ObjectID) (ObjectInfo, error) {
	if info, cached := r.cache.Get(id); cached {
		return info, nil
	}
	obj, err := r.store.Get(id)
	if err != nil {
		return ObjectInfo{}, err
	}
	info := ObjectInfo{Ref: obj.Reference(), Owner: obj.Owner, Balance: obj.Balance}
	r.cache.Add(id, info)
	// a write racing with the fill fires its invalidation either before the
	// Add, leaving this entry stale, or after it, evicting the entry. The
	// re-read below catches the first case.
	current, err := r.store.Get(id)
	if err != nil {
		r.cache.Remove(id)
		return ObjectInfo{}, err
	}
	if current.Version != info.Ref.Version {
		r.cache.Remove(id)
		info = ObjectInfo{Ref: current.Reference(), Owner: current.Owner, Balance: current.Balance}
	}
	return info, nil
}
