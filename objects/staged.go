package objects

import (
	"fmt"

	"github.com/objectmesh/go-objectmesh/common/types"
)

// StagedView is the scoped, mutable handle handed to an executor for the
// duration of one execution. Reads fall through to the store; writes are
// staged locally and hit the store only on Commit, all or nothing. A view is
// not safe for concurrent use and must not outlive its execution.
type StagedView struct {
	store     *Store
	staged    map[types.ObjectID]*change
	order     []types.ObjectID
	committed bool
}

// NewStagedView returns a view over the given store.
func NewStagedView(store *Store) *StagedView {
	return &StagedView{
		store:  store,
		staged: map[types.ObjectID]*change{},
	}
}

// Get returns the staged state of the object if it was written through this
// view, otherwise the store's current state.
func (v *StagedView) Get(id types.ObjectID) (types.Object, error) {
	if c, exists := v.staged[id]; exists {
		return c.obj, nil
	}
	return v.store.Get(id)
}

// StageMutation stages a new state for an existing object. expectedVersion is
// the version the store must still hold at commit time.
func (v *StagedView) StageMutation(obj types.Object, expectedVersion uint64) error {
	if v.committed {
		return fmt.Errorf("staged view already committed")
	}
	if obj.Version != expectedVersion+1 {
		return fmt.Errorf("%w: %s version must advance by 1, got %d after %d",
			ErrVersionMismatch, obj.ID.ShortString(), obj.Version, expectedVersion)
	}
	v.stage(&change{obj: obj, expectedVersion: expectedVersion})
	return nil
}

// StageCreation stages a brand-new object.
func (v *StagedView) StageCreation(obj types.Object) error {
	if v.committed {
		return fmt.Errorf("staged view already committed")
	}
	if _, exists := v.staged[obj.ID]; exists {
		return fmt.Errorf("%w: %s staged twice", ErrExists, obj.ID.ShortString())
	}
	if _, err := v.store.Get(obj.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, obj.ID.ShortString())
	}
	v.stage(&change{obj: obj, created: true})
	return nil
}

func (v *StagedView) stage(c *change) {
	if _, exists := v.staged[c.obj.ID]; !exists {
		v.order = append(v.order, c.obj.ID)
	}
	v.staged[c.obj.ID] = c
}

// Pending returns the number of staged writes.
func (v *StagedView) Pending() int {
	return len(v.staged)
}

// Commit applies all staged writes atomically. After a successful commit the
// view is spent and stages nothing further.
func (v *StagedView) Commit() error {
	if v.committed {
		return fmt.Errorf("staged view already committed")
	}
	changes := make([]change, 0, len(v.order))
	for _, id := range v.order {
		changes = append(changes, *v.staged[id])
	}
	if err := v.store.applyChanges(changes); err != nil {
		return err
	}
	v.committed = true
	return nil
}

// Discard drops all staged writes. The view can be discarded at any point
// before Commit with no state residue.
func (v *StagedView) Discard() {
	v.staged = map[types.ObjectID]*change{}
	v.order = nil
}
