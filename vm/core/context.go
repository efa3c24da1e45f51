// Package core holds the execution context shared by the built-in
// instructions and the two error taxonomies of the execution core.
package core

import (
	"errors"
	"fmt"

	"github.com/objectmesh/go-objectmesh/common/types"
	"github.com/objectmesh/go-objectmesh/objects"
)

// Context carries the state of one execution attempt: the intent, a scoped
// staged view over exactly the objects the transaction references, and the
// effects builder. It is created per attempt and discarded afterwards.
type Context struct {
	Tx     *types.Transaction
	TxID   types.TransactionID
	Source types.SchedulingSource

	View    *objects.StagedView
	Builder *EffectsBuilder

	// next output index for deterministic created-object ids.
	outputIndex uint8
}

// NewContext prepares a context for one attempt against the given store.
func NewContext(store *objects.Store, tx *types.Transaction, source types.SchedulingSource) *Context {
	txID := tx.ID()
	return &Context{
		Tx:      tx,
		TxID:    txID,
		Source:  source,
		View:    objects.NewStagedView(store),
		Builder: NewEffectsBuilder(txID, source),
	}
}

// Input fetches the object named by ref and verifies the exact-match triple
// and ownership by the sender. Any disagreement is an admission-time error.
func (ctx *Context) Input(ref types.ObjectRef) (types.Object, error) {
	obj, err := ctx.View.Get(ref.ID)
	if err != nil {
		if errors.Is(err, objects.ErrNotFound) {
			return types.Object{}, fmt.Errorf("%w: %s", ErrStaleObject, ref.ID.ShortString())
		}
		return types.Object{}, fmt.Errorf("%w: loading %s: %s", ErrInternal, ref.ID.ShortString(), err)
	}
	if obj.Version != ref.Version || obj.Digest != ref.Digest {
		return types.Object{}, fmt.Errorf("%w: %s stored version %d, referenced %d",
			ErrStaleObject, ref.ID.ShortString(), obj.Version, ref.Version)
	}
	if !obj.Owner.IsAddress(ctx.Tx.Sender) {
		return types.Object{}, fmt.Errorf("%w: %s owned by %s, signed by %s",
			ErrNotOwner, ref.ID.ShortString(), obj.Owner, ctx.Tx.Sender)
	}
	return obj, nil
}

// Mutate bumps the object's version, refreshes its digest and stages the
// write. The previous version is the commit-time expectation.
func (ctx *Context) Mutate(obj types.Object) error {
	prev := obj.Version
	obj.Version++
	obj.RefreshDigest()
	if err := ctx.View.StageMutation(obj, prev); err != nil {
		return fmt.Errorf("%w: %s", ErrInternal, err)
	}
	ctx.Builder.Mutated(obj.Reference())
	return nil
}

// Create stages a brand-new object owned by owner with the given balance. The
// id is derived from the transaction id and a running output index, so every
// validator replaying the transaction creates the same object.
func (ctx *Context) Create(owner types.Owner, balance uint64) (types.Object, error) {
	obj := types.Object{
		ID:      types.CreatedObjectID(ctx.TxID, ctx.outputIndex),
		Version: 1,
		Owner:   owner,
		Balance: balance,
	}
	obj.RefreshDigest()
	if err := ctx.View.StageCreation(obj); err != nil {
		return types.Object{}, fmt.Errorf("%w: %s", ErrInternal, err)
	}
	ctx.outputIndex++
	ctx.Builder.Created(obj.Reference(), obj.Owner)
	return obj, nil
}

// Apply commits all staged writes atomically. Losing a version race at commit
// time is reported as a stale reference, the same rejection the input check
// gives: concurrent attempts against one object version are rejected, never
// merged. Anything else is an internal fault. A commit never leaves partial
// state behind.
func (ctx *Context) Apply() error {
	if err := ctx.View.Commit(); err != nil {
		if errors.Is(err, objects.ErrVersionMismatch) || errors.Is(err, objects.ErrExists) {
			return fmt.Errorf("%w: %s", ErrStaleObject, err)
		}
		return fmt.Errorf("%w: %s", ErrInternal, err)
	}
	return nil
}
