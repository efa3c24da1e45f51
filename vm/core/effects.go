package core

import (
	"github.com/objectmesh/go-objectmesh/common/types"
)

// EffectsBuilder aggregates the mutations of one execution attempt into an
// immutable effects record. The builder is single-use: Seal returns the
// finished record and any further mutation panics.
type EffectsBuilder struct {
	txID    types.TransactionID
	source  types.SchedulingSource
	status  types.ExecutionStatus
	mutated []types.ObjectRef
	created []types.CreatedObject
	deleted []types.ObjectID
	gas     types.GasSummary
	sealed  bool
}

// NewEffectsBuilder starts a builder for the given transaction and path.
func NewEffectsBuilder(txID types.TransactionID, source types.SchedulingSource) *EffectsBuilder {
	return &EffectsBuilder{txID: txID, source: source}
}

func (b *EffectsBuilder) mutable() {
	if b.sealed {
		panic("effects are immutable once sealed")
	}
}

// Mutated records an object that execution rewrote, by its new reference.
func (b *EffectsBuilder) Mutated(ref types.ObjectRef) {
	b.mutable()
	b.mutated = append(b.mutated, ref)
}

// Created records a newly created object.
func (b *EffectsBuilder) Created(ref types.ObjectRef, owner types.Owner) {
	b.mutable()
	b.created = append(b.created, types.CreatedObject{Ref: ref, Owner: owner})
}

// Deleted records a removed object.
func (b *EffectsBuilder) Deleted(id types.ObjectID) {
	b.mutable()
	b.deleted = append(b.deleted, id)
}

// ChargeGas adds to the gas summary. Native transfers never call it.
func (b *EffectsBuilder) ChargeGas(gas types.GasSummary) {
	b.mutable()
	b.gas.Computation += gas.Computation
	b.gas.Storage += gas.Storage
	b.gas.Rebate += gas.Rebate
}

// Fail marks the attempt as a ledger-recorded soft failure. A failed attempt
// carries no mutations and no gas.
func (b *EffectsBuilder) Fail(reason types.FailureReason) {
	b.mutable()
	b.status = types.StatusFailure(reason)
	b.mutated = nil
	b.created = nil
	b.deleted = nil
	b.gas = types.GasSummary{}
}

// Seal finishes the record and transfers it to the caller by value. The
// builder accepts no further mutation.
func (b *EffectsBuilder) Seal() *types.Effects {
	b.mutable()
	b.sealed = true
	return &types.Effects{
		TxID:    b.txID,
		Status:  b.status,
		Mutated: b.mutated,
		Created: b.created,
		Deleted: b.deleted,
		Gas:     b.gas,
		Source:  b.source,
	}
}
