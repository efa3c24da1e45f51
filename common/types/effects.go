package types

import (
	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"

	"github.com/objectmesh/go-objectmesh/codec"
	"github.com/objectmesh/go-objectmesh/hash"
	"github.com/objectmesh/go-objectmesh/log"
)

// SchedulingSource labels which path produced an execution attempt. It is
// observability-only: effects hashes never include it, so fast path and
// ordered path agree on the same effects.
type SchedulingSource uint8

const (
	// SourceOrdered marks execution after consensus established a total order.
	SourceOrdered SchedulingSource = iota
	// SourceFastPath marks execution finalized by quorum certificate without ordering.
	SourceFastPath
	// SourceLocal marks execution outside either path, used in tests and tooling.
	SourceLocal
)

// String implements fmt.Stringer.
func (s SchedulingSource) String() string {
	switch s {
	case SourceOrdered:
		return "ordered"
	case SourceFastPath:
		return "fastpath"
	case SourceLocal:
		return "local"
	default:
		return "unknown"
	}
}

// FailureReason enumerates ledger-recorded execution failures. The set is
// closed: anything not listed here is an admission-time rejection instead.
type FailureReason uint8

const (
	// ReasonNone is the reason carried by a successful status.
	ReasonNone FailureReason = iota
	// ReasonInsufficientBalance records a transfer exceeding the source balance.
	ReasonInsufficientBalance
)

// String implements fmt.Stringer.
func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInsufficientBalance:
		return "insufficient balance"
	default:
		return "unknown"
	}
}

// ExecutionStatus is the outcome recorded in effects. A failed status is still
// a finalized, ledger-visible fact.
type ExecutionStatus struct {
	Failed bool
	Reason FailureReason
}

// StatusSuccess returns a successful status.
func StatusSuccess() ExecutionStatus {
	return ExecutionStatus{}
}

// StatusFailure returns a failed status with the given reason.
func StatusFailure(reason FailureReason) ExecutionStatus {
	return ExecutionStatus{Failed: true, Reason: reason}
}

// IsOK reports whether execution succeeded.
func (s ExecutionStatus) IsOK() bool {
	return !s.Failed
}

// String implements fmt.Stringer.
func (s ExecutionStatus) String() string {
	if !s.Failed {
		return "success"
	}
	return "failure: " + s.Reason.String()
}

// EncodeScale implements scale codec interface.
func (s *ExecutionStatus) EncodeScale(e *scale.Encoder) (int, error) {
	total, err := scale.EncodeBool(e, s.Failed)
	if err != nil {
		return total, err
	}
	n, err := scale.EncodeCompact8(e, uint8(s.Reason))
	return total + n, err
}

// DecodeScale implements scale codec interface.
func (s *ExecutionStatus) DecodeScale(d *scale.Decoder) (int, error) {
	failed, total, err := scale.DecodeBool(d)
	if err != nil {
		return total, err
	}
	s.Failed = failed
	reason, n, err := scale.DecodeCompact8(d)
	total += n
	if err != nil {
		return total, err
	}
	s.Reason = FailureReason(reason)
	return total, nil
}

// GasSummary accounts for gas used by one execution attempt. Native transfers
// always carry a zero summary.
type GasSummary struct {
	Computation uint64
	Storage     uint64
	Rebate      uint64
}

// Net returns the net gas charged.
func (g GasSummary) Net() int64 {
	return int64(g.Computation) + int64(g.Storage) - int64(g.Rebate)
}

// EncodeScale implements scale codec interface.
func (g *GasSummary) EncodeScale(e *scale.Encoder) (int, error) {
	total, err := scale.EncodeCompact64(e, g.Computation)
	if err != nil {
		return total, err
	}
	n, err := scale.EncodeCompact64(e, g.Storage)
	total += n
	if err != nil {
		return total, err
	}
	n, err = scale.EncodeCompact64(e, g.Rebate)
	return total + n, err
}

// DecodeScale implements scale codec interface.
func (g *GasSummary) DecodeScale(d *scale.Decoder) (int, error) {
	computation, total, err := scale.DecodeCompact64(d)
	if err != nil {
		return total, err
	}
	g.Computation = computation
	storage, n, err := scale.DecodeCompact64(d)
	total += n
	if err != nil {
		return total, err
	}
	g.Storage = storage
	rebate, n, err := scale.DecodeCompact64(d)
	total += n
	if err != nil {
		return total, err
	}
	g.Rebate = rebate
	return total, nil
}

// CreatedObject records a newly created object and its owner.
type CreatedObject struct {
	Ref   ObjectRef
	Owner Owner
}

// EncodeScale implements scale codec interface.
func (c *CreatedObject) EncodeScale(e *scale.Encoder) (int, error) {
	total, err := c.Ref.EncodeScale(e)
	if err != nil {
		return total, err
	}
	n, err := c.Owner.EncodeScale(e)
	return total + n, err
}

// DecodeScale implements scale codec interface.
func (c *CreatedObject) DecodeScale(d *scale.Decoder) (int, error) {
	total, err := c.Ref.DecodeScale(d)
	if err != nil {
		return total, err
	}
	n, err := c.Owner.DecodeScale(d)
	return total + n, err
}

// Effects is the immutable record of a transaction's outcome. It is the unit
// hashed and signed for agreement across validators.
type Effects struct {
	TxID    TransactionID
	Status  ExecutionStatus
	Mutated []ObjectRef
	Created []CreatedObject
	Deleted []ObjectID
	Gas     GasSummary
	Source  SchedulingSource
}

// encodeHashed writes the hashed portion of the effects, everything except the
// scheduling source tag.
func (fx *Effects) encodeHashed(e *scale.Encoder) (int, error) {
	total, err := fx.TxID.EncodeScale(e)
	if err != nil {
		return total, err
	}
	n, err := fx.Status.EncodeScale(e)
	total += n
	if err != nil {
		return total, err
	}
	n, err = scale.EncodeStructSlice(e, fx.Mutated)
	total += n
	if err != nil {
		return total, err
	}
	n, err = scale.EncodeStructSlice(e, fx.Created)
	total += n
	if err != nil {
		return total, err
	}
	n, err = scale.EncodeStructSlice(e, fx.Deleted)
	total += n
	if err != nil {
		return total, err
	}
	n, err = fx.Gas.EncodeScale(e)
	return total + n, err
}

// EncodeScale implements scale codec interface.
func (fx *Effects) EncodeScale(e *scale.Encoder) (int, error) {
	total, err := fx.encodeHashed(e)
	if err != nil {
		return total, err
	}
	n, err := scale.EncodeCompact8(e, uint8(fx.Source))
	return total + n, err
}

// DecodeScale implements scale codec interface.
func (fx *Effects) DecodeScale(d *scale.Decoder) (int, error) {
	total, err := fx.TxID.DecodeScale(d)
	if err != nil {
		return total, err
	}
	n, err := fx.Status.DecodeScale(d)
	total += n
	if err != nil {
		return total, err
	}
	mutated, n, err := scale.DecodeStructSlice[ObjectRef, *ObjectRef](d)
	total += n
	if err != nil {
		return total, err
	}
	fx.Mutated = mutated
	created, n, err := scale.DecodeStructSlice[CreatedObject, *CreatedObject](d)
	total += n
	if err != nil {
		return total, err
	}
	fx.Created = created
	deleted, n, err := scale.DecodeStructSlice[ObjectID, *ObjectID](d)
	total += n
	if err != nil {
		return total, err
	}
	fx.Deleted = deleted
	n, err = fx.Gas.DecodeScale(d)
	total += n
	if err != nil {
		return total, err
	}
	source, n, err := scale.DecodeCompact8(d)
	total += n
	if err != nil {
		return total, err
	}
	fx.Source = SchedulingSource(source)
	return total, nil
}

// hashedEffects restricts the encoding to the hashed portion, so effects
// hashes go through the shared codec entry point.
type hashedEffects Effects

// EncodeScale implements scale codec interface.
func (fx *hashedEffects) EncodeScale(e *scale.Encoder) (int, error) {
	return (*Effects)(fx).encodeHashed(e)
}

// Hash returns the digest of the effects excluding the scheduling source tag,
// so executions on either path hash identically.
func (fx *Effects) Hash() Hash32 {
	hasher := hash.GetHasher()
	defer func() {
		hasher.Reset()
		hash.PutHasher(hasher)
	}()
	if _, err := codec.EncodeTo(hasher, (*hashedEffects)(fx)); err != nil {
		log.Panic("failed to encode effects for hash: %v", err)
	}
	var sum Hash32
	hasher.Sum(sum[:0])
	return sum
}

// MarshalLogObject implements logging encoder for Effects.
func (fx *Effects) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("tx_id", fx.TxID.ShortString())
	encoder.AddString("status", fx.Status.String())
	encoder.AddInt("mutated", len(fx.Mutated))
	encoder.AddInt("created", len(fx.Created))
	encoder.AddInt("deleted", len(fx.Deleted))
	encoder.AddInt64("gas", fx.Gas.Net())
	encoder.AddString("source", fx.Source.String())
	return nil
}
