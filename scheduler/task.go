package scheduler

import (
	"context"
	"time"

	"github.com/objectmesh/go-objectmesh/common/types"
)

// State tracks a transaction through the scheduling pipeline.
type State uint8

const (
	// StateSubmitted is the initial state after validation.
	StateSubmitted State = iota
	// StateClassified means a path has been chosen.
	StateClassified
	// StateDeferred means congestion control pushed the transaction to a
	// later execution slot. Backpressure, not failure.
	StateDeferred
	// StateExecuting means execution started; it now runs to completion.
	StateExecuting
	// StateFinalized means effects were produced and committed, including
	// soft failures.
	StateFinalized
	// StateRejected means an admission-time error ended the attempt. Nothing
	// was recorded in the ledger.
	StateRejected
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StateClassified:
		return "classified"
	case StateDeferred:
		return "deferred"
	case StateExecuting:
		return "executing"
	case StateFinalized:
		return "finalized"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// task is one transaction moving through the scheduler.
type task struct {
	tx     *types.Transaction
	txID   types.TransactionID
	cert   *types.QuorumCert
	source types.SchedulingSource
	state  State

	// estimate the task was admitted (or deferred) under.
	estimate time.Duration

	// submitter context. Cancellation is honored up to the moment execution
	// starts; afterwards the attempt runs to completion.
	ctx context.Context

	outcome chan outcome
}

type outcome struct {
	fx  *types.Effects
	err error
}

func (t *task) resolve(fx *types.Effects, err error) {
	if err != nil {
		t.state = StateRejected
	} else {
		t.state = StateFinalized
	}
	t.outcome <- outcome{fx: fx, err: err}
	close(t.outcome)
}

// Pending is the handle returned for a transaction accepted but not yet
// finalized.
type Pending struct {
	txID    types.TransactionID
	outcome <-chan outcome
}

// ID returns the transaction id the handle tracks.
func (p *Pending) ID() types.TransactionID {
	return p.txID
}

// Wait blocks until the transaction is finalized or rejected, or ctx ends.
func (p *Pending) Wait(ctx context.Context) (*types.Effects, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out, ok := <-p.outcome:
		if !ok {
			return nil, context.Canceled
		}
		return out.fx, out.err
	}
}
