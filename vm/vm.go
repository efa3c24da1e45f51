// Package vm validates and executes the built-in instructions against the
// object store. The instruction set is closed: dispatch is a switch over the
// transaction kind, not a pluggable handler registry.
package vm

import (
	"fmt"
	"time"

	"github.com/objectmesh/go-objectmesh/common/types"
	"github.com/objectmesh/go-objectmesh/config"
	"github.com/objectmesh/go-objectmesh/log"
	"github.com/objectmesh/go-objectmesh/objects"
	"github.com/objectmesh/go-objectmesh/vm/core"
)

// Opt is for changing VM during initialization.
type Opt func(*VM)

// WithLogger sets logger for VM.
func WithLogger(logger log.Log) Opt {
	return func(vm *VM) {
		vm.logger = logger
	}
}

// New returns VM instance.
func New(store *objects.Store, cfg config.ProtocolConfig, opts ...Opt) *VM {
	vm := &VM{
		logger: log.NewNop(),
		store:  store,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// VM handles modifications to the object state.
type VM struct {
	logger log.Log
	store  *objects.Store
	cfg    config.ProtocolConfig
}

// Validate inspects the declared intent without touching state. It is pure:
// given identical protocol configuration, every validator computes the same
// answer, which is what lets the check gate admission into the pool.
func (vm *VM) Validate(tx *types.Transaction) error {
	switch tx.Kind {
	case types.KindNativeTransfer:
		return validateTransfer(tx, &vm.cfg)
	default:
		return fmt.Errorf("%w: unknown instruction kind %d", core.ErrMalformed, tx.Kind)
	}
}

func validateTransfer(tx *types.Transaction, cfg *config.ProtocolConfig) error {
	if tx.Amount == 0 {
		return core.ErrZeroAmount
	}
	if cfg.MaxTransferAmount != 0 && tx.Amount > cfg.MaxTransferAmount {
		return fmt.Errorf("%w: amount %d above protocol maximum %d",
			core.ErrMalformed, tx.Amount, cfg.MaxTransferAmount)
	}
	if tx.Recipient.IsEmpty() {
		return fmt.Errorf("%w: empty recipient", core.ErrMalformed)
	}
	if tx.Source.ID.IsEmpty() {
		return fmt.Errorf("%w: empty source object id", core.ErrMalformed)
	}
	return nil
}

// Execute applies one validated transaction. It returns effects for both
// successful and soft-failed attempts; admission-time errors (stale reference,
// wrong owner) return a nil effects record and must not be finalized.
//
// Determinism is the contract: the same intent against the same prior object
// state yields byte-identical effects on every validator, scheduling source
// tag aside.
func (vm *VM) Execute(tx *types.Transaction, source types.SchedulingSource) (*types.Effects, error) {
	start := time.Now()
	ctx := core.NewContext(vm.store, tx, source)
	var (
		fx  *types.Effects
		err error
	)
	switch tx.Kind {
	case types.KindNativeTransfer:
		fx, err = executeTransfer(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown instruction kind %d", core.ErrMalformed, tx.Kind)
	}
	if err != nil {
		vm.logger.With().Debug("execution rejected",
			ctx.TxID,
			log.Err(err),
		)
		executedCount.WithLabelValues(rejected, source.String()).Inc()
		return nil, err
	}
	vm.logger.With().Debug("executed transaction",
		log.Object("effects", fx),
		log.Duration("duration", time.Since(start)),
	)
	if fx.Status.IsOK() {
		executedCount.WithLabelValues(succeeded, source.String()).Inc()
	} else {
		executedCount.WithLabelValues(failed, source.String()).Inc()
	}
	executionDuration.WithLabelValues(source.String()).Observe(time.Since(start).Seconds())
	return fx, nil
}

// executeTransfer applies a native transfer. The instruction is a deliberate
// carve-out from the contract engine: it is unmetered on every outcome.
func executeTransfer(ctx *core.Context) (*types.Effects, error) {
	src, err := ctx.Input(ctx.Tx.Source)
	if err != nil {
		return nil, err
	}
	if src.Balance < ctx.Tx.Amount {
		// A soft, ledger-recorded failure: admission already consumed the
		// right to finalize this attempt. Nothing is mutated, no gas charged.
		ctx.Builder.Fail(types.ReasonInsufficientBalance)
		return ctx.Builder.Seal(), nil
	}
	src.Balance -= ctx.Tx.Amount
	if err := ctx.Mutate(src); err != nil {
		return nil, err
	}
	// A fully drained source stays in the store at balance zero. Deletion is
	// not part of transfer semantics.
	if _, err := ctx.Create(types.AddressOwner(ctx.Tx.Recipient), ctx.Tx.Amount); err != nil {
		return nil, err
	}
	if err := ctx.Apply(); err != nil {
		return nil, err
	}
	return ctx.Builder.Seal(), nil
}
