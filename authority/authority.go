// Package authority is the submission and query surface of a validator. It
// wires the validity checker, the execution scheduler, the congestion
// estimator and the object store into one pipeline.
package authority

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/objectmesh/go-objectmesh/common/types"
	"github.com/objectmesh/go-objectmesh/config"
	"github.com/objectmesh/go-objectmesh/congestion"
	"github.com/objectmesh/go-objectmesh/hash"
	"github.com/objectmesh/go-objectmesh/log"
	"github.com/objectmesh/go-objectmesh/objects"
	"github.com/objectmesh/go-objectmesh/scheduler"
	"github.com/objectmesh/go-objectmesh/vm"
)

const queryCacheSize = 4096

// Opt is for changing Authority during initialization.
type Opt func(*Authority)

// WithLogger sets logger for Authority and its components.
func WithLogger(logger log.Log) Opt {
	return func(a *Authority) {
		a.logger = logger
	}
}

// WithOrderer replaces the consensus collaborator. The default is a FIFO
// orderer suitable for a single validator.
func WithOrderer(orderer scheduler.Orderer) Opt {
	return func(a *Authority) {
		a.orderer = orderer
	}
}

// WithVerifier replaces the quorum certificate verifier.
func WithVerifier(verifier scheduler.CertVerifier) Opt {
	return func(a *Authority) {
		a.verifier = verifier
	}
}

// WithSchedulerOpts forwards options to the scheduler, for tests that need a
// fake clock.
func WithSchedulerOpts(opts ...scheduler.Opt) Opt {
	return func(a *Authority) {
		a.schedOpts = opts
	}
}

// Authority owns one validator's execution pipeline.
type Authority struct {
	logger   log.Log
	cfg      config.Config
	store    *objects.Store
	reader   *objects.CachedReader
	vm       *vm.VM
	est      *congestion.Estimator
	sched    *scheduler.Scheduler
	orderer  scheduler.Orderer
	verifier scheduler.CertVerifier

	schedOpts []scheduler.Opt
}

// New builds an authority from configuration and seeds the genesis objects.
func New(cfg config.Config, opts ...Opt) (*Authority, error) {
	a := &Authority{
		logger:   log.NewNop(),
		cfg:      cfg,
		store:    objects.NewStore(),
		orderer:  scheduler.NewFIFOOrderer(),
		verifier: scheduler.StakeCertVerifier{CommitteeStake: cfg.CommitteeStake},
	}
	for _, opt := range opts {
		opt(a)
	}
	reader, err := objects.NewCachedReader(a.store, queryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating query cache: %w", err)
	}
	a.reader = reader
	a.vm = vm.New(a.store, cfg.Protocol, vm.WithLogger(a.logger.WithName("vm")))
	a.est = congestion.NewEstimator(cfg.Congestion, cfg.CommitteeStake,
		congestion.WithLogger(a.logger.WithName("congestion")))
	schedOpts := append([]scheduler.Opt{scheduler.WithLogger(a.logger.WithName("scheduler"))}, a.schedOpts...)
	a.sched = scheduler.New(
		cfg.Scheduler,
		cfg.Congestion,
		a.vm,
		a.store,
		a.est,
		a.verifier,
		a.orderer,
		cfg.Stake,
		schedOpts...,
	)
	if err := a.seedGenesis(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Authority) seedGenesis() error {
	genesis := make([]types.Object, 0, len(a.cfg.GenesisAccounts))
	for account, balance := range a.cfg.GenesisAccounts {
		address, err := types.StringToAddress(account)
		if err != nil {
			return fmt.Errorf("genesis account %s: %w", account, err)
		}
		genesis = append(genesis, types.Object{
			ID:      GenesisObjectID(address),
			Owner:   types.AddressOwner(address),
			Balance: balance,
		})
	}
	if err := a.store.SeedGenesis(genesis); err != nil {
		return err
	}
	if len(genesis) > 0 {
		a.logger.With().Info("seeded genesis objects", log.Int("count", len(genesis)))
	}
	return nil
}

// GenesisObjectID derives the id of an account's genesis object from its
// address, so all validators construct the same genesis state.
func GenesisObjectID(address types.Address) types.ObjectID {
	return types.ObjectID(hash.Blake3([]byte("genesis"), address.Bytes()))
}

// Start launches the scheduler loops.
func (a *Authority) Start() {
	a.sched.Start()
}

// Stop terminates the pipeline.
func (a *Authority) Stop() {
	a.sched.Stop()
}

// Store exposes the object store, for genesis tooling.
func (a *Authority) Store() *objects.Store {
	return a.store
}

// Submit accepts a transaction intent. Hard rejections surface synchronously;
// everything else resolves through the returned handle: fast-path submissions
// with a valid certificate are typically finalized by the time Submit returns,
// ordered-path submissions stay pending until the order is consumed.
func (a *Authority) Submit(ctx context.Context, tx *types.Transaction, cert *types.QuorumCert) (*scheduler.Pending, error) {
	if err := a.vm.Validate(tx); err != nil {
		a.logger.With().Debug("rejected at validation", tx.ID(), log.Err(err))
		return nil, err
	}
	return a.sched.Submit(ctx, tx, cert)
}

// SubmitBatch validates and submits a batch of transactions concurrently,
// bounded by the configured worker count. certs is positional and may be
// shorter than txs; missing entries submit without a certificate. Results are
// positional too: for every index either a pending handle or the synchronous
// rejection.
func (a *Authority) SubmitBatch(ctx context.Context, txs []*types.Transaction, certs []*types.QuorumCert) ([]*scheduler.Pending, []error) {
	pendings := make([]*scheduler.Pending, len(txs))
	errs := make([]error, len(txs))
	var eg errgroup.Group
	workers := a.cfg.Scheduler.Workers
	if workers < 1 {
		workers = 1
	}
	eg.SetLimit(workers)
	for i, tx := range txs {
		i, tx := i, tx
		var cert *types.QuorumCert
		if i < len(certs) {
			cert = certs[i]
		}
		eg.Go(func() error {
			pendings[i], errs[i] = a.Submit(ctx, tx, cert)
			return nil
		})
	}
	_ = eg.Wait()
	return pendings, errs
}

// SubmitAndWait submits and blocks for the outcome.
func (a *Authority) SubmitAndWait(ctx context.Context, tx *types.Transaction, cert *types.QuorumCert) (*types.Effects, error) {
	pending, err := a.Submit(ctx, tx, cert)
	if err != nil {
		return nil, err
	}
	return pending.Wait(ctx)
}

// QueryObject answers the read interface: the current (version, digest,
// owner, balance) of an object, or not found.
func (a *Authority) QueryObject(id types.ObjectID) (objects.ObjectInfo, error) {
	return a.reader.Query(id)
}
