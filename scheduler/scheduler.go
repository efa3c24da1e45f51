// Package scheduler decides which execution path a transaction takes and when
// it may run. Transactions touching only address-owned objects can be
// finalized from a quorum certificate without waiting for consensus ordering;
// everything else is routed through the external ordering layer. Admission on
// either path consults per-object congestion estimates and defers over-budget
// transactions to a later slot instead of rejecting them.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/objectmesh/go-objectmesh/common/types"
	"github.com/objectmesh/go-objectmesh/config"
	"github.com/objectmesh/go-objectmesh/log"
)

var (
	// ErrClosed is returned by Submit after the scheduler stopped.
	ErrClosed = errors.New("scheduler closed")
	// ErrCertMismatch is returned when a certificate endorses a different transaction.
	ErrCertMismatch = errors.New("certificate transaction mismatch")
	// ErrNoQuorum is returned when a certificate does not carry quorum stake.
	ErrNoQuorum = errors.New("certificate lacks quorum")
)

// Opt is for changing Scheduler during initialization.
type Opt func(*Scheduler)

// WithLogger sets logger for Scheduler.
func WithLogger(logger log.Log) Opt {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(clock clockwork.Clock) Opt {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// Scheduler classifies, admits and runs transactions.
type Scheduler struct {
	logger   log.Log
	cfg      config.SchedulerConfig
	ccfg     config.CongestionConfig
	exec     executor
	reader   objectReader
	est      estimator
	verifier CertVerifier
	orderer  Orderer
	clock    clockwork.Clock

	// ownStake weights this validator's execution-time observations.
	ownStake uint64

	mu         sync.Mutex
	checkpoint uint64
	spent      map[types.ObjectID]time.Duration
	deferred   []*task
	closed     bool

	ready  chan *task
	eg     errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler. Start must be called before submitting.
func New(
	cfg config.SchedulerConfig,
	ccfg config.CongestionConfig,
	exec executor,
	reader objectReader,
	est estimator,
	verifier CertVerifier,
	orderer Orderer,
	ownStake uint64,
	opts ...Opt,
) *Scheduler {
	s := &Scheduler{
		logger:   log.NewNop(),
		cfg:      cfg,
		ccfg:     ccfg,
		exec:     exec,
		reader:   reader,
		est:      est,
		verifier: verifier,
		orderer:  orderer,
		clock:    clockwork.NewRealClock(),
		ownStake: ownStake,
		spent:    map[types.ObjectID]time.Duration{},
		ready:    make(chan *task, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the execution and checkpoint loops.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	s.cancel = cancel
	s.eg.Go(func() error {
		return s.execLoop(ctx)
	})
	s.eg.Go(func() error {
		return s.checkpointLoop(ctx)
	})
}

// Stop terminates the loops and waits for them. Pending tasks are resolved
// with ErrClosed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	pending := s.deferred
	s.deferred = nil
	s.mu.Unlock()
	s.cancel()
	_ = s.eg.Wait()
	for _, t := range pending {
		t.resolve(nil, ErrClosed)
	}
drain:
	for {
		select {
		case t := <-s.ready:
			t.resolve(nil, ErrClosed)
		default:
			break drain
		}
	}
}

// Submit accepts a validated transaction and routes it through the pipeline.
// The returned handle resolves once the transaction is finalized or rejected.
// Validation is the caller's job; the scheduler only touches immutable intent
// data and read-only object metadata, so submissions may run concurrently.
func (s *Scheduler) Submit(ctx context.Context, tx *types.Transaction, cert *types.QuorumCert) (*Pending, error) {
	t := &task{
		tx:      tx,
		txID:    tx.ID(),
		cert:    cert,
		ctx:     ctx,
		outcome: make(chan outcome, 1),
	}
	t.source = s.classify(t)
	t.state = StateClassified
	classifiedCount.WithLabelValues(t.source.String()).Inc()

	admitted, err := s.admit(t)
	if err != nil {
		return nil, err
	}
	pending := &Pending{txID: t.txID, outcome: t.outcome}
	if !admitted {
		// backpressure: the task waits for a later slot, it is not failed.
		s.logger.With().Debug("deferred by congestion control",
			t.txID,
			log.Duration("estimate", t.estimate),
		)
		deferredCount.WithLabelValues().Inc()
		return pending, nil
	}

	switch t.source {
	case types.SourceFastPath:
		// the quorum certificate already finalizes the transaction; execute
		// in the submitter's goroutine, no ordering round-trip.
		s.run(t)
	default:
		s.eg.Go(func() error {
			s.awaitOrder(t)
			return nil
		})
	}
	return pending, nil
}

// release routes a re-admitted task to its execution path. Deferral changes
// when a transaction runs, never how: ordered-path tasks still consume the
// external total order before execution.
func (s *Scheduler) release(t *task) {
	switch t.source {
	case types.SourceFastPath:
		s.run(t)
	default:
		s.eg.Go(func() error {
			s.awaitOrder(t)
			return nil
		})
	}
}

// classify picks the execution path. Fast path requires every referenced
// object to be exclusively address-owned and a verifiable quorum certificate;
// total order among one owner's transactions is already enforced by version
// chaining, so such transactions cannot conflict with concurrently ordered
// ones. Everything else goes through consensus.
func (s *Scheduler) classify(t *task) types.SchedulingSource {
	for _, ref := range t.tx.References() {
		obj, err := s.reader.Get(ref.ID)
		if err != nil {
			// unknown objects are settled at execution; route through the
			// ordered path which tolerates the extra latency.
			return types.SourceOrdered
		}
		if obj.Owner.Kind != types.OwnerAddress {
			return types.SourceOrdered
		}
	}
	if t.cert == nil {
		return types.SourceOrdered
	}
	if err := s.verifier.Verify(t.cert, t.txID); err != nil {
		s.logger.With().Warning("quorum certificate rejected, falling back to ordered path",
			t.txID,
			log.Err(err),
		)
		return types.SourceOrdered
	}
	return types.SourceFastPath
}

// budget is the per-object, per-checkpoint estimated cost allowance: the
// target share of the checkpoint interval plus the configured burst headroom.
func (s *Scheduler) budget() time.Duration {
	target := s.cfg.CheckpointInterval * time.Duration(s.ccfg.TargetUtilization) / 100
	return target + s.ccfg.AllowedTxnCostOverageBurstLimit
}

// admit charges the transaction's estimated cost against the per-object
// budget of the current checkpoint. Over budget means deferred, not rejected.
func (s *Scheduler) admit(t *task) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	var estimate time.Duration
	for _, ref := range t.tx.References() {
		if e := s.est.Estimate(ref.ID); e > estimate {
			estimate = e
		}
	}
	t.estimate = estimate
	budget := s.budget()
	for _, ref := range t.tx.References() {
		if s.spent[ref.ID]+estimate > budget {
			t.state = StateDeferred
			s.deferred = append(s.deferred, t)
			return false, nil
		}
	}
	for _, ref := range t.tx.References() {
		s.spent[ref.ID] += estimate
	}
	return true, nil
}

// awaitOrder suspends on the external ordering layer. The wait is cancellable:
// abandoning a transaction before execution leaves no state residue.
func (s *Scheduler) awaitOrder(t *task) {
	octx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()
	if err := s.orderer.Order(octx, t.txID); err != nil {
		t.resolve(nil, fmt.Errorf("awaiting order: %w", err))
		return
	}
	select {
	case s.ready <- t:
	case <-octx.Done():
		t.resolve(nil, octx.Err())
	}
}

// execLoop consumes the total order and executes one transaction at a time,
// preserving it. Fast-path transactions never pass through here.
func (s *Scheduler) execLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-s.ready:
			if t.ctx.Err() != nil {
				// abandoned while queued; nothing was mutated.
				t.resolve(nil, t.ctx.Err())
				continue
			}
			s.run(t)
		}
	}
}

// run executes the task to completion and feeds the observed execution time
// back into the congestion estimator.
func (s *Scheduler) run(t *task) {
	t.state = StateExecuting
	start := s.clock.Now()
	fx, err := s.exec.Execute(t.tx, t.source)
	elapsed := s.clock.Since(start)
	if err == nil {
		for _, ref := range t.tx.References() {
			s.est.RecordSample(ref.ID, elapsed, s.ownStake)
		}
	}
	t.resolve(fx, err)
}

// checkpointLoop advances the congestion accounting window. Each tick resets
// the per-object budgets, refreshes estimates and re-admits deferred work in
// deterministic order: estimated cost ascending, ties broken by transaction
// digest, so any validator recomputing the same inputs agrees.
func (s *Scheduler) checkpointLoop(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.cfg.CheckpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			s.advanceCheckpoint()
		}
	}
}

func (s *Scheduler) advanceCheckpoint() {
	s.mu.Lock()
	s.checkpoint++
	s.est.Refresh(s.checkpoint)
	s.spent = map[types.ObjectID]time.Duration{}
	waiting := s.deferred
	s.deferred = nil
	sort.SliceStable(waiting, func(i, j int) bool {
		if waiting[i].estimate != waiting[j].estimate {
			return waiting[i].estimate < waiting[j].estimate
		}
		return waiting[i].txID.Compare(waiting[j].txID)
	})
	budget := s.budget()
	var admitted []*task
	for _, t := range waiting {
		fits := true
		for _, ref := range t.tx.References() {
			if s.spent[ref.ID]+t.estimate > budget {
				fits = false
				break
			}
		}
		if !fits {
			s.deferred = append(s.deferred, t)
			continue
		}
		for _, ref := range t.tx.References() {
			s.spent[ref.ID] += t.estimate
		}
		admitted = append(admitted, t)
	}
	deferredGauge.WithLabelValues().Set(float64(len(s.deferred)))
	s.mu.Unlock()

	for _, t := range admitted {
		s.release(t)
	}
}
