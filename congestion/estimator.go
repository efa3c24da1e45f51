// Package congestion maintains per-object execution cost estimates used by
// the scheduler to throttle contended objects. Estimates are advisory: they
// shape throughput, never correctness.
package congestion

import (
	"sort"
	"sync"
	"time"

	"github.com/objectmesh/go-objectmesh/common/types"
	"github.com/objectmesh/go-objectmesh/config"
	"github.com/objectmesh/go-objectmesh/log"
)

// observation is one execution-time sample reported for an object, weighted
// by the stake of the validator that observed it.
type observation struct {
	cost       time.Duration
	stake      uint64
	checkpoint uint64
}

// window is a bounded ring buffer of recent observations for one object.
type window struct {
	samples []observation
	head    int
	full    bool

	// estimate computed at the last refresh. Transactions admitted under it
	// keep it even if later samples would change the number.
	estimate time.Duration
	dirty    bool
}

func (w *window) push(obs observation) {
	if len(w.samples) < cap(w.samples) && !w.full {
		w.samples = append(w.samples, obs)
		if len(w.samples) == cap(w.samples) {
			w.full = true
		}
	} else {
		// evict the oldest sample. eviction is mandatory: memory stays
		// bounded under sustained load.
		w.samples[w.head] = obs
		w.head = (w.head + 1) % len(w.samples)
	}
	w.dirty = true
}

// Estimator keeps a sliding window of execution-time observations per object
// and aggregates them into a stake-weighted median estimate.
type Estimator struct {
	logger log.Log
	cfg    config.CongestionConfig

	// totalStake is the committee stake the threshold is measured against.
	totalStake uint64

	mu         sync.Mutex
	windows    map[types.ObjectID]*window
	checkpoint uint64
}

// Opt is for changing Estimator during initialization.
type Opt func(*Estimator)

// WithLogger sets logger for Estimator.
func WithLogger(logger log.Log) Opt {
	return func(e *Estimator) {
		e.logger = logger
	}
}

// NewEstimator creates an estimator with the given congestion parameters.
func NewEstimator(cfg config.CongestionConfig, totalStake uint64, opts ...Opt) *Estimator {
	e := &Estimator{
		logger:     log.NewNop(),
		cfg:        cfg,
		totalStake: totalStake,
		windows:    map[types.ObjectID]*window{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecordSample adds an execution-time observation for the object, weighted by
// the observing validator's stake.
func (e *Estimator) RecordSample(id types.ObjectID, cost time.Duration, stake uint64) {
	if cost < 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	w, exists := e.windows[id]
	if !exists {
		limit := e.cfg.StoredObservationsLimit
		if limit <= 0 {
			limit = 1
		}
		// the window serves the configured default until the first Refresh
		// aggregates its samples.
		w = &window{
			samples:  make([]observation, 0, limit),
			estimate: e.defaultEstimate(),
		}
		e.windows[id] = w
	}
	w.push(observation{cost: cost, stake: stake, checkpoint: e.checkpoint})
	samplesCount.WithLabelValues().Inc()
}

// Estimate returns the scheduling cost estimate for the object as of the last
// refresh. Objects without enough observed stake fall back to the configured
// default.
func (e *Estimator) Estimate(id types.ObjectID) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, exists := e.windows[id]
	if !exists {
		return e.defaultEstimate()
	}
	return w.estimate
}

// Refresh recomputes all estimates for the next checkpoint and evicts
// observations older than the configured number of checkpoints. Estimates
// never change between refreshes, so a transaction scheduled in one interval
// is costed the same way however often samples arrive.
func (e *Estimator) Refresh(checkpoint uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if checkpoint <= e.checkpoint && checkpoint != 0 {
		return
	}
	e.checkpoint = checkpoint
	horizon := uint64(0)
	if keep := uint64(e.cfg.StoredObservationsNumIncludedCheckpoints); checkpoint > keep {
		horizon = checkpoint - keep
	}
	for id, w := range e.windows {
		e.expire(w, horizon)
		if len(w.samples) == 0 {
			delete(e.windows, id)
			continue
		}
		if w.dirty {
			w.estimate = e.aggregate(w)
			w.dirty = false
		}
	}
	trackedObjects.WithLabelValues().Set(float64(len(e.windows)))
}

// expire drops samples observed before the horizon checkpoint, compacting the
// ring into insertion order.
func (e *Estimator) expire(w *window, horizon uint64) {
	if horizon == 0 {
		return
	}
	kept := make([]observation, 0, cap(w.samples))
	n := len(w.samples)
	for i := 0; i < n; i++ {
		obs := w.samples[(w.head+i)%n]
		if obs.checkpoint >= horizon {
			kept = append(kept, obs)
		}
	}
	if len(kept) != n {
		w.dirty = true
	}
	w.samples = kept
	w.head = 0
	w.full = len(kept) == cap(w.samples)
}

// aggregate computes the stake-weighted median of the window, provided the
// observed stake passes the inclusion threshold. The median is the smallest
// cost at which the cumulative observing stake reaches half of the total
// observed stake.
func (e *Estimator) aggregate(w *window) time.Duration {
	var observed uint64
	for i := range w.samples {
		observed += w.samples[i].stake
	}
	if e.totalStake > 0 && observed*10000 < e.cfg.StakeWeightedMedianThreshold*e.totalStake {
		return e.defaultEstimate()
	}
	sorted := make([]observation, len(w.samples))
	copy(sorted, w.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].cost < sorted[j].cost })
	var cumulative uint64
	estimate := e.defaultEstimate()
	for i := range sorted {
		cumulative += sorted[i].stake
		if cumulative*2 >= observed {
			estimate = sorted[i].cost
			break
		}
	}
	if e.cfg.MaxEstimate > 0 && estimate > e.cfg.MaxEstimate {
		estimate = e.cfg.MaxEstimate
	}
	return estimate
}

func (e *Estimator) defaultEstimate() time.Duration {
	if e.cfg.DefaultNoneForNewKeys {
		return 0
	}
	return e.cfg.DefaultEstimate
}
