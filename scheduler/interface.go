package scheduler

import (
	"context"
	"time"

	"github.com/objectmesh/go-objectmesh/common/types"
)

// executor applies one transaction and produces its effects.
type executor interface {
	Execute(tx *types.Transaction, source types.SchedulingSource) (*types.Effects, error)
}

// objectReader is a read-only snapshot of object metadata used for
// classification. Classification never mutates state.
type objectReader interface {
	Get(id types.ObjectID) (types.Object, error)
}

// estimator is the congestion-control collaborator consulted before admission.
type estimator interface {
	Estimate(id types.ObjectID) time.Duration
	RecordSample(id types.ObjectID, cost time.Duration, stake uint64)
	Refresh(checkpoint uint64)
}

// CertVerifier checks a quorum certificate for a transaction. Signature
// aggregation and verification live outside the execution core.
type CertVerifier interface {
	Verify(cert *types.QuorumCert, id types.TransactionID) error
}

// Orderer is the external consensus collaborator. The scheduler submits an
// ordered-path transaction and blocks until the total order assigns it a
// position; the core consumes the resulting order, it does not implement it.
type Orderer interface {
	Order(ctx context.Context, id types.TransactionID) error
}
