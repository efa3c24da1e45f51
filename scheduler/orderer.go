package scheduler

import (
	"context"
	"sync"

	"github.com/objectmesh/go-objectmesh/common/types"
)

// FIFOOrderer assigns positions in call order. It stands in for the consensus
// layer in tests and single-validator deployments, where submission order is
// already a total order.
type FIFOOrderer struct {
	mu   sync.Mutex
	next uint64
	seen map[types.TransactionID]uint64
}

// NewFIFOOrderer returns an empty orderer.
func NewFIFOOrderer() *FIFOOrderer {
	return &FIFOOrderer{seen: map[types.TransactionID]uint64{}}
}

// Order implements Orderer.
func (o *FIFOOrderer) Order(ctx context.Context, id types.TransactionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.seen[id]; !exists {
		o.seen[id] = o.next
		o.next++
	}
	return nil
}

// Position returns the position assigned to the transaction, if any.
func (o *FIFOOrderer) Position(id types.TransactionID) (uint64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	pos, exists := o.seen[id]
	return pos, exists
}

// StakeCertVerifier accepts any certificate whose endorsed stake passes the
// quorum threshold for the configured committee. Cryptographic verification
// of the aggregated signatures happens outside the execution core.
type StakeCertVerifier struct {
	CommitteeStake uint64
}

// Verify implements CertVerifier.
func (v StakeCertVerifier) Verify(cert *types.QuorumCert, id types.TransactionID) error {
	if cert.TxID != id {
		return ErrCertMismatch
	}
	if cert.CommitteeStake != v.CommitteeStake || !cert.HasQuorum() {
		return ErrNoQuorum
	}
	return nil
}
