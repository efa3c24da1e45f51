package types

import (
	"bytes"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"

	"github.com/objectmesh/go-objectmesh/codec"
	"github.com/objectmesh/go-objectmesh/hash"
	"github.com/objectmesh/go-objectmesh/log"
)

//  TransactionID is a 32-byte blake3 sum of the transaction, used as an identifier.
type TransactionID Hash32

const (
	// TransactionIDSize in bytes.
	TransactionIDSize = Hash32Length
)

// EmptyTransactionID is a canonical empty TransactionID.
var EmptyTransactionID = TransactionID{}

// Hash32 returns the TransactionID as a Hash32.
func (id TransactionID) Hash32() Hash32 {
	return Hash32(id)
}

// ShortString returns the first few characters of the ID, for logging purposes.
func (id TransactionID) ShortString() string {
	return id.Hash32().ShortString()
}

// String returns a hexadecimal representation of the TransactionID with "0x" prepended.
// It implements the fmt.Stringer interface.
func (id TransactionID) String() string {
	return id.Hash32().String()
}

// Bytes returns the TransactionID as a byte slice.
func (id TransactionID) Bytes() []byte {
	return id[:]
}

// Compare returns true if other (the given TransactionID) is less than this TransactionID, by lexicographic comparison.
func (id TransactionID) Compare(other TransactionID) bool {
	return bytes.Compare(id.Bytes(), other.Bytes()) < 0
}

// Field returns a log field. Implements the LoggableField interface.
func (id TransactionID) Field() log.Field { return log.String("tx_id", id.ShortString()) }

// EncodeScale implements scale codec interface.
func (id *TransactionID) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, id[:])
}

// DecodeScale implements scale codec interface.
func (id *TransactionID) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, id[:])
}

// Kind is a closed tagged-variant over the built-in instruction set.
// The set is intentionally small and fixed; dispatch is a switch, not a
// pluggable handler registry.
type Kind uint8

const (
	// KindNativeTransfer moves balance between owned objects without invoking
	// the contract engine and without charging gas.
	KindNativeTransfer Kind = 1
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNativeTransfer:
		return "native-transfer"
	default:
		return "unknown"
	}
}

// Transaction is the immutable intent submitted by a client. It is constructed
// once, signed, and never modified afterwards.
type Transaction struct {
	Kind      Kind
	Sender    Address
	Source    ObjectRef
	Recipient Address
	Amount    uint64
}

// NewNativeTransfer constructs a native transfer intent.
func NewNativeTransfer(sender Address, source ObjectRef, recipient Address, amount uint64) *Transaction {
	return &Transaction{
		Kind:      KindNativeTransfer,
		Sender:    sender,
		Source:    source,
		Recipient: recipient,
		Amount:    amount,
	}
}

// ID computes the transaction identifier from the scale encoding of the intent.
func (tx *Transaction) ID() TransactionID {
	hasher := hash.GetHasher()
	defer func() {
		hasher.Reset()
		hash.PutHasher(hasher)
	}()
	if _, err := codec.EncodeTo(hasher, tx); err != nil {
		log.Panic("failed to encode transaction for id: %v", err)
	}
	var id TransactionID
	hasher.Sum(id[:0])
	return id
}

// References returns the object references the transaction declares as inputs.
func (tx *Transaction) References() []ObjectRef {
	return []ObjectRef{tx.Source}
}

// EncodeScale implements scale codec interface.
func (tx *Transaction) EncodeScale(e *scale.Encoder) (int, error) {
	total, err := scale.EncodeCompact8(e, uint8(tx.Kind))
	if err != nil {
		return total, err
	}
	n, err := tx.Sender.EncodeScale(e)
	total += n
	if err != nil {
		return total, err
	}
	n, err = tx.Source.EncodeScale(e)
	total += n
	if err != nil {
		return total, err
	}
	n, err = tx.Recipient.EncodeScale(e)
	total += n
	if err != nil {
		return total, err
	}
	n, err = scale.EncodeCompact64(e, tx.Amount)
	return total + n, err
}

// DecodeScale implements scale codec interface.
func (tx *Transaction) DecodeScale(d *scale.Decoder) (int, error) {
	kind, total, err := scale.DecodeCompact8(d)
	if err != nil {
		return total, err
	}
	tx.Kind = Kind(kind)
	n, err := tx.Sender.DecodeScale(d)
	total += n
	if err != nil {
		return total, err
	}
	n, err = tx.Source.DecodeScale(d)
	total += n
	if err != nil {
		return total, err
	}
	n, err = tx.Recipient.DecodeScale(d)
	total += n
	if err != nil {
		return total, err
	}
	amount, n, err := scale.DecodeCompact64(d)
	total += n
	if err != nil {
		return total, err
	}
	tx.Amount = amount
	return total, nil
}

// MarshalLogObject implements logging encoder for Transaction.
func (tx *Transaction) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("kind", tx.Kind.String())
	encoder.AddString("sender", tx.Sender.String())
	encoder.AddString("source", tx.Source.String())
	encoder.AddString("recipient", tx.Recipient.String())
	encoder.AddUint64("amount", tx.Amount)
	return nil
}

// QuorumCert is an endorsement of a transaction by a quorum of validator
// stake. Collecting and verifying the signatures is the job of an external
// layer; the execution core only consumes the aggregate.
type QuorumCert struct {
	TxID           TransactionID
	EndorsedStake  uint64
	CommitteeStake uint64
}

// HasQuorum reports whether the endorsed stake passes the 2f+1 threshold.
func (c *QuorumCert) HasQuorum() bool {
	if c.CommitteeStake == 0 {
		return false
	}
	return c.EndorsedStake*3 > c.CommitteeStake*2
}
