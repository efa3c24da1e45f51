package types

import (
	"bytes"
	"fmt"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"

	"github.com/objectmesh/go-objectmesh/codec"
	"github.com/objectmesh/go-objectmesh/hash"
	"github.com/objectmesh/go-objectmesh/log"
)

// ObjectID is a 32-byte identifier of an on-chain object.
type ObjectID Hash32

// EmptyObjectID is all zeroes. It never identifies a real object.
var EmptyObjectID = ObjectID{}

// Hash32 returns the ObjectID as a Hash32.
func (id ObjectID) Hash32() Hash32 {
	return Hash32(id)
}

// Bytes returns the ObjectID as a byte slice.
func (id ObjectID) Bytes() []byte {
	return id[:]
}

// String returns a hexadecimal representation of the ObjectID with "0x" prepended.
func (id ObjectID) String() string {
	return id.Hash32().String()
}

// ShortString returns the first few characters of the ID, for logging purposes.
func (id ObjectID) ShortString() string {
	return id.Hash32().ShortString()
}

// IsEmpty returns true for the zero id.
func (id ObjectID) IsEmpty() bool {
	return id == EmptyObjectID
}

// Compare returns true if this id is less than other, by lexicographic comparison.
func (id ObjectID) Compare(other ObjectID) bool {
	return bytes.Compare(id[:], other[:]) < 0
}

// Field returns a log field. Implements the LoggableField interface.
func (id ObjectID) Field() log.Field { return log.String("object_id", id.ShortString()) }

// EncodeScale implements scale codec interface.
func (id *ObjectID) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, id[:])
}

// DecodeScale implements scale codec interface.
func (id *ObjectID) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, id[:])
}

// CreatedObjectID derives the id of an object created by the transaction with
// the given id at the given output index. The derivation is a pure function of
// its inputs, so all validators replaying the transaction agree on the id.
func CreatedObjectID(tid TransactionID, index uint8) ObjectID {
	return ObjectID(hash.Blake3(tid.Bytes(), []byte{index}))
}

// OwnerKind enumerates the ownership modes of an object.
type OwnerKind uint8

const (
	// OwnerAddress marks an object owned exclusively by a single address.
	OwnerAddress OwnerKind = iota
	// OwnerShared marks an object writable through consensus-ordered transactions only.
	OwnerShared
	// OwnerImmutable marks an object that can never be mutated.
	OwnerImmutable
)

// String implements fmt.Stringer.
func (k OwnerKind) String() string {
	switch k {
	case OwnerAddress:
		return "address"
	case OwnerShared:
		return "shared"
	case OwnerImmutable:
		return "immutable"
	default:
		return "unknown"
	}
}

// Owner is a closed variant describing who may mutate an object.
// Address is meaningful only when Kind is OwnerAddress.
type Owner struct {
	Kind    OwnerKind
	Address Address
}

// AddressOwner returns an Owner for an object owned by a single address.
func AddressOwner(address Address) Owner {
	return Owner{Kind: OwnerAddress, Address: address}
}

// SharedOwner returns an Owner for a shared object.
func SharedOwner() Owner {
	return Owner{Kind: OwnerShared}
}

// ImmutableOwner returns an Owner for an immutable object.
func ImmutableOwner() Owner {
	return Owner{Kind: OwnerImmutable}
}

// IsAddress returns true if the object is owned by the given address.
func (o Owner) IsAddress(address Address) bool {
	return o.Kind == OwnerAddress && o.Address == address
}

// String implements fmt.Stringer.
func (o Owner) String() string {
	if o.Kind == OwnerAddress {
		return o.Address.String()
	}
	return o.Kind.String()
}

// EncodeScale implements scale codec interface.
func (o *Owner) EncodeScale(e *scale.Encoder) (int, error) {
	total, err := scale.EncodeCompact8(e, uint8(o.Kind))
	if err != nil {
		return total, err
	}
	n, err := o.Address.EncodeScale(e)
	return total + n, err
}

// DecodeScale implements scale codec interface.
func (o *Owner) DecodeScale(d *scale.Decoder) (int, error) {
	kind, total, err := scale.DecodeCompact8(d)
	if err != nil {
		return total, err
	}
	o.Kind = OwnerKind(kind)
	n, err := o.Address.DecodeScale(d)
	return total + n, err
}

// ObjectRef names an exact state of an object. A transaction input is valid
// only if the store's current (id, version, digest) triple matches it.
type ObjectRef struct {
	ID      ObjectID
	Version uint64
	Digest  Hash32
}

// String implements fmt.Stringer.
func (r ObjectRef) String() string {
	return fmt.Sprintf("%s@%d", r.ID.ShortString(), r.Version)
}

// EncodeScale implements scale codec interface.
func (r *ObjectRef) EncodeScale(e *scale.Encoder) (int, error) {
	total, err := r.ID.EncodeScale(e)
	if err != nil {
		return total, err
	}
	n, err := scale.EncodeCompact64(e, r.Version)
	total += n
	if err != nil {
		return total, err
	}
	n, err = r.Digest.EncodeScale(e)
	return total + n, err
}

// DecodeScale implements scale codec interface.
func (r *ObjectRef) DecodeScale(d *scale.Decoder) (int, error) {
	total, err := r.ID.DecodeScale(d)
	if err != nil {
		return total, err
	}
	version, n, err := scale.DecodeCompact64(d)
	total += n
	if err != nil {
		return total, err
	}
	r.Version = version
	n, err = r.Digest.DecodeScale(d)
	return total + n, err
}

// MarshalLogObject implements logging encoder for ObjectRef.
func (r *ObjectRef) MarshalLogObject(encoder log.ObjectEncoder) error {
	encoder.AddString("id", r.ID.ShortString())
	encoder.AddUint64("version", r.Version)
	encoder.AddString("digest", r.Digest.ShortString())
	return nil
}

// Object is a versioned, balance-bearing record in the object store.
// Digest commits to all other fields and must be recomputed on every mutation.
type Object struct {
	ID      ObjectID
	Version uint64
	Owner   Owner
	Balance uint64
	Digest  Hash32
}

// encodeBody writes everything the digest commits to, in wire order.
func (o *Object) encodeBody(e *scale.Encoder) (int, error) {
	total, err := o.ID.EncodeScale(e)
	if err != nil {
		return total, err
	}
	n, err := scale.EncodeCompact64(e, o.Version)
	total += n
	if err != nil {
		return total, err
	}
	n, err = o.Owner.EncodeScale(e)
	total += n
	if err != nil {
		return total, err
	}
	n, err = scale.EncodeCompact64(e, o.Balance)
	return total + n, err
}

// EncodeScale implements scale codec interface.
func (o *Object) EncodeScale(e *scale.Encoder) (int, error) {
	total, err := o.encodeBody(e)
	if err != nil {
		return total, err
	}
	n, err := o.Digest.EncodeScale(e)
	return total + n, err
}

// DecodeScale implements scale codec interface.
func (o *Object) DecodeScale(d *scale.Decoder) (int, error) {
	total, err := o.ID.DecodeScale(d)
	if err != nil {
		return total, err
	}
	version, n, err := scale.DecodeCompact64(d)
	total += n
	if err != nil {
		return total, err
	}
	o.Version = version
	n, err = o.Owner.DecodeScale(d)
	total += n
	if err != nil {
		return total, err
	}
	balance, n, err := scale.DecodeCompact64(d)
	total += n
	if err != nil {
		return total, err
	}
	o.Balance = balance
	n, err = o.Digest.DecodeScale(d)
	return total + n, err
}

// objectBody restricts the encoding to the digested fields, so digests go
// through the shared codec entry point.
type objectBody Object

// EncodeScale implements scale codec interface.
func (o *objectBody) EncodeScale(e *scale.Encoder) (int, error) {
	return (*Object)(o).encodeBody(e)
}

// ComputeDigest returns the digest of the object's current state.
func (o *Object) ComputeDigest() Hash32 {
	hasher := hash.GetHasher()
	defer func() {
		hasher.Reset()
		hash.PutHasher(hasher)
	}()
	if _, err := codec.EncodeTo(hasher, (*objectBody)(o)); err != nil {
		log.Panic("failed to encode object for digest: %v", err)
	}
	var sum Hash32
	hasher.Sum(sum[:0])
	return sum
}

// RefreshDigest recomputes and stores the digest after a mutation.
func (o *Object) RefreshDigest() {
	o.Digest = o.ComputeDigest()
}

// Reference returns the exact-match triple naming the object's current state.
func (o *Object) Reference() ObjectRef {
	return ObjectRef{ID: o.ID, Version: o.Version, Digest: o.Digest}
}

// MarshalLogObject implements logging encoder for Object.
func (o *Object) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("id", o.ID.ShortString())
	encoder.AddUint64("version", o.Version)
	encoder.AddString("owner", o.Owner.String())
	encoder.AddUint64("balance", o.Balance)
	return nil
}
