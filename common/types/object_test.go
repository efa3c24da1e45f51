package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/objectmesh/go-objectmesh/codec"
)

func TestObject_DigestCommitsToState(t *testing.T) {
	obj := Object{
		ID:      ObjectID{1},
		Version: 1,
		Owner:   AddressOwner(GenerateAddress([]byte("owner"))),
		Balance: 1000,
	}
	obj.RefreshDigest()
	require.False(t, obj.Digest.IsEmpty())

	same := obj
	require.Equal(t, obj.Digest, same.ComputeDigest())

	mutated := obj
	mutated.Balance = 999
	require.NotEqual(t, obj.Digest, mutated.ComputeDigest())

	bumped := obj
	bumped.Version = 2
	require.NotEqual(t, obj.Digest, bumped.ComputeDigest())
}

func TestObject_DigestExcludesItself(t *testing.T) {
	obj := Object{ID: ObjectID{2}, Version: 1, Balance: 7}
	obj.RefreshDigest()
	first := obj.Digest

	// recomputing over a populated digest field must not feed back into it
	obj.RefreshDigest()
	require.Equal(t, first, obj.Digest)
}

func TestObject_Reference(t *testing.T) {
	obj := Object{ID: ObjectID{3}, Version: 5, Balance: 10}
	obj.RefreshDigest()
	ref := obj.Reference()
	require.Equal(t, obj.ID, ref.ID)
	require.Equal(t, obj.Version, ref.Version)
	require.Equal(t, obj.Digest, ref.Digest)
}

func TestObject_Codec(t *testing.T) {
	obj := Object{
		ID:      ObjectID{4},
		Version: 9,
		Owner:   AddressOwner(GenerateAddress([]byte("owner"))),
		Balance: 12345,
	}
	obj.RefreshDigest()

	buf, err := codec.Encode(&obj)
	require.NoError(t, err)
	var decoded Object
	require.NoError(t, codec.Decode(buf, &decoded))
	require.Equal(t, obj, decoded)
}

func TestCreatedObjectID_Deterministic(t *testing.T) {
	tid := TransactionID{1, 2, 3}
	require.Equal(t, CreatedObjectID(tid, 0), CreatedObjectID(tid, 0))
	require.NotEqual(t, CreatedObjectID(tid, 0), CreatedObjectID(tid, 1))

	other := TransactionID{3, 2, 1}
	require.NotEqual(t, CreatedObjectID(tid, 0), CreatedObjectID(other, 0))
}

func TestOwner_IsAddress(t *testing.T) {
	addr := GenerateAddress([]byte("owner"))
	other := GenerateAddress([]byte("other"))

	require.True(t, AddressOwner(addr).IsAddress(addr))
	require.False(t, AddressOwner(addr).IsAddress(other))
	require.False(t, SharedOwner().IsAddress(addr))
	require.False(t, ImmutableOwner().IsAddress(addr))
}
