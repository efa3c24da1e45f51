package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/objectmesh/go-objectmesh/codec"
)

func transferFixture() *Transaction {
	sender := GenerateAddress([]byte("sender"))
	recipient := GenerateAddress([]byte("recipient"))
	source := ObjectRef{ID: ObjectID{1}, Version: 3, Digest: Hash32{9}}
	return NewNativeTransfer(sender, source, recipient, 500)
}

func TestTransaction_IDDeterministic(t *testing.T) {
	tx := transferFixture()
	require.Equal(t, tx.ID(), tx.ID())

	clone := *tx
	require.Equal(t, tx.ID(), clone.ID())

	changed := *tx
	changed.Amount = 501
	require.NotEqual(t, tx.ID(), changed.ID())
}

func TestTransaction_Codec(t *testing.T) {
	tx := transferFixture()
	buf, err := codec.Encode(tx)
	require.NoError(t, err)

	var decoded Transaction
	require.NoError(t, codec.Decode(buf, &decoded))
	require.Equal(t, *tx, decoded)
	require.Equal(t, tx.ID(), decoded.ID())
}

func TestTransaction_References(t *testing.T) {
	tx := transferFixture()
	refs := tx.References()
	require.Len(t, refs, 1)
	require.Equal(t, tx.Source, refs[0])
}

func TestQuorumCert_HasQuorum(t *testing.T) {
	for _, tc := range []struct {
		desc      string
		endorsed  uint64
		committee uint64
		expect    bool
	}{
		{"empty committee", 0, 0, false},
		{"no stake", 0, 9, false},
		{"exactly two thirds", 6, 9, false},
		{"above two thirds", 7, 9, true},
		{"full committee", 9, 9, true},
		{"single validator", 1, 1, true},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			cert := QuorumCert{EndorsedStake: tc.endorsed, CommitteeStake: tc.committee}
			require.Equal(t, tc.expect, cert.HasQuorum())
		})
	}
}
