package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/objectmesh/go-objectmesh/codec"
	"github.com/objectmesh/go-objectmesh/common/types"
)

func TestRoundTrip(t *testing.T) {
	ref := types.ObjectRef{ID: types.ObjectID{1}, Version: 7, Digest: types.Hash32{2}}
	buf, err := codec.Encode(&ref)
	require.NoError(t, err)
	require.Equal(t, buf, codec.MustEncode(&ref))

	var decoded types.ObjectRef
	require.NoError(t, codec.Decode(buf, &decoded))
	require.Equal(t, ref, decoded)
}

func TestDecode_Truncated(t *testing.T) {
	ref := types.ObjectRef{ID: types.ObjectID{1}, Version: 7}
	buf := codec.MustEncode(&ref)

	var decoded types.ObjectRef
	require.Error(t, codec.Decode(buf[:len(buf)-1], &decoded))
}

func TestSlices(t *testing.T) {
	refs := []types.ObjectRef{
		{ID: types.ObjectID{1}, Version: 1},
		{ID: types.ObjectID{2}, Version: 2},
	}
	buf, err := codec.EncodeSlice(refs)
	require.NoError(t, err)

	decoded, err := codec.DecodeSlice[types.ObjectRef, *types.ObjectRef](buf)
	require.NoError(t, err)
	require.Equal(t, refs, decoded)
}
