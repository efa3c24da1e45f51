package types

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/objectmesh/go-objectmesh/codec"
)

func TestMain(m *testing.M) {
	SetNetworkHRP("omtest")
	os.Exit(m.Run())
}

func TestAddress_RoundTrip(t *testing.T) {
	addr := GenerateAddress([]byte("some public key"))
	encoded := addr.String()
	require.True(t, strings.HasPrefix(encoded, "omtest1"))

	parsed, err := StringToAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, addr, parsed)
}

func TestAddress_WrongHRP(t *testing.T) {
	addr := GenerateAddress([]byte("some public key"))
	encoded := addr.String()

	SetNetworkHRP("om")
	t.Cleanup(func() { SetNetworkHRP("omtest") })

	_, err := StringToAddress(encoded)
	require.Error(t, err)
}

func TestAddress_Malformed(t *testing.T) {
	for _, src := range []string{
		"",
		"omtest1",
		"not bech32 at all",
		"omtest1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq",
	} {
		_, err := StringToAddress(src)
		require.Error(t, err, "src=%q", src)
	}
}

func TestAddress_ReservedSpace(t *testing.T) {
	addr := GenerateAddress([]byte("another public key"))
	for i := 0; i < AddressReservedSpace; i++ {
		require.Zero(t, addr[i])
	}
}

func TestAddress_IsEmpty(t *testing.T) {
	var empty Address
	require.True(t, empty.IsEmpty())
	require.False(t, GenerateAddress([]byte("key")).IsEmpty())
}

func TestAddress_GenerateDeterministic(t *testing.T) {
	a := GenerateAddress([]byte("key"))
	b := GenerateAddress([]byte("key"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, GenerateAddress([]byte("other key")))
}

func TestAddress_Codec(t *testing.T) {
	addr := GenerateAddress([]byte("codec key"))
	buf, err := codec.Encode(&addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, codec.Decode(buf, &decoded))
	require.Equal(t, addr, decoded)
}
