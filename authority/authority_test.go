package authority

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/objectmesh/go-objectmesh/common/types"
	"github.com/objectmesh/go-objectmesh/config"
	"github.com/objectmesh/go-objectmesh/log/logtest"
	"github.com/objectmesh/go-objectmesh/objects"
	"github.com/objectmesh/go-objectmesh/vm/core"
)

func TestMain(m *testing.M) {
	types.SetNetworkHRP("omtest")
	os.Exit(m.Run())
}

type tester struct {
	*Authority
	alice types.Address
	bob   types.Address
}

func newTester(t *testing.T, balance uint64) *tester {
	alice := types.GenerateAddress([]byte("alice"))
	bob := types.GenerateAddress([]byte("bob"))

	cfg := config.DefaultTestConfig()
	cfg.GenesisAccounts = map[string]uint64{
		alice.String(): balance,
	}
	app, err := New(cfg, WithLogger(logtest.New(t)))
	require.NoError(t, err)
	app.Start()
	t.Cleanup(app.Stop)
	return &tester{Authority: app, alice: alice, bob: bob}
}

func fullCert(tx *types.Transaction) *types.QuorumCert {
	return &types.QuorumCert{TxID: tx.ID(), EndorsedStake: 1, CommitteeStake: 1}
}

func TestGenesis(t *testing.T) {
	tt := newTester(t, 1000)

	info, err := tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)
	require.Equal(t, uint64(1000), info.Balance)
	require.Equal(t, uint64(1), info.Ref.Version)
	require.Equal(t, types.AddressOwner(tt.alice), info.Owner)

	_, err = tt.QueryObject(GenesisObjectID(tt.bob))
	require.ErrorIs(t, err, objects.ErrNotFound)
}

func TestGenesis_BadAccount(t *testing.T) {
	cfg := config.DefaultTestConfig()
	cfg.GenesisAccounts = map[string]uint64{"not an address": 10}
	_, err := New(cfg)
	require.Error(t, err)
}

func TestGenesisObjectID_Deterministic(t *testing.T) {
	alice := types.GenerateAddress([]byte("alice"))
	bob := types.GenerateAddress([]byte("bob"))
	require.Equal(t, GenesisObjectID(alice), GenesisObjectID(alice))
	require.NotEqual(t, GenesisObjectID(alice), GenesisObjectID(bob))
}

func TestSubmit_FastPath(t *testing.T) {
	tt := newTester(t, 1000)
	info, err := tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)

	tx := types.NewNativeTransfer(tt.alice, info.Ref, tt.bob, 400)
	fx, err := tt.SubmitAndWait(context.Background(), tx, fullCert(tx))
	require.NoError(t, err)
	require.True(t, fx.Status.IsOK())
	require.Equal(t, types.SourceFastPath, fx.Source)

	// source decremented
	info, err = tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)
	require.Equal(t, uint64(600), info.Balance)
	require.Equal(t, uint64(2), info.Ref.Version)

	// recipient object visible through the query interface
	require.Len(t, fx.Created, 1)
	created, err := tt.QueryObject(fx.Created[0].Ref.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(400), created.Balance)
	require.Equal(t, types.AddressOwner(tt.bob), created.Owner)
}

func TestSubmit_OrderedPath(t *testing.T) {
	tt := newTester(t, 1000)
	info, err := tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)

	tx := types.NewNativeTransfer(tt.alice, info.Ref, tt.bob, 100)
	fx, err := tt.SubmitAndWait(context.Background(), tx, nil)
	require.NoError(t, err)
	require.True(t, fx.Status.IsOK())
	require.Equal(t, types.SourceOrdered, fx.Source)
}

func TestSubmit_ValidationRejects(t *testing.T) {
	tt := newTester(t, 1000)
	info, err := tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)

	tx := types.NewNativeTransfer(tt.alice, info.Ref, tt.bob, 0)
	_, err = tt.Submit(context.Background(), tx, nil)
	require.ErrorIs(t, err, core.ErrZeroAmount)
	require.True(t, core.IsAdmissionError(err))
}

func TestSubmit_WrongOwner(t *testing.T) {
	tt := newTester(t, 1000)
	info, err := tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)

	tx := types.NewNativeTransfer(tt.bob, info.Ref, tt.bob, 100)
	_, err = tt.SubmitAndWait(context.Background(), tx, nil)
	require.ErrorIs(t, err, core.ErrNotOwner)
	require.True(t, core.IsAdmissionError(err))

	// nothing mutated
	info, err = tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)
	require.Equal(t, uint64(1000), info.Balance)
	require.Equal(t, uint64(1), info.Ref.Version)
}

func TestSubmit_InsufficientBalance(t *testing.T) {
	tt := newTester(t, 100)
	info, err := tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)

	tx := types.NewNativeTransfer(tt.alice, info.Ref, tt.bob, 200)
	fx, err := tt.SubmitAndWait(context.Background(), tx, fullCert(tx))
	require.NoError(t, err)
	require.False(t, fx.Status.IsOK())
	require.Equal(t, types.ReasonInsufficientBalance, fx.Status.Reason)
	require.Empty(t, fx.Mutated)
	require.Empty(t, fx.Created)
}

func TestSubmit_StaleAfterSpend(t *testing.T) {
	tt := newTester(t, 1000)
	info, err := tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)

	first := types.NewNativeTransfer(tt.alice, info.Ref, tt.bob, 100)
	_, err = tt.SubmitAndWait(context.Background(), first, fullCert(first))
	require.NoError(t, err)

	// the old reference now names a superseded version
	replay := types.NewNativeTransfer(tt.alice, info.Ref, tt.bob, 200)
	_, err = tt.SubmitAndWait(context.Background(), replay, fullCert(replay))
	require.ErrorIs(t, err, core.ErrStaleObject)
}

func TestSubmitBatch_MixedOutcomes(t *testing.T) {
	tt := newTester(t, 1000)
	info, err := tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)

	valid := types.NewNativeTransfer(tt.alice, info.Ref, tt.bob, 100)
	invalid := types.NewNativeTransfer(tt.alice, info.Ref, tt.bob, 0)

	// certs is shorter than txs: the tail submits without a certificate
	pendings, errs := tt.SubmitBatch(context.Background(),
		[]*types.Transaction{valid, invalid},
		[]*types.QuorumCert{fullCert(valid)},
	)
	require.Len(t, pendings, 2)
	require.Len(t, errs, 2)

	require.NoError(t, errs[0])
	fx, err := pendings[0].Wait(context.Background())
	require.NoError(t, err)
	require.True(t, fx.Status.IsOK())
	require.Equal(t, types.SourceFastPath, fx.Source)

	require.ErrorIs(t, errs[1], core.ErrZeroAmount)
	require.Nil(t, pendings[1])
}

func TestSubmit_SequentialChain(t *testing.T) {
	tt := newTester(t, 2000)

	for _, amount := range []uint64{500, 300} {
		info, err := tt.QueryObject(GenesisObjectID(tt.alice))
		require.NoError(t, err)
		tx := types.NewNativeTransfer(tt.alice, info.Ref, tt.bob, amount)
		fx, err := tt.SubmitAndWait(context.Background(), tx, fullCert(tx))
		require.NoError(t, err)
		require.True(t, fx.Status.IsOK())
	}

	info, err := tt.QueryObject(GenesisObjectID(tt.alice))
	require.NoError(t, err)
	require.Equal(t, uint64(1200), info.Balance)
	require.Equal(t, uint64(3), info.Ref.Version)
}
