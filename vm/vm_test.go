package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/objectmesh/go-objectmesh/common/types"
	"github.com/objectmesh/go-objectmesh/config"
	"github.com/objectmesh/go-objectmesh/log/logtest"
	"github.com/objectmesh/go-objectmesh/objects"
	"github.com/objectmesh/go-objectmesh/vm/core"
)

type tester struct {
	*testing.T
	vm    *VM
	store *objects.Store
}

func newTester(t *testing.T) *tester {
	store := objects.NewStore()
	return &tester{
		T:     t,
		store: store,
		vm:    New(store, config.DefaultConfig().Protocol, WithLogger(logtest.New(t))),
	}
}

func (t *tester) seed(owner types.Address, balance uint64) types.Object {
	t.Helper()
	obj := types.Object{
		Owner:   types.AddressOwner(owner),
		Balance: balance,
	}
	// derive a unique id from the owner and current store size
	copy(obj.ID[:], owner.Bytes())
	obj.ID[31] = byte(t.store.Len())
	require.NoError(t, t.store.SeedGenesis([]types.Object{obj}))
	seeded, err := t.store.Get(obj.ID)
	require.NoError(t, err)
	return seeded
}

func TestExecute_Transfer(t *testing.T) {
	tt := newTester(t)
	sender := types.GenerateAddress([]byte("sender"))
	recipient := types.GenerateAddress([]byte("recipient"))
	source := tt.seed(sender, 1000)

	tx := types.NewNativeTransfer(sender, source.Reference(), recipient, 500)
	fx, err := tt.vm.Execute(tx, types.SourceLocal)
	require.NoError(t, err)
	require.True(t, fx.Status.IsOK())
	require.Equal(t, tx.ID(), fx.TxID)

	// source decremented and version advanced
	updated, err := tt.store.Get(source.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(500), updated.Balance)
	require.Equal(t, source.Version+1, updated.Version)
	require.NotEqual(t, source.Digest, updated.Digest)

	require.Len(t, fx.Mutated, 1)
	require.Equal(t, updated.Reference(), fx.Mutated[0])

	// created object carries the amount and is owned by the recipient
	require.Len(t, fx.Created, 1)
	created := fx.Created[0]
	require.Equal(t, types.CreatedObjectID(tx.ID(), 0), created.Ref.ID)
	require.Equal(t, uint64(1), created.Ref.Version)
	require.Equal(t, types.AddressOwner(recipient), created.Owner)

	stored, err := tt.store.Get(created.Ref.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(500), stored.Balance)
	require.Equal(t, created.Ref, stored.Reference())

	require.Empty(t, fx.Deleted)
	require.Zero(t, fx.Gas.Net())
}

func TestExecute_FullBalance(t *testing.T) {
	tt := newTester(t)
	sender := types.GenerateAddress([]byte("sender"))
	recipient := types.GenerateAddress([]byte("recipient"))
	source := tt.seed(sender, 1000)

	tx := types.NewNativeTransfer(sender, source.Reference(), recipient, 1000)
	fx, err := tt.vm.Execute(tx, types.SourceLocal)
	require.NoError(t, err)
	require.True(t, fx.Status.IsOK())

	// a fully drained source stays alive at balance zero
	drained, err := tt.store.Get(source.ID)
	require.NoError(t, err)
	require.Zero(t, drained.Balance)
	require.Equal(t, source.Version+1, drained.Version)
	require.Empty(t, fx.Deleted)
}

func TestExecute_InsufficientBalance(t *testing.T) {
	tt := newTester(t)
	sender := types.GenerateAddress([]byte("sender"))
	recipient := types.GenerateAddress([]byte("recipient"))
	source := tt.seed(sender, 100)

	tx := types.NewNativeTransfer(sender, source.Reference(), recipient, 101)
	fx, err := tt.vm.Execute(tx, types.SourceLocal)
	require.NoError(t, err)

	// a soft failure finalizes with no mutations and no gas
	require.False(t, fx.Status.IsOK())
	require.Equal(t, types.ReasonInsufficientBalance, fx.Status.Reason)
	require.Empty(t, fx.Mutated)
	require.Empty(t, fx.Created)
	require.Empty(t, fx.Deleted)
	require.Zero(t, fx.Gas.Net())

	untouched, err := tt.store.Get(source.ID)
	require.NoError(t, err)
	require.Equal(t, source, untouched)
}

func TestExecute_WrongOwner(t *testing.T) {
	tt := newTester(t)
	owner := types.GenerateAddress([]byte("owner"))
	thief := types.GenerateAddress([]byte("thief"))
	source := tt.seed(owner, 1000)

	tx := types.NewNativeTransfer(thief, source.Reference(), thief, 10)
	fx, err := tt.vm.Execute(tx, types.SourceLocal)
	require.ErrorIs(t, err, core.ErrNotOwner)
	require.Nil(t, fx)

	untouched, err := tt.store.Get(source.ID)
	require.NoError(t, err)
	require.Equal(t, source, untouched)
}

func TestExecute_StaleReference(t *testing.T) {
	tt := newTester(t)
	sender := types.GenerateAddress([]byte("sender"))
	recipient := types.GenerateAddress([]byte("recipient"))
	source := tt.seed(sender, 1000)

	t.Run("wrong version", func(t *testing.T) {
		ref := source.Reference()
		ref.Version++
		tx := types.NewNativeTransfer(sender, ref, recipient, 10)
		_, err := tt.vm.Execute(tx, types.SourceLocal)
		require.ErrorIs(t, err, core.ErrStaleObject)
	})

	t.Run("wrong digest", func(t *testing.T) {
		ref := source.Reference()
		ref.Digest[0] ^= 0xff
		tx := types.NewNativeTransfer(sender, ref, recipient, 10)
		_, err := tt.vm.Execute(tx, types.SourceLocal)
		require.ErrorIs(t, err, core.ErrStaleObject)
	})

	t.Run("missing object", func(t *testing.T) {
		ref := types.ObjectRef{ID: types.ObjectID{0xaa}, Version: 1}
		tx := types.NewNativeTransfer(sender, ref, recipient, 10)
		_, err := tt.vm.Execute(tx, types.SourceLocal)
		require.ErrorIs(t, err, core.ErrStaleObject)
	})

	t.Run("superseded by earlier transfer", func(t *testing.T) {
		ref := source.Reference()
		first := types.NewNativeTransfer(sender, ref, recipient, 10)
		_, err := tt.vm.Execute(first, types.SourceLocal)
		require.NoError(t, err)

		// replaying against the spent version must lose
		again := types.NewNativeTransfer(sender, ref, recipient, 20)
		_, err = tt.vm.Execute(again, types.SourceLocal)
		require.ErrorIs(t, err, core.ErrStaleObject)
	})
}

func TestExecute_Sequential(t *testing.T) {
	tt := newTester(t)
	sender := types.GenerateAddress([]byte("sender"))
	recipient := types.GenerateAddress([]byte("recipient"))
	source := tt.seed(sender, 2000)

	for i, amount := range []uint64{500, 300} {
		ref, err := tt.store.GetRef(source.ID)
		require.NoError(t, err)
		tx := types.NewNativeTransfer(sender, ref, recipient, amount)
		fx, err := tt.vm.Execute(tx, types.SourceLocal)
		require.NoError(t, err, "transfer %d", i)
		require.True(t, fx.Status.IsOK())

		// each step mints its own destination object
		require.Len(t, fx.Created, 1)
		created, err := tt.store.Get(fx.Created[0].Ref.ID)
		require.NoError(t, err)
		require.Equal(t, amount, created.Balance)
	}

	final, err := tt.store.Get(source.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(1200), final.Balance)
	require.Equal(t, source.Version+2, final.Version)
}

func TestExecute_SelfTransfer(t *testing.T) {
	tt := newTester(t)
	sender := types.GenerateAddress([]byte("sender"))
	source := tt.seed(sender, 1000)

	tx := types.NewNativeTransfer(sender, source.Reference(), sender, 300)
	fx, err := tt.vm.Execute(tx, types.SourceLocal)
	require.NoError(t, err)
	require.True(t, fx.Status.IsOK())

	updated, err := tt.store.Get(source.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(700), updated.Balance)

	created, err := tt.store.Get(fx.Created[0].Ref.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(300), created.Balance)
	require.Equal(t, types.AddressOwner(sender), created.Owner)
}

func TestExecute_DeterministicAcrossPaths(t *testing.T) {
	sender := types.GenerateAddress([]byte("sender"))
	recipient := types.GenerateAddress([]byte("recipient"))

	run := func(t *testing.T, source types.SchedulingSource) *types.Effects {
		tt := newTester(t)
		obj := tt.seed(sender, 1000)
		tx := types.NewNativeTransfer(sender, obj.Reference(), recipient, 400)
		fx, err := tt.vm.Execute(tx, source)
		require.NoError(t, err)
		return fx
	}

	ordered := run(t, types.SourceOrdered)
	fast := run(t, types.SourceFastPath)

	require.Equal(t, types.SourceOrdered, ordered.Source)
	require.Equal(t, types.SourceFastPath, fast.Source)
	require.Equal(t, ordered.Hash(), fast.Hash())
}

func TestExecute_UnknownKind(t *testing.T) {
	tt := newTester(t)
	tx := &types.Transaction{Kind: 0xff}
	fx, err := tt.vm.Execute(tx, types.SourceLocal)
	require.ErrorIs(t, err, core.ErrMalformed)
	require.Nil(t, fx)
}

func TestValidate(t *testing.T) {
	sender := types.GenerateAddress([]byte("sender"))
	recipient := types.GenerateAddress([]byte("recipient"))
	source := types.ObjectRef{ID: types.ObjectID{1}, Version: 1}

	tt := newTester(t)
	for _, tc := range []struct {
		desc string
		tx   *types.Transaction
		err  error
	}{
		{"valid", types.NewNativeTransfer(sender, source, recipient, 10), nil},
		{"zero amount", types.NewNativeTransfer(sender, source, recipient, 0), core.ErrZeroAmount},
		{"empty recipient", types.NewNativeTransfer(sender, source, types.Address{}, 10), core.ErrMalformed},
		{"empty source", types.NewNativeTransfer(sender, types.ObjectRef{}, recipient, 10), core.ErrMalformed},
		{"unknown kind", &types.Transaction{Kind: 0x7f, Amount: 1}, core.ErrMalformed},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			err := tt.vm.Validate(tc.tx)
			if tc.err == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestValidate_MaxTransferAmount(t *testing.T) {
	store := objects.NewStore()
	cfg := config.DefaultConfig().Protocol
	cfg.MaxTransferAmount = 100
	vm := New(store, cfg, WithLogger(logtest.New(t)))

	sender := types.GenerateAddress([]byte("sender"))
	recipient := types.GenerateAddress([]byte("recipient"))
	source := types.ObjectRef{ID: types.ObjectID{1}, Version: 1}

	require.NoError(t, vm.Validate(types.NewNativeTransfer(sender, source, recipient, 100)))
	require.ErrorIs(t, vm.Validate(types.NewNativeTransfer(sender, source, recipient, 101)), core.ErrMalformed)
}
