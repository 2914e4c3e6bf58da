package simulate

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/aurora-is-near/engine-go/engine"
	"github.com/aurora-is-near/engine-go/engine/params"
	"github.com/aurora-is-near/engine-go/internal/testutil"
	"github.com/aurora-is-near/engine-go/ioruntime"
	"github.com/aurora-is-near/engine-go/primitives"
	"github.com/aurora-is-near/engine-go/storage"
)

func newSimulateFixture(t *testing.T) *testutil.MemStore {
	t.Helper()
	store := testutil.NewMemStore()
	base := ioruntime.NewBase(store, nil)
	require.NoError(t, engine.SaveState(base, &engine.State{ChainID: 1}))
	return store
}

func fundAccount(store *testutil.MemStore, addr common.Address, wei int64) {
	base := ioruntime.NewBase(store, nil)
	base.WriteStorage(storage.BalanceKey(primitives.Address(addr)), storage.EncodeU256(uint256.NewInt(uint64(wei))))
}

func testBlock() engine.BlockContext {
	return engine.BlockContext{Height: 1, Timestamp: 1, ChainID: 1, CurrentAccountID: "aurora", PrepaidGas: 1_000_000}
}

func TestSimulateStateMissingReturnsError(t *testing.T) {
	store := testutil.NewMemStore()
	_, err := Simulate(store, testBlock(), params.London, CallRequest{From: common.HexToAddress("0x01")})
	require.Error(t, err)
}

func TestSimulatePausedEngineReturnsError(t *testing.T) {
	store := testutil.NewMemStore()
	base := ioruntime.NewBase(store, nil)
	require.NoError(t, engine.SaveState(base, &engine.State{ChainID: 1, IsPaused: true}))

	_, err := Simulate(store, testBlock(), params.London, CallRequest{From: common.HexToAddress("0x01")})
	require.Error(t, err)
}

func TestSimulateEthTransferNeverMutatesRealStore(t *testing.T) {
	store := newSimulateFixture(t)
	sender := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")
	recipient := common.HexToAddress("0xbbbb000000000000000000000000000000bbbb")
	fundAccount(store, sender, 1_000_000_000_000)

	before, _ := store.Get(storage.BalanceKey(primitives.Address(sender)))

	res, err := Simulate(store, testBlock(), params.London, CallRequest{
		From:     sender,
		To:       &recipient,
		GasLimit: 100_000,
		Value:    big.NewInt(100),
		Nonce:    nil,
	})
	require.NoError(t, err)
	require.Equal(t, engine.StatusSucceed, res.Status.Kind)
	require.Equal(t, NonceNotProvided, res.NonceClass)

	after, _ := store.Get(storage.BalanceKey(primitives.Address(sender)))
	require.Equal(t, before, after, "simulate must never write back to the real store")
}

func TestSimulateBalanceOverrideFundsOtherwiseEmptyAccount(t *testing.T) {
	store := newSimulateFixture(t)
	sender := common.HexToAddress("0xcccc000000000000000000000000000000cccc")
	recipient := common.HexToAddress("0xdddd000000000000000000000000000000dddd")

	res, err := Simulate(store, testBlock(), params.London, CallRequest{
		From:     sender,
		To:       &recipient,
		GasLimit: 100_000,
		Value:    big.NewInt(1),
		StateOverride: map[common.Address]AccountOverride{
			sender: {Balance: big.NewInt(1_000_000_000_000)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, engine.StatusSucceed, res.Status.Kind)

	require.False(t, store.Has(storage.BalanceKey(primitives.Address(sender))), "override must not leak into the real store")
}

func TestSimulateFullStorageOverrideLeavesRealStoreUntouched(t *testing.T) {
	store := newSimulateFixture(t)
	contract := common.HexToAddress("0xeeee000000000000000000000000000000eeee")
	slot := common.HexToHash("0x01")
	overridden := common.HexToHash("0x2a")

	base := ioruntime.NewBase(store, nil)
	base.WriteStorage(storage.StorageKeyNormal(primitives.Address(contract), common.HexToHash("0x02")), common.HexToHash("0x99").Bytes())

	req := CallRequest{
		From:     common.HexToAddress("0xffff000000000000000000000000000000ffff"),
		To:       &contract,
		GasLimit: 100_000,
		StateOverride: map[common.Address]AccountOverride{
			contract: {State: map[primitives.Hash]primitives.Hash{slot: overridden}},
		},
	}

	_, err := Simulate(store, testBlock(), params.London, req)
	require.NoError(t, err)

	// The underlying slot written before the call is untouched; only the
	// override path's in-memory view would have reported the replacement.
	raw, ok := store.Get(storage.StorageKeyNormal(primitives.Address(contract), common.HexToHash("0x02")))
	require.True(t, ok)
	require.Equal(t, common.HexToHash("0x99").Bytes(), raw)
}

func TestClassifyNonce(t *testing.T) {
	five := uint64(5)
	ten := uint64(10)

	require.Equal(t, NonceNotProvided, classifyNonce(nil, 5))
	require.Equal(t, NonceTooLow, classifyNonce(&five, 10))
	require.Equal(t, NonceGE, classifyNonce(&ten, 10))
}
