package contract

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
	"github.com/aurora-is-near/engine-go/storage"
)

func newFixture(t *testing.T) (*testutil.MemStore, *ioruntime.Base) {
	t.Helper()
	store := testutil.NewMemStore()
	base := ioruntime.NewBase(store, nil)
	require.NoError(t, New(base, NewCallArgs{ChainID: 1, OwnerID: "owner.near", UpgradeDelayBlocks: 5}))
	return store, base
}

func TestNewRejectsDoubleInit(t *testing.T) {
	_, base := newFixture(t)
	err := New(base, NewCallArgs{ChainID: 1, OwnerID: "owner.near"})
	require.Error(t, err)
}

func TestPauseResumeOwnerOnly(t *testing.T) {
	_, base := newFixture(t)

	require.Error(t, PauseContract(base, "attacker.near"))
	require.NoError(t, PauseContract(base, "owner.near"))

	state, err := engine.LoadState(base)
	require.NoError(t, err)
	require.True(t, state.IsPaused)

	require.NoError(t, ResumeContract(base, "owner.near"))
	state, err = engine.LoadState(base)
	require.NoError(t, err)
	require.False(t, state.IsPaused)
}

func TestStageAndDeployUpgradeRespectsDelay(t *testing.T) {
	_, base := newFixture(t)

	block := engine.BlockContext{Height: 100}
	require.NoError(t, StageUpgrade(base, block, "owner.near", []byte{0x60, 0x00}))

	tooSoon := engine.BlockContext{Height: 104}
	require.Error(t, DeployUpgrade(base, tooSoon))

	onTime := engine.BlockContext{Height: 105}
	require.NoError(t, DeployUpgrade(base, onTime))

	v, ok := base.ReadStorage(storage.ConfigKey("CODE"))
	require.True(t, ok)
	require.Equal(t, []byte{0x60, 0x00}, ioruntime.ToBytes(v))

	_, staged := base.ReadStorage(storage.ConfigKey("UPGRADE"))
	require.False(t, staged, "a deployed upgrade must clear the staging slot")
}

func TestDeployUpgradeWithoutStageFails(t *testing.T) {
	_, base := newFixture(t)
	require.Error(t, DeployUpgrade(base, engine.BlockContext{Height: 1}))
}

func TestAccountQueriesReadDirectStorage(t *testing.T) {
	_, base := newFixture(t)
	addr := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")

	require.Equal(t, uint64(0), GetNonce(base, addr))
	require.Equal(t, new(uint256.Int), GetBalance(base, addr))
	require.Nil(t, GetCode(base, addr))

	base.WriteStorage(storage.BalanceKey(addr), storage.EncodeU256(uint256.NewInt(500)))
	require.Equal(t, uint256.NewInt(500), GetBalance(base, addr))

	base.WriteStorage(storage.CodeKey(addr), []byte{0x60, 0x01})
	require.Equal(t, []byte{0x60, 0x01}, GetCode(base, addr))

	slot := common.HexToHash("0x01")
	value := common.HexToHash("0x2a")
	base.WriteStorage(storage.StorageKeyNormal(addr, slot), value.Bytes())
	require.Equal(t, value, GetStorageAt(base, addr, slot))
}

func TestHashchainStartAndGetLatestRoundTrips(t *testing.T) {
	_, base := newFixture(t)

	require.NoError(t, StartHashchain(base, 1, "aurora", 42, [32]byte{}))

	h, err := GetLatestHashchain(base)
	require.NoError(t, err)
	require.Equal(t, uint64(42), h.GetCurrentBlockHeight())
	require.True(t, h.IsEmpty())
}

func TestGetLatestHashchainBeforeStartFails(t *testing.T) {
	_, base := newFixture(t)
	_, err := GetLatestHashchain(base)
	require.Error(t, err)
}

func TestViewDispatchesThroughSimulate(t *testing.T) {
	store, base := newFixture(t)
	sender := common.HexToAddress("0xbbbb000000000000000000000000000000bbbb")
	recipient := common.HexToAddress("0xcccc000000000000000000000000000000cccc")
	base.WriteStorage(storage.BalanceKey(sender), storage.EncodeU256(uint256.NewInt(1_000_000)))

	block := engine.BlockContext{Height: 1, ChainID: 1, CurrentAccountID: "aurora", PrepaidGas: 1_000_000}

	res, err := View(store, block, params.London, ViewCallArgs{
		From:     sender,
		To:       &recipient,
		GasLimit: 100_000,
		Value:    big.NewInt(10),
	})
	require.NoError(t, err)
	require.Equal(t, engine.StatusSucceed, res.Status.Kind)

	// View must never touch the real store.
	raw, _ := store.Get(storage.BalanceKey(sender))
	require.Equal(t, storage.EncodeU256(uint256.NewInt(1_000_000)), raw)
}
