package engine

import (
	"math/big"
	"testing"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/aurora-is-near/engine-go/engine/params"
	"github.com/aurora-is-near/engine-go/internal/testutil"
	"github.com/aurora-is-near/engine-go/ioruntime"
	"github.com/aurora-is-near/engine-go/storage"
)

func newEngineFixture(t *testing.T, chainID uint64) (*testutil.MemStore, *ioruntime.Base) {
	t.Helper()
	store := testutil.NewMemStore()
	base := ioruntime.NewBase(store, nil)
	require.NoError(t, SaveState(base, &State{ChainID: chainID}))
	return store, base
}

func fundAccount(base *ioruntime.Base, addr common.Address, wei uint64) {
	base.WriteStorage(storage.BalanceKey(addr), storage.EncodeU256(uint256.NewInt(wei)))
}

func testBlockContext(chainID uint64) BlockContext {
	return BlockContext{Height: 10, Timestamp: 1000, ChainID: chainID, CurrentAccountID: "aurora", PrepaidGas: 1_000_000_000}
}

func signLegacy(t *testing.T, chainID *big.Int, to *common.Address, gasLimit uint64, value *big.Int, data []byte) ([]byte, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(0),
		Gas:      gasLimit,
		To:       to,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), key)
	require.NoError(t, err)

	raw, err := signed.MarshalBinary()
	require.NoError(t, err)
	return raw, crypto.PubkeyToAddress(key.PublicKey)
}

// TestSubmitEthTransferHappyPath exercises spec §8's S1 scenario: a plain
// value transfer to an EOA must succeed, charge exactly the intrinsic gas,
// and advance the sender's nonce by one.
func TestSubmitEthTransferHappyPath(t *testing.T) {
	chainID := uint64(1313161554)
	store, base := newEngineFixture(t, chainID)
	recipient := common.HexToAddress("0x0101010101010101010101010101010101010101")

	txBytes, from := signLegacy(t, new(big.Int).SetUint64(chainID), &recipient, 21000, big.NewInt(100), nil)
	fundAccount(base, from, 1_000_000)

	eng := New(base, testBlockContext(chainID), params.London, big.NewInt(0), nil, nil)
	res, err := eng.Submit(txBytes, nil)
	require.NoError(t, err)
	require.Equal(t, StatusSucceed, res.Status.Kind)
	require.Equal(t, uint64(21000), res.GasUsed)

	newBase := ioruntime.NewBase(store, nil)
	v, ok := newBase.ReadStorage(storage.NonceKey(from))
	require.True(t, ok)
	require.Equal(t, uint64(1), storage.DecodeNonce(ioruntime.ToBytes(v)).Uint64())
}

// TestSubmitOutOfGasDeployReportsStatus exercises spec §8's S2 scenario: a
// contract creation whose init code never returns (an infinite JUMP loop)
// must exhaust its gas, report StatusOutOfGas, and still consume the
// sender's nonce (gas was already charged up front).
func TestSubmitOutOfGasDeployReportsStatus(t *testing.T) {
	chainID := uint64(1313161554)
	store, base := newEngineFixture(t, chainID)

	// JUMPDEST PUSH1 0x00 JUMP: loops forever until gas runs out.
	initCode := []byte{0x5b, 0x60, 0x00, 0x56}
	txBytes, from := signLegacy(t, new(big.Int).SetUint64(chainID), nil, 200_000, big.NewInt(0), initCode)
	fundAccount(base, from, 1_000_000)

	eng := New(base, testBlockContext(chainID), params.London, big.NewInt(0), nil, nil)
	res, err := eng.Submit(txBytes, nil)
	require.NoError(t, err)
	require.Equal(t, StatusOutOfGas, res.Status.Kind)
	require.Nil(t, res.ContractAddress)

	newBase := ioruntime.NewBase(store, nil)
	v, ok := newBase.ReadStorage(storage.NonceKey(from))
	require.True(t, ok)
	require.Equal(t, uint64(1), storage.DecodeNonce(ioruntime.ToBytes(v)).Uint64(), "nonce must still advance once gas was charged")
}

// TestSubmitPausedRejectsBeforeCharge exercises spec §7's policy that a
// paused-engine rejection is a pre-flight failure: it must not charge gas
// or consume the nonce.
func TestSubmitPausedRejectsBeforeCharge(t *testing.T) {
	chainID := uint64(1313161554)
	store := testutil.NewMemStore()
	base := ioruntime.NewBase(store, nil)
	require.NoError(t, SaveState(base, &State{ChainID: chainID, IsPaused: true}))

	recipient := common.HexToAddress("0x00000000000000000000000000000000000001")
	txBytes, from := signLegacy(t, new(big.Int).SetUint64(chainID), &recipient, 21000, big.NewInt(0), nil)
	fundAccount(base, from, 1_000_000)

	eng := New(base, testBlockContext(chainID), params.London, big.NewInt(0), nil, nil)
	_, err := eng.Submit(txBytes, nil)
	require.Error(t, err)

	newBase := ioruntime.NewBase(store, nil)
	_, ok := newBase.ReadStorage(storage.NonceKey(from))
	require.False(t, ok, "a paused rejection must never touch the sender's nonce")
}

// TestSubmitIncorrectNonceRejects exercises spec §8 invariant 1: a nonce
// mismatch is rejected before any state mutation.
func TestSubmitIncorrectNonceRejects(t *testing.T) {
	chainID := uint64(1313161554)
	_, base := newEngineFixture(t, chainID)

	recipient := common.HexToAddress("0x00000000000000000000000000000000000001")
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx := types.NewTx(&types.LegacyTx{Nonce: 7, GasPrice: big.NewInt(0), Gas: 21000, To: &recipient, Value: big.NewInt(0)})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(new(big.Int).SetUint64(chainID)), key)
	require.NoError(t, err)
	raw, err := signed.MarshalBinary()
	require.NoError(t, err)
	fundAccount(base, crypto.PubkeyToAddress(key.PublicKey), 1_000_000)

	eng := New(base, testBlockContext(chainID), params.London, big.NewInt(0), nil, nil)
	_, err = eng.Submit(raw, nil)
	require.Error(t, err)
}

// TestSubmitSiloWhitelistGatesAdmission exercises spec §4.4.2's silo-mode
// admission rule: with the EVM-admin whitelist on, a sender absent from it
// is rejected before any charge, and adding the sender lets the same
// transaction through.
func TestSubmitSiloWhitelistGatesAdmission(t *testing.T) {
	chainID := uint64(1313161554)
	store, base := newEngineFixture(t, chainID)
	require.NoError(t, SaveSiloParams(base, SiloParams{EvmAdminWhitelistOn: true}))

	recipient := common.HexToAddress("0x0101010101010101010101010101010101010101")
	txBytes, from := signLegacy(t, new(big.Int).SetUint64(chainID), &recipient, 21000, big.NewInt(0), nil)
	fundAccount(base, from, 1_000_000)

	eng := New(base, testBlockContext(chainID), params.London, big.NewInt(0), nil, nil)
	_, err := eng.Submit(txBytes, nil)
	require.Error(t, err, "sender absent from the EVM-admin whitelist must be rejected")

	newBase := ioruntime.NewBase(store, nil)
	_, ok := newBase.ReadStorage(storage.NonceKey(from))
	require.False(t, ok, "a whitelist rejection must never touch the sender's nonce")

	SetWhitelisted(base, EvmAdminWhitelist, from, true)
	res, err := eng.Submit(txBytes, nil)
	require.NoError(t, err)
	require.Equal(t, StatusSucceed, res.Status.Kind)
}

// TestSubmitLegacyZeroAddressBugFixHeight exercises the below-height side
// of spec §9 open question 1: below BugFixHeight a Legacy envelope's
// zero-address `to` is reinterpreted as contract creation. The other side
// (at or above it, `to` taken literally) is checked by txenvelope's
// decode tests.
func TestSubmitLegacyZeroAddressBugFixHeight(t *testing.T) {
	chainID := uint64(1313161554)
	store := testutil.NewMemStore()
	base := ioruntime.NewBase(store, nil)
	require.NoError(t, SaveState(base, &State{ChainID: chainID, BugFixHeight: 100}))

	zero := common.Address{}
	txBytes, from := signLegacy(t, new(big.Int).SetUint64(chainID), &zero, 100_000, big.NewInt(0), nil)
	fundAccount(base, from, 1_000_000)

	beforeFix := BlockContext{Height: 50, ChainID: chainID, CurrentAccountID: "aurora", PrepaidGas: 1_000_000_000}
	eng := New(base, beforeFix, params.London, big.NewInt(0), nil, nil)
	res, err := eng.Submit(txBytes, nil)
	require.NoError(t, err)
	require.Equal(t, StatusSucceed, res.Status.Kind)
	require.NotNil(t, res.ContractAddress, "pre-fix height must treat zero address as contract creation")
}

// TestNewDefaultsLoggerToNop confirms the Logger field accepts a real
// cosmossdk.io/log.Logger and falls back to a no-op when none is given.
func TestNewDefaultsLoggerToNop(t *testing.T) {
	_, base := newEngineFixture(t, 1)
	eng := New(base, testBlockContext(1), params.London, big.NewInt(0), nil, nil)
	require.NotNil(t, eng.Logger)

	eng2 := New(base, testBlockContext(1), params.London, big.NewInt(0), nil, log.NewNopLogger())
	require.NotNil(t, eng2.Logger)
}
