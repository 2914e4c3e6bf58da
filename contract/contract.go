// Package contract exposes the host entry-point surface of spec §6: a
// thin layer of plain Go functions over an injected ioruntime.IO, the
// seam a host-runtime binding (out of scope here) would call across its
// own IPC boundary into engine/simulate/hashchain.
//
// Grounded on zeta-chain-evm/x/vm/keeper/msg_server.go's
// EthereumTx/CallContract dispatch shape, flattened from a Cosmos
// MsgServer into plain functions since there is no Cosmos message router
// in scope here.
package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	borsh "github.com/near/borsh-go"

	"github.com/aurora-is-near/engine-go/engine"
	"github.com/aurora-is-near/engine-go/engine/params"
	engineerrors "github.com/aurora-is-near/engine-go/errors"
	"github.com/aurora-is-near/engine-go/hashchain"
	"github.com/aurora-is-near/engine-go/ioruntime"
	"github.com/aurora-is-near/engine-go/primitives"
	"github.com/aurora-is-near/engine-go/simulate"
	"github.com/aurora-is-near/engine-go/storage"
)

// NewCallArgs is the shape of spec §6's `new(NewCallArgs)` init call.
type NewCallArgs struct {
	ChainID            uint64
	OwnerID            string
	UpgradeDelayBlocks uint64
	// BugFixHeight is the configured threshold for the Legacy
	// zero-address backwards-compatibility behavior (spec §9 open
	// question 1). Deployments replaying pre-fix history set this to the
	// historical fix height; fresh deployments leave it at 0, which
	// disables the compatibility path entirely since no height is ever
	// strictly less than 0.
	BugFixHeight uint64
}

// New initializes Config/STATE. It fails with KindNotAllowed if state is
// already present — re-initialization is not a supported path.
func New(io ioruntime.IO, args NewCallArgs) error {
	if _, err := engine.LoadState(io); err == nil {
		return engineerrors.New(engineerrors.KindNotAllowed, "engine already initialized")
	}
	return engine.SaveState(io, &engine.State{
		ChainID:            args.ChainID,
		OwnerID:            args.OwnerID,
		UpgradeDelayBlocks: args.UpgradeDelayBlocks,
		BugFixHeight:       args.BugFixHeight,
	})
}

func requireOwner(io ioruntime.IO, callerAccountID string) (*engine.State, error) {
	state, err := engine.LoadState(io)
	if err != nil {
		return nil, err
	}
	if callerAccountID != state.OwnerID {
		return nil, engineerrors.New(engineerrors.KindNotAllowed, "caller is not the contract owner")
	}
	return state, nil
}

// Submit implements spec §6's `submit(bytes)`: an RLP-encoded typed
// envelope dispatched through the engine's full signature-authenticated
// path.
func Submit(io ioruntime.IO, block engine.BlockContext, hardfork params.Hardfork, baseFee *big.Int, txBytes []byte, relayerAddress *common.Address) (*engine.SubmitResult, error) {
	eng := engine.New(io, block, hardfork, baseFee, nil, nil)
	return eng.Submit(txBytes, relayerAddress)
}

// SubmitArgs is spec §6's `submit_with_args(SubmitArgs)` shape: the same
// envelope bytes plus relayer/fee metadata the bare `submit` entry point
// leaves implicit.
type SubmitArgs struct {
	TxBytes        []byte
	MaxGasPrice    *big.Int
	RelayerAddress *common.Address
}

// SubmitWithArgs implements spec §6's `submit_with_args`: identical
// dispatch to Submit, with an optional MaxGasPrice ceiling enforced ahead
// of admission (the relayer's own declared willingness to pay, distinct
// from the transaction's own max_fee).
func SubmitWithArgs(io ioruntime.IO, block engine.BlockContext, hardfork params.Hardfork, baseFee *big.Int, args SubmitArgs) (*engine.SubmitResult, error) {
	if args.MaxGasPrice != nil && baseFee != nil && baseFee.Cmp(args.MaxGasPrice) > 0 {
		return nil, engineerrors.New(engineerrors.KindMaxPriorityFeeTooLarge, "base fee exceeds relayer's declared max gas price")
	}
	return Submit(io, block, hardfork, baseFee, args.TxBytes, args.RelayerAddress)
}

// Call implements spec §6's `call(CallArgs)`: a direct message-call
// dispatch with parsed fields instead of a signed envelope, restricted to
// the contract owner (spec §6: "owner-authorized paths only").
func Call(io ioruntime.IO, block engine.BlockContext, hardfork params.Hardfork, callerAccountID string, args engine.CallArgs) (*engine.SubmitResult, error) {
	if _, err := requireOwner(io, callerAccountID); err != nil {
		return nil, err
	}
	eng := engine.New(io, block, hardfork, big.NewInt(0), nil, nil)
	return eng.Call(args)
}

// DeployCode implements spec §6's `deploy_code(bytes)`: contract creation
// without a wrapping transaction, owner-authorized.
func DeployCode(io ioruntime.IO, block engine.BlockContext, hardfork params.Hardfork, callerAccountID string, from common.Address, code []byte, gasLimit uint64) (*engine.SubmitResult, error) {
	if _, err := requireOwner(io, callerAccountID); err != nil {
		return nil, err
	}
	eng := engine.New(io, block, hardfork, big.NewInt(0), nil, nil)
	return eng.DeployCode(from, code, gasLimit)
}

// ViewCallArgs is spec §6's `view(ViewCallArgs)` shape: a read-only call
// against live storage, with no signature check and no state override.
type ViewCallArgs struct {
	From     common.Address
	To       *common.Address
	Data     []byte
	GasLimit uint64
	Value    *big.Int
}

// View implements spec §6's `view`: read-only execution through the
// simulation path with an empty override set, run at zero gas price so no
// balance is debited.
func View(io ioruntime.HostStore, block engine.BlockContext, hardfork params.Hardfork, args ViewCallArgs) (*simulate.Result, error) {
	return simulate.Simulate(io, block, hardfork, simulate.CallRequest{
		From:     args.From,
		To:       args.To,
		GasLimit: args.GasLimit,
		Value:    args.Value,
		Data:     args.Data,
	})
}

// EthCall implements spec §6's `ethCall(SimulateEthCallArgs)`: the full
// eth_call surface, state overrides included.
func EthCall(io ioruntime.HostStore, block engine.BlockContext, hardfork params.Hardfork, req simulate.CallRequest) (*simulate.Result, error) {
	return simulate.Simulate(io, block, hardfork, req)
}

// GetNonce implements spec §6's `get_nonce` account query: a direct
// storage read, no EVM dispatch needed.
func GetNonce(io ioruntime.IO, addr common.Address) uint64 {
	v, ok := io.ReadStorage(storage.NonceKey(primitives.Address(addr)))
	if !ok {
		return 0
	}
	return storage.DecodeNonce(ioruntime.ToBytes(v)).Uint64()
}

// GetBalance implements spec §6's `get_balance` account query.
func GetBalance(io ioruntime.IO, addr common.Address) *uint256.Int {
	v, ok := io.ReadStorage(storage.BalanceKey(primitives.Address(addr)))
	if !ok {
		return new(uint256.Int)
	}
	return storage.DecodeU256(ioruntime.ToBytes(v))
}

// GetCode implements spec §6's `get_code` account query.
func GetCode(io ioruntime.IO, addr common.Address) []byte {
	v, ok := io.ReadStorage(storage.CodeKey(primitives.Address(addr)))
	if !ok {
		return nil
	}
	return ioruntime.ToBytes(v)
}

// GetStorageAt implements spec §6's `get_storage_at` account query: the
// slot is read at the account's current generation, since a caller-level
// query has no view into an in-flight transaction's generation bump.
func GetStorageAt(io ioruntime.IO, addr common.Address, slot primitives.Hash) primitives.Hash {
	generation := uint32(0)
	if v, ok := io.ReadStorage(storage.GenerationKey(primitives.Address(addr))); ok {
		generation = storage.DecodeGeneration(ioruntime.ToBytes(v))
	}
	key := storage.StorageKey(primitives.Address(addr), generation, slot)
	v, ok := io.ReadStorage(key)
	if !ok {
		return primitives.Hash{}
	}
	var out primitives.Hash
	copy(out[:], ioruntime.ToBytes(v))
	return out
}

// PauseContract implements spec §6's `pause_contract`, owner-only.
func PauseContract(io ioruntime.IO, callerAccountID string) error {
	state, err := requireOwner(io, callerAccountID)
	if err != nil {
		return err
	}
	state.IsPaused = true
	return engine.SaveState(io, state)
}

// ResumeContract implements spec §6's `resume_contract`, owner-only.
func ResumeContract(io ioruntime.IO, callerAccountID string) error {
	state, err := requireOwner(io, callerAccountID)
	if err != nil {
		return err
	}
	state.IsPaused = false
	return engine.SaveState(io, state)
}

// pendingUpgrade is the borsh-encoded staged-code blob held under
// Config/UPGRADE between stage_upgrade and deploy_upgrade (spec §6:
// "two-phase code upgrade gated by upgrade_delay_blocks").
type pendingUpgrade struct {
	Code         []byte
	TargetHeight uint64
}

// StageUpgrade implements spec §6's `stage_upgrade`: stores code to be
// deployed no earlier than the owner's current height plus the configured
// upgrade_delay_blocks.
func StageUpgrade(io ioruntime.IO, block engine.BlockContext, callerAccountID string, code []byte) error {
	state, err := requireOwner(io, callerAccountID)
	if err != nil {
		return err
	}
	pending := pendingUpgrade{Code: code, TargetHeight: block.Height + state.UpgradeDelayBlocks}
	data, err := borsh.Serialize(pending)
	if err != nil {
		return err
	}
	io.WriteStorage(storage.ConfigKey("UPGRADE"), data)
	return nil
}

// DeployUpgrade implements spec §6's `deploy_upgrade`: swaps in the staged
// code once the two-phase delay has elapsed. It fails with KindNotAllowed
// if no upgrade is staged, or if block.Height has not yet reached the
// staged target height.
func DeployUpgrade(io ioruntime.IO, block engine.BlockContext) error {
	v, ok := io.ReadStorage(storage.ConfigKey("UPGRADE"))
	if !ok {
		return engineerrors.New(engineerrors.KindNotAllowed, "no upgrade staged")
	}
	var pending pendingUpgrade
	if err := borsh.Deserialize(&pending, ioruntime.ToBytes(v)); err != nil {
		return err
	}
	if block.Height < pending.TargetHeight {
		return engineerrors.New(engineerrors.KindNotAllowed, "upgrade delay has not elapsed")
	}
	io.WriteStorage(storage.ConfigKey("CODE"), pending.Code)
	io.RemoveStorage(storage.ConfigKey("UPGRADE"))
	return nil
}

// StartHashchain implements spec §6's `start_hashchain`: (re)initializes
// the per-block accumulator at startHeight.
func StartHashchain(io ioruntime.IO, chainID uint64, accountID string, startHeight uint64, previousHashchain [32]byte) error {
	h := hashchain.NewBuilder().
		WithU64ChainID(chainID).
		WithAccountID(accountID).
		WithCurrentBlockHeight(startHeight).
		WithPreviousHashchain(previousHashchain).
		Build()
	data, err := h.TrySerialize()
	if err != nil {
		return err
	}
	io.WriteStorage(storage.HashchainKey(), data)
	return nil
}

// GetLatestHashchain implements spec §6's `get_latest_hashchain`.
func GetLatestHashchain(io ioruntime.IO) (*hashchain.Hashchain, error) {
	v, ok := io.ReadStorage(storage.HashchainKey())
	if !ok {
		return nil, engineerrors.New(engineerrors.KindStateMissing, "hashchain not initialized")
	}
	return hashchain.TryDeserialize(ioruntime.ToBytes(v))
}
