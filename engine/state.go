// Package engine implements the top-level execution state machine (spec
// §4.4): pre-flight checks, dispatch into the go-ethereum EVM interpreter,
// and finalization (refunds, fee transfer, bloom/log accumulation).
// Grounded on zeta-chain-evm/x/vm/keeper/state_transition.go's
// ApplyTransaction/ApplyMessageWithConfig/NewEVM, rewritten against this
// engine's own statedb/storage instead of a Cosmos sdk.Context and bank
// keeper.
package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	borsh "github.com/near/borsh-go"

	"github.com/aurora-is-near/engine-go/ioruntime"
	"github.com/aurora-is-near/engine-go/primitives"
	"github.com/aurora-is-near/engine-go/storage"
)

// State is the engine's single borsh-encoded configuration blob (spec
// §4.4.1, §9: "Global state: the contract's EngineState is a single borsh
// blob under key Config/STATE. There is no process-wide singleton; every
// entry point loads it explicitly.").
type State struct {
	ChainID            uint64
	OwnerID            string
	UpgradeDelayBlocks uint64
	IsPaused           bool
	HasKeyManager      bool
	KeyManager         string
	// BugFixHeight is the block height at and after which a Legacy
	// transaction's `to == zero address` is taken literally (spec §9 open
	// question 1); before it, zero address is reinterpreted as contract
	// creation to preserve historical replay determinism.
	BugFixHeight uint64
}

// LoadState reads and borsh-decodes the EngineState blob, per spec §4.4.1.
func LoadState(io ioruntime.IO) (*State, error) {
	v, ok := io.ReadStorage(storage.ConfigKey("STATE"))
	if !ok {
		return nil, ErrStateMissing
	}
	var s State
	if err := borsh.Deserialize(&s, ioruntime.ToBytes(v)); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveState borsh-encodes and writes the EngineState blob.
func SaveState(io ioruntime.IO, s *State) error {
	data, err := borsh.Serialize(*s)
	if err != nil {
		return err
	}
	io.WriteStorage(storage.ConfigKey("STATE"), data)
	return nil
}

// SiloParams is the optional silo-mode configuration (spec §4.4.2): when
// set, admission is gated by whitelists and intrinsic gas computation is
// replaced by a fixed constant.
type SiloParams struct {
	FixedGasCost  *uint64
	EvmAdminWhitelistOn     bool
	AccountAdminWhitelistOn bool
}

// LoadSiloParams reads the Silo configuration blob, returning a
// zero-value (disabled) SiloParams if none is configured.
func LoadSiloParams(io ioruntime.IO) SiloParams {
	v, ok := io.ReadStorage(storage.SiloKey())
	if !ok {
		return SiloParams{}
	}
	var s SiloParams
	_ = borsh.Deserialize(&s, ioruntime.ToBytes(v))
	return s
}

// SaveSiloParams borsh-encodes and writes the Silo configuration blob.
func SaveSiloParams(io ioruntime.IO, s SiloParams) error {
	data, err := borsh.Serialize(s)
	if err != nil {
		return err
	}
	io.WriteStorage(storage.SiloKey(), data)
	return nil
}

// SetWhitelisted adds or removes addr from the named whitelist.
func SetWhitelisted(io ioruntime.IO, name string, addr common.Address, allowed bool) {
	key := storage.WhitelistKey(name, addr)
	if allowed {
		io.WriteStorage(key, []byte{1})
		return
	}
	io.RemoveStorage(key)
}

// Whitelist sub-kind names passed to storage.WhitelistKey, gating who may
// submit while silo mode is active (spec §4.4.2: "Whitelists (EVM-admin,
// account-admin) gate who may submit when silo mode is active").
const (
	EvmAdminWhitelist     = "EVM_ADMIN"
	AccountAdminWhitelist = "ACCOUNT_ADMIN"
)

// IsWhitelisted reports whether addr has an entry under the named
// whitelist. Membership is a plain key presence check, matching how every
// other admission flag in this schema (IsPaused, HasKeyManager) is a
// presence/value read rather than an iterated set.
func IsWhitelisted(io ioruntime.IO, name string, addr common.Address) bool {
	_, ok := io.ReadStorage(storage.WhitelistKey(name, addr))
	return ok
}

// BlockContext is the per-invocation block metadata spec §3 defines:
// {height, timestamp, chain_id, current_account_id, random_seed,
// prepaid_gas}.
type BlockContext struct {
	Height            uint64
	Timestamp         uint64
	ChainID           uint64
	CurrentAccountID  string
	RandomSeed        [32]byte
	PrepaidGas        uint64
}

// BlockHash derives block_hash(height) = keccak256(0x00 || chain_id ||
// account_id || height_be_u64), per spec §3.
func (b BlockContext) BlockHash(height uint64) primitives.Hash {
	return blockHash(b.ChainID, b.CurrentAccountID, height)
}

// ChainIDBig returns the block context's chain ID as a big.Int, the shape
// go-ethereum's signer/config types want.
func (b BlockContext) ChainIDBig() *big.Int {
	return new(big.Int).SetUint64(b.ChainID)
}

// stateMissingErr is the concrete type behind ErrStateMissing.
type stateMissingErr string

func (e stateMissingErr) Error() string { return string(e) }

// ErrStateMissing is returned by LoadState when Config/STATE has never
// been written (spec §4.7 failure taxonomy: "StateMissing (state not
// initialized)").
var ErrStateMissing error = stateMissingErr("engine: state not initialized")
