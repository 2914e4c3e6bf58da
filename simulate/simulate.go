// Package simulate implements the read-only `eth_call` execution path of
// spec §4.7: a transactional, always-discarded overlay over the real
// store, optional per-account state overrides, and either eager or
// post-hoc gas pricing.
package simulate

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/aurora-is-near/engine-go/engine"
	"github.com/aurora-is-near/engine-go/engine/params"
	engineerrors "github.com/aurora-is-near/engine-go/errors"
	"github.com/aurora-is-near/engine-go/ioruntime"
	"github.com/aurora-is-near/engine-go/primitives"
	"github.com/aurora-is-near/engine-go/statedb"
	"github.com/aurora-is-near/engine-go/storage"
)

// NonceClass reports how a caller-supplied nonce compares to the account's
// actual stored nonce (spec §4.7 step 1).
type NonceClass int

const (
	NonceNotProvided NonceClass = iota
	NonceTooLow
	NonceGE
)

// AccountOverride is one entry of spec §4.7's `state_override` map:
// concrete balance/nonce/code/state_diff overrides apply directly to the
// cloned local store; `State` (full storage replacement) is layered
// through the override overlay instead (spec §4.3/§4.7 step 3).
type AccountOverride struct {
	Balance   *big.Int
	Nonce     *uint64
	Code      []byte
	State     map[primitives.Hash]primitives.Hash // full replacement
	StateDiff map[primitives.Hash]primitives.Hash // concrete merge
}

// CallRequest is spec §4.7's `eth_call` input shape.
type CallRequest struct {
	From          common.Address
	To            *common.Address
	GasLimit      uint64
	GasPrice      *big.Int
	Value         *big.Int
	Data          []byte
	Nonce         *uint64
	StateOverride map[common.Address]AccountOverride
}

// Result is the outcome of a simulated call: the engine's own SubmitResult
// shape, plus the nonce classification spec §4.7 step 1 names.
type Result struct {
	*engine.SubmitResult
	NonceClass NonceClass
}

// defaultGasCeiling bounds a simulate call's gas budget whenever the caller
// supplies no gas limit: both the zero-gas-price read and the post-hoc
// priced path (spec §4.7 step 4's "no limit given" case) run under it.
const defaultGasCeiling = 50_000_000

// Simulate runs req against a disposable clone of store, per spec §4.7's
// algorithm. It never mutates store: every write lands in an in-memory
// overlay that is simply dropped on return.
func Simulate(store ioruntime.HostStore, block engine.BlockContext, hardfork params.Hardfork, req CallRequest) (*Result, error) {
	clone := ioruntime.NewCloneStore(store)
	base := ioruntime.NewBase(clone, nil)

	overrideMap := ioruntime.SlotOverride{}
	for addr, ov := range req.StateOverride {
		applyConcreteOverride(base, addr, ov)
		if ov.State != nil {
			slots := make(map[primitives.Hash][]byte, len(ov.State))
			for slot, value := range ov.State {
				slots[slot] = value.Bytes()
			}
			overrideMap[addr] = slots
		}
	}

	var io ioruntime.IO = base
	if len(overrideMap) > 0 {
		io = ioruntime.NewOverride(base, overrideMap)
	}

	state, err := engine.LoadState(io)
	if err != nil {
		return nil, engineerrors.New(engineerrors.KindStateMissing, "engine state not initialized")
	}
	if state.IsPaused {
		return nil, engineerrors.New(engineerrors.KindPaused, "engine is paused")
	}

	readDB := statedb.New(io, statedb.NewEmptyTxConfig(), nil)
	storedNonce := readDB.GetNonce(req.From)
	nonceClass := classifyNonce(req.Nonce, storedNonce)

	eng := engine.New(io, block, hardfork, big.NewInt(0), nil, nil)

	value := new(big.Int)
	if req.Value != nil {
		value = req.Value
	}

	gasPriceIsZero := req.GasPrice == nil || req.GasPrice.Sign() == 0

	switch {
	case gasPriceIsZero:
		gasLimit := req.GasLimit
		if gasLimit == 0 {
			gasLimit = defaultGasCeiling
		}
		res, err := eng.Dispatch(req.From, req.To, req.Data, gasLimit, value)
		if err != nil {
			return nil, engineerrors.Wrap(engineerrors.KindEvmError, err, "simulate dispatch failed")
		}
		return &Result{SubmitResult: res, NonceClass: nonceClass}, nil

	case req.GasLimit > 0:
		// Eager charge: identical shape to the engine's own up-front
		// gas debit (spec §4.4.2 item 7), scoped to the disposable clone.
		cost := new(uint256.Int).Mul(new(uint256.Int).SetUint64(req.GasLimit), mustU256(req.GasPrice))
		chargeDB := statedb.New(io, statedb.NewEmptyTxConfig(), nil)
		if chargeDB.GetBalance(req.From).Cmp(cost) < 0 {
			return nil, engineerrors.New(engineerrors.KindGasPayment, "sender balance insufficient for eager gas charge")
		}
		chargeDB.SubBalance(req.From, cost, tracing.BalanceChangeUnspecified)
		if err := chargeDB.Commit(); err != nil {
			return nil, err
		}
		res, err := eng.Dispatch(req.From, req.To, req.Data, req.GasLimit, value)
		if err != nil {
			return nil, engineerrors.Wrap(engineerrors.KindEvmError, err, "simulate dispatch failed")
		}
		return &Result{SubmitResult: res, NonceClass: nonceClass}, nil

	default:
		// No user gas limit: run uncharged, then estimate post-hoc as
		// used + used/3 and charge that (spec §4.7 step 4).
		res, err := eng.Dispatch(req.From, req.To, req.Data, defaultGasCeiling, value)
		if err != nil {
			return nil, engineerrors.Wrap(engineerrors.KindEvmError, err, "simulate dispatch failed")
		}
		estimate := res.GasUsed + res.GasUsed/3
		cost := new(uint256.Int).Mul(new(uint256.Int).SetUint64(estimate), mustU256(req.GasPrice))
		chargeDB := statedb.New(io, statedb.NewEmptyTxConfig(), nil)
		chargeDB.SubBalance(req.From, cost, tracing.BalanceChangeUnspecified)
		if err := chargeDB.Commit(); err != nil {
			return nil, err
		}
		return &Result{SubmitResult: res, NonceClass: nonceClass}, nil
	}
}

func classifyNonce(provided *uint64, stored uint64) NonceClass {
	switch {
	case provided == nil:
		return NonceNotProvided
	case *provided < stored:
		return NonceTooLow
	default:
		return NonceGE
	}
}

// applyConcreteOverride writes balance/nonce/code/state_diff directly into
// base's storage keys, per spec §4.7 step 2: these become part of the
// transactional clone used for this call only.
func applyConcreteOverride(base *ioruntime.Base, addr common.Address, ov AccountOverride) {
	if ov.Balance != nil {
		b, _ := uint256.FromBig(ov.Balance)
		base.WriteStorage(storage.BalanceKey(primitives.Address(addr)), storage.EncodeU256(b))
	}
	if ov.Nonce != nil {
		n := new(uint256.Int).SetUint64(*ov.Nonce)
		base.WriteStorage(storage.NonceKey(primitives.Address(addr)), storage.EncodeNonce(n))
	}
	if ov.Code != nil {
		base.WriteStorage(storage.CodeKey(primitives.Address(addr)), ov.Code)
		codeHash := crypto.Keccak256Hash(ov.Code)
		if len(ov.Code) == 0 {
			codeHash = statedb.EmptyCodeHash
		}
		base.WriteStorage(storage.CodeHashKey(primitives.Address(addr)), codeHash.Bytes())
	}
	if len(ov.StateDiff) > 0 {
		generation := uint32(0)
		if v, ok := base.ReadStorage(storage.GenerationKey(primitives.Address(addr))); ok {
			generation = storage.DecodeGeneration(ioruntime.ToBytes(v))
		}
		for slot, value := range ov.StateDiff {
			key := storage.StorageKey(primitives.Address(addr), generation, slot)
			base.WriteStorage(key, value.Bytes())
		}
	}
}

func mustU256(v *big.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return new(uint256.Int)
	}
	return u
}
