package engine

import (
	"math/big"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"

	engineerrors "github.com/aurora-is-near/engine-go/errors"
	"github.com/aurora-is-near/engine-go/engine/params"
	"github.com/aurora-is-near/engine-go/ioruntime"
	"github.com/aurora-is-near/engine-go/precompiles"
	"github.com/aurora-is-near/engine-go/promise"
	"github.com/aurora-is-near/engine-go/statedb"
)

// Engine is the top-level state machine of spec §4.4: it owns the IO for
// the duration of one invocation (spec §3 "Ownership") and dispatches into
// go-ethereum's core/vm.EVM as the pluggable interpreter named by the
// EvmHandler non-goal.
type Engine struct {
	IO         ioruntime.IO
	Block      BlockContext
	Hardfork   params.Hardfork
	BaseFee    *big.Int
	Promises   promise.Handler
	RandomSeed [32]byte
	Logger     log.Logger
}

// New constructs an Engine for one invocation. promises defaults to a
// no-op handler when nil, matching the simulation path's requirement
// (spec §5). logger defaults to a no-op logger when nil, the same
// fallback the teacher's own tests fall back to via log.NewNopLogger().
func New(io ioruntime.IO, block BlockContext, hardfork params.Hardfork, baseFee *big.Int, promises promise.Handler, logger log.Logger) *Engine {
	if promises == nil {
		promises = promise.Noop{}
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Engine{IO: io, Block: block, Hardfork: hardfork, BaseFee: baseFee, Promises: promises, Logger: logger.With("module", "engine")}
}

func (e *Engine) newStateDB(txHash common.Hash) *statedb.StateDB {
	txConfig := statedb.TxConfig{
		BlockHash: e.Block.BlockHash(e.Block.Height),
		TxHash:    txHash,
	}
	getHash := func(h uint64) [32]byte { return e.Block.BlockHash(h) }
	return statedb.New(e.IO, txConfig, getHash)
}

func (e *Engine) newEVM(db *statedb.StateDB, sender common.Address) *vm.EVM {
	cfg := chainConfig(e.Block.ChainID, e.Hardfork)

	baseFee := e.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(0)
	}
	random := common.BytesToHash(e.RandomSeed[:])

	blockCtx := vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash:     db.GetHashFn(),
		Coinbase:    common.Address{},
		GasLimit:    e.Block.PrepaidGas,
		BlockNumber: new(big.Int).SetUint64(e.Block.Height),
		Time:        e.Block.Timestamp,
		Difficulty:  big.NewInt(0),
		BaseFee:     baseFee,
		Random:      &random,
	}
	txCtx := vm.TxContext{Origin: sender, GasPrice: baseFee}

	evm := vm.NewEVM(blockCtx, db, cfg, vm.Config{})
	evm.TxContext = txCtx

	rules := cfg.Rules(blockCtx.BlockNumber, true, blockCtx.Time)
	env := precompiles.EnvContext{
		PredecessorAccountID: e.Block.CurrentAccountID,
		PrepaidGas:           e.Block.PrepaidGas,
		Promises:             e.Promises,
	}
	evm.WithPrecompiles(precompiles.ActiveTable(rules, env))
	return evm
}

// Submit implements spec §4.4.1's `submit(io, env, tx_bytes, state,
// relayer_address, promise_handler) -> SubmitResult`: a fully
// signature-authenticated transaction, admitted, executed, and finalized.
func (e *Engine) Submit(txBytes []byte, relayerAddress *common.Address) (*SubmitResult, error) {
	state, err := LoadState(e.IO)
	if err != nil {
		return nil, err
	}
	silo := LoadSiloParams(e.IO)

	db := e.newStateDB(common.Hash{})
	pre, err := preflight(db, e.IO, state, silo, txBytes, e.Block.Height, e.BaseFee, e.Hardfork)
	if err != nil {
		e.Logger.Debug("rejected transaction", "error", err.Error())
		return nil, err
	}

	evm := e.newEVM(db, pre.sender)
	rules := evm.ChainConfig().Rules(evm.Context.BlockNumber, true, evm.Context.Time)
	db.Prepare(rules, pre.sender, evm.Context.Coinbase, pre.tx.To, evm.ActivePrecompiles(), pre.tx.AccessList)

	leftover := pre.tx.GasLimit - pre.intrinsicGas
	value, overflow := uint256.FromBig(pre.tx.Value)
	if overflow {
		return nil, engineerrors.New(engineerrors.KindGasOverflow, "transaction value overflows 256 bits")
	}

	var (
		ret             []byte
		vmErr           error
		contractAddress []byte
	)
	if pre.tx.To == nil {
		var created common.Address
		ret, created, leftover, vmErr = evm.Create(pre.sender, pre.tx.Data, leftover, value)
		contractAddress = created.Bytes()
	} else {
		ret, leftover, vmErr = evm.Call(pre.sender, *pre.tx.To, pre.tx.Data, leftover, value)
	}

	return e.finalize(db, pre, leftover, ret, vmErr, contractAddress, relayerAddress)
}

// CallArgs is the shape of spec §4.4.1's `CallArgs` used by the direct
// (non-envelope) `call` entry point: the host already knows `from` since
// it authenticated the caller through its own account model.
type CallArgs struct {
	From     common.Address
	To       common.Address
	GasLimit uint64
	Value    *big.Int
	Data     []byte
}

// Call implements spec §4.4.1's `call(io, env, CallArgs, state,
// promise_handler)`: a direct message-call dispatch bypassing envelope
// decode and signature recovery (the host already authenticated `from`).
func (e *Engine) Call(args CallArgs) (*SubmitResult, error) {
	if err := e.checkNotPaused(); err != nil {
		return nil, err
	}
	value := new(big.Int)
	if args.Value != nil {
		value = args.Value
	}
	return e.Dispatch(args.From, &args.To, args.Data, args.GasLimit, value)
}

// DeployCode implements spec §4.4.1's `deploy_code(io, env, code, state,
// promise_handler)`: a direct contract-creation entry point for the host's
// own account (no envelope, no recipient).
func (e *Engine) DeployCode(from common.Address, code []byte, gasLimit uint64) (*SubmitResult, error) {
	if err := e.checkNotPaused(); err != nil {
		return nil, err
	}
	return e.Dispatch(from, nil, code, gasLimit, new(big.Int))
}

func (e *Engine) checkNotPaused() error {
	state, err := LoadState(e.IO)
	if err != nil {
		return err
	}
	if state.IsPaused {
		err := engineerrors.New(engineerrors.KindPaused, "engine is paused")
		e.Logger.Debug("rejected transaction", "error", err.Error())
		return err
	}
	return nil
}

// Dispatch executes one message-call or contract-creation against the
// engine's IO without the envelope-authenticated pricing/refund-to-sender
// machinery `Submit` layers on top: it is the shared core `Call`,
// `DeployCode`, and the `simulate` package's `eth_call` path (spec §4.7
// step 4: "execute exactly like submit except...") all dispatch through.
func (e *Engine) Dispatch(from common.Address, to *common.Address, data []byte, gasLimit uint64, value *big.Int) (*SubmitResult, error) {
	db := e.newStateDB(common.Hash{})
	evm := e.newEVM(db, from)
	rules := evm.ChainConfig().Rules(evm.Context.BlockNumber, true, evm.Context.Time)
	db.Prepare(rules, from, evm.Context.Coinbase, to, evm.ActivePrecompiles(), nil)

	valueU256, overflow := uint256.FromBig(value)
	if overflow {
		return nil, engineerrors.New(engineerrors.KindGasOverflow, "call value overflows 256 bits")
	}

	var (
		ret             []byte
		leftover        uint64
		vmErr           error
		contractAddress []byte
	)
	if to == nil {
		var created common.Address
		ret, created, leftover, vmErr = evm.Create(from, data, gasLimit, valueU256)
		contractAddress = created.Bytes()
	} else {
		ret, leftover, vmErr = evm.Call(from, *to, data, gasLimit, valueU256)
	}

	return e.finalizeDirect(db, from, gasLimit, leftover, ret, vmErr, contractAddress, nil)
}

