package engine

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"

	"github.com/aurora-is-near/engine-go/accounting"
	engineerrors "github.com/aurora-is-near/engine-go/errors"
	"github.com/aurora-is-near/engine-go/engine/params"
	"github.com/aurora-is-near/engine-go/statedb"
)

// classifyStatus maps a go-ethereum vm error to spec §4.4.4/§3's status
// taxonomy, falling back to the generic Error(kind) variant for anything
// the interpreter doesn't name explicitly.
func classifyStatus(vmErr error, ret []byte) Status {
	switch {
	case vmErr == nil:
		return Status{Kind: StatusSucceed, Output: ret}
	case errors.Is(vmErr, vm.ErrExecutionReverted):
		return Status{Kind: StatusRevert, Output: ret, Err: vmErr}
	case errors.Is(vmErr, vm.ErrOutOfGas), errors.Is(vmErr, vm.ErrGasUintOverflow):
		return Status{Kind: StatusOutOfGas, Err: vmErr}
	case errors.Is(vmErr, vm.ErrInsufficientBalance):
		return Status{Kind: StatusOutOfFund, Err: vmErr}
	case errors.Is(vmErr, vm.ErrReturnDataOutOfBounds), errors.Is(vmErr, vm.ErrCodeStoreOutOfGas):
		return Status{Kind: StatusOutOfOffset, Err: vmErr}
	case errors.Is(vmErr, vm.ErrDepth):
		return Status{Kind: StatusCallTooDeep, Err: vmErr}
	default:
		return Status{Kind: StatusError, Err: engineerrors.Wrap(engineerrors.KindEvmError, vmErr, "evm execution error")}
	}
}

// finalize implements spec §4.4.4 for the `submit` entry point: refund
// math with the EIP-3529 quotient, fee transfer to the relayer, and
// SubmitResult assembly. A failed call's own state changes are already
// discarded by the time vmErr is non-nil — vm.EVM.Call/Create snapshot
// and revert internally around the dispatched call, the same way
// go-ethereum's own interpreter loop does; only the preflight charge and
// nonce increment (applied to the StateDB before dispatch) survive.
func (e *Engine) finalize(
	db *statedb.StateDB,
	pre *preflightResult,
	leftover uint64,
	ret []byte,
	vmErr error,
	contractAddress []byte,
	relayerAddress *common.Address,
) (*SubmitResult, error) {
	status := classifyStatus(vmErr, ret)
	e.logFatal(status)

	usedGas := pre.tx.GasLimit - leftover
	rules := chainConfig(e.Block.ChainID, e.Hardfork).Rules(new(big.Int).SetUint64(e.Block.Height), true, e.Block.Timestamp)
	quotient := params.ForRules(rules).MaxRefundQuotient
	refund := gasToRefund(db.GetRefund(), usedGas, quotient)
	leftover += refund
	actualUsed := usedGas - refund

	net := accounting.New()

	unusedValue := new(uint256.Int).Mul(new(uint256.Int).SetUint64(leftover), mustU256(pre.effectiveGasPrice))
	if !unusedValue.IsZero() {
		before := *db.GetBalance(pre.sender)
		db.AddBalance(pre.sender, unusedValue, tracing.BalanceChangeUnspecified)
		after := *db.GetBalance(pre.sender)
		net.Change(&before, &after)
	}

	feeValue := new(uint256.Int).Mul(new(uint256.Int).SetUint64(actualUsed), mustU256(pre.effectiveGasPrice))
	if relayerAddress != nil && !feeValue.IsZero() {
		before := *db.GetBalance(*relayerAddress)
		db.AddBalance(*relayerAddress, feeValue, tracing.BalanceChangeUnspecified)
		after := *db.GetBalance(*relayerAddress)
		net.Change(&before, &after)
	} else if !feeValue.IsZero() {
		// No relayer to credit: the fee is burnt, a pure loss (spec §4.4.5
		// "remove(v): add v to lost").
		net.Remove(feeValue)
	}

	if err := db.Commit(); err != nil {
		return nil, err
	}

	logs := db.Logs()
	if status.Kind != StatusSucceed {
		logs = nil
		if status.Kind != StatusRevert {
			contractAddress = nil
		}
	}

	return &SubmitResult{
		Status:          status,
		GasUsed:         actualUsed,
		Logs:            logs,
		ContractAddress: contractAddress,
		NetChange:       net.Net(),
	}, nil
}

// finalizeDirect is the `call`/`deploy_code` counterpart of finalize: no
// envelope, no up-front price-based charge/refund (those entry points are
// invoked by a host that already metered the call in its own currency), so
// finalization is limited to EIP-3529 refund bookkeeping, commit, and
// result assembly.
func (e *Engine) finalizeDirect(
	db *statedb.StateDB,
	from common.Address,
	gasLimit uint64,
	leftover uint64,
	ret []byte,
	vmErr error,
	contractAddress []byte,
	relayerAddress *common.Address,
) (*SubmitResult, error) {
	status := classifyStatus(vmErr, ret)
	e.logFatal(status)

	usedGas := gasLimit - leftover
	rules := chainConfig(e.Block.ChainID, e.Hardfork).Rules(new(big.Int).SetUint64(e.Block.Height), true, e.Block.Timestamp)
	quotient := params.ForRules(rules).MaxRefundQuotient
	refund := gasToRefund(db.GetRefund(), usedGas, quotient)
	actualUsed := usedGas - refund

	if err := db.Commit(); err != nil {
		return nil, err
	}

	logs := db.Logs()
	if status.Kind != StatusSucceed {
		logs = nil
		if status.Kind != StatusRevert {
			contractAddress = nil
		}
	}

	return &SubmitResult{
		Status:          status,
		GasUsed:         actualUsed,
		Logs:            logs,
		ContractAddress: contractAddress,
	}, nil
}

// logFatal logs the uncategorized StatusError branch of classifyStatus at
// Error level: everything that reaches the interpreter but matches none of
// go-ethereum's named vm sentinels, which includes a precompile's Run
// returning an error go-ethereum doesn't itself classify.
func (e *Engine) logFatal(status Status) {
	if status.Kind == StatusError {
		e.Logger.Error("precompile or evm fatal error", "error", status.Err.Error())
	}
}

func mustU256(v *big.Int) *uint256.Int {
	u, overflow := uint256.FromBig(v)
	if overflow {
		return new(uint256.Int)
	}
	return u
}
