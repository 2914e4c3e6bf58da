package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/holiman/uint256"

	engineerrors "github.com/aurora-is-near/engine-go/errors"
	"github.com/aurora-is-near/engine-go/engine/params"
	"github.com/aurora-is-near/engine-go/ioruntime"
	"github.com/aurora-is-near/engine-go/statedb"
	"github.com/aurora-is-near/engine-go/txenvelope"
)

// preflightResult is everything admission produces that execution and
// finalization need: the decoded transaction, its sender, the gas already
// charged up front, and the effective price used to charge it.
type preflightResult struct {
	tx                *txenvelope.Transaction
	sender            common.Address
	intrinsicGas      uint64
	effectiveGasPrice *big.Int
	upfrontCharge     *uint256.Int
}

// effectiveGasPrice resolves the per-spec §4.4.2 price rule: legacy/2930
// use gas_price outright; 1559/4844 use min(max_fee, base_fee +
// max_priority_fee), with base_fee defaulting to 0 absent a host-supplied
// value.
func effectiveGasPrice(tx *txenvelope.Transaction, baseFee *big.Int) *big.Int {
	if tx.MaxFee == nil {
		return new(big.Int).Set(tx.GasPrice)
	}
	if baseFee == nil {
		baseFee = big.NewInt(0)
	}
	candidate := new(big.Int).Add(baseFee, tx.MaxPriorityFee)
	if candidate.Cmp(tx.MaxFee) > 0 {
		return new(big.Int).Set(tx.MaxFee)
	}
	return candidate
}

// preflight runs spec §4.4.2's seven-step admission sequence: pause check,
// envelope decode, chain-ID check, nonce check, intrinsic gas, gas-limit
// and balance check, up-front charge plus nonce increment.
func preflight(
	db *statedb.StateDB,
	io ioruntime.IO,
	state *State,
	silo SiloParams,
	txBytes []byte,
	blockHeight uint64,
	baseFee *big.Int,
	hardfork params.Hardfork,
) (*preflightResult, error) {
	// 1. paused
	if state.IsPaused {
		return nil, engineerrors.New(engineerrors.KindPaused, "engine is paused")
	}

	// 2. decode envelope
	adapter := txenvelope.BackwardsCompatibilityAdapter{BugFixHeight: state.BugFixHeight}
	chainID := new(big.Int).SetUint64(state.ChainID)
	tx, err := txenvelope.Decode(txBytes, blockHeight, adapter, chainID)
	if err != nil {
		return nil, err
	}

	// 3. chain ID
	if tx.ChainID != nil && tx.ChainID.Cmp(chainID) != 0 {
		return nil, engineerrors.New(engineerrors.KindInvalidChainID, "transaction chain ID does not match engine chain ID")
	}

	// 3b. silo-mode admission: whitelists gate who may submit while silo
	// mode is active (spec §4.4.2).
	if silo.EvmAdminWhitelistOn && !IsWhitelisted(io, EvmAdminWhitelist, tx.From) {
		return nil, engineerrors.New(engineerrors.KindNotAllowed, "sender is not on the EVM-admin whitelist")
	}
	if silo.AccountAdminWhitelistOn && !IsWhitelisted(io, AccountAdminWhitelist, tx.From) {
		return nil, engineerrors.New(engineerrors.KindNotAllowed, "sender is not on the account-admin whitelist")
	}

	// 4. nonce
	storedNonce := db.GetNonce(tx.From)
	if tx.Nonce != storedNonce {
		return nil, engineerrors.New(engineerrors.KindIncorrectNonce, "transaction nonce does not match sender's stored nonce")
	}

	// 5. intrinsic gas
	var gas uint64
	if silo.FixedGasCost != nil {
		gas = *silo.FixedGasCost
	} else {
		gas, err = intrinsicGas(tx, true, true, isShanghaiOrLater(hardfork))
		if err != nil {
			return nil, err
		}
	}

	// 6. gas-limit and balance check
	if tx.GasLimit < gas {
		return nil, engineerrors.New(engineerrors.KindGasOverflow, "gas limit below intrinsic gas")
	}
	price := effectiveGasPrice(tx, baseFee)
	upfront, overflowed := checkedGasCost(tx.GasLimit, price)
	if overflowed {
		return nil, engineerrors.New(engineerrors.KindGasOverflow, "gas_limit * effective_gas_price overflowed")
	}
	required := new(uint256.Int).Set(upfront)
	if tx.Value != nil && tx.Value.Sign() != 0 {
		valueU256, overflow := uint256.FromBig(tx.Value)
		if overflow {
			return nil, engineerrors.New(engineerrors.KindGasOverflow, "transaction value overflows 256 bits")
		}
		required.Add(required, valueU256)
	}
	if db.GetBalance(tx.From).Cmp(required) < 0 {
		return nil, engineerrors.New(engineerrors.KindGasPayment, "sender balance insufficient for gas and value")
	}

	// 7. up-front charge and nonce increment
	db.SubBalance(tx.From, upfront, tracing.BalanceChangeUnspecified)
	db.SetNonce(tx.From, tx.Nonce+1, tracing.NonceChangeEoACall)

	return &preflightResult{
		tx:                tx,
		sender:            tx.From,
		intrinsicGas:      gas,
		effectiveGasPrice: price,
		upfrontCharge:     upfront,
	}, nil
}

// checkedGasCost computes gasLimit*price as a uint256, reporting overflow.
func checkedGasCost(gasLimit uint64, price *big.Int) (*uint256.Int, bool) {
	priceU256, overflow := uint256.FromBig(price)
	if overflow {
		return nil, true
	}
	limit := new(uint256.Int).SetUint64(gasLimit)
	cost, overflowed := new(uint256.Int).MulOverflow(limit, priceU256)
	return cost, overflowed
}
