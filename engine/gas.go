package engine

import (
	"github.com/ethereum/go-ethereum/core"

	engineerrors "github.com/aurora-is-near/engine-go/errors"
	"github.com/aurora-is-near/engine-go/txenvelope"
)

// intrinsicGas delegates the per-opcode-independent gas floor calculation
// to go-ethereum's own core.IntrinsicGas (spec §4.4.3's EvmHandler
// non-goal: "any conformant interpreter may be plugged in"), matching the
// call shape of zeta-chain-evm/x/vm/types/msg.go's ValidateBasic.
func intrinsicGas(tx *txenvelope.Transaction, isHomestead, isEIP2028, isEIP3860 bool) (uint64, error) {
	raw := tx.Raw()
	gas, err := core.IntrinsicGas(raw.Data(), raw.AccessList(), raw.SetCodeAuthorizations(), tx.To == nil, isHomestead, isEIP2028, isEIP3860)
	if err != nil {
		return 0, engineerrors.Wrap(engineerrors.KindGasOverflow, err, "intrinsic gas overflow")
	}
	return gas, nil
}

// gasToRefund caps a transaction's accumulated SSTORE refund to
// usedGas/quotient, the EIP-3529-aware replacement for go-ethereum's own
// unexported GasToRefund helper.
func gasToRefund(accumulatedRefund, usedGas, quotient uint64) uint64 {
	if quotient == 0 {
		return 0
	}
	refund := usedGas / quotient
	if refund > accumulatedRefund {
		return accumulatedRefund
	}
	return refund
}
