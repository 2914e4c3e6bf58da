// Package precompiles wires the deterministic built-in contracts (spec
// §4.8): the Ethereum-standard precompiles (0x01-0x09, plus 0x0a point
// evaluation from Cancun on) are dispatched straight through go-ethereum's
// core/vm precompiled-contract table for the active rules, since their gas
// formulas and outputs must already be wire-compatible with a canonical
// Ethereum client (spec §1). The EIP-2537 BLS12-381 precompiles are not
// available: no hardfork this engine runs under (Istanbul through Cancun)
// puts them in go-ethereum's active table. Three host-specific
// precompiles reserved by the original source
// (engine-precompiles/src/*, engine-sdk/src/{bn128.rs,bls12_381/*}) are
// implemented here directly: predecessor-account, prepaid-gas, and
// promise-result, all of which read from an EnvContext supplied by the
// entry points rather than doing arithmetic of their own.
package precompiles

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"

	"github.com/aurora-is-near/engine-go/promise"
)

// Host-specific precompile addresses, reserved immediately after the
// standard Ethereum set (0x01-0x09) and the point-evaluation precompile
// (0x0a, EIP-4844) that go-ethereum itself registers.
var (
	PredecessorAccountAddress = common.BytesToAddress([]byte{0x0b})
	PrepaidGasAddress         = common.BytesToAddress([]byte{0x0c})
	PromiseResultAddress      = common.BytesToAddress([]byte{0x0d})
)

// EnvContext supplies the host-derived values the host-specific
// precompiles read, per spec §4.8's closing sentence ("Host-specific
// precompiles ... read from the environment").
type EnvContext struct {
	PredecessorAccountID string
	PrepaidGas           uint64
	Promises             promise.Handler
}

// ActiveTable returns the address -> contract map for hardfork rules,
// starting from go-ethereum's own active-precompile table (spec §4.8:
// "Addresses 0x01-0x09 implement Ethereum-standard precompiles with the
// yellow-paper gas formulas") and layering the three host-specific
// contracts on top.
func ActiveTable(rules params.Rules, env EnvContext) map[common.Address]vm.PrecompiledContract {
	table := vm.ActivePrecompiledContracts(rules)
	out := make(map[common.Address]vm.PrecompiledContract, len(table)+3)
	for addr, contract := range table {
		out[addr] = contract
	}
	out[PredecessorAccountAddress] = predecessorAccountContract{env: env}
	out[PrepaidGasAddress] = prepaidGasContract{env: env}
	out[PromiseResultAddress] = promiseResultContract{env: env}
	return out
}

const hostPrecompileGas uint64 = 0

type predecessorAccountContract struct{ env EnvContext }

func (predecessorAccountContract) RequiredGas([]byte) uint64 { return hostPrecompileGas }

func (c predecessorAccountContract) Run([]byte) ([]byte, error) {
	return []byte(c.env.PredecessorAccountID), nil
}

type prepaidGasContract struct{ env EnvContext }

func (prepaidGasContract) RequiredGas([]byte) uint64 { return hostPrecompileGas }

func (c prepaidGasContract) Run([]byte) ([]byte, error) {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[7-i] = byte(c.env.PrepaidGas >> (8 * i))
	}
	return out, nil
}

// promiseResultContract surfaces promise_results_count/promise_result(i)
// (spec §9) as a single precompile: input[0] == 0 returns the count as an
// 8-byte big-endian word, input[0] == 1 with a following 8-byte index
// returns that promise's recorded result, if any.
type promiseResultContract struct{ env EnvContext }

func (promiseResultContract) RequiredGas([]byte) uint64 { return hostPrecompileGas }

func (c promiseResultContract) Run(input []byte) ([]byte, error) {
	if c.env.Promises == nil || len(input) == 0 {
		return nil, nil
	}
	switch input[0] {
	case 0:
		out := make([]byte, 8)
		count := uint64(c.env.Promises.ResultsCount())
		for i := 0; i < 8; i++ {
			out[7-i] = byte(count >> (8 * i))
		}
		return out, nil
	case 1:
		if len(input) < 9 {
			return nil, nil
		}
		var idx uint64
		for i := 1; i < 9; i++ {
			idx = (idx << 8) | uint64(input[i])
		}
		result, ok := c.env.Promises.Result(int(idx))
		if !ok {
			return nil, nil
		}
		return result, nil
	default:
		return nil, nil
	}
}
