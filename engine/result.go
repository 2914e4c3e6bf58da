package engine

import (
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/aurora-is-near/engine-go/accounting"
	"github.com/aurora-is-near/engine-go/hashchain"
)

// StatusKind classifies how an executed transaction finished, per spec
// §4.4.4's finalization outcomes.
type StatusKind int

const (
	StatusSucceed StatusKind = iota
	StatusRevert
	StatusOutOfGas
	StatusOutOfFund
	StatusOutOfOffset
	StatusCallTooDeep
	StatusError
)

// Status is the tagged outcome of one EVM dispatch: Succeed/Revert carry
// the returned bytes, the gas-exhaustion variants carry nothing, and
// Error carries the wrapped engine error.
type Status struct {
	Kind   StatusKind
	Output []byte
	Err    error
}

// SubmitResult is the per-transaction outcome spec §4.4.1 names: {status,
// gas_used, logs, contract_address?}. NearGasUsed is left nil outside the
// NEAR-host binding (spec §1: host-specific gas conversion is an external
// collaborator's concern).
type SubmitResult struct {
	Status          Status
	GasUsed         uint64
	Logs            []*ethtypes.Log
	ContractAddress []byte // set for a contract creation that succeeded or reverted; nil otherwise
	NearGasUsed     *uint64
	NetChange       accounting.Net
}

// Bloom computes the logs bloom filter contribution of this result's logs,
// the per-transaction value the engine absorbs into the block hashchain
// (spec §4.5/§4.6).
func (r *SubmitResult) Bloom() hashchain.Bloom {
	logs := make([]hashchain.ResultLog, 0, len(r.Logs))
	for _, log := range r.Logs {
		topics := make([][32]byte, 0, len(log.Topics))
		for _, t := range log.Topics {
			topics = append(topics, t)
		}
		logs = append(logs, hashchain.ResultLog{Address: log.Address, Topics: topics})
	}
	return hashchain.LogsBloom(logs)
}
