// Package errors implements the engine's error taxonomy (spec §7): every
// fault the engine can raise is tagged with a stable wire sentinel
// ("ERR_...") so the host can surface a byte slice as the failure reason,
// while internally errors remain normal wrapped Go errors for logging.
package errors

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
)

// Kind classifies an engine error along the taxonomy of spec §7.
type Kind int

const (
	KindUnknown Kind = iota
	KindPaused
	KindInvalidChainID
	KindIncorrectNonce
	KindGasOverflow
	KindGasPayment
	KindMaxPriorityFeeTooLarge
	KindEvmError
	KindEvmFatal
	KindParseTransaction
	KindEcRecover
	KindSerialize
	KindBorshDeserialize
	KindNotAllowed
	KindKeyManagerNotSet
	KindStateMissing
	KindReservedSentinel
	KindUnknownTransactionType
)

// sentinel is the wire byte-tag for a Kind, matching the ERR_... naming
// convention from spec §7.
var sentinel = map[Kind]string{
	KindUnknown:                "ERR_UNKNOWN",
	KindPaused:                 "ERR_PAUSED",
	KindInvalidChainID:         "ERR_INVALID_CHAIN_ID",
	KindIncorrectNonce:         "ERR_INCORRECT_NONCE",
	KindGasOverflow:            "ERR_GAS_OVERFLOW",
	KindGasPayment:             "ERR_OUT_OF_FUND",
	KindMaxPriorityFeeTooLarge: "ERR_MAX_PRIORITY_FEE_TOO_LARGE",
	KindEvmError:               "ERR_EVM",
	KindEvmFatal:               "ERR_EVM_FATAL",
	KindParseTransaction:       "ERR_PARSE_TX",
	KindEcRecover:              "ERR_EC_RECOVER",
	KindSerialize:              "ERR_SERIALIZE",
	KindBorshDeserialize:       "ERR_BORSH_DESERIALIZE",
	KindNotAllowed:             "ERR_NOT_ALLOWED",
	KindKeyManagerNotSet:       "ERR_KEY_MANAGER_NOT_SET",
	KindStateMissing:           "ERR_STATE_MISSING",
	KindReservedSentinel:       "ERR_RESERVED_SENTINEL",
	KindUnknownTransactionType: "ERR_UNKNOWN_TRANSACTION_TYPE",
}

// Error is an engine fault carrying a Kind and an optional wrapped cause.
// It implements error and AsRef<[u8]>-equivalent byte rendering via Bytes().
type Error struct {
	kind  Kind
	cause error
}

func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, cause: errorsmod.Wrap(fmt.Errorf("%s", msg), sentinel[kind])}
}

func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{kind: kind, cause: errorsmod.Wrapf(cause, "%s: %s", sentinel[kind], msg)}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return sentinel[e.kind]
}

func (e *Error) Unwrap() error { return e.cause }

// Kind reports the taxonomy classification of the error.
func (e *Error) Kind() Kind { return e.kind }

// Sentinel renders the error's wire-facing byte tag, the form the host
// surfaces as a panic/abort string (spec §6 "Error surface").
func (e *Error) Sentinel() string { return sentinel[e.kind] }

// Bytes renders the error as the byte slice the host writes as the failure
// reason. This is the AsRef<[u8]> equivalent named in spec §6.
func (e *Error) Bytes() []byte { return []byte(e.Sentinel()) }

// ChargesGas reports whether this error kind occurs after gas has already
// been charged to the sender, per spec §7's nonce-consumption policy:
// pre-flight failures never charge gas or consume the nonce; EVM-level
// reverts and fatals do.
func (e *Error) ChargesGas() bool {
	switch e.kind {
	case KindEvmError, KindEvmFatal:
		return true
	default:
		return false
	}
}
