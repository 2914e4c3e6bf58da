// Package txenvelope decodes and authenticates the four Ethereum
// transaction envelope shapes (Legacy, EIP-2930, EIP-1559, EIP-4844),
// normalizing them to the common shape described in spec §3/§4.2.
//
// Decoding of the envelope bytes and RLP fields themselves, and the
// secp256k1 signature recovery, are delegated to go-ethereum's
// core/types — the same non-goal spec.md §4.4.3 grants an EvmHandler is
// granted here to envelope decoding: only the backwards-compatibility
// adapter (Legacy zero-address `to`) and the 0x00-0x7f/0xff envelope
// discrimination error cases are engine-specific.
package txenvelope

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	engineerrors "github.com/aurora-is-near/engine-go/errors"
)

// Transaction is the normalized transaction shape of spec §3:
// {from, chain_id?, nonce, gas_limit, to?, value, data, access_list,
// max_priority_fee, max_fee}. `from` is always derived by signature
// recovery, never supplied directly.
type Transaction struct {
	From             common.Address
	ChainID          *big.Int // nil for pre-EIP-155 legacy
	Nonce            uint64
	GasLimit         uint64
	To               *common.Address // nil means contract creation
	Value            *big.Int
	Data             []byte
	AccessList       ethtypes.AccessList
	GasPrice         *big.Int // legacy/2930 effective price knob
	MaxPriorityFee   *big.Int // 1559/4844
	MaxFee           *big.Int // 1559/4844
	MaxFeePerBlobGas *big.Int // 4844 only (SPEC_FULL §5.4 supplement)
	BlobHashes       []common.Hash

	raw *ethtypes.Transaction
}

// Type returns the go-ethereum transaction type tag of the decoded
// envelope (LegacyTxType, AccessListTxType, DynamicFeeTxType, BlobTxType).
func (t *Transaction) Type() uint8 { return t.raw.Type() }

// Raw returns the underlying go-ethereum transaction, for components
// (engine, precompiles) that need to hand it to core.TransactionToMessage
// or similar go-ethereum machinery.
func (t *Transaction) Raw() *ethtypes.Transaction { return t.raw }

// BackwardsCompatibilityAdapter resolves the Legacy `to == zero address`
// ambiguity (spec §4.2): for Legacy envelopes only, a `to` RLP-decoded as
// the zero address is reinterpreted as contract creation (None) for block
// heights strictly less than bugFixHeight, preserving pre-fix determinism
// of historical replays (spec §9 open question 1 — not to be "fixed"
// silently).
type BackwardsCompatibilityAdapter struct {
	BugFixHeight uint64
}

func (a BackwardsCompatibilityAdapter) normalizeTo(txType uint8, to *common.Address, blockHeight uint64) *common.Address {
	if to == nil {
		return nil
	}
	if txType == ethtypes.LegacyTxType && *to == (common.Address{}) && blockHeight < a.BugFixHeight {
		return nil
	}
	return to
}

// Decode parses raw envelope bytes per EIP-2718 discrimination (spec §4.2):
// a leading byte 0x01/0x02/0x03 selects 2930/1559/4844; 0xff fails with
// KindReservedSentinel; any other byte below 0xc0 fails with
// KindUnknownTransactionType; otherwise (bytes >= 0xc0) it is decoded as a
// Legacy RLP list.
func Decode(data []byte, blockHeight uint64, adapter BackwardsCompatibilityAdapter, chainID *big.Int) (*Transaction, error) {
	if len(data) == 0 {
		return nil, engineerrors.New(engineerrors.KindParseTransaction, "empty transaction bytes")
	}

	lead := data[0]
	switch {
	case lead == 0xff:
		return nil, engineerrors.New(engineerrors.KindReservedSentinel, "0xff transaction type is reserved")
	case lead == ethtypes.AccessListTxType, lead == ethtypes.DynamicFeeTxType, lead == ethtypes.BlobTxType:
		// fall through to go-ethereum's typed envelope decode below
	case lead < 0xc0:
		return nil, engineerrors.New(engineerrors.KindUnknownTransactionType, "unknown transaction type")
	}

	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(data); err != nil {
		return nil, engineerrors.Wrap(engineerrors.KindParseTransaction, err, "failed to decode transaction envelope")
	}

	signer := ethtypes.LatestSignerForChainID(chainID)
	from, err := ethtypes.Sender(signer, tx)
	if err != nil {
		return nil, engineerrors.Wrap(engineerrors.KindEcRecover, err, "failed to recover sender")
	}

	to := adapter.normalizeTo(tx.Type(), tx.To(), blockHeight)

	norm := &Transaction{
		From:       from,
		ChainID:    chainIDOrNil(tx),
		Nonce:      tx.Nonce(),
		GasLimit:   tx.Gas(),
		To:         to,
		Value:      tx.Value(),
		Data:       tx.Data(),
		AccessList: tx.AccessList(),
		GasPrice:   tx.GasPrice(),
		raw:        tx,
	}

	if tx.Type() != ethtypes.LegacyTxType {
		norm.MaxPriorityFee = tx.GasTipCap()
		norm.MaxFee = tx.GasFeeCap()
	}
	if tx.Type() == ethtypes.BlobTxType {
		norm.MaxFeePerBlobGas = tx.BlobGasFeeCap()
		norm.BlobHashes = tx.BlobHashes()
	}

	return norm, nil
}

func chainIDOrNil(tx *ethtypes.Transaction) *big.Int {
	if tx.Type() == ethtypes.LegacyTxType && !tx.Protected() {
		return nil
	}
	return tx.ChainId()
}
