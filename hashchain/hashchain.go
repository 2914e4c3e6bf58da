package hashchain

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	borsh "github.com/near/borsh-go"
)

// wireState is the borsh-encoded on-disk representation of a Hashchain
// (spec §4.6, §9 "Global state... a single borsh blob").
type wireState struct {
	ChainID             [32]byte
	AccountID           string
	CurrentBlockHeight  uint64
	PreviousHashchain   [32]byte
	Txs                 [][32]byte
	Bloom               [BloomSize]byte
}

// Hashchain is the per-block transaction accumulator described in spec §3
// and §4.6: {chain_id, account_id, block_height, previous_hashchain,
// current_txs, bloom}.
type Hashchain struct {
	chainID            [32]byte
	accountID          string
	currentBlockHeight uint64
	previousHashchain  [32]byte
	txs                [][32]byte
	bloom              Bloom
}

// Builder constructs a Hashchain with the HashchainBuilder field-by-field
// defaulting pattern used by the original source's tests.
type Builder struct {
	h Hashchain
}

// NewBuilder returns a Builder with zero-valued defaults.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) WithChainID(id [32]byte) *Builder { b.h.chainID = id; return b }

// WithU64ChainID sets the chain ID from a big-endian-padded u64, matching
// the original source's `with_u64_chain_id` convenience constructor.
func (b *Builder) WithU64ChainID(id uint64) *Builder {
	var buf [32]byte
	binary.BigEndian.PutUint64(buf[24:], id)
	b.h.chainID = buf
	return b
}

func (b *Builder) WithAccountID(id string) *Builder { b.h.accountID = id; return b }

func (b *Builder) WithCurrentBlockHeight(h uint64) *Builder {
	b.h.currentBlockHeight = h
	return b
}

func (b *Builder) WithPreviousHashchain(h [32]byte) *Builder {
	b.h.previousHashchain = h
	return b
}

// Build finalizes the Hashchain, initializing an empty tx list and bloom.
func (b *Builder) Build() *Hashchain {
	h := b.h
	h.txs = nil
	return &h
}

// IsEmpty reports whether the current block has no accumulated txs.
func (h *Hashchain) IsEmpty() bool { return len(h.txs) == 0 }

// GetLogsBloom returns the current block's accumulated bloom filter.
func (h *Hashchain) GetLogsBloom() *Bloom { return &h.bloom }

// GetCurrentBlockHeight returns the height the hashchain is currently
// accumulating transactions for.
func (h *Hashchain) GetCurrentBlockHeight() uint64 { return h.currentBlockHeight }

// GetPreviousBlockHashchain returns the most recently finalized per-block
// hashchain value (hc_{h-1}).
func (h *Hashchain) GetPreviousBlockHashchain() [32]byte { return h.previousHashchain }

// AddBlockTx absorbs one executed transaction into the current block's
// accumulator (spec §4.6). It fails if height does not match the
// hashchain's current block height.
func (h *Hashchain) AddBlockTx(height uint64, methodName string, input, output []byte, bloom *Bloom) error {
	if height != h.currentBlockHeight {
		return fmt.Errorf("hashchain: add_block_tx at height %d, current height is %d", height, h.currentBlockHeight)
	}

	txHash := txHash(methodName, input, output)
	h.txs = append(h.txs, txHash)
	h.bloom.AccrueBloom(bloom)
	return nil
}

// txHash computes keccak256(len_be_u32(method) || method ||
// len_be_u32(input) || input || len_be_u32(output) || output), per spec
// §4.6.
func txHash(methodName string, input, output []byte) [32]byte {
	buf := make([]byte, 0, 12+len(methodName)+len(input)+len(output))
	buf = appendLenPrefixed(buf, []byte(methodName))
	buf = appendLenPrefixed(buf, input)
	buf = appendLenPrefixed(buf, output)

	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}

func appendLenPrefixed(buf, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, data...)
	return buf
}

// MoveToBlock advances the hashchain to newHeight, finalizing the current
// block's hashchain value and emitting an empty (zero tx hash, empty
// bloom) step for every height skipped in between (spec §4.6). Fails if
// newHeight is not strictly greater than the current height.
func (h *Hashchain) MoveToBlock(newHeight uint64) error {
	if newHeight <= h.currentBlockHeight {
		return fmt.Errorf("hashchain: move_to_block to height %d, current height is %d", newHeight, h.currentBlockHeight)
	}

	for height := h.currentBlockHeight; height < newHeight; height++ {
		h.previousHashchain = h.blockHashchain(height)
		h.txs = nil
		h.bloom = Bloom{}
	}
	h.currentBlockHeight = newHeight
	return nil
}

// blockHashchain computes hc_h = keccak256(chain_id || account_id ||
// height_be_u64 || hc_{h-1} || merkle_root(txs) || bloom).
func (h *Hashchain) blockHashchain(height uint64) [32]byte {
	root := MerkleRoot(h.txs)

	buf := make([]byte, 0, 32+len(h.accountID)+8+32+32+BloomSize)
	buf = append(buf, h.chainID[:]...)
	buf = append(buf, []byte(h.accountID)...)
	var heightBuf [8]byte
	binary.BigEndian.PutUint64(heightBuf[:], height)
	buf = append(buf, heightBuf[:]...)
	buf = append(buf, h.previousHashchain[:]...)
	buf = append(buf, root[:]...)
	buf = append(buf, h.bloom[:]...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}

// TrySerialize borsh-encodes the hashchain for persistence under the
// Hashchain storage key.
func (h *Hashchain) TrySerialize() ([]byte, error) {
	w := wireState{
		ChainID:            h.chainID,
		AccountID:          h.accountID,
		CurrentBlockHeight: h.currentBlockHeight,
		PreviousHashchain:  h.previousHashchain,
		Txs:                h.txs,
		Bloom:              h.bloom,
	}
	return borsh.Serialize(w)
}

// TryDeserialize decodes a borsh-encoded hashchain blob, the inverse of
// TrySerialize (spec §8 invariant: "borsh-equivalent round trip is
// required").
func TryDeserialize(data []byte) (*Hashchain, error) {
	var w wireState
	if err := borsh.Deserialize(&w, data); err != nil {
		return nil, fmt.Errorf("hashchain: deserialize: %w", err)
	}
	return &Hashchain{
		chainID:            w.ChainID,
		accountID:          w.AccountID,
		currentBlockHeight: w.CurrentBlockHeight,
		previousHashchain:  w.PreviousHashchain,
		txs:                w.Txs,
		bloom:              w.Bloom,
	}, nil
}
