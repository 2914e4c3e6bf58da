// Package hashchain implements the per-block transaction accumulator and
// 2048-bit logs bloom filter (spec §4.5/§4.6), grounded directly on
// original_source/engine-hashchain/src/{bloom.rs,wrapped_io.rs,tests.rs}.
package hashchain

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// BloomSize is the byte length of the bloom filter (2048 bits).
const BloomSize = 256

// BloomBits is the number of hash-derived indices accrued per input.
const BloomBits = 3

// Bloom is a 2048-bit filter over log addresses and topics (spec §4.5).
// The bit-indexing convention below is part of the wire contract: it must
// match byte-for-byte, not merely bit-for-bit, with any interoperating
// replay client.
type Bloom [BloomSize]byte

// log2Ceil mirrors the original source's `log2` helper: returns
// bits_needed(x) = usize::BITS - leading_zeros(x), 0 for x <= 1.
func log2Ceil(x int) uint {
	if x <= 1 {
		return 0
	}
	bits := 0
	for x > 0 {
		x >>= 1
		bits++
	}
	return uint(bits)
}

// Accrue folds input into the bloom filter: BLOOM_BITS indices are derived
// from keccak256(input), each index built from ceil(log2(2048)/8) = 2
// bytes of the hash masked to 11 bits, and the corresponding bit is set
// reading bytes in reverse from the end of the filter:
// bloom[last - index/8] |= 1 << (index % 8).
func (b *Bloom) Accrue(input []byte) {
	const bloomBitsTotal = BloomSize * 8
	mask := bloomBitsTotal - 1
	bloomBytes := int((log2Ceil(bloomBitsTotal) + 7) / 8)

	hash := crypto.Keccak256(input)
	ptr := 0
	for i := 0; i < BloomBits; i++ {
		index := 0
		for j := 0; j < bloomBytes; j++ {
			index = (index << 8) | int(hash[ptr])
			ptr++
		}
		index &= mask
		b[BloomSize-1-index/8] |= 1 << uint(index%8)
	}
}

// AccrueBloom ORs other into b, merging two bloom filters.
func (b *Bloom) AccrueBloom(other *Bloom) {
	for i := 0; i < BloomSize; i++ {
		b[i] |= other[i]
	}
}

// Bytes returns the filter's raw 256-byte representation.
func (b *Bloom) Bytes() []byte { return b[:] }

// ResultLog is the minimal shape hashchain needs from an executed log:
// address plus topics, matching the fields bloom accrual reads (spec §4.5
// step 1: "keccak256(input) for input in {log.address} ∪ log.topics").
type ResultLog struct {
	Address [20]byte
	Topics  [][32]byte
}

// LogBloom computes the bloom filter contribution of a single log.
func LogBloom(log ResultLog) Bloom {
	var bloom Bloom
	bloom.Accrue(log.Address[:])
	for _, topic := range log.Topics {
		bloom.Accrue(topic[:])
	}
	return bloom
}

// LogsBloom computes the OR-merged bloom filter over a set of logs,
// i.e. the block (or transaction) bloom.
func LogsBloom(logs []ResultLog) Bloom {
	var bloom Bloom
	for _, log := range logs {
		lb := LogBloom(log)
		bloom.AccrueBloom(&lb)
	}
	return bloom
}
