package storage

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// EncodeU256 renders a 256-bit value as the raw big-endian 32-byte word
// format spec §6 mandates for Balance and Storage slot values.
func EncodeU256(v *uint256.Int) []byte {
	var out [32]byte
	if v != nil {
		v.WriteToSlice(out[:])
	}
	return out[:]
}

// DecodeU256 parses a raw big-endian 32-byte word, treating a missing
// (empty) value as zero. A value shorter than 32 bytes is read as a
// big-endian number.
func DecodeU256(b []byte) *uint256.Int {
	v := new(uint256.Int)
	if len(b) == 0 {
		return v
	}
	v.SetBytes(b)
	return v
}

// EncodeNonce renders a 256-bit nonce counter the same way as any other
// 256-bit storage word.
func EncodeNonce(v *uint256.Int) []byte { return EncodeU256(v) }

// DecodeNonce parses a 256-bit nonce counter.
func DecodeNonce(b []byte) *uint256.Int { return DecodeU256(b) }

// EncodeGeneration renders the 32-bit generation counter little-endian.
func EncodeGeneration(gen uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, gen)
	return out
}

// DecodeGeneration parses the 32-bit generation counter, treating a
// missing value as generation 0 (no prior reset).
func DecodeGeneration(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}
