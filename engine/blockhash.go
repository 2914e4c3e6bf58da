package engine

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/aurora-is-near/engine-go/primitives"
)

// blockHash computes block_hash(height) = keccak256(0x00 || chain_id ||
// account_id || height_be_u64), per spec §3's block-hash derivation used
// by the BLOCKHASH opcode's GetHashFunc.
func blockHash(chainID uint64, accountID string, height uint64) primitives.Hash {
	buf := make([]byte, 0, 1+8+len(accountID)+8)
	buf = append(buf, 0x00)
	var chainIDBytes [8]byte
	binary.BigEndian.PutUint64(chainIDBytes[:], chainID)
	buf = append(buf, chainIDBytes[:]...)
	buf = append(buf, []byte(accountID)...)
	var heightBytes [8]byte
	binary.BigEndian.PutUint64(heightBytes[:], height)
	buf = append(buf, heightBytes[:]...)
	return crypto.Keccak256Hash(buf)
}
