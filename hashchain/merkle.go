package hashchain

import "github.com/ethereum/go-ethereum/crypto"

// MerkleRoot computes a standard binary keccak merkle root with
// duplicate-last-leaf padding (spec §4.6/§8 invariant 8):
// MerkleRoot([]) == 32 zero bytes; MerkleRoot([h]) == h;
// MerkleRoot([a,b,c]) == keccak(keccak(a||b)||keccak(c||c)).
func MerkleRoot(leaves [][32]byte) [32]byte {
	if len(leaves) == 0 {
		return [32]byte{}
	}
	level := make([][32]byte, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, hashPair(left, right))
		}
		level = next
	}
	return level[0]
}

func hashPair(a, b [32]byte) [32]byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}
