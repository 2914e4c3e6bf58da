package statedb

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/aurora-is-near/engine-go/ioruntime"
	"github.com/aurora-is-near/engine-go/primitives"
	"github.com/aurora-is-near/engine-go/storage"
)

// EmptyCodeHash is keccak256 of the empty byte string, the code hash of
// every externally-owned account.
var EmptyCodeHash = crypto.Keccak256Hash(nil)

// Account is the persisted aggregate described in spec §3: nonce, balance,
// code, and the storage generation counter. It does not carry the storage
// map itself, since storage is scoped by generation and read on demand.
type Account struct {
	Nonce      uint64
	Balance    uint256.Int
	CodeHash   primitives.Hash
	Generation uint32
}

// loadAccount reads an account's four physical entries from io, returning
// the zero-value Account (nonce 0, balance 0, empty code hash, generation
// 0) for an address that has never been touched.
func loadAccount(io ioruntime.IO, addr primitives.Address) Account {
	acct := Account{CodeHash: EmptyCodeHash}

	if v, ok := io.ReadStorage(storage.NonceKey(addr)); ok {
		n := storage.DecodeNonce(ioruntime.ToBytes(v))
		acct.Nonce = n.Uint64()
	}
	if v, ok := io.ReadStorage(storage.BalanceKey(addr)); ok {
		acct.Balance = *storage.DecodeU256(ioruntime.ToBytes(v))
	}
	if v, ok := io.ReadStorage(storage.CodeHashKey(addr)); ok {
		copy(acct.CodeHash[:], ioruntime.ToBytes(v))
	}
	if v, ok := io.ReadStorage(storage.GenerationKey(addr)); ok {
		acct.Generation = storage.DecodeGeneration(ioruntime.ToBytes(v))
	}
	return acct
}

// storeAccount writes an account's four physical entries back to io.
func storeAccount(io ioruntime.IO, addr primitives.Address, acct Account) {
	nonce := new(uint256.Int).SetUint64(acct.Nonce)
	io.WriteStorage(storage.NonceKey(addr), storage.EncodeNonce(nonce))
	io.WriteStorage(storage.BalanceKey(addr), storage.EncodeU256(&acct.Balance))
	io.WriteStorage(storage.CodeHashKey(addr), acct.CodeHash.Bytes())
	io.WriteStorage(storage.GenerationKey(addr), storage.EncodeGeneration(acct.Generation))
}

// loadCode reads an account's code bytes.
func loadCode(io ioruntime.IO, addr primitives.Address) []byte {
	v, ok := io.ReadStorage(storage.CodeKey(addr))
	if !ok {
		return nil
	}
	return ioruntime.ToBytes(v)
}

// storeCode writes an account's code bytes and updates its code hash.
func storeCode(io ioruntime.IO, addr primitives.Address, code []byte) primitives.Hash {
	if len(code) == 0 {
		io.RemoveStorage(storage.CodeKey(addr))
		return EmptyCodeHash
	}
	io.WriteStorage(storage.CodeKey(addr), code)
	return crypto.Keccak256Hash(code)
}

// resetAccountStorage logically wipes an account's storage in O(1) by
// incrementing its generation counter (spec §4.1/§3): "Removing an account
// ... sets generation := generation + 1; all prior per-key storage becomes
// logically unreachable but physically dormant."
func resetAccountStorage(io ioruntime.IO, addr primitives.Address, currentGeneration uint32) uint32 {
	next := currentGeneration + 1
	io.WriteStorage(storage.GenerationKey(addr), storage.EncodeGeneration(next))
	return next
}

// readSlot reads a single storage slot, scoped by the account's current
// generation: it builds the key form for that generation (54 bytes at
// generation 0, 58 bytes otherwise) and reads only that key. Accepting
// either key length is storage.DecodeStorageKey's job, not this function's.
func readSlot(io ioruntime.IO, addr primitives.Address, generation uint32, slot primitives.Hash) primitives.Hash {
	key := storage.StorageKey(addr, generation, slot)
	v, ok := io.ReadStorage(key)
	if !ok {
		return primitives.Hash{}
	}
	var out primitives.Hash
	copy(out[:], ioruntime.ToBytes(v))
	return out
}

// writeSlot writes a single storage slot scoped by the account's current
// generation. A zero value removes the key rather than storing 32 zero
// bytes, keeping the store's logical-delete behavior consistent with a
// freshly reset generation reading back as zero.
func writeSlot(io ioruntime.IO, addr primitives.Address, generation uint32, slot, value primitives.Hash) {
	key := storage.StorageKey(addr, generation, slot)
	if value == (primitives.Hash{}) {
		io.RemoveStorage(key)
		return
	}
	io.WriteStorage(key, value.Bytes())
}
