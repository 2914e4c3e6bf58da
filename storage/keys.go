// Package storage implements the versioned byte-key schema (spec §4.1)
// that maps EVM account components onto a flat host key-value store,
// including the generation mechanism that makes logical account deletion
// an O(1) counter bump instead of an iterate-and-delete over every slot.
package storage

import (
	"encoding/binary"

	"github.com/aurora-is-near/engine-go/primitives"
)

// Version is the one-byte key-format version prefix. The schema described
// here is V1; readers are not required to understand any other version.
const Version byte = 0x07

// Kind is the one-byte discriminator following the version prefix.
type Kind byte

const (
	KindConfig       Kind = 0x00
	KindNonce        Kind = 0x01
	KindBalance      Kind = 0x02
	KindCode         Kind = 0x03
	KindStorage      Kind = 0x04
	KindRelayerMap   Kind = 0x05
	KindEthConnector Kind = 0x06
	KindGeneration   Kind = 0x07
	KindNep141ToErc20 Kind = 0x08
	KindErc20ToNep141 Kind = 0x09
	KindXCC          Kind = 0x0a
	KindRelayerFn    Kind = 0x0b
	KindHashchain    Kind = 0x0c
	KindSilo         Kind = 0x0d
	KindWhitelist    Kind = 0x0e
	KindCodeHash     Kind = 0x0f
)

// accountKey builds the 22-byte per-account single-slot key
// [version, kind, addr20].
func accountKey(kind Kind, addr primitives.Address) []byte {
	key := make([]byte, 0, 22)
	key = append(key, Version, byte(kind))
	key = append(key, addr.Bytes()...)
	return key
}

// NonceKey, BalanceKey, CodeKey, GenerationKey, and CodeHashKey are the
// per-account single-slot keys (spec §4.1).
func NonceKey(addr primitives.Address) []byte      { return accountKey(KindNonce, addr) }
func BalanceKey(addr primitives.Address) []byte     { return accountKey(KindBalance, addr) }
func CodeKey(addr primitives.Address) []byte        { return accountKey(KindCode, addr) }
func GenerationKey(addr primitives.Address) []byte  { return accountKey(KindGeneration, addr) }
func CodeHashKey(addr primitives.Address) []byte    { return accountKey(KindCodeHash, addr) }

// ConfigKey builds a Config-kind key for a named configuration slot, e.g.
// ConfigKey("STATE") for the borsh-encoded EngineState blob (spec §4.4.1).
func ConfigKey(name string) []byte {
	key := make([]byte, 0, 2+len(name))
	key = append(key, Version, byte(KindConfig))
	key = append(key, name...)
	return key
}

// HashchainKey builds the key for the per-block hashchain accumulator blob.
func HashchainKey() []byte {
	return []byte{Version, byte(KindHashchain)}
}

// SiloKey builds the key for the silo-mode configuration blob.
func SiloKey() []byte {
	return []byte{Version, byte(KindSilo)}
}

// WhitelistKey builds an admission-whitelist membership key for addr under
// the given whitelist kind byte (EVM-admin vs account-admin use distinct
// sub-kinds encoded by the caller in name).
func WhitelistKey(name string, addr primitives.Address) []byte {
	key := make([]byte, 0, 2+len(name)+20)
	key = append(key, Version, byte(KindWhitelist))
	key = append(key, name...)
	key = append(key, addr.Bytes()...)
	return key
}

// RelayerMapKey, EthConnectorKey, Nep141ToErc20Key, Erc20ToNep141Key, and
// XCCKey/RelayerFnKey round out the key builders named by spec §4.1. They
// are not exercised by any operation in this repo (the NEP-141 bridge
// connector and XCC router are out-of-scope external collaborators, spec
// §1) but are kept so the byte layout stays forward-compatible with them.
func RelayerMapKey(addr primitives.Address) []byte   { return accountKey(KindRelayerMap, addr) }
func EthConnectorKey(name string) []byte {
	key := make([]byte, 0, 2+len(name))
	key = append(key, Version, byte(KindEthConnector))
	key = append(key, name...)
	return key
}
func Nep141ToErc20Key(nep141 string) []byte {
	key := make([]byte, 0, 2+len(nep141))
	key = append(key, Version, byte(KindNep141ToErc20))
	key = append(key, nep141...)
	return key
}
func Erc20ToNep141Key(erc20 primitives.Address) []byte { return accountKey(KindErc20ToNep141, erc20) }
func XCCKey(addr primitives.Address) []byte            { return accountKey(KindXCC, addr) }
func RelayerFnKey(name string) []byte {
	key := make([]byte, 0, 2+len(name))
	key = append(key, Version, byte(KindRelayerFn))
	key = append(key, name...)
	return key
}

// StorageKeyNormal builds the 54-byte generation-0 per-slot storage key
// [version, Storage, addr20, key32].
func StorageKeyNormal(addr primitives.Address, slot primitives.Hash) []byte {
	key := make([]byte, 0, 54)
	key = append(key, Version, byte(KindStorage))
	key = append(key, addr.Bytes()...)
	key = append(key, slot.Bytes()...)
	return key
}

// StorageKeyGeneration builds the 58-byte per-slot storage key
// [version, Storage, addr20, gen_le_u32, key32] used once an account's
// generation counter is non-zero.
func StorageKeyGeneration(addr primitives.Address, generation uint32, slot primitives.Hash) []byte {
	key := make([]byte, 0, 58)
	key = append(key, Version, byte(KindStorage))
	key = append(key, addr.Bytes()...)
	genBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(genBytes, generation)
	key = append(key, genBytes...)
	key = append(key, slot.Bytes()...)
	return key
}

// StorageKey builds the correct-length storage key for the account's
// current generation: the 54-byte normal form at generation 0, the 58-byte
// generation form otherwise. Writers MUST use this form (spec §4.1);
// readers must still accept both lengths (see DecodeStorageKey).
func StorageKey(addr primitives.Address, generation uint32, slot primitives.Hash) []byte {
	if generation == 0 {
		return StorageKeyNormal(addr, slot)
	}
	return StorageKeyGeneration(addr, generation, slot)
}

// DecodedStorageKey is a parsed per-slot storage key of either length.
type DecodedStorageKey struct {
	Address    primitives.Address
	Generation uint32
	Slot       primitives.Hash
}

// DecodeStorageKey accepts both the 54-byte normal form and the 58-byte
// generation form, as required by spec §4.1 ("Readers MUST accept both
// lengths").
func DecodeStorageKey(key []byte) (DecodedStorageKey, bool) {
	if len(key) < 2 || key[0] != Version || Kind(key[1]) != KindStorage {
		return DecodedStorageKey{}, false
	}
	body := key[2:]
	switch len(body) {
	case 52: // 20 (addr) + 32 (slot) = normal form
		var dec DecodedStorageKey
		dec.Address = primitives.Address(body[:20])
		dec.Slot = primitives.Hash(body[20:52])
		return dec, true
	case 56: // 20 (addr) + 4 (gen) + 32 (slot) = generation form
		var dec DecodedStorageKey
		dec.Address = primitives.Address(body[:20])
		dec.Generation = binary.LittleEndian.Uint32(body[20:24])
		dec.Slot = primitives.Hash(body[24:56])
		return dec, true
	default:
		return DecodedStorageKey{}, false
	}
}
