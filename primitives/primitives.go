// Package primitives defines the scalar types shared by every engine
// component: 20-byte addresses, 256-bit unsigned integers used as Wei
// amounts and storage values, and the zero/empty sentinels the storage
// schema and transaction envelope decoders rely on.
package primitives

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Address is a 20-byte account identifier.
type Address = common.Address

// Hash is a 32-byte word, used both as a storage slot key and a value.
type Hash = common.Hash

// Wei is a 256-bit unsigned integer denominating value and balances.
type Wei = uint256.Int

// ZeroAddress is the distinguished zero address. It only has special
// meaning during Legacy RLP `to` decoding (see txenvelope.BackwardsCompatibilityAdapter).
var ZeroAddress = common.Address{}

// NewWeiFromBig dereferences a *uint256.Int into a Wei value, returning
// zero for a nil pointer. It does no conversion and cannot fail.
func NewWeiFromBig(v *uint256.Int) Wei {
	if v == nil {
		return Wei{}
	}
	return *v
}

// IsZeroAddress reports whether addr is the all-zero address.
func IsZeroAddress(addr Address) bool {
	return addr == ZeroAddress
}
