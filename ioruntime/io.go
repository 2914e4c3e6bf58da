// Package ioruntime implements the composable read/write views over host
// key-value storage described in spec §4.3: a base IO talking directly to
// the host, a cached IO that records the first input read and last output
// written for hashchain absorption, and an override IO used only by the
// eth_call simulation path (§4.7) to overlay an in-memory account/state
// override on top of the real store without copying it.
package ioruntime

// StorageValue is an opaque handle to a value already resident in storage.
// The interface exists so overlays can widen it (WrappedValue) without
// eagerly copying large values out of the host store.
type StorageValue interface {
	Len() int
	IsEmpty() bool
	CopyToSlice(buf []byte)
}

// bytesValue is the trivial StorageValue backed by an owned byte slice.
type bytesValue []byte

func (b bytesValue) Len() int                { return len(b) }
func (b bytesValue) IsEmpty() bool           { return len(b) == 0 }
func (b bytesValue) CopyToSlice(buf []byte)  { copy(buf, b) }

// BytesValue wraps a byte slice as a StorageValue.
func BytesValue(b []byte) StorageValue { return bytesValue(b) }

// ToBytes materializes any StorageValue into an owned byte slice.
func ToBytes(v StorageValue) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, v.Len())
	v.CopyToSlice(buf)
	return buf
}

// IO is the capability set every overlay implements (spec §4.3/§9): a
// single interface rather than trait-object polymorphism, with the outer
// engine boundary free to hold it as a plain interface value (the
// "dyn-style single vtable... acceptable at the outer engine boundary"
// design note).
type IO interface {
	// ReadInput returns the raw transaction/call input bytes.
	ReadInput() StorageValue
	// ReturnOutput records the bytes to be returned to the host as the
	// result of the current invocation.
	ReturnOutput(value []byte)
	// ReadStorage looks up key, returning (nil, false) if absent.
	ReadStorage(key []byte) (StorageValue, bool)
	// StorageHasKey reports whether key is present without reading it.
	StorageHasKey(key []byte) bool
	// WriteStorage sets key to value, returning the previous value if any.
	WriteStorage(key []byte, value []byte) (StorageValue, bool)
	// WriteStorageDirect sets key to an already-resident StorageValue,
	// avoiding a copy when the value came from another IO's read.
	WriteStorageDirect(key []byte, value StorageValue) (StorageValue, bool)
	// RemoveStorage deletes key, returning the previous value if any.
	RemoveStorage(key []byte) (StorageValue, bool)
}
