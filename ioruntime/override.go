package ioruntime

import (
	"github.com/aurora-is-near/engine-go/primitives"
	"github.com/aurora-is-near/engine-go/storage"
)

// SlotOverride maps an (address, slot) pair to a replacement 256-bit value,
// injected for eth_call's full-storage-replacement overrides (spec §4.3
// "Storage override IO", §4.7 step 3).
type SlotOverride map[primitives.Address]map[primitives.Hash][]byte

// Override wraps an inner IO and is used only by the eth_call simulation
// path (spec §4.3). On ReadStorage with a key that decodes as a V1/Storage
// key, it looks up (address, slot) in the injected override map; if
// present, it returns the overridden value, otherwise it falls through to
// the inner IO. Writes always go through to the inner store, since the
// simulation's inner store is itself a disposable transactional clone
// (spec §4.7 step 5).
type Override struct {
	inner    IO
	override SlotOverride
}

// NewOverride wraps inner with a storage override map.
func NewOverride(inner IO, override SlotOverride) *Override {
	return &Override{inner: inner, override: override}
}

func (o *Override) ReadInput() StorageValue { return o.inner.ReadInput() }

func (o *Override) ReturnOutput(value []byte) { o.inner.ReturnOutput(value) }

func (o *Override) ReadStorage(key []byte) (StorageValue, bool) {
	if dec, ok := storage.DecodeStorageKey(key); ok {
		if slots, ok := o.override[dec.Address]; ok {
			if v, ok := slots[dec.Slot]; ok {
				return WrapBytes(v), true
			}
		}
	}
	v, ok := o.inner.ReadStorage(key)
	if !ok {
		return nil, false
	}
	return WrapInner(v), true
}

func (o *Override) StorageHasKey(key []byte) bool {
	if dec, ok := storage.DecodeStorageKey(key); ok {
		if slots, ok := o.override[dec.Address]; ok {
			if _, ok := slots[dec.Slot]; ok {
				return true
			}
		}
	}
	return o.inner.StorageHasKey(key)
}

func (o *Override) WriteStorage(key []byte, value []byte) (StorageValue, bool) {
	prev, ok := o.inner.WriteStorage(key, value)
	if !ok {
		return nil, false
	}
	return WrapInner(prev), true
}

func (o *Override) WriteStorageDirect(key []byte, value StorageValue) (StorageValue, bool) {
	return o.WriteStorage(key, ToBytes(value))
}

func (o *Override) RemoveStorage(key []byte) (StorageValue, bool) {
	prev, ok := o.inner.RemoveStorage(key)
	if !ok {
		return nil, false
	}
	return WrapInner(prev), true
}
