package ioruntime

// WrappedValue is the tagged union every overlay widens StorageValue into
// (spec §4.3 "Wrapped-value enum" / §9 "value enums that widen over
// overlays"): either a value materialized as owned bytes (cache- or
// override-sourced) or a value delegated straight through to the inner
// IO's native StorageValue, so overlay-sourced values never force an
// eager copy of the underlying store's representation.
type WrappedValue struct {
	bytes []byte
	inner StorageValue
}

// WrapBytes tags an owned byte buffer as a WrappedValue.
func WrapBytes(b []byte) WrappedValue { return WrappedValue{bytes: b} }

// WrapInner tags an inner IO's native StorageValue as a WrappedValue.
func WrapInner(v StorageValue) WrappedValue { return WrappedValue{inner: v} }

func (w WrappedValue) Len() int {
	if w.inner != nil {
		return w.inner.Len()
	}
	return len(w.bytes)
}

func (w WrappedValue) IsEmpty() bool {
	if w.inner != nil {
		return w.inner.IsEmpty()
	}
	return len(w.bytes) == 0
}

func (w WrappedValue) CopyToSlice(buf []byte) {
	if w.inner != nil {
		w.inner.CopyToSlice(buf)
		return
	}
	copy(buf, w.bytes)
}

// IOCache records the first ReadInput and the last ReturnOutput observed by
// a Cached overlay, for later absorption into the hashchain (spec §4.6
// add_block_tx takes (method_name, input, output)).
type IOCache struct {
	Input  []byte
	Output []byte
}

// Cached wraps an inner IO, passing storage operations straight through
// while caching the input read and output written (spec §4.3 "Cached IO").
// Grounded on original_source engine-hashchain/src/wrapped_io.rs's
// CachedIO/WrappedInput.
type Cached struct {
	inner IO
	cache *IOCache
}

// NewCached wraps inner, recording reads/writes into cache.
func NewCached(inner IO, cache *IOCache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) ReadInput() StorageValue {
	input := ToBytes(c.inner.ReadInput())
	c.cache.Input = append([]byte(nil), input...)
	return WrapBytes(input)
}

func (c *Cached) ReturnOutput(value []byte) {
	c.cache.Output = append([]byte(nil), value...)
	c.inner.ReturnOutput(value)
}

func (c *Cached) ReadStorage(key []byte) (StorageValue, bool) {
	v, ok := c.inner.ReadStorage(key)
	if !ok {
		return nil, false
	}
	return WrapInner(v), true
}

func (c *Cached) StorageHasKey(key []byte) bool { return c.inner.StorageHasKey(key) }

func (c *Cached) WriteStorage(key []byte, value []byte) (StorageValue, bool) {
	prev, ok := c.inner.WriteStorage(key, value)
	if !ok {
		return nil, false
	}
	return WrapInner(prev), true
}

func (c *Cached) WriteStorageDirect(key []byte, value StorageValue) (StorageValue, bool) {
	if wv, ok := value.(WrappedValue); ok && wv.inner != nil {
		prev, existed := c.inner.WriteStorageDirect(key, wv.inner)
		if !existed {
			return nil, false
		}
		return WrapInner(prev), true
	}
	return c.WriteStorage(key, ToBytes(value))
}

func (c *Cached) RemoveStorage(key []byte) (StorageValue, bool) {
	prev, ok := c.inner.RemoveStorage(key)
	if !ok {
		return nil, false
	}
	return WrapInner(prev), true
}
