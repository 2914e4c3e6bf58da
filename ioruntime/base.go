package ioruntime

// HostStore is the raw key-value capability a host runtime provides. It is
// the seam a production binding to an actual host process would implement;
// Base wraps it to satisfy the IO interface. Input/output are held
// separately from storage since a host invocation has exactly one input
// buffer and one output buffer regardless of how many storage operations
// it performs.
type HostStore interface {
	Get(key []byte) ([]byte, bool)
	Set(key []byte, value []byte) ([]byte, bool)
	Delete(key []byte) ([]byte, bool)
	Has(key []byte) bool
}

// Base is the direct, unwrapped IO talking to host storage (spec §4.3
// "Host base IO").
type Base struct {
	store  HostStore
	input  []byte
	output []byte
}

// NewBase constructs a Base IO over a host store with the given input
// buffer (the bytes the host handed to this invocation).
func NewBase(store HostStore, input []byte) *Base {
	return &Base{store: store, input: input}
}

func (b *Base) ReadInput() StorageValue { return bytesValue(b.input) }

func (b *Base) ReturnOutput(value []byte) {
	b.output = append([]byte(nil), value...)
}

// Output returns the bytes most recently passed to ReturnOutput.
func (b *Base) Output() []byte { return b.output }

func (b *Base) ReadStorage(key []byte) (StorageValue, bool) {
	v, ok := b.store.Get(key)
	if !ok {
		return nil, false
	}
	return bytesValue(v), true
}

func (b *Base) StorageHasKey(key []byte) bool { return b.store.Has(key) }

func (b *Base) WriteStorage(key []byte, value []byte) (StorageValue, bool) {
	prev, ok := b.store.Set(key, value)
	if !ok {
		return nil, false
	}
	return bytesValue(prev), true
}

func (b *Base) WriteStorageDirect(key []byte, value StorageValue) (StorageValue, bool) {
	return b.WriteStorage(key, ToBytes(value))
}

func (b *Base) RemoveStorage(key []byte) (StorageValue, bool) {
	prev, ok := b.store.Delete(key)
	if !ok {
		return nil, false
	}
	return bytesValue(prev), true
}
