package ioruntime

// CloneStore is a copy-on-write HostStore over a read-only base store,
// used only by the `eth_call` simulation path (spec §4.7 step 2/5): every
// write lands in an in-memory overlay, reads fall through to the base
// store on an overlay miss, and the whole thing is discarded by simply
// letting the CloneStore go out of scope — nothing is ever written back.
type CloneStore struct {
	base    HostStore
	written map[string][]byte
	deleted map[string]bool
}

// NewCloneStore wraps base in a copy-on-write overlay.
func NewCloneStore(base HostStore) *CloneStore {
	return &CloneStore{base: base, written: make(map[string][]byte), deleted: make(map[string]bool)}
}

func (c *CloneStore) Get(key []byte) ([]byte, bool) {
	k := string(key)
	if c.deleted[k] {
		return nil, false
	}
	if v, ok := c.written[k]; ok {
		return v, true
	}
	return c.base.Get(key)
}

func (c *CloneStore) Set(key []byte, value []byte) ([]byte, bool) {
	prev, ok := c.Get(key)
	k := string(key)
	delete(c.deleted, k)
	cp := make([]byte, len(value))
	copy(cp, value)
	c.written[k] = cp
	return prev, ok
}

func (c *CloneStore) Delete(key []byte) ([]byte, bool) {
	prev, ok := c.Get(key)
	k := string(key)
	delete(c.written, k)
	c.deleted[k] = true
	return prev, ok
}

func (c *CloneStore) Has(key []byte) bool {
	k := string(key)
	if c.deleted[k] {
		return false
	}
	if _, ok := c.written[k]; ok {
		return true
	}
	return c.base.Has(key)
}
