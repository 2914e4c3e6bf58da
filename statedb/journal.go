// Package statedb adapts the engine's generation-aware storage schema
// (storage, ioruntime) to go-ethereum's vm.StateDB interface, so the
// go-ethereum EVM interpreter can be used unmodified as the pluggable
// EvmHandler spec §4.4/§9 describes. Grounded on
// zeta-chain-evm/x/vm/statedb/state_object.go for the Account/Storage
// shape, rewritten against our own KV schema instead of a Cosmos
// multistore.
package statedb

// Stack is the call-frame journal scope primitive spec §5/§9 requires:
// Enter pushes a new scope, Commit merges the top scope into its parent
// (O(1)), and Discard truncates the stack back to the scope boundary,
// which is O(scope size) and yields the revert semantics CALL/CREATE
// frames need when they fail. Logs, touched-address sets, and refund
// counters all reuse this same journal (StateDB's single
// Stack[journalEntry], see statedb.go) rather than a pointer graph of
// nested scratchpads.
type Stack[T any] struct {
	entries []T
	scopes  []int // each scope records len(entries) at Enter time
}

// NewStack returns an empty journal stack.
func NewStack[T any]() *Stack[T] { return &Stack[T]{} }

// Enter pushes a new scope boundary at the journal's current length.
func (s *Stack[T]) Enter() {
	s.scopes = append(s.scopes, len(s.entries))
}

// Commit merges the current scope into its parent: entries recorded since
// the matching Enter remain, and the scope marker is simply popped.
func (s *Stack[T]) Commit() {
	if len(s.scopes) == 0 {
		return
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// Discard truncates the journal back to the boundary recorded by the
// matching Enter, discarding every entry recorded inside the scope.
func (s *Stack[T]) Discard() {
	if len(s.scopes) == 0 {
		return
	}
	boundary := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	s.entries = s.entries[:boundary]
}

// Push appends an entry to the journal's current scope.
func (s *Stack[T]) Push(v T) {
	s.entries = append(s.entries, v)
}

// Len returns the number of entries currently recorded.
func (s *Stack[T]) Len() int { return len(s.entries) }

// Snapshot returns an opaque marker for the journal's current length,
// usable with RevertTo to discard everything recorded since.
func (s *Stack[T]) Snapshot() int { return len(s.entries) }

// RevertTo truncates the journal back to a prior Snapshot marker.
func (s *Stack[T]) RevertTo(mark int) {
	s.entries = s.entries[:mark]
}

// All returns the entries currently recorded, in order.
func (s *Stack[T]) All() []T { return s.entries }
