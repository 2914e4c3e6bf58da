package statedb

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/aurora-is-near/engine-go/internal/testutil"
	"github.com/aurora-is-near/engine-go/ioruntime"
)

func newTestStateDB(t *testing.T) *StateDB {
	t.Helper()
	base := ioruntime.NewBase(testutil.NewMemStore(), nil)
	return New(base, NewEmptyTxConfig(), nil)
}

func TestStackScopeDiscardRestoresState(t *testing.T) {
	s := NewStack[int]()
	s.Push(1)
	mark := s.Snapshot()
	s.Enter()
	s.Push(2)
	s.Discard()
	require.Equal(t, mark, s.Snapshot())
	require.Equal(t, []int{1}, s.All())
}

func TestStackScopeCommitKeepsState(t *testing.T) {
	s := NewStack[int]()
	s.Enter()
	s.Push(42)
	s.Commit()
	require.Equal(t, []int{42}, s.All())
}

func TestStorageGenerationIsolation(t *testing.T) {
	db := newTestStateDB(t)
	addr := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")
	slot := common.HexToHash("0x01")
	value := common.HexToHash("0x2a")

	db.SetState(addr, slot, value)
	require.Equal(t, value, db.GetState(addr, slot))

	db.SelfDestruct(addr)
	require.Equal(t, common.Hash{}, db.GetState(addr, slot), "storage must read as zero after generation reset")

	db.SetState(addr, slot, value)
	require.Equal(t, value, db.GetState(addr, slot), "writes after reset must round-trip at the new generation")
}

func TestRevertToSnapshotUndoesBalanceAndStorage(t *testing.T) {
	db := newTestStateDB(t)
	addr := common.HexToAddress("0xbbbb000000000000000000000000000000bbbb")
	slot := common.HexToHash("0x01")

	db.AddBalance(addr, uint256.NewInt(100), 0)
	mark := db.Snapshot()

	db.AddBalance(addr, uint256.NewInt(50), 0)
	db.SetState(addr, slot, common.HexToHash("0x2a"))

	db.RevertToSnapshot(mark)

	require.Equal(t, uint256.NewInt(100), db.GetBalance(addr))
	require.Equal(t, common.Hash{}, db.GetState(addr, slot))
}

func TestCommitPersistsAccountAndStorage(t *testing.T) {
	store := testutil.NewMemStore()
	base := ioruntime.NewBase(store, nil)
	db := New(base, NewEmptyTxConfig(), nil)

	addr := common.HexToAddress("0xcccc000000000000000000000000000000cccc")
	slot := common.HexToHash("0x01")
	value := common.HexToHash("0x2a")

	db.AddBalance(addr, uint256.NewInt(123), 0)
	db.SetState(addr, slot, value)
	require.NoError(t, db.Commit())

	db2 := New(ioruntime.NewBase(store, nil), NewEmptyTxConfig(), nil)
	require.Equal(t, uint256.NewInt(123), db2.GetBalance(addr))
	require.Equal(t, value, db2.GetState(addr, slot))
}
