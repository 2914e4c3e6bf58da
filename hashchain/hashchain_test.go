package hashchain

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func keccak32(b []byte) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256(b))
	return out
}

func TestAddBlockTxRejectsWrongHeight(t *testing.T) {
	h := NewBuilder().WithCurrentBlockHeight(2).Build()

	require.Error(t, h.AddBlockTx(1, "foo", nil, nil, &Bloom{}))
	require.True(t, h.IsEmpty())
	require.Equal(t, Bloom{}, *h.GetLogsBloom())

	require.Error(t, h.AddBlockTx(3, "foo", nil, nil, &Bloom{}))
	require.True(t, h.IsEmpty())

	require.NoError(t, h.AddBlockTx(2, "foo", nil, nil, &Bloom{}))
	require.False(t, h.IsEmpty())
}

func TestMoveToBlockRejectsNonIncreasingHeight(t *testing.T) {
	h := NewBuilder().WithCurrentBlockHeight(2).Build()

	require.Error(t, h.MoveToBlock(1))
	require.Error(t, h.MoveToBlock(2))
}

// TestMoveToBlockSkipsHeights mirrors spec §8 scenario S4 and
// original_source engine-hashchain/src/tests.rs's test_move_to_block_success.
func TestMoveToBlockSkipsHeights(t *testing.T) {
	var chainID [32]byte
	for i := range chainID {
		chainID[i] = 1
	}
	accountID := "aurora"
	initialHashchain := keccak32([]byte("seed"))

	methodName := "foo"
	input := []byte("foo_input")
	output := []byte("foo_output")
	var bloom Bloom
	bloom[0] = 1

	txH := txHash(methodName, input, output)

	const height2 uint64 = 2
	const height3 = height2 + 1
	const height4 = height3 + 1

	expected2 := expectedBlockHash(chainID, accountID, height2, initialHashchain, [][32]byte{txH}, bloom)
	expected3 := expectedBlockHash(chainID, accountID, height3, expected2, nil, Bloom{})
	expected4 := expectedBlockHash(chainID, accountID, height4, expected3, nil, Bloom{})

	h := NewBuilder().
		WithAccountID(accountID).
		WithChainID(chainID).
		WithCurrentBlockHeight(height2).
		WithPreviousHashchain(initialHashchain).
		Build()

	require.NoError(t, h.AddBlockTx(height2, methodName, input, output, &bloom))
	require.Equal(t, initialHashchain, h.GetPreviousBlockHashchain())

	require.NoError(t, h.MoveToBlock(height3))
	require.Equal(t, expected2, h.GetPreviousBlockHashchain())
	require.True(t, h.IsEmpty())
	require.Equal(t, Bloom{}, *h.GetLogsBloom())

	require.NoError(t, h.MoveToBlock(height4+1))
	require.Equal(t, expected4, h.GetPreviousBlockHashchain())
	require.Equal(t, height4+1, h.GetCurrentBlockHeight())
}

func expectedBlockHash(chainID [32]byte, accountID string, height uint64, prev [32]byte, txs [][32]byte, bloom Bloom) [32]byte {
	h := &Hashchain{
		chainID:            chainID,
		accountID:          accountID,
		currentBlockHeight: height,
		previousHashchain:  prev,
		txs:                txs,
		bloom:              bloom,
	}
	return h.blockHashchain(height)
}

func TestSerializationRoundTrip(t *testing.T) {
	var bloom Bloom
	bloom.Accrue([]byte{0xde, 0xad, 0xbe, 0xef})

	h := NewBuilder().
		WithAccountID("aurora").
		WithU64ChainID(123456).
		WithPreviousHashchain([32]byte{8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8}).
		Build()

	require.NoError(t, h.AddBlockTx(0, "foo", []byte("input"), []byte("output"), &bloom))

	data, err := h.TrySerialize()
	require.NoError(t, err)

	roundTrip, err := TryDeserialize(data)
	require.NoError(t, err)
	require.Equal(t, h, roundTrip)
}

func TestMerkleRoot(t *testing.T) {
	require.Equal(t, [32]byte{}, MerkleRoot(nil))

	a := keccak32([]byte("a"))
	require.Equal(t, a, MerkleRoot([][32]byte{a}))

	b := keccak32([]byte("b"))
	c := keccak32([]byte("c"))
	want := hashPair(hashPair(a, b), hashPair(c, c))
	require.Equal(t, want, MerkleRoot([][32]byte{a, b, c}))
}

func TestBloomInclusion(t *testing.T) {
	log := ResultLog{Address: [20]byte{1, 2, 3}}
	log.Topics = [][32]byte{keccak32([]byte("topic"))}

	bloom := LogBloom(log)

	var check Bloom
	check.Accrue(log.Address[:])
	check.Accrue(log.Topics[0][:])
	require.Equal(t, check, bloom)
}
