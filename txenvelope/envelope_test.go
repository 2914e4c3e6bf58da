package txenvelope

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func signLegacy(t *testing.T, chainID *big.Int, to *common.Address) ([]byte, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(0),
		Gas:      21000,
		To:       to,
		Value:    big.NewInt(123),
	})

	var signer types.Signer = types.HomesteadSigner{}
	if chainID != nil {
		signer = types.NewEIP155Signer(chainID)
	}
	signed, err := types.SignTx(tx, signer, key)
	require.NoError(t, err)

	data, err := signed.MarshalBinary()
	require.NoError(t, err)
	return data, crypto.PubkeyToAddress(key.PublicKey)
}

func TestDecodeLegacyHappyPath(t *testing.T) {
	to := common.HexToAddress("0x0000000000000000000000000000000000000001")
	chainID := big.NewInt(1313161554)
	data, from := signLegacy(t, chainID, &to)

	tx, err := Decode(data, 100, BackwardsCompatibilityAdapter{BugFixHeight: 10}, chainID)
	require.NoError(t, err)
	require.Equal(t, from, tx.From)
	require.Equal(t, &to, tx.To)
	require.Equal(t, uint64(21000), tx.GasLimit)
}

func TestDecodeLegacyZeroAddressBelowBugFixHeight(t *testing.T) {
	zero := common.Address{}
	chainID := big.NewInt(1)
	data, _ := signLegacy(t, chainID, &zero)

	adapter := BackwardsCompatibilityAdapter{BugFixHeight: 100}

	tx, err := Decode(data, 50, adapter, chainID)
	require.NoError(t, err)
	require.Nil(t, tx.To, "below bug-fix height, zero-address `to` must decode as contract creation")

	tx2, err := Decode(data, 150, adapter, chainID)
	require.NoError(t, err)
	require.NotNil(t, tx2.To)
	require.Equal(t, zero, *tx2.To)
}

func TestDecodeReservedSentinel(t *testing.T) {
	_, err := Decode([]byte{0xff, 0x01, 0x02}, 0, BackwardsCompatibilityAdapter{}, big.NewInt(1))
	require.Error(t, err)
}

func TestDecodeUnknownTransactionType(t *testing.T) {
	_, err := Decode([]byte{0x04, 0x01, 0x02}, 0, BackwardsCompatibilityAdapter{}, big.NewInt(1))
	require.Error(t, err)
}

func TestDecodeEmptyInput(t *testing.T) {
	_, err := Decode(nil, 0, BackwardsCompatibilityAdapter{}, big.NewInt(1))
	require.Error(t, err)
}
