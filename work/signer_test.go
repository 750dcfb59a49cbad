package work

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestSignerPreservesPerSenderOrder(t *testing.T) {
	key1, err := crypto.GenerateKey()
	require.NoError(t, err)
	key2, err := crypto.GenerateKey()
	require.NoError(t, err)

	addr1 := crypto.PubkeyToAddress(key1.PublicKey)
	addr2 := crypto.PubkeyToAddress(key2.PublicKey)

	queues := [][]TxSpec{
		{
			{From: addr1, To: addr2, Value: big.NewInt(1), GasLimit: 21000, GasPrice: big.NewInt(1), Nonce: 0, ChainID: big.NewInt(1337)},
			{From: addr1, To: addr2, Value: big.NewInt(1), GasLimit: 21000, GasPrice: big.NewInt(1), Nonce: 1, ChainID: big.NewInt(1337)},
		},
		{
			{From: addr2, To: addr1, Value: big.NewInt(1), GasLimit: 21000, GasPrice: big.NewInt(1), Nonce: 0, ChainID: big.NewInt(1337)},
		},
	}

	keys := map[common.Address]*ecdsa.PrivateKey{addr1: key1, addr2: key2}
	signer := NewSigner(keys, 4)

	signed, err := signer.Sign(queues)
	require.NoError(t, err)
	require.Len(t, signed, 2)
	require.Len(t, signed[0], 2)
	require.Len(t, signed[1], 1)

	require.Equal(t, uint64(0), signed[0][0].Nonce)
	require.Equal(t, uint64(1), signed[0][1].Nonce)
	require.Equal(t, addr1, signed[0][0].From)
	require.Equal(t, addr2, signed[1][0].From)
}

func TestSignerFailsOnMissingKey(t *testing.T) {
	addr := common.HexToAddress("0x1234")
	queues := [][]TxSpec{
		{{From: addr, To: addr, Value: big.NewInt(0), GasLimit: 21000, GasPrice: big.NewInt(1), Nonce: 0, ChainID: big.NewInt(1337)}},
	}

	signer := NewSigner(map[common.Address]*ecdsa.PrivateKey{}, 2)
	_, err := signer.Sign(queues)
	require.Error(t, err)
}

func TestSignerHandlesEmptyQueues(t *testing.T) {
	signer := NewSigner(map[common.Address]*ecdsa.PrivateKey{}, 2)
	signed, err := signer.Sign([][]TxSpec{{}, {}})
	require.NoError(t, err)
	require.Len(t, signed, 2)
	require.Empty(t, signed[0])
	require.Empty(t, signed[1])
}
