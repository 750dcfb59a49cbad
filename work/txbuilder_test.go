package work

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/klaytn/loadgen/accounts"
	"github.com/klaytn/loadgen/params"
	"github.com/stretchr/testify/require"
)

func newBuilderTestAccount(t *testing.T, index uint64) *accounts.Account {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &accounts.Account{Index: index, Address: crypto.PubkeyToAddress(key.PublicKey), PrivateKey: key}
}

func TestTxBuilderEOAPairing(t *testing.T) {
	accts := []*accounts.Account{
		newBuilderTestAccount(t, 1),
		newBuilderTestAccount(t, 2),
		newBuilderTestAccount(t, 3),
	}

	cfg := BuilderConfig{
		Mode:        ModeEOA,
		NumTx:       5,
		ChainID:     big.NewInt(1337),
		GasPrice:    big.NewInt(1_000_000_000),
		EOAGasLimit: params.EOAGasLimit,
		EOAValue:    params.DefaultEOAValue(),
	}
	b := NewTxBuilder(cfg, accounts.NewNonceBook())
	queues, err := b.Build(accts)
	require.NoError(t, err)
	require.Len(t, queues, 3)

	total := 0
	for _, q := range queues {
		total += len(q)
	}
	require.Equal(t, 5, total)

	// Sender i's receiver is always (i+1)%N per the pairing rule.
	require.Equal(t, accts[1].Address, queues[0][0].To)
	require.Equal(t, accts[2].Address, queues[1][0].To)
	require.Equal(t, accts[0].Address, queues[2][0].To)
}

func TestTxBuilderWithdrawalEncodesUID(t *testing.T) {
	// More transactions than accounts, so per-sender nonces repeat (each
	// sender's 2nd tx reuses nonce 1) while the uid must still be globally
	// unique across all of them.
	accts := []*accounts.Account{newBuilderTestAccount(t, 1), newBuilderTestAccount(t, 2)}

	cfg := BuilderConfig{
		Mode:         ModeWithdrawal,
		NumTx:        6,
		ChainID:      big.NewInt(1337),
		GasPrice:     big.NewInt(1_000_000_000),
		MoatContract: common.HexToAddress("0xdead"),
		TargetL1Addr: "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2",
		MinValue:     params.WithdrawalMinValue(),
		WithdrawGas:  params.WithdrawGasLimit,
	}
	b := NewTxBuilder(cfg, accounts.NewNonceBook())
	queues, err := b.Build(accts)
	require.NoError(t, err)

	seen := make(map[uint64]bool)
	count := 0
	for _, q := range queues {
		for _, spec := range q {
			require.True(t, spec.Value.Cmp(cfg.MinValue) >= 0)
			offset := new(big.Int).Sub(spec.Value, cfg.MinValue)
			uid := new(big.Int).Div(offset, params.UIDDivisor).Uint64()
			require.False(t, seen[uid], "uid %d reused across transactions", uid)
			seen[uid] = true
			count++
		}
	}
	require.Equal(t, cfg.NumTx, count)
}

func TestTxBuilderERC721TokenIDsAreGloballyUnique(t *testing.T) {
	// Same collision scenario as withdrawal uid: more transactions than
	// accounts, so per-sender nonces repeat across senders.
	accts := []*accounts.Account{newBuilderTestAccount(t, 1), newBuilderTestAccount(t, 2)}

	cfg := BuilderConfig{
		Mode:           ModeERC721,
		NumTx:          6,
		ChainID:        big.NewInt(1337),
		GasPrice:       big.NewInt(1_000_000_000),
		ERC721Contract: common.HexToAddress("0xbeef"),
		ERC721GasLimit: params.ERC721GasLimit,
	}
	b := NewTxBuilder(cfg, accounts.NewNonceBook())
	queues, err := b.Build(accts)
	require.NoError(t, err)

	seen := make(map[string]bool)
	count := 0
	for _, q := range queues {
		for _, spec := range q {
			// mint(address,uint256): selector(4) + address word(32) + tokenID word(32).
			tokenIDWord := string(spec.Data[36:68])
			require.False(t, seen[tokenIDWord], "tokenID reused across transactions")
			seen[tokenIDWord] = true
			count++
		}
	}
	require.Equal(t, cfg.NumTx, count)
}

func TestTxBuilderRejectsEmptyAccountSet(t *testing.T) {
	cfg := BuilderConfig{Mode: ModeEOA, NumTx: 1}
	b := NewTxBuilder(cfg, accounts.NewNonceBook())
	_, err := b.Build(nil)
	require.Error(t, err)
}

func TestTxBuilderRejectsUnsupportedMode(t *testing.T) {
	accts := []*accounts.Account{newBuilderTestAccount(t, 1)}
	cfg := BuilderConfig{Mode: ModeClearPending, NumTx: 1}
	b := NewTxBuilder(cfg, accounts.NewNonceBook())
	_, err := b.Build(accts)
	require.Error(t, err)
}
