package work

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/klaytn/loadgen/accounts"
	"github.com/klaytn/loadgen/client"
	"github.com/stretchr/testify/require"
)

type fakeDistributorRPC struct {
	balances map[common.Address]*big.Int
	gasPrice *big.Int
	sent     int
}

func (f *fakeDistributorRPC) GetBalance(ctx context.Context, addr common.Address, tag string) (*big.Int, error) {
	if b, ok := f.balances[addr]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeDistributorRPC) GetGasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeDistributorRPC) EstimateGas(ctx context.Context, msg client.CallMsg) (uint64, error) {
	return 21000, nil
}

func (f *fakeDistributorRPC) SendRaw(ctx context.Context, raw []byte) (common.Hash, error) {
	f.sent++
	return common.Hash{}, nil
}

func newTestAccount(t *testing.T, index uint64) *accounts.Account {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &accounts.Account{Index: index, Address: crypto.PubkeyToAddress(key.PublicKey), PrivateKey: key}
}

func TestDistributorFundsUnreadyAccounts(t *testing.T) {
	funder := newTestAccount(t, 0)
	subs := []*accounts.Account{newTestAccount(t, 1), newTestAccount(t, 2), newTestAccount(t, 3)}

	fake := &fakeDistributorRPC{
		balances: map[common.Address]*big.Int{
			funder.Address: big.NewInt(1_000_000_000_000_000_000),
		},
		gasPrice: big.NewInt(1_000_000_000),
	}

	d := NewDistributor(fake, accounts.NewNonceBook(), 2)
	ready, err := d.Distribute(context.Background(), funder, subs, 10, big.NewInt(1), big.NewInt(1337))
	require.NoError(t, err)
	require.Len(t, ready, 3)
	require.Equal(t, 3, fake.sent)
}

func TestDistributorAbortsWhenFunderCannotCoverAny(t *testing.T) {
	funder := newTestAccount(t, 0)
	subs := []*accounts.Account{newTestAccount(t, 1)}

	fake := &fakeDistributorRPC{
		balances: map[common.Address]*big.Int{
			funder.Address: big.NewInt(1),
		},
		gasPrice: big.NewInt(1_000_000_000),
	}

	d := NewDistributor(fake, accounts.NewNonceBook(), 2)
	_, err := d.Distribute(context.Background(), funder, subs, 10, big.NewInt(1), big.NewInt(1337))
	require.ErrorIs(t, err, ErrNotEnoughFunds)
}
