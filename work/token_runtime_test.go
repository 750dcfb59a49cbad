package work

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klaytn/loadgen/accounts"
	"github.com/klaytn/loadgen/client"
	"github.com/klaytn/loadgen/contracts"
	"github.com/stretchr/testify/require"
)

type fakeTokenRuntimeRPC struct {
	mu              sync.Mutex
	sent            int
	deployedAddress common.Address
}

func (f *fakeTokenRuntimeRPC) SendRaw(ctx context.Context, raw []byte) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	return common.Hash{}, nil
}

func (f *fakeTokenRuntimeRPC) GetReceipt(ctx context.Context, hash common.Hash) (*client.RPCReceipt, error) {
	addr := f.deployedAddress
	return &client.RPCReceipt{ContractAddress: &addr}, nil
}

func TestCeilDiv(t *testing.T) {
	require.Equal(t, big.NewInt(4), ceilDiv(big.NewInt(10), big.NewInt(3)))
	require.Equal(t, big.NewInt(3), ceilDiv(big.NewInt(9), big.NewInt(3)))
}

func TestTokenRuntimeDeployReturnsContractAddress(t *testing.T) {
	funder := newTestAccount(t, 0)
	want := common.HexToAddress("0xbeef")
	fake := &fakeTokenRuntimeRPC{deployedAddress: want}

	tr := NewTokenRuntime(fake, accounts.NewNonceBook(), big.NewInt(1337))
	got, err := tr.Deploy(context.Background(), funder, contracts.ERC20InitCode, 1_500_000, big.NewInt(1_000_000_000))
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, 1, fake.sent)
}

func TestTokenRuntimeTopUpERC20FundsAllReady(t *testing.T) {
	funder := newTestAccount(t, 0)
	ready := []*accounts.Account{newTestAccount(t, 1), newTestAccount(t, 2), newTestAccount(t, 3)}
	fake := &fakeTokenRuntimeRPC{}

	tr := NewTokenRuntime(fake, accounts.NewNonceBook(), big.NewInt(1337))
	funded := tr.TopUpERC20(context.Background(), funder, common.HexToAddress("0xdead"), ready, 100, big.NewInt(1), 65000, big.NewInt(1_000_000_000), 2)
	require.Len(t, funded, 3)
	require.Equal(t, 3, fake.sent)
}

func TestTokenRuntimeTopUpERC721MintsOnePerAccount(t *testing.T) {
	funder := newTestAccount(t, 0)
	ready := []*accounts.Account{newTestAccount(t, 1), newTestAccount(t, 2)}
	fake := &fakeTokenRuntimeRPC{}

	tr := NewTokenRuntime(fake, accounts.NewNonceBook(), big.NewInt(1337))
	funded := tr.TopUpERC721(context.Background(), funder, common.HexToAddress("0xdead"), ready, 90000, big.NewInt(1_000_000_000), 2)
	require.Len(t, funded, 2)
	require.Equal(t, 2, fake.sent)
}

