package work

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klaytn/loadgen/accounts"
	"github.com/stretchr/testify/require"
)

type fakeClearPendingRPC struct {
	mu      sync.Mutex
	latest  map[common.Address]uint64
	pending map[common.Address]uint64
	sent    map[common.Address]int
}

func newFakeClearPendingRPC() *fakeClearPendingRPC {
	return &fakeClearPendingRPC{
		latest:  map[common.Address]uint64{},
		pending: map[common.Address]uint64{},
		sent:    map[common.Address]int{},
	}
}

func (f *fakeClearPendingRPC) GetTxCount(ctx context.Context, addr common.Address, tag string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tag == "pending" {
		return f.pending[addr], nil
	}
	return f.latest[addr], nil
}

func (f *fakeClearPendingRPC) SendRaw(ctx context.Context, raw []byte) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return common.Hash{}, nil
}

const testMnemonic = "test test test test test test test test test test test junk"

func TestClearPendingReplacesStuckNonces(t *testing.T) {
	deriver, err := accounts.NewKeyDeriver(testMnemonic)
	require.NoError(t, err)

	fake := newFakeClearPendingRPC()
	acc1, err := deriver.Derive(1)
	require.NoError(t, err)
	acc2, err := deriver.Derive(2)
	require.NoError(t, err)

	fake.latest[acc1.Address] = 3
	fake.pending[acc1.Address] = 5 // two stuck nonces: 3, 4

	fake.latest[acc2.Address] = 1
	fake.pending[acc2.Address] = 1 // nothing stuck

	cp := NewClearPending(fake, deriver, big.NewInt(1337), big.NewInt(1_000_000_000), 2)
	results, err := cp.Run(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byAddr := map[common.Address]ClearPendingResult{}
	for _, r := range results {
		byAddr[r.Address] = r
	}
	require.Equal(t, 2, byAddr[acc1.Address].Replaced)
	require.Equal(t, 0, byAddr[acc2.Address].Replaced)
}

func TestClearPendingEmptyRangeNoOp(t *testing.T) {
	deriver, err := accounts.NewKeyDeriver(testMnemonic)
	require.NoError(t, err)
	cp := NewClearPending(newFakeClearPendingRPC(), deriver, big.NewInt(1337), big.NewInt(1_000_000_000), 2)
	results, err := cp.Run(context.Background(), 5, 5)
	require.NoError(t, err)
	require.Nil(t, results)
}
