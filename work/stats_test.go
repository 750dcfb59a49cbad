package work

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/klaytn/loadgen/client"
	"github.com/stretchr/testify/require"
)

type fakeStatRPC struct {
	blocks  map[uint64]*client.RPCBlock
	pending uint64
	calls   int
}

func (f *fakeStatRPC) GetBlock(ctx context.Context, tag string) (*client.RPCBlock, error) {
	f.calls++
	h, err := hexutil.DecodeUint64(tag)
	if err != nil {
		return nil, err
	}
	return f.blocks[h], nil
}

func (f *fakeStatRPC) PendingTxCount(ctx context.Context) (uint64, error) {
	return f.pending, nil
}

func TestStatCollectorFindsAllHashesAndStops(t *testing.T) {
	h1 := common.HexToHash("0x1")
	h2 := common.HexToHash("0x2")

	fake := &fakeStatRPC{
		blocks: map[uint64]*client.RPCBlock{
			10: {Number: 10, Timestamp: 100, GasUsed: 50, GasLimit: 100, Transactions: []common.Hash{h1}},
			11: {Number: 11, Timestamp: 102, GasUsed: 80, GasLimit: 100, Transactions: []common.Hash{h2}},
		},
		pending: 0,
	}

	sc := NewStatCollector(fake)
	result, err := sc.Collect(context.Background(), []common.Hash{h1, h2}, 10)
	require.NoError(t, err)
	require.Len(t, result.Blocks, 2)
	require.Equal(t, uint64(10), result.Blocks[0].Height)
	require.Equal(t, uint64(11), result.Blocks[1].Height)
	require.InDelta(t, 50.0, result.Blocks[0].GasUtilization, 0.01)
}
