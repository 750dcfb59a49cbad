package work

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klaytn/loadgen/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBatchSender records the dispatch order of eth_sendRawTransaction
// batches and always succeeds.
type fakeBatchSender struct {
	mu      sync.Mutex
	batches [][]string
}

func (f *fakeBatchSender) BatchCall(ctx context.Context, elems []client.BatchElem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raws := make([]string, len(elems))
	for i, e := range elems {
		raws[i] = e.Args[0].(string)
		if s, ok := e.Result.(*string); ok {
			*s = "0xhash"
		}
	}
	f.batches = append(f.batches, raws)
	return nil
}

func queueFor(from common.Address, nonces ...uint64) []SignedTx {
	out := make([]SignedTx, len(nonces))
	for i, n := range nonces {
		out[i] = SignedTx{From: from, Nonce: n, Raw: []byte{byte(n)}}
	}
	return out
}

func TestSubmitterPreservesPerSenderNonceOrder(t *testing.T) {
	a := common.HexToAddress("0xa")
	b := common.HexToAddress("0xb")

	queues := [][]SignedTx{
		queueFor(a, 0, 1, 2, 3, 4),
		queueFor(b, 0, 1, 2),
	}

	fake := &fakeBatchSender{}
	sub := NewSubmitter(fake, 2, 2)
	results := sub.Submit(context.Background(), queues)

	require.Len(t, results, 8)

	lastNonce := map[common.Address]int64{}
	for _, r := range results {
		last, seen := lastNonce[r.From]
		if seen {
			assert.Greater(t, int64(r.Nonce), last, "nonce must increase for sender %s", r.From)
		}
		lastNonce[r.From] = int64(r.Nonce)
		assert.NoError(t, r.Err)
	}
}

func TestSubmitterRespectsBatchSize(t *testing.T) {
	a := common.HexToAddress("0xa")
	queues := [][]SignedTx{queueFor(a, 0, 1, 2, 3, 4)}

	fake := &fakeBatchSender{}
	sub := NewSubmitter(fake, 2, 1)
	sub.Submit(context.Background(), queues)

	require.Len(t, fake.batches, 3)
	assert.Len(t, fake.batches[0], 2)
	assert.Len(t, fake.batches[1], 2)
	assert.Len(t, fake.batches[2], 1)
}
