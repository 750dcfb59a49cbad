// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

// This file is derived from the teacher's work/worker.go Agent/worker-pool
// idiom (spec.md §9: "worker threads for signing are modeled as a fixed
// worker pool with an input partition and an output channel carrying
// (originalIndex, signedBytes)").

package work

import (
	"crypto/ecdsa"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/klaytn/loadgen/params"
)

// signJob pairs a TxSpec with its position in the flattened, per-sender
// queue order so results can be merged back into place.
type signJob struct {
	globalIndex int
	senderIdx   int
	spec        TxSpec
}

type signResult struct {
	globalIndex int
	senderIdx   int
	signed      SignedTx
	err         error
}

// Signer signs every TxSpec in queues using N worker goroutines (default
// runtime.NumCPU, capped by the total tx count). Each worker signs a
// contiguous slice sequentially; the orchestrator merges by global index so
// that per-sender nonce ordering, established by TxBuilder, survives
// unchanged (spec.md §4.7).
type Signer struct {
	keys    map[common.Address]*ecdsa.PrivateKey
	workers int
}

func NewSigner(keys map[common.Address]*ecdsa.PrivateKey, workers int) *Signer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Signer{keys: keys, workers: workers}
}

// Sign returns one SignedTx queue per sender position, preserving the
// nonce order TxBuilder established. A missing key or a signing failure
// anywhere is fatal to the run: a missing signature would break the nonce
// chain (spec.md §4.7).
func (s *Signer) Sign(queues [][]TxSpec) ([][]SignedTx, error) {
	jobs := flattenJobs(queues)
	total := len(jobs)
	if total == 0 {
		return make([][]SignedTx, len(queues)), nil
	}

	workers := s.workers
	if workers > total {
		workers = total
	}

	results := make([]signResult, total)
	var wg sync.WaitGroup
	chunk := (total + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= total {
			break
		}
		end := start + chunk
		if end > total {
			end = total
		}

		wg.Add(1)
		go func(workerID, start, end int) {
			defer wg.Done()
			s.signRange(workerID, jobs[start:end], results[start:end])
		}(w, start, end)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("signer: worker failed at global index %d: %w", r.globalIndex, r.err)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].globalIndex < results[j].globalIndex })

	out := make([][]SignedTx, len(queues))
	for _, r := range results {
		out[r.senderIdx] = append(out[r.senderIdx], r.signed)
	}
	return out, nil
}

func (s *Signer) signRange(workerID int, jobs []signJob, out []signResult) {
	for i, job := range jobs {
		signed, err := s.signOne(job.spec)
		out[i] = signResult{globalIndex: job.globalIndex, senderIdx: job.senderIdx, signed: signed, err: err}

		if (i+1)%params.ProgressReportEvery == 0 {
			logger.Debug("signer progress", "worker", workerID, "signed", i+1, "total", len(jobs))
		}
	}
}

func (s *Signer) signOne(spec TxSpec) (SignedTx, error) {
	key, ok := s.keys[spec.From]
	if !ok {
		return SignedTx{}, fmt.Errorf("signer: no key for sender %s", spec.From.Hex())
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    spec.Nonce,
		To:       &spec.To,
		Value:    spec.Value,
		Gas:      spec.GasLimit,
		GasPrice: spec.GasPrice,
		Data:     spec.Data,
	})

	signer := types.NewEIP155Signer(spec.ChainID)
	signedTx, err := types.SignTx(tx, signer, key)
	if err != nil {
		return SignedTx{}, err
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return SignedTx{}, err
	}

	return SignedTx{
		From:  spec.From,
		Nonce: spec.Nonce,
		Raw:   raw,
		Hash:  signedTx.Hash(),
	}, nil
}

func flattenJobs(queues [][]TxSpec) []signJob {
	var jobs []signJob
	global := 0
	for senderIdx, queue := range queues {
		for _, spec := range queue {
			jobs = append(jobs, signJob{globalIndex: global, senderIdx: senderIdx, spec: spec})
			global++
		}
	}
	return jobs
}
