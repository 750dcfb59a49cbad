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

// This file is derived from the teacher's node/sc/subbridge.go subscription
// handling: an owned, run-scoped background activity reading a pub/sub feed
// (spec.md §4.11, §9 "weak references / cyclic event emitters").

package reconcile

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/klaytn/loadgen/storage/database"
	"github.com/pebbe/zmq4"
	"github.com/pkg/errors"
)

var logger = log.New("module", "reconcile")

// pollInterval bounds how long a single RecvBytes call blocks, so the
// listener's ctx.Done() check is re-evaluated even with no traffic.
const pollInterval = 500 * time.Millisecond

// L1Listener subscribes to raw L1 block payloads over ZeroMQ PUB/SUB and
// persists each parsed block plus any matched withdrawal outputs.
type L1Listener struct {
	endpoint string
	target   [20]byte
	db       database.DBManager
}

func NewL1Listener(endpoint string, target [20]byte, db database.DBManager) *L1Listener {
	return &L1Listener{endpoint: endpoint, target: target, db: db}
}

// Run subscribes and processes messages until ctx is cancelled. Per-message
// parse or persistence errors are logged and do not stop the listener
// (spec.md §7: "Reconciler errors are logged, per-block work skipped").
func (l *L1Listener) Run(ctx context.Context) error {
	sock, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		return errors.Wrap(err, "l1 listener: socket create")
	}
	defer sock.Close()

	if err := sock.Connect(l.endpoint); err != nil {
		return errors.Wrap(err, "l1 listener: connect")
	}
	if err := sock.SetSubscribe(""); err != nil {
		return errors.Wrap(err, "l1 listener: subscribe")
	}
	if err := sock.SetRcvtimeo(pollInterval); err != nil {
		return errors.Wrap(err, "l1 listener: set recv timeout")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		raw, err := sock.RecvBytes(0)
		if err != nil {
			// A receive timeout is expected every pollInterval with no
			// traffic; it is indistinguishable here from a transient
			// socket error, so both are logged at debug and retried.
			logger.Debug("l1 listener: recv returned without a message", "err", err)
			continue
		}

		if err := l.handle(raw); err != nil {
			logger.Warn("l1 listener: message rejected", "err", err)
		}
	}
}

func (l *L1Listener) handle(raw []byte) error {
	block, err := ParseBlock(raw)
	if err != nil {
		return err
	}

	header := &database.L1Header{
		Height:     block.Height,
		Hash:       hex.EncodeToString(block.Hash[:]),
		Version:    block.Version,
		PrevHash:   hex.EncodeToString(block.PrevHash[:]),
		MerkleRoot: hex.EncodeToString(block.MerkleRoot[:]),
		Timestamp:  block.Timestamp,
		Bits:       block.Bits,
		Nonce:      block.Nonce,
		SizeBytes:  block.SizeBytes,
	}

	var matches []database.L1Match
	for _, t := range block.Txs {
		for _, out := range t.P2PKHOuts {
			if out.Hash20 != l.target {
				continue
			}
			matches = append(matches, database.L1Match{
				UID:         out.Value,
				L1TxHash:    hex.EncodeToString(t.Hash[:]),
				L1Height:    block.Height,
				L1Timestamp: block.Timestamp,
			})
		}
	}

	return l.db.ApplyL1Block(header, matches)
}
