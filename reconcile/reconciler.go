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

// Package reconcile implements CrossChainReconciler (spec.md §4.11): an L1
// raw-block listener and an L2 event follower, joined through a shared
// database.DBManager. Both activities are owned by the Reconciler's run
// scope, per spec.md §9's replacement for weak references/cyclic emitters.
package reconcile

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klaytn/loadgen/storage/database"
	"golang.org/x/sync/errgroup"
)

// Reconciler runs the L1 Listener and L2 Follower for the lifetime of a
// Withdrawal-mode run.
type Reconciler struct {
	l1 *L1Listener
	l2 *L2Follower
}

func New(zmqEndpoint string, target [20]byte, l2rpc L2FollowerRPC, moat common.Address, l2StartHeight uint64, db database.DBManager) *Reconciler {
	return &Reconciler{
		l1: NewL1Listener(zmqEndpoint, target, db),
		l2: NewL2Follower(l2rpc, db, moat, l2StartHeight),
	}
}

// Run starts both activities and blocks until ctx is cancelled or either
// activity returns a fatal (non-per-block) error.
func (r *Reconciler) Run(ctx context.Context, newHeads <-chan struct{}) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.l1.Run(ctx) })
	g.Go(func() error { return r.l2.Run(ctx, newHeads) })
	return g.Wait()
}
