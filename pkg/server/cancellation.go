// Copyright 2024 The Impala-Go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package server

import (
	"context"
	"time"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/stop"
)

// maxCancellationQueueSize bounds the cancellation work queue. Deliberately
// huge: producers (membership callbacks in particular) must never block.
// Overflowed batches are dropped and regenerated by the next heartbeat or
// sweep pass.
const maxCancellationQueueSize = 65536

type cancellationKind int

const (
	// cancelWork cancels the query but leaves it registered.
	cancelWork cancellationKind = iota
	// unregisterWork performs the full terminal transition.
	unregisterWork
)

// cancellationWork is one offloaded cancel/unregister operation.
type cancellationWork struct {
	queryID impalapb.UniqueID
	cause   error
	kind    cancellationKind
}

// cancellationPool drains a bounded MPMC queue of cancellation work with a
// fixed number of workers.
type cancellationPool struct {
	srv      *Server
	queue    chan cancellationWork
	dropWarn log.EveryN
}

func newCancellationPool(srv *Server) *cancellationPool {
	return &cancellationPool{
		srv:      srv,
		queue:    make(chan cancellationWork, maxCancellationQueueSize),
		dropWarn: log.Every(10 * time.Second),
	}
}

// start launches the worker goroutines.
func (p *cancellationPool) start(ctx context.Context, stopper *stop.Stopper, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		stopper.RunWorker(ctx, func(ctx context.Context) {
			p.workerLoop(ctx, stopper)
		})
	}
}

func (p *cancellationPool) workerLoop(ctx context.Context, stopper *stop.Stopper) {
	for {
		select {
		case work := <-p.queue:
			p.dispatch(ctx, work)
		case <-stopper.ShouldQuiesce():
			return
		}
	}
}

func (p *cancellationPool) dispatch(ctx context.Context, work cancellationWork) {
	switch work.kind {
	case unregisterWork:
		if !p.srv.UnregisterQuery(ctx, work.queryID, work.cause) {
			log.VEventf(ctx, 2, "query %s already unregistered", work.queryID)
		}
	case cancelWork:
		// The query may have completed since the work was enqueued.
		if err := p.srv.CancelInternal(ctx, work.queryID, work.cause); err != nil {
			log.VEventf(ctx, 2, "cancellation of query %s failed: %v", work.queryID, err)
		}
	}
}

// tryOffer enqueues work without blocking. On a full queue the item is
// dropped with a rate-limited warning; callers rely on the next heartbeat
// or sweep pass to regenerate it.
func (p *cancellationPool) tryOffer(ctx context.Context, work cancellationWork) bool {
	select {
	case p.queue <- work:
		return true
	default:
		p.srv.metrics.CancellationDropped.Inc()
		if p.dropWarn.ShouldLog() {
			log.Warningf(ctx,
				"cancellation queue full (capacity %d), dropping work for query %s",
				maxCancellationQueueSize, work.queryID)
		}
		return false
	}
}

// depth returns the number of queued work items.
func (p *cancellationPool) depth() int {
	return len(p.queue)
}
