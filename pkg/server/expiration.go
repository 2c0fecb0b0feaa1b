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
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/stop"
	"github.com/goimpala/impala/pkg/util/syncutil"
	"github.com/goimpala/impala/pkg/util/timeutil"
)

// querySweepInterval is the cadence of the query expiration sweep. Idle
// detection skew is bounded by one interval.
const querySweepInterval = time.Second

// prettyPrintDuration renders d the way timeouts appear in user-visible
// expiration messages, e.g. "2s000ms".
func prettyPrintDuration(d time.Duration) string {
	return fmt.Sprintf("%ds%03dms", int64(d/time.Second), int64(d%time.Second/time.Millisecond))
}

// effectiveTimeout combines the global and per-query idle timeouts (both in
// seconds): min of the two if both are set, else whichever is set. Zero
// disables expiration.
func effectiveTimeout(globalS, perQueryS int) time.Duration {
	var s int
	if globalS > 0 && perQueryS > 0 {
		s = globalS
		if perQueryS < s {
			s = perQueryS
		}
	} else if globalS > perQueryS {
		s = globalS
	} else {
		s = perQueryS
	}
	if s <= 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}

// expirationEvent orders queries by their expected expiry time. Events go
// stale when client activity pushes the real expiry forward; the sweep
// repairs them in place.
type expirationEvent struct {
	deadlineMs int64
	queryID    impalapb.UniqueID
}

func expirationEventLess(a, b expirationEvent) bool {
	if a.deadlineMs != b.deadlineMs {
		return a.deadlineMs < b.deadlineMs
	}
	if a.queryID.Hi != b.queryID.Hi {
		return a.queryID.Hi < b.queryID.Hi
	}
	return a.queryID.Lo < b.queryID.Lo
}

// expirationQueue is the ordered queries-by-timestamp map consumed by the
// query expiration sweep.
type expirationQueue struct {
	mu struct {
		syncutil.Mutex
		tree    *btree.BTreeG[expirationEvent]
		byQuery map[impalapb.UniqueID]int64
	}
}

func newExpirationQueue() *expirationQueue {
	q := &expirationQueue{}
	q.mu.tree = btree.NewG(8, expirationEventLess)
	q.mu.byQuery = make(map[impalapb.UniqueID]int64)
	return q
}

// add inserts or repositions the query's expiration event.
func (q *expirationQueue) add(queryID impalapb.UniqueID, deadlineMs int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if old, ok := q.mu.byQuery[queryID]; ok {
		q.mu.tree.Delete(expirationEvent{deadlineMs: old, queryID: queryID})
	}
	q.mu.tree.ReplaceOrInsert(expirationEvent{deadlineMs: deadlineMs, queryID: queryID})
	q.mu.byQuery[queryID] = deadlineMs
}

// remove drops the query's event, if any.
func (q *expirationQueue) remove(queryID impalapb.UniqueID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if old, ok := q.mu.byQuery[queryID]; ok {
		q.mu.tree.Delete(expirationEvent{deadlineMs: old, queryID: queryID})
		delete(q.mu.byQuery, queryID)
	}
}

// due returns all events with a deadline at or before nowMs, in order.
func (q *expirationQueue) due(nowMs int64) []expirationEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	var events []expirationEvent
	q.mu.tree.Ascend(func(ev expirationEvent) bool {
		if ev.deadlineMs > nowMs {
			return false
		}
		events = append(events, ev)
		return true
	})
	return events
}

func (q *expirationQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mu.tree.Len()
}

// startExpirationSweepers launches the session and query sweepers unless
// disabled by knobs or configuration.
func (srv *Server) startExpirationSweepers(ctx context.Context, stopper *stop.Stopper) {
	if srv.cfg.Knobs.DisableSweeps {
		return
	}
	if srv.cfg.Cfg.IdleSessionTimeout > 0 {
		interval := time.Duration(srv.cfg.Cfg.IdleSessionTimeout) * time.Second / 2
		if srv.cfg.Knobs.SessionSweepInterval > 0 {
			interval = srv.cfg.Knobs.SessionSweepInterval
		}
		stopper.RunWorker(ctx, func(ctx context.Context) {
			srv.sessionSweepLoop(ctx, stopper, interval)
		})
	}
	queryInterval := querySweepInterval
	if srv.cfg.Knobs.QuerySweepInterval > 0 {
		queryInterval = srv.cfg.Knobs.QuerySweepInterval
	}
	stopper.RunWorker(ctx, func(ctx context.Context) {
		srv.querySweepLoop(ctx, stopper, queryInterval)
	})
}

func (srv *Server) sessionSweepLoop(ctx context.Context, stopper *stop.Stopper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			srv.SweepIdleSessions(ctx, timeutil.NowMillis())
		case <-stopper.ShouldQuiesce():
			return
		}
	}
}

func (srv *Server) querySweepLoop(ctx context.Context, stopper *stop.Stopper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			srv.SweepExpiredQueries(ctx, timeutil.NowMillis())
		case <-stopper.ShouldQuiesce():
			return
		}
	}
}

// SweepIdleSessions runs one session expiration pass: sessions idle longer
// than idle_session_timeout are marked expired and their in-flight queries
// enqueued for unregistration. No cancellation runs under the registry lock.
func (srv *Server) SweepIdleSessions(ctx context.Context, nowMs int64) {
	ctx = srv.AnnotateCtx(ctx)
	timeoutMs := int64(srv.cfg.Cfg.IdleSessionTimeout) * 1000
	if timeoutMs <= 0 {
		return
	}

	type expiredSession struct {
		id       impalapb.UniqueID
		inflight []impalapb.UniqueID
	}
	var expired []expiredSession

	srv.sessions.Lock()
	for id, session := range srv.sessions.m {
		session.mu.Lock()
		skip := session.mu.refCount > 0 || session.mu.closed || session.mu.expired
		if !skip && nowMs-session.mu.lastAccessedMs > timeoutMs {
			session.mu.expired = true
			es := expiredSession{id: id}
			for queryID := range session.mu.inflightQueries {
				es.inflight = append(es.inflight, queryID)
			}
			expired = append(expired, es)
		}
		session.mu.Unlock()
	}
	srv.sessions.Unlock()

	for _, es := range expired {
		cause := impalapb.WithCode(errors.New("Session expired due to inactivity"),
			impalapb.StatusCode_SESSION_EXPIRED)
		dropped := false
		for _, queryID := range es.inflight {
			if !srv.cancellationPool.tryOffer(ctx, cancellationWork{
				queryID: queryID,
				cause:   cause,
				kind:    unregisterWork,
			}) {
				dropped = true
			}
		}
		if dropped {
			// Queue full. Un-latch the session so the next pass regenerates
			// the dropped unregister work; unregisterWork is idempotent, so
			// re-offering the queries that did fit is harmless.
			srv.sessions.Lock()
			session, ok := srv.sessions.m[es.id]
			srv.sessions.Unlock()
			if ok {
				session.mu.Lock()
				session.mu.expired = false
				session.mu.Unlock()
			}
			continue
		}
		srv.metrics.NumSessionsExpired.Inc()
		log.Infof(ctx, "expiring session %s due to inactivity (%d inflight queries)",
			es.id, len(es.inflight))
	}
}

// SweepExpiredQueries runs one query expiration pass over the ordered
// expiration queue, repairing stale entries and cancelling queries whose
// effective idle timeout has elapsed. Idempotent against concurrent
// client-driven completion.
func (srv *Server) SweepExpiredQueries(ctx context.Context, nowMs int64) {
	ctx = srv.AnnotateCtx(ctx)
	for _, ev := range srv.queryExpiration.due(nowMs) {
		e := srv.getQueryExecState(ev.queryID, false)
		if e == nil {
			// Unregistered elsewhere; drop the stale entry.
			srv.queryExpiration.remove(ev.queryID)
			continue
		}
		deadlineMs := e.LastActiveMs() + e.idleTimeout.Milliseconds()
		if deadlineMs > ev.deadlineMs {
			// Client activity moved the expiry forward; reposition.
			srv.queryExpiration.add(ev.queryID, deadlineMs)
			continue
		}
		if nowMs < deadlineMs || e.IsActive() {
			continue
		}
		cause := impalapb.WithCode(errors.Errorf(
			"Query %s expired due to client inactivity (timeout is %s)",
			ev.queryID, prettyPrintDuration(e.idleTimeout)),
			impalapb.StatusCode_CANCELLED)
		if !srv.cancellationPool.tryOffer(ctx, cancellationWork{
			queryID: ev.queryID,
			cause:   cause,
			kind:    cancelWork,
		}) {
			// Queue full; keep the entry so the next pass retries.
			continue
		}
		log.Infof(ctx, "expiring query %s, last active %d", ev.queryID, e.LastActiveMs())
		srv.metrics.NumQueriesExpired.Inc()
		srv.queryExpiration.remove(ev.queryID)
	}
}
