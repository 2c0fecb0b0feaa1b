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

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
)

// errUnknownQuery constructs the user-visible unknown-query error.
func errUnknownQuery(id impalapb.UniqueID) error {
	return impalapb.WithCode(errors.Errorf("Query id %s not found", id),
		impalapb.StatusCode_UNKNOWN_QUERY)
}

// registerQuery inserts the exec state into the registry and the owning
// session's in-flight set, and arms idle expiration if a timeout applies.
// The caller holds e.mu; the registry lock is acquired under it, which is
// the Execute-side half of the lock ordering discipline.
func (srv *Server) registerQuery(ctx context.Context, session *SessionState, e *QueryExecState) error {
	queryID := e.QueryID()

	session.mu.Lock()
	err := session.addInflightQueryLocked(queryID)
	session.mu.Unlock()
	if err != nil {
		return err
	}

	srv.queries.Lock()
	if _, ok := srv.queries.m[queryID]; ok {
		srv.queries.Unlock()
		// Ids are random 128-bit values; a collision means the generator is
		// broken and nothing downstream can be trusted.
		log.Fatalf(ctx, "query id %s already registered", queryID)
	}
	srv.queries.m[queryID] = e
	srv.queries.Unlock()

	srv.metrics.NumQueries.Inc()
	srv.metrics.NumInflightQueries.Inc()

	if e.idleTimeout > 0 {
		srv.queryExpiration.add(queryID, e.mu.lastActiveMs+e.idleTimeout.Milliseconds())
	}
	return nil
}

// getQueryExecState looks up a query. With lock the exec-state lock is
// acquired while the registry lock is still held (the lookup-side half of
// the ordering discipline) and the caller must release e.mu.
func (srv *Server) getQueryExecState(queryID impalapb.UniqueID, lock bool) *QueryExecState {
	srv.queries.Lock()
	defer srv.queries.Unlock()
	e, ok := srv.queries.m[queryID]
	if !ok {
		return nil
	}
	if lock {
		e.mu.Lock()
	}
	return e
}

// GetQueryExecState returns the registered exec state for queryID, or an
// unknown-query error.
func (srv *Server) GetQueryExecState(queryID impalapb.UniqueID) (*QueryExecState, error) {
	if e := srv.getQueryExecState(queryID, false); e != nil {
		return e, nil
	}
	return nil, errUnknownQuery(queryID)
}

// GetSessionIDForQuery maps a registered query back to its owning session.
func (srv *Server) GetSessionIDForQuery(queryID impalapb.UniqueID) (impalapb.UniqueID, error) {
	e := srv.getQueryExecState(queryID, false)
	if e == nil {
		return impalapb.UniqueID{}, errUnknownQuery(queryID)
	}
	return e.queryCtx.SessionID, nil
}

// UnregisterQuery performs the idempotent terminal transition: cancel if
// still running, remove from the registry and the session's in-flight set,
// prune query locations, archive. Returns false if the id is not (or no
// longer) registered.
func (srv *Server) UnregisterQuery(ctx context.Context, queryID impalapb.UniqueID, cause error) bool {
	ctx = srv.AnnotateCtx(ctx)

	srv.queries.Lock()
	e, ok := srv.queries.m[queryID]
	if ok {
		delete(srv.queries.m, queryID)
	}
	srv.queries.Unlock()
	if !ok {
		return false
	}
	srv.metrics.NumInflightQueries.Dec()
	srv.queryExpiration.remove(queryID)

	if cause != nil || !e.Phase().Terminal() {
		e.Cancel(cause)
	}
	e.Done()

	e.session.removeInflightQuery(queryID)
	srv.removeQueryLocations(queryID)

	// Authorization failures are audited again at teardown, with the final
	// query status.
	if status := e.Status(); status != nil && isAuthorizationError(status) {
		_ = srv.logAuditRecord(ctx, e, status)
	}
	srv.archiveQuery(ctx, e)

	log.VEventf(ctx, 1, "unregistered query %s in state %s", queryID, e.Phase())
	return true
}

// CancelInternal latches cause on the query and signals its coordinator to
// stop, without unregistering. Used by the cancellation pool and the
// expiration sweepers.
func (srv *Server) CancelInternal(ctx context.Context, queryID impalapb.UniqueID, cause error) error {
	e := srv.getQueryExecState(queryID, false)
	if e == nil {
		return errUnknownQuery(queryID)
	}
	e.Cancel(cause)
	log.VEventf(srv.AnnotateCtx(ctx), 1, "cancelled query %s: %v", queryID, cause)
	return nil
}

// UpdateFragmentExecStatus routes one backend status report to the query's
// distributed coordinator. Reports for unknown queries are the usual race
// with cancellation and come back as a structured error, not a crash.
func (srv *Server) UpdateFragmentExecStatus(req *impalapb.ReportExecStatusRequest) error {
	e := srv.getQueryExecState(req.QueryID, false)
	if e == nil {
		return impalapb.WithCode(errors.Errorf(
			"ReportExecStatus(): received report for unknown query id (probably closed or cancelled): %s",
			req.QueryID), impalapb.StatusCode_INTERNAL_ERROR)
	}
	coord := e.Coordinator()
	if coord == nil {
		return impalapb.WithCode(errors.Errorf(
			"ReportExecStatus(): query %s has no coordinator", req.QueryID),
			impalapb.StatusCode_INTERNAL_ERROR)
	}
	if err := coord.UpdateFragmentExecStatus(req); err != nil {
		e.updateQueryStatus(err)
		return err
	}
	return nil
}

// addQueryLocations records that queryID has fragments on each host.
func (srv *Server) addQueryLocations(queryID impalapb.UniqueID, hosts []impalapb.NetworkAddress) {
	srv.locations.Lock()
	defer srv.locations.Unlock()
	for _, host := range hosts {
		addr := host.String()
		queries, ok := srv.locations.m[addr]
		if !ok {
			queries = make(map[impalapb.UniqueID]struct{})
			srv.locations.m[addr] = queries
		}
		queries[queryID] = struct{}{}
	}
}

// removeQueryLocations prunes queryID from every backend entry. The
// membership reconciler may race with this and erase entries itself; both
// orders converge on the same state.
func (srv *Server) removeQueryLocations(queryID impalapb.UniqueID) {
	srv.locations.Lock()
	defer srv.locations.Unlock()
	for addr, queries := range srv.locations.m {
		delete(queries, queryID)
		if len(queries) == 0 {
			delete(srv.locations.m, addr)
		}
	}
}

// QueryLocations snapshots the backend-address to query-ids map.
func (srv *Server) QueryLocations() map[string][]impalapb.UniqueID {
	srv.locations.Lock()
	defer srv.locations.Unlock()
	out := make(map[string][]impalapb.UniqueID, len(srv.locations.m))
	for addr, queries := range srv.locations.m {
		ids := make([]impalapb.UniqueID, 0, len(queries))
		for id := range queries {
			ids = append(ids, id)
		}
		out[addr] = ids
	}
	return out
}
