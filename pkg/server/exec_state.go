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
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/syncutil"
	"github.com/goimpala/impala/pkg/util/timeutil"
)

// QueryPhase is the lifecycle phase of a query. Transitions are monotonic
// toward one of the terminal phases Finished, Cancelled or Error.
type QueryPhase int

const (
	PhaseRegistered QueryPhase = iota
	PhasePlanned
	PhaseRunning
	PhaseFinished
	PhaseCancelled
	PhaseError
)

func (p QueryPhase) String() string {
	switch p {
	case PhaseRegistered:
		return "REGISTERED"
	case PhasePlanned:
		return "PLANNED"
	case PhaseRunning:
		return "RUNNING"
	case PhaseFinished:
		return "FINISHED"
	case PhaseCancelled:
		return "CANCELLED"
	case PhaseError:
		return "ERROR"
	default:
		return fmt.Sprintf("QueryPhase(%d)", int(p))
	}
}

// Terminal reports whether the phase admits no further transitions.
func (p QueryPhase) Terminal() bool {
	return p == PhaseFinished || p == PhaseCancelled || p == PhaseError
}

// QueryExecState tracks one accepted query from registration to archival.
//
// Lock ordering: during Execute the exec-state lock is acquired before the
// query-registry lock; lookups with lock=true acquire the registry lock
// first. This is deadlock-free because a lookup cannot observe the query
// until Execute has released the registry lock.
type QueryExecState struct {
	srv       *Server
	session   *SessionState
	queryCtx  impalapb.QueryCtx
	startTime time.Time

	// Effective idle timeout; zero disables expiration.
	idleTimeout time.Duration

	mu struct {
		syncutil.Mutex
		phase       QueryPhase
		queryStatus error // first non-OK status, latched
		errorMsgs   []string

		endTime      time.Time
		lastActiveMs int64
		refCount     int // client operations in progress

		numRowsFetched int64
		eos            bool
		resultCache    []*impalapb.RowBatch
		cacheDisabled  bool
		fetchCursor    int

		execSummary string // appended to the profile on Done
		doneCalled  bool
	}

	// Both are written once, under mu, during Execute.
	execRequest *impalapb.ExecRequest
	coord       QueryCoordinator
}

func newQueryExecState(srv *Server, session *SessionState, queryCtx impalapb.QueryCtx) *QueryExecState {
	e := &QueryExecState{
		srv:       srv,
		session:   session,
		queryCtx:  queryCtx,
		startTime: timeutil.Now(),
	}
	e.mu.phase = PhaseRegistered
	e.mu.lastActiveMs = timeutil.NowMillis()
	return e
}

// QueryID returns the query's identity.
func (e *QueryExecState) QueryID() impalapb.UniqueID { return e.queryCtx.QueryID }

// Stmt returns the SQL text.
func (e *QueryExecState) Stmt() string { return e.queryCtx.Request.Stmt }

// Phase returns the current lifecycle phase.
func (e *QueryExecState) Phase() QueryPhase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mu.phase
}

// Status returns the latched query status; nil means OK so far.
func (e *QueryExecState) Status() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mu.queryStatus
}

// StmtType returns the planner's classification, or QUERY before planning.
func (e *QueryExecState) StmtType() impalapb.StmtType {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.execRequest == nil {
		return impalapb.StmtType_QUERY
	}
	return e.execRequest.StmtType
}

// LastActiveMs returns the query's last client-activity timestamp.
func (e *QueryExecState) LastActiveMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mu.lastActiveMs
}

// IsActive reports whether a client operation currently holds the query.
func (e *QueryExecState) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mu.refCount > 0
}

// MarkActive flags the start of a client operation; pair with MarkInactive.
func (e *QueryExecState) MarkActive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mu.refCount++
	e.mu.lastActiveMs = timeutil.NowMillis()
}

// MarkInactive flags the end of a client operation.
func (e *QueryExecState) MarkInactive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mu.refCount--
	if e.mu.refCount < 0 {
		panic("query ref count dropped below zero")
	}
	e.mu.lastActiveMs = timeutil.NowMillis()
}

// updateQueryStatus latches err as the query's terminal cause if it is the
// first non-OK status; later errors only append their message. Returns the
// effective status.
func (e *QueryExecState) updateQueryStatus(err error) error {
	if err == nil {
		return e.Status()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateQueryStatusLocked(err)
}

func (e *QueryExecState) updateQueryStatusLocked(err error) error {
	if e.mu.queryStatus == nil {
		e.mu.queryStatus = err
		if !e.mu.phase.Terminal() {
			if impalapb.IsCancelled(err) {
				e.setPhaseLocked(PhaseCancelled)
			} else {
				e.setPhaseLocked(PhaseError)
			}
		}
	} else {
		e.mu.errorMsgs = append(e.mu.errorMsgs, err.Error())
	}
	return e.mu.queryStatus
}

func (e *QueryExecState) setPhaseLocked(p QueryPhase) {
	if e.mu.phase.Terminal() {
		return
	}
	e.mu.phase = p
	if p.Terminal() {
		e.mu.endTime = timeutil.Now()
	}
}

// Exec launches distributed execution of a planned request. Statements with
// no fragments (DDL, SET and friends) finish immediately.
func (e *QueryExecState) Exec(ctx context.Context) error {
	e.mu.Lock()
	request := e.execRequest
	e.mu.Unlock()
	if request == nil {
		return errors.AssertionFailedf("Exec called before planning completed")
	}

	if len(request.Fragments) == 0 {
		e.mu.Lock()
		e.mu.eos = true
		e.setPhaseLocked(PhaseFinished)
		e.mu.Unlock()
		return nil
	}

	ambient := log.AmbientContext{}
	ambient.AddLogTag("query", e.QueryID())
	coord := e.srv.cfg.NewCoordinator(ambient, &e.queryCtx, request)

	e.mu.Lock()
	e.coord = coord
	e.mu.Unlock()

	if err := coord.Exec(ctx); err != nil {
		err = impalapb.WithCode(errors.Wrap(err, "fragment dispatch failed"),
			impalapb.StatusCode_EXECUTION_ERROR)
		e.updateQueryStatus(err)
		return err
	}
	e.mu.Lock()
	e.setPhaseLocked(PhaseRunning)
	e.mu.Unlock()
	return nil
}

// Coordinator returns the distributed coordinator, or nil if the query has
// no distributed part.
func (e *QueryExecState) Coordinator() QueryCoordinator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.coord
}

// FetchRows returns the next batch of results. eos is true once all rows
// have been delivered; the query transitions to Finished at that point.
func (e *QueryExecState) FetchRows(
	ctx context.Context, maxRows int64,
) (*impalapb.RowBatch, bool, error) {
	e.MarkActive()
	defer e.MarkInactive()

	e.mu.Lock()
	if err := e.mu.queryStatus; err != nil {
		e.mu.Unlock()
		return nil, true, err
	}
	// Replay from the result cache after a fetch restart.
	if e.mu.fetchCursor < len(e.mu.resultCache) {
		batch := e.mu.resultCache[e.mu.fetchCursor]
		e.mu.fetchCursor++
		e.mu.Unlock()
		return batch, false, nil
	}
	if e.mu.eos {
		e.mu.Unlock()
		return &impalapb.RowBatch{}, true, nil
	}
	coord := e.coord
	e.mu.Unlock()

	if coord == nil {
		e.mu.Lock()
		e.mu.eos = true
		e.setPhaseLocked(PhaseFinished)
		e.mu.Unlock()
		return &impalapb.RowBatch{}, true, nil
	}

	if err := coord.Wait(ctx); err != nil {
		return nil, true, e.updateQueryStatus(err)
	}
	batch, eos, err := coord.GetNext(ctx, maxRows)
	if err != nil {
		return nil, true, e.updateQueryStatus(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if batch != nil {
		e.mu.numRowsFetched += batch.NumRows
		e.cacheBatchLocked(batch)
	}
	if eos {
		e.mu.eos = true
		e.setPhaseLocked(PhaseFinished)
	}
	return batch, eos, nil
}

func (e *QueryExecState) cacheBatchLocked(batch *impalapb.RowBatch) {
	max := int64(e.srv.cfg.Cfg.MaxResultCacheSize)
	if max <= 0 || e.mu.cacheDisabled {
		return
	}
	var cached int64
	for _, b := range e.mu.resultCache {
		cached += b.NumRows
	}
	if cached+batch.NumRows > max {
		// Too big to replay; fetch restarts will be refused.
		e.mu.resultCache = nil
		e.mu.cacheDisabled = true
		return
	}
	e.mu.resultCache = append(e.mu.resultCache, batch)
	e.mu.fetchCursor = len(e.mu.resultCache)
}

// RestartFetch rewinds the fetch cursor to the first row. Fails if the
// result set outgrew max_result_cache_size.
func (e *QueryExecState) RestartFetch() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mu.cacheDisabled {
		return impalapb.WithCode(errors.Errorf(
			"Restarting of fetch requires enabling of query result caching with a size of at least %d rows",
			e.mu.numRowsFetched), impalapb.StatusCode_INTERNAL_ERROR)
	}
	e.mu.fetchCursor = 0
	return nil
}

// NumRowsFetched returns the rows delivered to the client so far.
func (e *QueryExecState) NumRowsFetched() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mu.numRowsFetched
}

// Cancel latches cause (or a generic cancellation if nil) as the query
// status and aborts distributed execution. Safe to call concurrently from
// multiple paths; only the first cause is recorded.
func (e *QueryExecState) Cancel(cause error) {
	if cause == nil {
		cause = impalapb.WithCode(errors.New("Cancelled"), impalapb.StatusCode_CANCELLED)
	}
	e.mu.Lock()
	e.updateQueryStatusLocked(cause)
	coord := e.coord
	e.mu.Unlock()

	// The coordinator's Cancel is idempotent; never invoke it under mu.
	if coord != nil {
		coord.Cancel(cause)
	}
}

// Done finalizes the exec state after its terminal transition. Called
// exactly once, from UnregisterQuery.
func (e *QueryExecState) Done() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mu.doneCalled {
		panic("Done called twice on a query exec state")
	}
	e.mu.doneCalled = true
	if !e.mu.phase.Terminal() {
		e.setPhaseLocked(PhaseFinished)
	}
	if e.mu.endTime.IsZero() {
		e.mu.endTime = timeutil.Now()
	}
	if e.coord != nil {
		e.mu.execSummary = e.coord.ExecSummary()
	}
}

// Profile renders the human-readable runtime profile.
func (e *QueryExecState) Profile() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profileLocked()
}

func (e *QueryExecState) profileLocked() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query (id=%s):\n", e.queryCtx.QueryID)
	fmt.Fprintf(&sb, "  Session ID: %s\n", e.queryCtx.SessionID)
	fmt.Fprintf(&sb, "  Statement: %s\n", e.queryCtx.Request.Stmt)
	fmt.Fprintf(&sb, "  Statement Type: %s\n", e.stmtTypeLocked())
	fmt.Fprintf(&sb, "  User: %s\n", e.effectiveUserLocked())
	fmt.Fprintf(&sb, "  Default Db: %s\n", e.queryCtx.DefaultDb)
	fmt.Fprintf(&sb, "  Start Time: %s\n", e.startTime.Format(timeutil.FullTimeFormat))
	if !e.mu.endTime.IsZero() {
		fmt.Fprintf(&sb, "  End Time: %s\n", e.mu.endTime.Format(timeutil.FullTimeFormat))
	}
	fmt.Fprintf(&sb, "  Query State: %s\n", e.mu.phase)
	if e.mu.queryStatus != nil {
		fmt.Fprintf(&sb, "  Query Status: %s\n", e.mu.queryStatus)
		for _, msg := range e.mu.errorMsgs {
			fmt.Fprintf(&sb, "    %s\n", msg)
		}
	} else {
		fmt.Fprintf(&sb, "  Query Status: OK\n")
	}
	if e.execRequest != nil && e.execRequest.Plan != "" {
		fmt.Fprintf(&sb, "  Plan:\n%s\n", e.execRequest.Plan)
	}
	fmt.Fprintf(&sb, "  Rows Fetched: %d\n", e.mu.numRowsFetched)
	if e.mu.execSummary != "" {
		fmt.Fprintf(&sb, "  ExecSummary:\n%s\n", e.mu.execSummary)
	}
	return sb.String()
}

func (e *QueryExecState) stmtTypeLocked() impalapb.StmtType {
	if e.execRequest == nil {
		return impalapb.StmtType_QUERY
	}
	return e.execRequest.StmtType
}

func (e *QueryExecState) effectiveUserLocked() string {
	if e.queryCtx.DelegatedUser != "" {
		return e.queryCtx.DelegatedUser
	}
	return e.queryCtx.ConnectedUser
}

// Base64Profile returns the profile in the encoded form written to the
// on-disk profile log.
func (e *QueryExecState) Base64Profile() string {
	return base64.StdEncoding.EncodeToString([]byte(e.Profile()))
}

// ExecSummaryStr renders the coordinator's execution summary, or a
// placeholder if the query has no distributed part.
func (e *QueryExecState) ExecSummaryStr() string {
	e.mu.Lock()
	coord := e.coord
	summary := e.mu.execSummary
	e.mu.Unlock()
	if summary != "" {
		return summary
	}
	if coord == nil {
		return "Query has no exec summary"
	}
	return coord.ExecSummary()
}
