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
	"time"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/timeutil"
)

// QueryStateRecord is the post-mortem snapshot of a completed query kept in
// the archive.
type QueryStateRecord struct {
	ID             impalapb.UniqueID
	SessionID      impalapb.UniqueID
	Stmt           string
	StmtType       impalapb.StmtType
	Plan           string
	EffectiveUser  string
	DefaultDb      string
	ClientAddress  string
	StartTime      time.Time
	EndTime        time.Time
	Phase          QueryPhase
	QueryStatus    string // "OK" on success
	NumRowsFetched int64
	Progress       string
	Profile        string
	EncodedProfile string
}

func makeQueryStateRecord(e *QueryExecState) *QueryStateRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := &QueryStateRecord{
		ID:             e.queryCtx.QueryID,
		SessionID:      e.queryCtx.SessionID,
		Stmt:           e.queryCtx.Request.Stmt,
		StmtType:       e.stmtTypeLocked(),
		EffectiveUser:  e.effectiveUserLocked(),
		DefaultDb:      e.queryCtx.DefaultDb,
		ClientAddress:  e.queryCtx.ClientAddress,
		StartTime:      e.startTime,
		EndTime:        e.mu.endTime,
		Phase:          e.mu.phase,
		QueryStatus:    "OK",
		NumRowsFetched: e.mu.numRowsFetched,
	}
	if e.execRequest != nil {
		rec.Plan = e.execRequest.Plan
	}
	if e.mu.queryStatus != nil {
		rec.QueryStatus = e.mu.queryStatus.Error()
	}
	if e.coord != nil {
		rec.Progress = e.coord.Progress()
	}
	rec.Profile = e.profileLocked()
	rec.EncodedProfile = base64Encode(rec.Profile)
	return rec
}

// archiveQuery snapshots the exec state into the in-memory archive and
// appends the encoded profile to the on-disk profile log.
func (srv *Server) archiveQuery(ctx context.Context, e *QueryExecState) {
	rec := makeQueryStateRecord(e)

	if srv.profileLog != nil {
		entry := fmt.Sprintf("%d %s %s", timeutil.ToUnixMillis(rec.EndTime), rec.ID, rec.EncodedProfile)
		if err := srv.profileLog.Append(entry); err != nil {
			log.Errorf(ctx, "failed to write profile log entry for query %s: %v", rec.ID, err)
		}
	}

	size := srv.cfg.Cfg.QueryLogSize
	if size == 0 {
		return
	}
	srv.archive.Lock()
	defer srv.archive.Unlock()
	elem := srv.archive.log.PushFront(rec)
	srv.archive.index[rec.ID] = elem
	if size > 0 {
		for srv.archive.log.Len() > size {
			oldest := srv.archive.log.Back()
			srv.archive.log.Remove(oldest)
			delete(srv.archive.index, oldest.Value.(*QueryStateRecord).ID)
		}
	}
	srv.metrics.NumArchivedQueries.Set(float64(srv.archive.log.Len()))
}

// GetQueryRecord returns the archived record for a completed query.
func (srv *Server) GetQueryRecord(queryID impalapb.UniqueID) (*QueryStateRecord, error) {
	srv.archive.Lock()
	defer srv.archive.Unlock()
	if elem, ok := srv.archive.index[queryID]; ok {
		return elem.Value.(*QueryStateRecord), nil
	}
	return nil, errUnknownQuery(queryID)
}

// ArchivedQueries returns the archive contents, most recent first.
func (srv *Server) ArchivedQueries() []*QueryStateRecord {
	srv.archive.Lock()
	defer srv.archive.Unlock()
	out := make([]*QueryStateRecord, 0, srv.archive.log.Len())
	for elem := srv.archive.log.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(*QueryStateRecord))
	}
	return out
}

// GetRuntimeProfileStr returns a query's runtime profile, consulting the
// live registry first and the archive on a miss.
func (srv *Server) GetRuntimeProfileStr(queryID impalapb.UniqueID, base64Encoded bool) (string, error) {
	if e := srv.getQueryExecState(queryID, false); e != nil {
		if base64Encoded {
			return e.Base64Profile(), nil
		}
		return e.Profile(), nil
	}
	rec, err := srv.GetQueryRecord(queryID)
	if err != nil {
		return "", err
	}
	if base64Encoded {
		return rec.EncodedProfile, nil
	}
	return rec.Profile, nil
}

// GetExecSummary renders the execution summary of a live or archived query.
func (srv *Server) GetExecSummary(queryID impalapb.UniqueID) (string, error) {
	if e := srv.getQueryExecState(queryID, false); e != nil {
		return e.ExecSummaryStr(), nil
	}
	rec, err := srv.GetQueryRecord(queryID)
	if err != nil {
		return "", err
	}
	if rec.Progress != "" {
		return rec.Progress, nil
	}
	return "Query has no exec summary", nil
}

// NumArchivedQueries returns the archive size.
func (srv *Server) NumArchivedQueries() int {
	srv.archive.Lock()
	defer srv.archive.Unlock()
	return srv.archive.log.Len()
}

func base64Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
