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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goimpala/impala/pkg/impalapb"
)

// runQuery executes stmt and immediately unregisters it, returning its id.
func runQuery(t *testing.T, ts *testServer, session *SessionState, stmt string) impalapb.UniqueID {
	t.Helper()
	e, err := ts.ExecuteStatement(context.Background(), session, stmt)
	require.NoError(t, err)
	id := e.QueryID()
	require.True(t, ts.UnregisterQuery(context.Background(), id, nil))
	return id
}

func TestArchiveMostRecentFirst(t *testing.T) {
	ts := newTestServer(t, nil)
	session := ts.openTestSession(t)

	var ids []impalapb.UniqueID
	for i := 0; i < 3; i++ {
		ids = append(ids, runQuery(t, ts, session, fmt.Sprintf("select %d", i)))
	}

	recs := ts.ArchivedQueries()
	require.Len(t, recs, 3)
	require.Equal(t, ids[2], recs[0].ID)
	require.Equal(t, ids[1], recs[1].ID)
	require.Equal(t, ids[0], recs[2].ID)
}

func TestArchiveEvictsOldest(t *testing.T) {
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.Cfg.QueryLogSize = 2
	})
	session := ts.openTestSession(t)

	first := runQuery(t, ts, session, "select 1")
	second := runQuery(t, ts, session, "select 2")
	third := runQuery(t, ts, session, "select 3")

	require.Equal(t, 2, ts.NumArchivedQueries())
	_, err := ts.GetQueryRecord(first)
	require.Error(t, err)
	for _, id := range []impalapb.UniqueID{second, third} {
		_, err := ts.GetQueryRecord(id)
		require.NoError(t, err)
	}
}

func TestArchiveUnbounded(t *testing.T) {
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.Cfg.QueryLogSize = -1
	})
	session := ts.openTestSession(t)

	for i := 0; i < 50; i++ {
		runQuery(t, ts, session, "select 1")
	}
	require.Equal(t, 50, ts.NumArchivedQueries())
}

func TestArchiveDisabled(t *testing.T) {
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.Cfg.QueryLogSize = 0
	})
	session := ts.openTestSession(t)

	id := runQuery(t, ts, session, "select 1")
	require.Zero(t, ts.NumArchivedQueries())
	_, err := ts.GetQueryRecord(id)
	require.Error(t, err)
}

func TestGetRuntimeProfileStr(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	session := ts.openTestSession(t)

	e, err := ts.ExecuteStatement(ctx, session, "select 1")
	require.NoError(t, err)
	id := e.QueryID()

	// Live query: the profile comes from the registry.
	profile, err := ts.GetRuntimeProfileStr(id, false)
	require.NoError(t, err)
	require.Contains(t, profile, fmt.Sprintf("Query (id=%s):", id))
	require.Contains(t, profile, "Statement: select 1")
	require.Contains(t, profile, "Query State: RUNNING")

	encoded, err := ts.GetRuntimeProfileStr(id, true)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Contains(t, string(decoded), "Statement: select 1")

	// Completed query: the archive serves it.
	require.True(t, ts.UnregisterQuery(ctx, id, nil))
	profile, err = ts.GetRuntimeProfileStr(id, false)
	require.NoError(t, err)
	require.Contains(t, profile, "Query State: FINISHED")
	require.Contains(t, profile, "End Time:")

	_, err = ts.GetRuntimeProfileStr(impalapb.MakeUniqueID(), false)
	require.Error(t, err)
}

func TestGetExecSummary(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	session := ts.openTestSession(t)

	e, err := ts.ExecuteStatement(ctx, session, "select 1")
	require.NoError(t, err)
	summary, err := ts.GetExecSummary(e.QueryID())
	require.NoError(t, err)
	require.Equal(t, "fake exec summary", summary)

	// Statements with no distributed part have no summary.
	ddl, err := ts.ExecuteStatement(ctx, session, "create table t (i int)")
	require.NoError(t, err)
	summary, err = ts.GetExecSummary(ddl.QueryID())
	require.NoError(t, err)
	require.Equal(t, "Query has no exec summary", summary)
}

func TestProfileLogWritten(t *testing.T) {
	dir := t.TempDir()
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.Cfg.LogQueryToFile = true
		cfg.Cfg.ProfileLogDir = dir
	})
	session := ts.openTestSession(t)

	id := runQuery(t, ts, session, "select 1")
	require.NoError(t, ts.profileLog.Flush())

	files, err := filepath.Glob(filepath.Join(dir, ProfileLogFilePrefix+"*"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)

	// One line per query: "<timestamp ms> <query id> <base64 profile>".
	line := strings.TrimSpace(string(data))
	fields := strings.Fields(line)
	require.Len(t, fields, 3)
	require.Equal(t, id.String(), fields[1])
	decoded, err := base64.StdEncoding.DecodeString(fields[2])
	require.NoError(t, err)
	require.Contains(t, string(decoded), "Statement: select 1")
}
