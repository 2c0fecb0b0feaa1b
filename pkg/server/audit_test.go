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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/goimpala/impala/pkg/impalapb"
)

// readAuditEvents flushes the audit log and decodes every entry, which is a
// JSON object keyed by the event timestamp.
func readAuditEvents(t *testing.T, ts *testServer, dir string) []auditRecord {
	t.Helper()
	require.NoError(t, ts.auditLog.Flush())
	files, err := filepath.Glob(filepath.Join(dir, AuditEventLogFilePrefix+"*"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)

	var recs []auditRecord
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var entry map[string]auditRecord
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		require.Len(t, entry, 1)
		for _, rec := range entry {
			recs = append(recs, rec)
		}
	}
	return recs
}

func TestAuditEventForQuery(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.Cfg.AuditEventLogDir = dir
	})
	session := ts.openTestSession(t)

	e, err := ts.ExecuteStatement(ctx, session, "select *\nfrom t")
	require.NoError(t, err)

	recs := readAuditEvents(t, ts, dir)
	require.Len(t, recs, 1)
	rec := recs[0]
	require.Equal(t, e.QueryID().String(), rec.QueryID)
	require.Equal(t, session.ID.String(), rec.SessionID)
	require.Equal(t, "OK", rec.Status)
	require.False(t, rec.AuthorizationFailure)
	require.Equal(t, "test-user", rec.User)
	require.Nil(t, rec.Impersonator)
	require.Equal(t, "QUERY", rec.StatementType)
	require.Equal(t, "127.0.0.1:50000", rec.NetworkAddress)
	// Newlines in the statement are flattened to keep one event per line.
	require.Equal(t, "select * from t", rec.SQLStatement)
	require.NotNil(t, rec.CatalogObjects)
}

func TestAuditEventForDelegatedUser(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.Cfg.AuditEventLogDir = dir
	})
	session := ts.openTestSession(t)
	session.SetDoAsUser("alice")

	_, err := ts.ExecuteStatement(ctx, session, "select 1")
	require.NoError(t, err)

	recs := readAuditEvents(t, ts, dir)
	require.Len(t, recs, 1)
	require.Equal(t, "alice", recs[0].User)
	require.NotNil(t, recs[0].Impersonator)
	require.Equal(t, "test-user", *recs[0].Impersonator)
}

func TestAuditEventReloggedOnAuthorizationFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.Cfg.AuditEventLogDir = dir
	})
	ts.frontend.planErr = impalapb.WithCode(
		errors.New(`User "test-user" does not have privileges to access: secret`),
		impalapb.StatusCode_AUTHORIZATION)
	session := ts.openTestSession(t)

	_, err := ts.ExecuteStatement(ctx, session, "select * from secret")
	require.Error(t, err)
	require.Equal(t, impalapb.StatusCode_AUTHORIZATION, impalapb.CodeOf(err))

	// One event at planning time and a second at teardown.
	recs := readAuditEvents(t, ts, dir)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		require.True(t, rec.AuthorizationFailure)
		require.Contains(t, rec.Status, "does not have privileges")
	}
}

func TestAuditEventForPlanningFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.Cfg.AuditEventLogDir = dir
	})
	ts.frontend.planErr = errors.New("AnalysisException: syntax error")
	session := ts.openTestSession(t)

	_, err := ts.ExecuteStatement(ctx, session, "selec 1")
	require.Error(t, err)

	recs := readAuditEvents(t, ts, dir)
	require.Len(t, recs, 1)
	require.Contains(t, recs[0].Status, "AnalysisException")
	require.False(t, recs[0].AuthorizationFailure)
}
