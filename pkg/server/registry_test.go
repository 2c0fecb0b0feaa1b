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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goimpala/impala/pkg/impalapb"
)

func TestUnknownQueryLookups(t *testing.T) {
	ts := newTestServer(t, nil)
	id := impalapb.MakeUniqueID()

	_, err := ts.GetQueryExecState(id)
	require.EqualError(t, err, fmt.Sprintf("Query id %s not found", id))
	require.Equal(t, impalapb.StatusCode_UNKNOWN_QUERY, impalapb.CodeOf(err))

	_, err = ts.GetSessionIDForQuery(id)
	require.Error(t, err)

	require.Error(t, ts.CancelInternal(context.Background(), id, nil))
	require.False(t, ts.UnregisterQuery(context.Background(), id, nil))
}

func TestUnregisterQueryIdempotent(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	session := ts.openTestSession(t)

	e, err := ts.ExecuteStatement(ctx, session, "select 1")
	require.NoError(t, err)

	require.True(t, ts.UnregisterQuery(ctx, e.QueryID(), nil))
	require.False(t, ts.UnregisterQuery(ctx, e.QueryID(), nil))

	// The single archive record proves Done ran exactly once.
	require.Equal(t, 1, ts.NumArchivedQueries())
}

func TestGetSessionIDForQuery(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	session := ts.openTestSession(t)

	e, err := ts.ExecuteStatement(ctx, session, "select 1")
	require.NoError(t, err)

	id, err := ts.GetSessionIDForQuery(e.QueryID())
	require.NoError(t, err)
	require.Equal(t, session.ID, id)
}

func TestUpdateFragmentExecStatusRouting(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	session := ts.openTestSession(t)

	e, err := ts.ExecuteStatement(ctx, session, "select 1")
	require.NoError(t, err)
	coord := ts.lastCoordinator(t)

	require.NoError(t, ts.UpdateFragmentExecStatus(&impalapb.ReportExecStatusRequest{
		QueryID: e.QueryID(),
		Status:  impalapb.OKStatus(),
		Done:    true,
	}))
	coord.mu.Lock()
	require.Len(t, coord.mu.reports, 1)
	coord.mu.Unlock()

	// A failed report latches the error on the query.
	failed := impalapb.StatusFromError(impalapb.WithCode(
		fmt.Errorf("memory limit exceeded"), impalapb.StatusCode_MEM_LIMIT_EXCEEDED))
	err = ts.UpdateFragmentExecStatus(&impalapb.ReportExecStatusRequest{
		QueryID: e.QueryID(),
		Status:  failed,
	})
	require.Error(t, err)
	require.Equal(t, PhaseError, e.Phase())
	require.Equal(t, impalapb.StatusCode_MEM_LIMIT_EXCEEDED, impalapb.CodeOf(e.Status()))
}

func TestUpdateFragmentExecStatusUnknownQuery(t *testing.T) {
	ts := newTestServer(t, nil)
	id := impalapb.MakeUniqueID()

	err := ts.UpdateFragmentExecStatus(&impalapb.ReportExecStatusRequest{
		QueryID: id,
		Status:  impalapb.OKStatus(),
	})
	require.EqualError(t, err, fmt.Sprintf(
		"ReportExecStatus(): received report for unknown query id (probably closed or cancelled): %s", id))
	require.Equal(t, impalapb.StatusCode_INTERNAL_ERROR, impalapb.CodeOf(err))
}

// TestConcurrentExecuteAndLookup exercises the lock ordering between Execute
// (exec-state lock, then registry lock) and lookups (registry lock, then
// exec-state lock). Run with the race detector.
func TestConcurrentExecuteAndLookup(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	session := ts.openTestSession(t)

	const numQueries = 20
	ids := make(chan impalapb.UniqueID, numQueries)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer close(ids)
		for i := 0; i < numQueries; i++ {
			e, err := ts.ExecuteStatement(ctx, session, "select 1")
			if err != nil {
				t.Error(err)
				return
			}
			ids <- e.QueryID()
		}
	}()
	go func() {
		defer wg.Done()
		for id := range ids {
			if e := ts.getQueryExecState(id, true /* lock */); e != nil {
				phase := e.mu.phase
				e.mu.Unlock()
				_ = phase
			}
			ts.UnregisterQuery(ctx, id, nil)
		}
	}()
	wg.Wait()

	require.Empty(t, session.InflightQueries())
	require.Equal(t, numQueries, ts.NumArchivedQueries())
}

func TestQueryLocations(t *testing.T) {
	ts := newTestServer(t, nil)
	id1, id2 := impalapb.MakeUniqueID(), impalapb.MakeUniqueID()
	hostA := impalapb.MakeNetworkAddress("a", 22000)
	hostB := impalapb.MakeNetworkAddress("b", 22000)

	ts.addQueryLocations(id1, []impalapb.NetworkAddress{hostA, hostB})
	ts.addQueryLocations(id2, []impalapb.NetworkAddress{hostA})

	locations := ts.QueryLocations()
	require.Len(t, locations["a:22000"], 2)
	require.Len(t, locations["b:22000"], 1)

	ts.removeQueryLocations(id1)
	locations = ts.QueryLocations()
	require.Equal(t, []impalapb.UniqueID{id2}, locations["a:22000"])
	require.NotContains(t, locations, "b:22000")
}
