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
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/goimpala/impala/pkg/base"
	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/stop"
	"github.com/goimpala/impala/pkg/util/syncutil"
)

// fakeCoordinator is a scripted QueryCoordinator.
type fakeCoordinator struct {
	execErr error

	mu struct {
		syncutil.Mutex
		batches   []*impalapb.RowBatch
		cancelled error
		reports   []*impalapb.ReportExecStatusRequest
	}
}

var _ QueryCoordinator = (*fakeCoordinator)(nil)

func (c *fakeCoordinator) Exec(ctx context.Context) error { return c.execErr }
func (c *fakeCoordinator) Wait(ctx context.Context) error { return nil }

func (c *fakeCoordinator) GetNext(
	ctx context.Context, maxRows int64,
) (*impalapb.RowBatch, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.mu.batches) == 0 {
		return nil, true, nil
	}
	batch := c.mu.batches[0]
	c.mu.batches = c.mu.batches[1:]
	return batch, false, nil
}

func (c *fakeCoordinator) Cancel(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.cancelled == nil {
		c.mu.cancelled = cause
	}
}

func (c *fakeCoordinator) cancelledWith() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.cancelled
}

func (c *fakeCoordinator) UpdateFragmentExecStatus(req *impalapb.ReportExecStatusRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mu.reports = append(c.mu.reports, req)
	return req.Status.Err()
}

func (c *fakeCoordinator) ExecSummary() string { return "fake exec summary" }
func (c *fakeCoordinator) Progress() string    { return "1 / 1 fragment instances complete" }

// fakeFrontend is a scripted planner.
type fakeFrontend struct {
	hosts   []impalapb.NetworkAddress
	planErr error
	// catalogUpdate, if set, is attached to plans of DDL statements.
	catalogUpdate *impalapb.CatalogUpdateResult

	mu struct {
		syncutil.Mutex
		serviceID   impalapb.UniqueID
		cacheReqs   []*impalapb.UpdateCatalogCacheRequest
		cacheErr    error
		objects     map[string]impalapb.CatalogObject
		dbs, tables []string
	}
}

var _ Frontend = (*fakeFrontend)(nil)

func newFakeFrontend(hosts ...impalapb.NetworkAddress) *fakeFrontend {
	f := &fakeFrontend{hosts: hosts}
	f.mu.objects = make(map[string]impalapb.CatalogObject)
	return f
}

func (f *fakeFrontend) ValidateSettings() error { return nil }

func (f *fakeFrontend) GetExecRequest(
	ctx context.Context, queryCtx *impalapb.QueryCtx,
) (*impalapb.ExecRequest, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	req := &impalapb.ExecRequest{
		StmtType: impalapb.StmtType_QUERY,
		Plan:     "00:PLAN",
	}
	stmt := strings.ToLower(queryCtx.Request.Stmt)
	if strings.HasPrefix(stmt, "create") || strings.HasPrefix(stmt, "drop") {
		req.StmtType = impalapb.StmtType_DDL
		req.CatalogUpdate = f.catalogUpdate
		return req, nil
	}
	if len(f.hosts) > 0 {
		req.Fragments = []impalapb.PlanFragment{{
			Idx:        0,
			Plan:       "00:SCAN",
			OutputSink: &impalapb.DataSink{SinkType: "RESULT_SINK"},
		}}
		req.Hosts = append(req.Hosts, f.hosts...)
	}
	return req, nil
}

func (f *fakeFrontend) UpdateCatalogCache(
	ctx context.Context, req *impalapb.UpdateCatalogCacheRequest,
) (*impalapb.UpdateCatalogCacheResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mu.cacheErr != nil {
		return nil, f.mu.cacheErr
	}
	f.mu.cacheReqs = append(f.mu.cacheReqs, req)
	serviceID := req.CatalogServiceID
	for _, obj := range req.UpdatedObjects {
		if serviceID.IsZero() {
			serviceID = obj.CatalogServiceID
		}
		f.mu.objects[obj.Name] = obj
	}
	for _, obj := range req.RemovedObjects {
		delete(f.mu.objects, obj.Name)
	}
	if !serviceID.IsZero() {
		f.mu.serviceID = serviceID
	}
	return &impalapb.UpdateCatalogCacheResponse{CatalogServiceID: f.mu.serviceID}, nil
}

func (f *fakeFrontend) GetCatalogObject(
	ctx context.Context, obj *impalapb.CatalogObject,
) (*impalapb.CatalogObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cached, ok := f.mu.objects[obj.Name]
	if !ok {
		return nil, errors.Errorf("object %q not found", obj.Name)
	}
	return &cached, nil
}

func (f *fakeFrontend) GetDbNames(ctx context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mu.dbs, nil
}

func (f *fakeFrontend) GetTableNames(ctx context.Context, db, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mu.tables, nil
}

// testServer bundles a Server with its scripted collaborators.
type testServer struct {
	*Server
	stopper  *stop.Stopper
	frontend *fakeFrontend

	coordMu struct {
		syncutil.Mutex
		coords []*fakeCoordinator
	}
}

// lastCoordinator returns the most recently created fake coordinator.
func (ts *testServer) lastCoordinator(t *testing.T) *fakeCoordinator {
	t.Helper()
	ts.coordMu.Lock()
	defer ts.coordMu.Unlock()
	require.NotEmpty(t, ts.coordMu.coords, "no coordinator was created")
	return ts.coordMu.coords[len(ts.coordMu.coords)-1]
}

// newTestServer starts a server with sweeps disabled and a scripted
// frontend that schedules one fragment on one fake host.
func newTestServer(t *testing.T, mutate func(*ServerConfig)) *testServer {
	t.Helper()
	stopper := stop.NewStopper()
	t.Cleanup(func() { stopper.Stop(context.Background()) })

	ts := &testServer{stopper: stopper}
	ts.frontend = newFakeFrontend(impalapb.MakeNetworkAddress("backend1", 22000))

	cfg := ServerConfig{
		Cfg:      base.DefaultConfig(),
		Frontend: ts.frontend,
		NewCoordinator: func(
			ambient log.AmbientContext, queryCtx *impalapb.QueryCtx, request *impalapb.ExecRequest,
		) QueryCoordinator {
			coord := &fakeCoordinator{}
			ts.coordMu.Lock()
			ts.coordMu.coords = append(ts.coordMu.coords, coord)
			ts.coordMu.Unlock()
			return coord
		},
		Knobs: TestingKnobs{DisableSweeps: true},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := NewServer(cfg, stopper)
	require.NoError(t, err)
	srv.Start(context.Background())
	ts.Server = srv
	return ts
}

// openTestSession opens a session for a default test user.
func (ts *testServer) openTestSession(t *testing.T) *SessionState {
	t.Helper()
	return ts.OpenSession(context.Background(), SessionBeeswax, "", "test-user", "127.0.0.1:50000")
}
