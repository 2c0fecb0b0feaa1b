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

// Package frontend provides an embedded planner for standalone operation
// and tests. It classifies statements, produces trivial single-fragment
// plans and maintains a local catalog cache; production deployments plug in
// an external planner instead.
package frontend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/syncutil"
)

type catalogKey struct {
	typ  impalapb.CatalogObjectType
	name string
}

// Frontend is the embedded planner.
type Frontend struct {
	// hosts are the backends queries are scheduled on; empty means queries
	// complete on the coordinator with no distributed part.
	hosts []impalapb.NetworkAddress

	mu struct {
		syncutil.Mutex
		serviceID impalapb.UniqueID
		objects   map[catalogKey]impalapb.CatalogObject
	}
}

// New creates an embedded frontend scheduling fragments on hosts.
func New(hosts ...impalapb.NetworkAddress) *Frontend {
	f := &Frontend{hosts: hosts}
	f.mu.objects = make(map[catalogKey]impalapb.CatalogObject)
	return f
}

// ValidateSettings implements the planner interface.
func (f *Frontend) ValidateSettings() error { return nil }

func classifyStmt(stmt string) impalapb.StmtType {
	fields := strings.Fields(strings.ToLower(stmt))
	if len(fields) == 0 {
		return impalapb.StmtType_QUERY
	}
	switch fields[0] {
	case "create", "drop", "alter", "invalidate", "refresh":
		return impalapb.StmtType_DDL
	case "insert", "update", "delete", "upsert":
		return impalapb.StmtType_DML
	case "explain":
		return impalapb.StmtType_EXPLAIN
	case "load":
		return impalapb.StmtType_LOAD
	case "set":
		return impalapb.StmtType_SET
	default:
		return impalapb.StmtType_QUERY
	}
}

// GetExecRequest produces a trivial plan: queries and DML get one fragment
// per scheduled host; everything else completes on the coordinator.
func (f *Frontend) GetExecRequest(
	ctx context.Context, queryCtx *impalapb.QueryCtx,
) (*impalapb.ExecRequest, error) {
	stmt := strings.TrimSpace(queryCtx.Request.Stmt)
	if stmt == "" {
		return nil, errors.New("empty statement")
	}
	req := &impalapb.ExecRequest{
		StmtType: classifyStmt(stmt),
		Plan:     fmt.Sprintf("00:PLAN\n   statement: %s", stmt),
	}
	distributed := req.StmtType == impalapb.StmtType_QUERY || req.StmtType == impalapb.StmtType_DML
	if distributed && len(f.hosts) > 0 {
		req.Fragments = []impalapb.PlanFragment{{
			Idx:         0,
			DisplayName: "F00",
			Plan:        req.Plan,
			OutputSink:  &impalapb.DataSink{SinkType: "RESULT_SINK"},
		}}
		req.Hosts = append(req.Hosts, f.hosts...)
	}
	return req, nil
}

// UpdateCatalogCache applies a catalog delta to the local cache.
func (f *Frontend) UpdateCatalogCache(
	ctx context.Context, req *impalapb.UpdateCatalogCacheRequest,
) (*impalapb.UpdateCatalogCacheResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !req.IsDelta {
		f.mu.objects = make(map[catalogKey]impalapb.CatalogObject)
	}
	serviceID := req.CatalogServiceID
	for _, obj := range req.UpdatedObjects {
		if serviceID.IsZero() {
			serviceID = obj.CatalogServiceID
		}
		f.mu.objects[catalogKey{obj.Type, obj.Name}] = obj
	}
	for _, obj := range req.RemovedObjects {
		delete(f.mu.objects, catalogKey{obj.Type, obj.Name})
	}
	if !serviceID.IsZero() {
		f.mu.serviceID = serviceID
	}
	return &impalapb.UpdateCatalogCacheResponse{CatalogServiceID: f.mu.serviceID}, nil
}

// GetCatalogObject returns the cached view of one object.
func (f *Frontend) GetCatalogObject(
	ctx context.Context, obj *impalapb.CatalogObject,
) (*impalapb.CatalogObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cached, ok := f.mu.objects[catalogKey{obj.Type, obj.Name}]
	if !ok {
		return nil, errors.Errorf("catalog object %q not found", obj.Name)
	}
	return &cached, nil
}

// GetDbNames lists cached databases, optionally filtered by a substring
// pattern.
func (f *Frontend) GetDbNames(ctx context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for key := range f.mu.objects {
		if key.typ != impalapb.CatalogObjectType_DATABASE {
			continue
		}
		if pattern != "" && !strings.Contains(key.name, pattern) {
			continue
		}
		names = append(names, key.name)
	}
	sort.Strings(names)
	return names, nil
}

// GetTableNames lists cached tables of db, optionally filtered.
func (f *Frontend) GetTableNames(ctx context.Context, db, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := db + "."
	var names []string
	for key := range f.mu.objects {
		if key.typ != impalapb.CatalogObjectType_TABLE {
			continue
		}
		if !strings.HasPrefix(key.name, prefix) {
			continue
		}
		name := strings.TrimPrefix(key.name, prefix)
		if pattern != "" && !strings.Contains(name, pattern) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
