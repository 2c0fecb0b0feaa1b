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

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
)

// Frontend is the SQL planner. It turns a query context into an executable
// plan and maintains the local catalog cache.
type Frontend interface {
	// ValidateSettings checks that the planner is usable; called at startup.
	ValidateSettings() error
	// GetExecRequest plans one statement.
	GetExecRequest(ctx context.Context, queryCtx *impalapb.QueryCtx) (*impalapb.ExecRequest, error)
	// UpdateCatalogCache applies a catalog delta to the planner's cache.
	UpdateCatalogCache(
		ctx context.Context, req *impalapb.UpdateCatalogCacheRequest,
	) (*impalapb.UpdateCatalogCacheResponse, error)
	// GetCatalogObject fetches the planner's current view of one object.
	GetCatalogObject(ctx context.Context, obj *impalapb.CatalogObject) (*impalapb.CatalogObject, error)
	GetDbNames(ctx context.Context, pattern string) ([]string, error)
	GetTableNames(ctx context.Context, db, pattern string) ([]string, error)
}

// QueryCoordinator drives the distributed execution of a single query:
// fan-out of plan fragments to backends, aggregation of their status
// reports, and assembly of result batches.
type QueryCoordinator interface {
	// Exec distributes the plan fragments. Blocks until all backends have
	// accepted (or rejected) their fragments.
	Exec(ctx context.Context) error
	// Wait blocks until rows are available or execution failed.
	Wait(ctx context.Context) error
	// GetNext returns the next result batch; eos is true once the stream is
	// exhausted.
	GetNext(ctx context.Context, maxRows int64) (batch *impalapb.RowBatch, eos bool, err error)
	// Cancel asynchronously aborts execution on all backends. Idempotent.
	Cancel(cause error)
	// UpdateFragmentExecStatus incorporates one backend status report.
	UpdateFragmentExecStatus(req *impalapb.ReportExecStatusRequest) error
	// ExecSummary renders a human-readable per-fragment execution summary.
	ExecSummary() string
	// Progress describes completed vs. total fragment instances.
	Progress() string
}

// CoordinatorFactory creates the QueryCoordinator for one query. Installed
// by the process wiring so that the lifecycle layer stays decoupled from the
// fan-out implementation.
type CoordinatorFactory func(
	ambient log.AmbientContext, queryCtx *impalapb.QueryCtx, request *impalapb.ExecRequest,
) QueryCoordinator

// LibCache caches native UDF/data-source libraries fetched from remote
// storage. Mutation is thread-safe.
type LibCache interface {
	// RemoveEntry evicts the library at the given storage location.
	RemoveEntry(location string)
	// DropCache evicts everything.
	DropCache()
}

// BackendClientCache pools RPC connections to backends.
type BackendClientCache interface {
	// CloseConnections tears down all cached connections to addr.
	CloseConnections(addr impalapb.NetworkAddress)
}
