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

// Package server implements the coordinator frontend of the query engine:
// the session and query registries, the query lifecycle driver, the
// expiration sweepers, the cancellation worker pool, the membership and
// catalog reconcilers, and the archive of completed queries.
package server

import (
	"container/list"
	"context"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/base"
	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/statestore"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/logfile"
	"github.com/goimpala/impala/pkg/util/stop"
	"github.com/goimpala/impala/pkg/util/syncutil"
	"github.com/goimpala/impala/pkg/util/timeutil"

	"github.com/prometheus/client_golang/prometheus"
)

// On-disk log filename prefixes.
const (
	ProfileLogFilePrefix    = "impala_profile_log_1.0-"
	AuditEventLogFilePrefix = "impala_audit_event_log_1.0-"
)

// logFlushInterval is how often buffered profile/audit entries reach disk.
const logFlushInterval = 5 * time.Second

// ServerConfig carries the dependencies of a Server.
type ServerConfig struct {
	log.AmbientContext

	Cfg      base.Config
	Frontend Frontend
	// NewCoordinator creates the distributed-execution driver per query.
	NewCoordinator CoordinatorFactory
	LibCache       LibCache
	ClientCache    BackendClientCache

	// MetricsRegistry receives the server metrics; nil leaves them
	// unregistered.
	MetricsRegistry prometheus.Registerer

	// WaitForCatalog keeps the server offline, refusing queries, until the
	// first catalog topic update has been applied.
	WaitForCatalog bool

	Knobs TestingKnobs
}

// Server is the coordinator frontend.
type Server struct {
	log.AmbientContext

	cfg     ServerConfig
	stopper *stop.Stopper
	metrics *Metrics

	defaultQueryOptions impalapb.QueryOptions
	proxyUsers          map[string][]string

	profileLog *logfile.Log
	auditLog   *logfile.Log

	offline struct {
		syncutil.Mutex
		offline bool
	}

	sessions struct {
		syncutil.Mutex
		m map[impalapb.UniqueID]*SessionState
		// Sessions opened per client connection, for cascading close.
		byConn map[string][]impalapb.UniqueID
	}

	queries struct {
		syncutil.Mutex
		m map[impalapb.UniqueID]*QueryExecState
	}

	locations struct {
		syncutil.Mutex
		// Backend address to the queries with fragments there.
		m map[string]map[impalapb.UniqueID]struct{}
	}

	membership struct {
		syncutil.Mutex
		backends map[string]impalapb.NetworkAddress
	}

	catalog struct {
		syncutil.Mutex
		cond                      *sync.Cond
		catalogVersion            int64
		catalogTopicVersion       int64
		minSubscriberTopicVersion int64
		catalogServiceID          impalapb.UniqueID
		draining                  bool
	}

	archive struct {
		syncutil.Mutex
		log   *list.List
		index map[impalapb.UniqueID]*list.Element
	}

	queryExpiration  *expirationQueue
	cancellationPool *cancellationPool
}

// NewServer constructs a Server. Background workers start with Start.
func NewServer(cfg ServerConfig, stopper *stop.Stopper) (*Server, error) {
	if cfg.Frontend == nil {
		return nil, errors.New("a frontend is required")
	}
	if cfg.NewCoordinator == nil {
		return nil, errors.New("a coordinator factory is required")
	}
	if err := cfg.Cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Frontend.ValidateSettings(); err != nil {
		return nil, errors.Wrap(err, "frontend validation failed")
	}

	srv := &Server{
		AmbientContext: cfg.AmbientContext,
		cfg:            cfg,
		stopper:        stopper,
		metrics:        NewMetrics(cfg.MetricsRegistry),
	}
	srv.AddLogTag("impalad", nil)
	srv.offline.offline = cfg.WaitForCatalog
	srv.sessions.m = make(map[impalapb.UniqueID]*SessionState)
	srv.sessions.byConn = make(map[string][]impalapb.UniqueID)
	srv.queries.m = make(map[impalapb.UniqueID]*QueryExecState)
	srv.locations.m = make(map[string]map[impalapb.UniqueID]struct{})
	srv.membership.backends = make(map[string]impalapb.NetworkAddress)
	srv.catalog.cond = sync.NewCond(&srv.catalog.Mutex)
	srv.archive.log = list.New()
	srv.archive.index = make(map[impalapb.UniqueID]*list.Element)
	srv.queryExpiration = newExpirationQueue()
	srv.cancellationPool = newCancellationPool(srv)

	proxyUsers, err := cfg.Cfg.ProxyUsers()
	if err != nil {
		return nil, err
	}
	srv.proxyUsers = proxyUsers
	if err := ParseQueryOptions(&srv.defaultQueryOptions, cfg.Cfg.DefaultQueryOptions); err != nil {
		return nil, errors.Wrap(err, "invalid default_query_options")
	}

	if cfg.Cfg.LogQueryToFile && cfg.Cfg.ProfileLogDir != "" {
		srv.profileLog, err = logfile.New(
			cfg.Cfg.ProfileLogDir, ProfileLogFilePrefix, cfg.Cfg.MaxProfileLogFileSize)
		if err != nil {
			return nil, errors.Wrap(err, "initializing profile log")
		}
	}
	if cfg.Cfg.AuditEventLogDir != "" {
		srv.auditLog, err = logfile.New(
			cfg.Cfg.AuditEventLogDir, AuditEventLogFilePrefix, cfg.Cfg.MaxAuditEventLogFileSize)
		if err != nil {
			// Per policy an unusable audit log is a startup failure.
			return nil, errors.Wrap(err, "initializing audit event log")
		}
	}

	stopper.AddCloser(stop.CloserFn(func() {
		srv.catalog.Lock()
		srv.catalog.draining = true
		srv.catalog.cond.Broadcast()
		srv.catalog.Unlock()
		if srv.profileLog != nil {
			_ = srv.profileLog.Close()
		}
		if srv.auditLog != nil {
			_ = srv.auditLog.Close()
		}
	}))
	return srv, nil
}

// Start launches the background workers: the cancellation pool, the
// expiration sweepers and the on-disk log flusher.
func (srv *Server) Start(ctx context.Context) {
	ctx = srv.AnnotateCtx(ctx)
	srv.cancellationPool.start(ctx, srv.stopper, srv.cfg.Cfg.CancellationThreadPoolSize)
	srv.startExpirationSweepers(ctx, srv.stopper)

	if srv.profileLog != nil || srv.auditLog != nil {
		interval := logFlushInterval
		if srv.cfg.Knobs.LogFlushInterval > 0 {
			interval = srv.cfg.Knobs.LogFlushInterval
		}
		srv.stopper.RunWorker(ctx, func(ctx context.Context) {
			srv.logFlushLoop(ctx, interval)
		})
	}
	log.Infof(ctx, "impala server started (beeswax port %d, hs2 port %d, backend port %d)",
		srv.cfg.Cfg.BeeswaxPort, srv.cfg.Cfg.HS2Port, srv.cfg.Cfg.BackendPort)
}

func (srv *Server) logFlushLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if srv.profileLog != nil {
				if err := srv.profileLog.Flush(); err != nil {
					log.Warningf(ctx, "failed to flush profile log: %v", err)
				}
			}
			if srv.auditLog != nil {
				if err := srv.auditLog.Flush(); err != nil {
					log.Warningf(ctx, "failed to flush audit event log: %v", err)
				}
			}
		case <-srv.stopper.ShouldQuiesce():
			return
		}
	}
}

// RegisterTopics subscribes the server's membership and catalog callbacks.
func (srv *Server) RegisterTopics(sub *statestore.Subscriber) {
	sub.AddTopic(statestore.MembershipTopic, srv.MembershipCallback)
	sub.AddTopic(statestore.CatalogTopic, srv.CatalogCallback)
}

// Metrics exposes the server metric set.
func (srv *Server) Metrics() *Metrics { return srv.metrics }

// Stopper returns the server's stopper.
func (srv *Server) Stopper() *stop.Stopper { return srv.stopper }

// setOnline transitions the server out of offline mode.
func (srv *Server) setOnline(ctx context.Context) {
	srv.offline.Lock()
	defer srv.offline.Unlock()
	if srv.offline.offline {
		srv.offline.offline = false
		log.Infof(ctx, "catalog received, ready to serve queries")
	}
}

// SetOffline toggles offline mode explicitly.
func (srv *Server) SetOffline(offline bool) {
	srv.offline.Lock()
	defer srv.offline.Unlock()
	srv.offline.offline = offline
}

// IsOffline reports whether the server refuses new queries.
func (srv *Server) IsOffline() bool {
	srv.offline.Lock()
	defer srv.offline.Unlock()
	return srv.offline.offline
}

func (srv *Server) checkOnline() error {
	if srv.IsOffline() {
		return impalapb.WithCode(errors.New(
			"This Impala server is offline. Please retry your query later."),
			impalapb.StatusCode_INTERNAL_ERROR)
	}
	return nil
}

// BackendAddress is the address this coordinator advertises to backends.
func (srv *Server) BackendAddress() impalapb.NetworkAddress {
	return impalapb.MakeNetworkAddress(srv.cfg.Cfg.Hostname, int32(srv.cfg.Cfg.BackendPort))
}

// PrepareQueryContext assigns a query id and fills in the process-level
// fields of a query context for one statement on a session.
func (srv *Server) PrepareQueryContext(session *SessionState, stmt string) impalapb.QueryCtx {
	session.mu.Lock()
	opts := session.mu.queryOptions
	doAs := session.mu.doAsUser
	db := session.mu.database
	session.mu.Unlock()

	return impalapb.QueryCtx{
		Request: impalapb.ClientRequest{
			Stmt:         stmt,
			QueryOptions: opts,
		},
		QueryID:       impalapb.MakeUniqueID(),
		SessionID:     session.ID,
		Pid:           int32(os.Getpid()),
		NowString:     timeutil.Now().Format(timeutil.FullTimeFormat),
		CoordAddress:  srv.BackendAddress(),
		ConnectedUser: session.ConnectedUser,
		DelegatedUser: doAs,
		DefaultDb:     db,
		ClientAddress: session.ClientAddress,
	}
}

// Execute runs one statement: register, plan, audit, launch distributed
// execution. On failure the query is unregistered and the error returned;
// on success the registered exec state is returned and result fetching is
// up to the caller.
func (srv *Server) Execute(
	ctx context.Context, queryCtx impalapb.QueryCtx, session *SessionState,
) (*QueryExecState, error) {
	ctx = srv.AnnotateCtx(ctx)
	if err := srv.checkOnline(); err != nil {
		return nil, err
	}

	e := newQueryExecState(srv, session, queryCtx)
	e.idleTimeout = effectiveTimeout(
		srv.cfg.Cfg.IdleQueryTimeout, int(queryCtx.Request.QueryOptions.QueryTimeoutS))

	// The exec-state lock is held across registration and planning; see the
	// ordering note on QueryExecState.
	e.mu.Lock()
	if err := srv.registerQuery(ctx, session, e); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	log.Infof(ctx, "registered query %s: %s", e.QueryID(), queryCtx.Request.Stmt)

	request, planErr := srv.cfg.Frontend.GetExecRequest(ctx, &e.queryCtx)
	if planErr != nil {
		// Authorization failures keep their code; audit logging and the
		// unregister path key off it.
		if !isAuthorizationError(planErr) {
			planErr = impalapb.WithCode(planErr, impalapb.StatusCode_PLANNING_ERROR)
		}
		e.updateQueryStatusLocked(planErr)
		e.mu.Unlock()
		_ = srv.logAuditRecord(ctx, e, planErr)
		srv.UnregisterQuery(ctx, e.QueryID(), planErr)
		return nil, planErr
	}
	e.execRequest = request
	e.setPhaseLocked(PhasePlanned)
	e.mu.Unlock()

	if err := srv.logAuditRecord(ctx, e, nil); err != nil {
		// Non-fatal by configuration; the query proceeds.
		log.Warningf(ctx, "audit logging failed for query %s", e.QueryID())
	}

	if err := e.Exec(ctx); err != nil {
		srv.UnregisterQuery(ctx, e.QueryID(), err)
		return nil, err
	}

	srv.addQueryLocations(e.QueryID(), uniqueHosts(request.Hosts))

	if request.CatalogUpdate != nil {
		if err := srv.ProcessCatalogUpdateResult(
			ctx, request.CatalogUpdate, queryCtx.Request.QueryOptions.SyncDdl); err != nil {
			e.updateQueryStatus(err)
		}
	}
	if request.StmtType == impalapb.StmtType_DDL {
		srv.UpdateCatalogMetrics(ctx)
	}
	return e, nil
}

// ExecuteStatement prepares a query context for stmt and runs Execute; the
// common path of the client protocol handlers.
func (srv *Server) ExecuteStatement(
	ctx context.Context, session *SessionState, stmt string,
) (*QueryExecState, error) {
	return srv.Execute(ctx, srv.PrepareQueryContext(session, stmt), session)
}

func uniqueHosts(hosts []impalapb.NetworkAddress) []impalapb.NetworkAddress {
	seen := make(map[impalapb.NetworkAddress]struct{}, len(hosts))
	out := hosts[:0:0]
	for _, h := range hosts {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
