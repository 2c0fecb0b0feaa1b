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
	"time"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/syncutil"
	"github.com/goimpala/impala/pkg/util/timeutil"
)

// SessionKind distinguishes the client protocol that owns a session.
type SessionKind int

const (
	// SessionBeeswax sessions map 1:1 to a TCP connection.
	SessionBeeswax SessionKind = iota
	// SessionHS2 connections may own multiple sessions.
	SessionHS2
)

func (k SessionKind) String() string {
	switch k {
	case SessionBeeswax:
		return "BEESWAX"
	case SessionHS2:
		return "HIVESERVER2"
	default:
		return fmt.Sprintf("SessionKind(%d)", int(k))
	}
}

// SessionState is one logical client session. Immutable identity fields are
// set at creation; everything mutable lives under mu. The session lock is
// always acquired after the session-registry lock, never before.
type SessionState struct {
	ID            impalapb.UniqueID
	Kind          SessionKind
	ConnectedUser string
	ClientAddress string
	StartTime     time.Time

	mu struct {
		syncutil.Mutex
		database     string
		doAsUser     string
		queryOptions impalapb.QueryOptions

		refCount       int
		closed         bool
		expired        bool
		lastAccessedMs int64

		// Ids only; a strong reference here would be cyclic.
		inflightQueries map[impalapb.UniqueID]struct{}
	}
}

// EffectiveUser returns the do-as user if delegation is in effect, else the
// connected user.
func (s *SessionState) EffectiveUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.doAsUser != "" {
		return s.mu.doAsUser
	}
	return s.ConnectedUser
}

// SetDoAsUser records the delegated principal. The caller has already passed
// AuthorizeProxyUser.
func (s *SessionState) SetDoAsUser(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.doAsUser = user
}

// Database returns the session's current default database.
func (s *SessionState) Database() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.database
}

// SetDatabase changes the session's default database.
func (s *SessionState) SetDatabase(db string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.database = db
}

// QueryOptions returns a copy of the session's default query options.
func (s *SessionState) QueryOptions() impalapb.QueryOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.queryOptions
}

// SetQueryOption updates one session-level default option.
func (s *SessionState) SetQueryOption(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SetQueryOption(&s.mu.queryOptions, key, value)
}

// LastAccessedMs returns the session's last-activity timestamp.
func (s *SessionState) LastAccessedMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.lastAccessedMs
}

// Expired reports whether the sweeper expired this session.
func (s *SessionState) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.expired
}

// Closed reports whether the session was explicitly closed.
func (s *SessionState) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.closed
}

// InflightQueries snapshots the ids of the session's registered queries.
func (s *SessionState) InflightQueries() []impalapb.UniqueID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]impalapb.UniqueID, 0, len(s.mu.inflightQueries))
	for id := range s.mu.inflightQueries {
		ids = append(ids, id)
	}
	return ids
}

func (s *SessionState) addInflightQueryLocked(id impalapb.UniqueID) error {
	if s.mu.closed {
		return impalapb.WithCode(errors.New("Session is closed"), impalapb.StatusCode_SESSION_CLOSED)
	}
	if s.mu.expired {
		return impalapb.WithCode(errors.New("Session expired due to inactivity"),
			impalapb.StatusCode_SESSION_EXPIRED)
	}
	s.mu.inflightQueries[id] = struct{}{}
	return nil
}

func (s *SessionState) removeInflightQuery(id impalapb.UniqueID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mu.inflightQueries, id)
}

// OpenSession registers a new session. connID associates the session with a
// client connection for cascading close; it may be empty for tests.
func (srv *Server) OpenSession(
	ctx context.Context, kind SessionKind, connID, connectedUser, clientAddress string,
) *SessionState {
	session := &SessionState{
		ID:            impalapb.MakeUniqueID(),
		Kind:          kind,
		ConnectedUser: connectedUser,
		ClientAddress: clientAddress,
		StartTime:     timeutil.Now(),
	}
	session.mu.queryOptions = srv.defaultQueryOptions
	session.mu.lastAccessedMs = timeutil.NowMillis()
	session.mu.inflightQueries = make(map[impalapb.UniqueID]struct{})

	srv.sessions.Lock()
	srv.sessions.m[session.ID] = session
	if connID != "" {
		srv.sessions.byConn[connID] = append(srv.sessions.byConn[connID], session.ID)
	}
	srv.sessions.Unlock()

	srv.metrics.NumOpenSessions.Inc()
	log.Infof(srv.AnnotateCtx(ctx), "opened %s session %s for user %q from %s",
		kind, session.ID, connectedUser, clientAddress)
	return session
}

// GetSessionState looks up a session. With markActive it verifies the
// session is neither expired nor closed, bumps its ref count and refreshes
// last-activity; the caller must pair it with ReleaseSession. Without
// markActive the bare handle is returned regardless of state.
func (srv *Server) GetSessionState(
	id impalapb.UniqueID, markActive bool,
) (*SessionState, error) {
	srv.sessions.Lock()
	session, ok := srv.sessions.m[id]
	srv.sessions.Unlock()
	if !ok {
		return nil, impalapb.WithCode(errors.Errorf("Invalid session id: %s", id),
			impalapb.StatusCode_SESSION_CLOSED)
	}
	if !markActive {
		return session, nil
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.mu.expired {
		err := errors.Errorf(
			"Client session expired due to more than %ds of inactivity (last activity was at: %s)",
			srv.cfg.Cfg.IdleSessionTimeout,
			timeutil.FromUnixMillis(session.mu.lastAccessedMs).Format(timeutil.FullTimeFormat))
		return nil, impalapb.WithCode(err, impalapb.StatusCode_SESSION_EXPIRED)
	}
	if session.mu.closed {
		return nil, impalapb.WithCode(errors.New("Session is closed"),
			impalapb.StatusCode_SESSION_CLOSED)
	}
	session.mu.refCount++
	session.mu.lastAccessedMs = timeutil.NowMillis()
	return session, nil
}

// ReleaseSession drops the reference taken by GetSessionState(markActive)
// and refreshes the last-activity timestamp.
func (srv *Server) ReleaseSession(session *SessionState) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.mu.refCount--
	if session.mu.refCount < 0 {
		panic("session ref count dropped below zero")
	}
	session.mu.lastAccessedMs = timeutil.NowMillis()
}

// CloseSession closes a session and unregisters all of its in-flight
// queries. With ignoreIfAbsent an unknown id is not an error.
func (srv *Server) CloseSession(
	ctx context.Context, id impalapb.UniqueID, ignoreIfAbsent bool,
) error {
	ctx = srv.AnnotateCtx(ctx)

	srv.sessions.Lock()
	session, ok := srv.sessions.m[id]
	if ok {
		delete(srv.sessions.m, id)
	}
	srv.sessions.Unlock()
	if !ok {
		if ignoreIfAbsent {
			return nil
		}
		return impalapb.WithCode(errors.Errorf("Invalid session id: %s", id),
			impalapb.StatusCode_SESSION_CLOSED)
	}

	session.mu.Lock()
	alreadyClosed := session.mu.closed
	session.mu.closed = true
	inflight := make([]impalapb.UniqueID, 0, len(session.mu.inflightQueries))
	for queryID := range session.mu.inflightQueries {
		inflight = append(inflight, queryID)
	}
	session.mu.Unlock()

	if !alreadyClosed {
		srv.metrics.NumOpenSessions.Dec()
	}
	for _, queryID := range inflight {
		srv.UnregisterQuery(ctx, queryID, impalapb.WithCode(
			errors.New("Session closed"), impalapb.StatusCode_SESSION_CLOSED))
	}
	log.Infof(ctx, "closed session %s with %d inflight queries", id, len(inflight))
	return nil
}

// ConnectionStart records a new client connection.
func (srv *Server) ConnectionStart(connID string) {
	srv.sessions.Lock()
	defer srv.sessions.Unlock()
	if _, ok := srv.sessions.byConn[connID]; !ok {
		srv.sessions.byConn[connID] = nil
	}
}

// ConnectionEnd closes every session opened on the connection. Under the
// Beeswax protocol this is the only way a session ends.
func (srv *Server) ConnectionEnd(ctx context.Context, connID string) {
	srv.sessions.Lock()
	ids := srv.sessions.byConn[connID]
	delete(srv.sessions.byConn, connID)
	srv.sessions.Unlock()

	if len(ids) > 0 {
		log.Infof(srv.AnnotateCtx(ctx), "connection %s ended, closing %d sessions", connID, len(ids))
	}
	for _, id := range ids {
		_ = srv.CloseSession(ctx, id, true /* ignoreIfAbsent */)
	}
}

// NumOpenSessions returns the current session count.
func (srv *Server) NumOpenSessions() int {
	srv.sessions.Lock()
	defer srv.sessions.Unlock()
	return len(srv.sessions.m)
}
