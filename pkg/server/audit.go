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
	"fmt"
	"strings"

	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/timeutil"
)

// auditCatalogObject is one catalog object touched by an audited statement.
type auditCatalogObject struct {
	Name       string `json:"name"`
	ObjectType string `json:"object_type"`
	Privilege  string `json:"privilege"`
}

// auditRecord is the JSON body of one audit event. The on-disk entry wraps
// it in an object keyed by the event timestamp.
type auditRecord struct {
	QueryID              string               `json:"query_id"`
	SessionID            string               `json:"session_id"`
	StartTime            string               `json:"start_time"`
	AuthorizationFailure bool                 `json:"authorization_failure"`
	Status               string               `json:"status"`
	User                 string               `json:"user"`
	Impersonator         *string              `json:"impersonator"`
	StatementType        string               `json:"statement_type"`
	NetworkAddress       string               `json:"network_address"`
	SQLStatement         string               `json:"sql_statement"`
	CatalogObjects       []auditCatalogObject `json:"catalog_objects"`
}

// auditEventLoggingEnabled reports whether an audit log was configured.
func (srv *Server) auditEventLoggingEnabled() bool {
	return srv.auditLog != nil
}

// logAuditRecord writes one audit event for a planned (or rejected)
// statement. planError carries the authorization or planning failure, if
// any. A write failure is fatal when abort_on_failed_audit_event is set;
// otherwise it is logged and swallowed.
func (srv *Server) logAuditRecord(ctx context.Context, e *QueryExecState, planError error) error {
	if !srv.auditEventLoggingEnabled() {
		return nil
	}

	rec := auditRecord{
		QueryID:              e.queryCtx.QueryID.String(),
		SessionID:            e.queryCtx.SessionID.String(),
		StartTime:            e.startTime.Format(timeutil.FullTimeFormat),
		AuthorizationFailure: planError != nil && isAuthorizationError(planError),
		Status:               "OK",
		User:                 e.queryCtx.ConnectedUser,
		StatementType:        e.StmtType().String(),
		NetworkAddress:       e.queryCtx.ClientAddress,
		SQLStatement:         strings.ReplaceAll(e.queryCtx.Request.Stmt, "\n", " "),
		CatalogObjects:       []auditCatalogObject{},
	}
	if planError != nil {
		rec.Status = planError.Error()
	}
	if e.queryCtx.DelegatedUser != "" {
		impersonator := e.queryCtx.ConnectedUser
		rec.User = e.queryCtx.DelegatedUser
		rec.Impersonator = &impersonator
	}
	if e.execRequest != nil {
		for _, ev := range e.execRequest.AccessEvents {
			rec.CatalogObjects = append(rec.CatalogObjects, auditCatalogObject{
				Name:       ev.Name,
				ObjectType: ev.ObjectType,
				Privilege:  ev.Privilege,
			})
		}
	}

	// The entry is a JSON object keyed by the event timestamp.
	body, err := json.Marshal(rec)
	if err == nil {
		entry := fmt.Sprintf("{%q: %s}", fmt.Sprintf("%d", timeutil.NowMillis()), body)
		err = srv.auditLog.Append(entry)
	}
	if err != nil {
		if srv.cfg.Cfg.AbortOnFailedAuditEvent {
			log.Fatalf(ctx, "abort_on_failed_audit_event is set, exiting: %v", err)
		}
		log.Errorf(ctx, "failed to write audit event for query %s: %v", e.QueryID(), err)
		return err
	}
	return nil
}
