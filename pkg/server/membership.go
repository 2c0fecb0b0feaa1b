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
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gogo/protobuf/proto"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/statestore"
	"github.com/goimpala/impala/pkg/util/log"
)

// MembershipCallback consumes deltas of the impala-membership topic: it
// maintains the known-backends map and enqueues cancellation of queries
// whose fragments run on backends that dropped out. Runs on the statestore
// heartbeat goroutine, so it never blocks on RPCs or per-query locks;
// cancellation is offloaded to the worker pool.
func (srv *Server) MembershipCallback(
	deltas statestore.TopicDeltaMap, updates *[]impalapb.TopicDelta,
) {
	delta, ok := deltas[statestore.MembershipTopic]
	if !ok {
		return
	}
	ctx := srv.AnnotateCtx(context.Background())

	srv.membership.Lock()
	if !delta.IsDelta {
		srv.membership.backends = make(map[string]impalapb.NetworkAddress)
	}
	for _, item := range delta.TopicEntries {
		var desc impalapb.BackendDescriptor
		if err := proto.Unmarshal(item.Value, &desc); err != nil {
			log.Errorf(ctx, "bad backend descriptor for %q: %v", item.Key, err)
			continue
		}
		srv.membership.backends[item.Key] = desc.Address
	}
	for _, key := range delta.TopicDeletions {
		delete(srv.membership.backends, key)
	}
	current := make(map[string]struct{}, len(srv.membership.backends))
	for _, addr := range srv.membership.backends {
		current[addr.String()] = struct{}{}
	}
	srv.membership.Unlock()

	// Reconcile query locations against the new membership. Collect the
	// affected queries first; the QueryLocations lock is never held while
	// cancelling.
	failedByQuery := make(map[impalapb.UniqueID][]string)
	srv.locations.Lock()
	for addr, queries := range srv.locations.m {
		if _, live := current[addr]; live {
			continue
		}
		for queryID := range queries {
			failedByQuery[queryID] = append(failedByQuery[queryID], addr)
		}
		srv.closeClientConnections(addr)
		delete(srv.locations.m, addr)
	}
	srv.locations.Unlock()

	for queryID, failed := range failedByQuery {
		sort.Strings(failed)
		cause := impalapb.WithCode(errors.Errorf(
			"Cancelled due to unreachable impalad(s): %s", strings.Join(failed, ", ")),
			impalapb.StatusCode_CANCELLED)
		if !srv.cancellationPool.tryOffer(ctx, cancellationWork{
			queryID: queryID,
			cause:   cause,
			kind:    cancelWork,
		}) {
			// Queue full; the next heartbeat reproduces the cancellation set.
			break
		}
	}
}

func (srv *Server) closeClientConnections(addr string) {
	if srv.cfg.ClientCache == nil {
		return
	}
	na, err := parseNetworkAddress(addr)
	if err != nil {
		return
	}
	srv.cfg.ClientCache.CloseConnections(na)
}

func parseNetworkAddress(addr string) (impalapb.NetworkAddress, error) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return impalapb.NetworkAddress{Hostname: addr}, nil
	}
	var port int32
	for _, c := range addr[i+1:] {
		if c < '0' || c > '9' {
			return impalapb.NetworkAddress{}, errors.Errorf("bad address %q", addr)
		}
		port = port*10 + int32(c-'0')
	}
	return impalapb.NetworkAddress{Hostname: addr[:i], Port: port}, nil
}

// KnownBackends snapshots the membership view, for diagnostics.
func (srv *Server) KnownBackends() []impalapb.NetworkAddress {
	srv.membership.Lock()
	defer srv.membership.Unlock()
	out := make([]impalapb.NetworkAddress, 0, len(srv.membership.backends))
	for _, addr := range srv.membership.backends {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
