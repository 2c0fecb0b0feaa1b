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
	"testing"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/stretchr/testify/require"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/statestore"
	"github.com/goimpala/impala/pkg/util/syncutil"
)

func marshalBackend(t *testing.T, host string, port int32) []byte {
	t.Helper()
	value, err := proto.Marshal(&impalapb.BackendDescriptor{
		Address: impalapb.MakeNetworkAddress(host, port),
	})
	require.NoError(t, err)
	return value
}

func membershipDelta(isDelta bool, entries []impalapb.TopicItem, deletions []string) statestore.TopicDeltaMap {
	return statestore.TopicDeltaMap{
		statestore.MembershipTopic: {
			TopicName:      statestore.MembershipTopic,
			IsDelta:        isDelta,
			TopicEntries:   entries,
			TopicDeletions: deletions,
		},
	}
}

type recordingClientCache struct {
	mu struct {
		syncutil.Mutex
		closed []impalapb.NetworkAddress
	}
}

func (c *recordingClientCache) CloseConnections(addr impalapb.NetworkAddress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mu.closed = append(c.mu.closed, addr)
}

func TestMembershipTracking(t *testing.T) {
	ts := newTestServer(t, nil)
	var updates []impalapb.TopicDelta

	ts.MembershipCallback(membershipDelta(false, []impalapb.TopicItem{
		{Key: "b1", Value: marshalBackend(t, "backend1", 22000)},
		{Key: "b2", Value: marshalBackend(t, "backend2", 22000)},
	}, nil), &updates)
	require.Len(t, ts.KnownBackends(), 2)

	// A delta removing one backend.
	ts.MembershipCallback(membershipDelta(true, nil, []string{"b2"}), &updates)
	backends := ts.KnownBackends()
	require.Len(t, backends, 1)
	require.Equal(t, "backend1:22000", backends[0].String())

	// A full topic replaces the view wholesale.
	ts.MembershipCallback(membershipDelta(false, []impalapb.TopicItem{
		{Key: "b3", Value: marshalBackend(t, "backend3", 22000)},
	}, nil), &updates)
	backends = ts.KnownBackends()
	require.Len(t, backends, 1)
	require.Equal(t, "backend3:22000", backends[0].String())
	require.Empty(t, updates)
}

func TestMembershipLossCancelsQueries(t *testing.T) {
	ctx := context.Background()
	clientCache := &recordingClientCache{}
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.ClientCache = clientCache
	})
	session := ts.openTestSession(t)

	var updates []impalapb.TopicDelta
	ts.MembershipCallback(membershipDelta(false, []impalapb.TopicItem{
		{Key: "b1", Value: marshalBackend(t, "backend1", 22000)},
	}, nil), &updates)

	// The query's only fragment runs on backend1.
	e, err := ts.ExecuteStatement(ctx, session, "select 1")
	require.NoError(t, err)

	// backend1 drops out of the membership topic.
	ts.MembershipCallback(membershipDelta(true, nil, []string{"b1"}), &updates)

	require.Eventually(t, func() bool {
		return e.Status() != nil
	}, 5*time.Second, 10*time.Millisecond)
	require.EqualError(t, e.Status(), "Cancelled due to unreachable impalad(s): backend1:22000")
	require.Equal(t, PhaseCancelled, e.Phase())

	// Its location entry is gone and the connection cache was purged.
	require.Empty(t, ts.QueryLocations())
	clientCache.mu.Lock()
	closed := append([]impalapb.NetworkAddress(nil), clientCache.mu.closed...)
	clientCache.mu.Unlock()
	require.Equal(t, []impalapb.NetworkAddress{impalapb.MakeNetworkAddress("backend1", 22000)}, closed)

	// The cancelled query stays registered until the client gives up on it.
	_, err = ts.GetQueryExecState(e.QueryID())
	require.NoError(t, err)
}

func TestMembershipLossOnUnrelatedBackend(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	session := ts.openTestSession(t)

	var updates []impalapb.TopicDelta
	ts.MembershipCallback(membershipDelta(false, []impalapb.TopicItem{
		{Key: "b1", Value: marshalBackend(t, "backend1", 22000)},
		{Key: "b9", Value: marshalBackend(t, "backend9", 22000)},
	}, nil), &updates)

	e, err := ts.ExecuteStatement(ctx, session, "select 1")
	require.NoError(t, err)

	// Losing a backend the query does not run on is harmless.
	ts.MembershipCallback(membershipDelta(true, nil, []string{"b9"}), &updates)
	time.Sleep(50 * time.Millisecond)
	require.Nil(t, e.Status())
	require.Equal(t, PhaseRunning, e.Phase())
}
