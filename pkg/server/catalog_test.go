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

	"github.com/cockroachdb/errors"
	"github.com/gogo/protobuf/proto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/statestore"
	"github.com/goimpala/impala/pkg/util/syncutil"
)

func marshalCatalogObject(t *testing.T, obj impalapb.CatalogObject) []byte {
	t.Helper()
	value, err := proto.Marshal(&obj)
	require.NoError(t, err)
	return value
}

func catalogDelta(
	isDelta bool, toVersion, minSubscriberVersion int64,
	entries []impalapb.TopicItem, deletions []string,
) statestore.TopicDeltaMap {
	return statestore.TopicDeltaMap{
		statestore.CatalogTopic: {
			TopicName:                 statestore.CatalogTopic,
			IsDelta:                   isDelta,
			ToVersion:                 toVersion,
			MinSubscriberTopicVersion: minSubscriberVersion,
			TopicEntries:              entries,
			TopicDeletions:            deletions,
		},
	}
}

type recordingLibCache struct {
	mu struct {
		syncutil.Mutex
		removed []string
		dropped bool
	}
}

func (c *recordingLibCache) RemoveEntry(location string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mu.removed = append(c.mu.removed, location)
}

func (c *recordingLibCache) DropCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mu.dropped = true
}

func TestCatalogCallbackAppliesUpdates(t *testing.T) {
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.WaitForCatalog = true
	})
	require.True(t, ts.IsOffline())
	serviceID := impalapb.MakeUniqueID()

	var updates []impalapb.TopicDelta
	ts.CatalogCallback(catalogDelta(false, 1, 1, []impalapb.TopicItem{
		{Key: "DATABASE:tpch", Value: marshalCatalogObject(t, impalapb.CatalogObject{
			Type:             impalapb.CatalogObjectType_DATABASE,
			Name:             "tpch",
			CatalogVersion:   5,
			CatalogServiceID: serviceID,
		})},
		{Key: "TABLE:tpch.lineitem", Value: marshalCatalogObject(t, impalapb.CatalogObject{
			Type:             impalapb.CatalogObjectType_TABLE,
			Name:             "tpch.lineitem",
			CatalogVersion:   6,
			CatalogServiceID: serviceID,
		})},
	}, nil), &updates)

	require.Empty(t, updates)
	version, topicVersion, gotServiceID := ts.CatalogVersionInfo()
	require.EqualValues(t, 6, version)
	require.EqualValues(t, 1, topicVersion)
	require.Equal(t, serviceID, gotServiceID)

	// The first applied catalog brings the server online.
	require.False(t, ts.IsOffline())

	ts.frontend.mu.Lock()
	require.Len(t, ts.frontend.mu.cacheReqs, 1)
	require.False(t, ts.frontend.mu.cacheReqs[0].IsDelta)
	require.Len(t, ts.frontend.mu.cacheReqs[0].UpdatedObjects, 2)
	ts.frontend.mu.Unlock()

	// A later delta removing the table.
	ts.CatalogCallback(catalogDelta(true, 2, 1, nil, []string{"TABLE:tpch.lineitem"}), &updates)
	ts.frontend.mu.Lock()
	removed := ts.frontend.mu.cacheReqs[1].RemovedObjects
	ts.frontend.mu.Unlock()
	require.Len(t, removed, 1)
	require.Equal(t, impalapb.CatalogObjectType_TABLE, removed[0].Type)
	require.Equal(t, "tpch.lineitem", removed[0].Name)
}

func TestCatalogCallbackFailureRequestsFullTopic(t *testing.T) {
	libCache := &recordingLibCache{}
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.LibCache = libCache
	})
	ts.frontend.mu.Lock()
	ts.frontend.mu.cacheErr = errors.New("frontend unavailable")
	ts.frontend.mu.Unlock()

	var updates []impalapb.TopicDelta
	ts.CatalogCallback(catalogDelta(false, 1, 1, []impalapb.TopicItem{
		{Key: "DATABASE:tpch", Value: marshalCatalogObject(t, impalapb.CatalogObject{
			Type:           impalapb.CatalogObjectType_DATABASE,
			Name:           "tpch",
			CatalogVersion: 5,
		})},
	}, nil), &updates)

	// The callback requested a replay of the whole topic and wiped the
	// library cache.
	require.Len(t, updates, 1)
	require.Equal(t, statestore.CatalogTopic, updates[0].TopicName)
	require.Zero(t, updates[0].FromVersion)
	libCache.mu.Lock()
	require.True(t, libCache.mu.dropped)
	libCache.mu.Unlock()

	version, _, _ := ts.CatalogVersionInfo()
	require.Zero(t, version)
}

func TestEvictDroppedLibraries(t *testing.T) {
	ctx := context.Background()
	libCache := &recordingLibCache{}
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.LibCache = libCache
	})

	ts.frontend.mu.Lock()
	ts.frontend.mu.objects["default.old_fn"] = impalapb.CatalogObject{
		Type:           impalapb.CatalogObjectType_FUNCTION,
		Name:           "default.old_fn",
		CatalogVersion: 5,
		HdfsLocation:   "/libs/old_fn.so",
	}
	ts.frontend.mu.objects["default.new_fn"] = impalapb.CatalogObject{
		Type:           impalapb.CatalogObjectType_FUNCTION,
		Name:           "default.new_fn",
		CatalogVersion: 50,
		HdfsLocation:   "/libs/new_fn.so",
	}
	ts.frontend.mu.Unlock()

	ts.evictDroppedLibraries(ctx, []impalapb.CatalogObject{
		{Type: impalapb.CatalogObjectType_FUNCTION, Name: "default.old_fn"},
		// Recreated at a newer version than the applied epoch; keep it.
		{Type: impalapb.CatalogObjectType_FUNCTION, Name: "default.new_fn"},
		// No longer in the catalog at all.
		{Type: impalapb.CatalogObjectType_FUNCTION, Name: "default.gone_fn"},
	}, 10)

	libCache.mu.Lock()
	defer libCache.mu.Unlock()
	require.Equal(t, []string{"/libs/old_fn.so"}, libCache.mu.removed)
}

func TestProcessCatalogUpdateResultDirect(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	serviceID := impalapb.MakeUniqueID()

	result := &impalapb.CatalogUpdateResult{
		Version:          9,
		CatalogServiceID: serviceID,
		UpdatedObject: &impalapb.CatalogObject{
			Type:           impalapb.CatalogObjectType_TABLE,
			Name:           "tpch.orders",
			CatalogVersion: 9,
		},
	}
	require.NoError(t, ts.ProcessCatalogUpdateResult(ctx, result, false))

	// The object went straight to the local planner cache; no barrier wait.
	ts.frontend.mu.Lock()
	defer ts.frontend.mu.Unlock()
	require.Len(t, ts.frontend.mu.cacheReqs, 1)
	require.True(t, ts.frontend.mu.cacheReqs[0].IsDelta)
	require.Equal(t, serviceID, ts.frontend.mu.cacheReqs[0].CatalogServiceID)
	require.Contains(t, ts.frontend.mu.objects, "tpch.orders")
}

func TestCatalogUpdateBarrier(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	serviceID := impalapb.MakeUniqueID()

	var updates []impalapb.TopicDelta
	ts.CatalogCallback(catalogDelta(false, 1, 1, []impalapb.TopicItem{
		{Key: "DATABASE:tpch", Value: marshalCatalogObject(t, impalapb.CatalogObject{
			Type:             impalapb.CatalogObjectType_DATABASE,
			Name:             "tpch",
			CatalogVersion:   5,
			CatalogServiceID: serviceID,
		})},
	}, nil), &updates)

	done := make(chan error, 1)
	go func() {
		done <- ts.ProcessCatalogUpdateResult(ctx, &impalapb.CatalogUpdateResult{
			Version:          7,
			CatalogServiceID: serviceID,
		}, false)
	}()

	select {
	case err := <-done:
		t.Fatalf("barrier returned before version 7 arrived: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	// Version 7 lands on the topic; the waiter is released.
	ts.CatalogCallback(catalogDelta(true, 2, 1, []impalapb.TopicItem{
		{Key: "TABLE:tpch.orders", Value: marshalCatalogObject(t, impalapb.CatalogObject{
			Type:             impalapb.CatalogObjectType_TABLE,
			Name:             "tpch.orders",
			CatalogVersion:   7,
			CatalogServiceID: serviceID,
		})},
	}, nil), &updates)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("barrier did not release after version 7 arrived")
	}
}

func TestCatalogBarrierAbortsOnServiceIDChange(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	oldService := impalapb.MakeUniqueID()
	newService := impalapb.MakeUniqueID()

	var updates []impalapb.TopicDelta
	ts.CatalogCallback(catalogDelta(false, 1, 1, []impalapb.TopicItem{
		{Key: "DATABASE:tpch", Value: marshalCatalogObject(t, impalapb.CatalogObject{
			Type:             impalapb.CatalogObjectType_DATABASE,
			Name:             "tpch",
			CatalogVersion:   5,
			CatalogServiceID: oldService,
		})},
	}, nil), &updates)

	done := make(chan error, 1)
	go func() {
		done <- ts.ProcessCatalogUpdateResult(ctx, &impalapb.CatalogUpdateResult{
			Version:          99,
			CatalogServiceID: oldService,
		}, false)
	}()

	select {
	case err := <-done:
		t.Fatalf("barrier returned before the service restarted: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	// A restarted catalog service publishes a full topic under a new id; the
	// waiter gives up rather than waiting for a version that will never come.
	ts.CatalogCallback(catalogDelta(false, 1, 1, []impalapb.TopicItem{
		{Key: "DATABASE:tpch", Value: marshalCatalogObject(t, impalapb.CatalogObject{
			Type:             impalapb.CatalogObjectType_DATABASE,
			Name:             "tpch",
			CatalogVersion:   1,
			CatalogServiceID: newService,
		})},
	}, nil), &updates)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("barrier did not release after the catalog service id changed")
	}
}

func TestCatalogBarrierWaitsForAllSubscribers(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	serviceID := impalapb.MakeUniqueID()

	var updates []impalapb.TopicDelta
	ts.CatalogCallback(catalogDelta(false, 3, 1, []impalapb.TopicItem{
		{Key: "DATABASE:tpch", Value: marshalCatalogObject(t, impalapb.CatalogObject{
			Type:             impalapb.CatalogObjectType_DATABASE,
			Name:             "tpch",
			CatalogVersion:   7,
			CatalogServiceID: serviceID,
		})},
	}, nil), &updates)

	done := make(chan error, 1)
	go func() {
		done <- ts.ProcessCatalogUpdateResult(ctx, &impalapb.CatalogUpdateResult{
			Version:          7,
			CatalogServiceID: serviceID,
		}, true /* waitForAllSubscribers */)
	}()

	// The version is in, but not every subscriber has acknowledged it.
	select {
	case err := <-done:
		t.Fatalf("barrier returned before all subscribers caught up: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	// An empty heartbeat advances the min subscriber version.
	ts.CatalogCallback(catalogDelta(true, 4, 3, nil, nil), &updates)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("barrier did not release after all subscribers caught up")
	}
}

func TestCatalogMetricsRefreshedAfterDDL(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	ts.frontend.mu.Lock()
	ts.frontend.mu.dbs = []string{"default", "tpch"}
	ts.frontend.mu.tables = []string{"t"}
	ts.frontend.mu.Unlock()
	session := ts.openTestSession(t)

	// Non-DDL statements leave the gauges alone.
	_, err := ts.ExecuteStatement(ctx, session, "select 1")
	require.NoError(t, err)
	require.Zero(t, testutil.ToFloat64(ts.Metrics().CatalogNumDbs))

	// DDL refreshes them even when the plan carries no catalog update.
	e, err := ts.ExecuteStatement(ctx, session, "create table t (i int)")
	require.NoError(t, err)
	require.Nil(t, e.execRequest.CatalogUpdate)
	require.EqualValues(t, 2, testutil.ToFloat64(ts.Metrics().CatalogNumDbs))
	require.EqualValues(t, 2, testutil.ToFloat64(ts.Metrics().CatalogNumTables))
}

func TestCatalogBarrierTracksAdvancingTopicVersion(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	serviceID := impalapb.MakeUniqueID()

	var updates []impalapb.TopicDelta
	ts.CatalogCallback(catalogDelta(false, 3, 1, []impalapb.TopicItem{
		{Key: "DATABASE:tpch", Value: marshalCatalogObject(t, impalapb.CatalogObject{
			Type:             impalapb.CatalogObjectType_DATABASE,
			Name:             "tpch",
			CatalogVersion:   7,
			CatalogServiceID: serviceID,
		})},
	}, nil), &updates)

	done := make(chan error, 1)
	go func() {
		done <- ts.ProcessCatalogUpdateResult(ctx, &impalapb.CatalogUpdateResult{
			Version:          7,
			CatalogServiceID: serviceID,
		}, true /* waitForAllSubscribers */)
	}()

	select {
	case err := <-done:
		t.Fatalf("barrier returned before all subscribers caught up: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	// A further update moves the topic to version 5 while the slowest
	// subscriber only reaches the old version 3. The barrier must chase the
	// current topic version, not the one seen on entry.
	ts.CatalogCallback(catalogDelta(true, 5, 3, []impalapb.TopicItem{
		{Key: "TABLE:tpch.lineitem", Value: marshalCatalogObject(t, impalapb.CatalogObject{
			Type:             impalapb.CatalogObjectType_TABLE,
			Name:             "tpch.lineitem",
			CatalogVersion:   8,
			CatalogServiceID: serviceID,
		})},
	}, nil), &updates)

	select {
	case err := <-done:
		t.Fatalf("barrier released at a stale topic version: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	ts.CatalogCallback(catalogDelta(true, 6, 5, nil, nil), &updates)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("barrier did not release after all subscribers caught up")
	}
}
