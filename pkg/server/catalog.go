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

	"github.com/gogo/protobuf/proto"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/statestore"
	"github.com/goimpala/impala/pkg/util/log"
)

// CatalogCallback consumes deltas of the catalog topic: it forwards catalog
// object updates to the planner's cache, advances the versioned barrier used
// by DDL, and maintains the native library cache. On failure it requests a
// full resubscribe so the next heartbeat replays the entire topic.
func (srv *Server) CatalogCallback(
	deltas statestore.TopicDeltaMap, updates *[]impalapb.TopicDelta,
) {
	delta, ok := deltas[statestore.CatalogTopic]
	if !ok {
		return
	}
	ctx := srv.AnnotateCtx(context.Background())

	if len(delta.TopicEntries) == 0 && len(delta.TopicDeletions) == 0 && delta.IsDelta {
		srv.catalog.Lock()
		srv.catalog.minSubscriberTopicVersion = delta.MinSubscriberTopicVersion
		srv.catalog.cond.Broadcast()
		srv.catalog.Unlock()
		return
	}

	req := &impalapb.UpdateCatalogCacheRequest{IsDelta: delta.IsDelta}
	var newVersion int64
	for _, item := range delta.TopicEntries {
		var obj impalapb.CatalogObject
		if err := proto.Unmarshal(item.Value, &obj); err != nil {
			log.Errorf(ctx, "bad catalog object for %q: %v", item.Key, err)
			continue
		}
		if obj.CatalogVersion > newVersion {
			newVersion = obj.CatalogVersion
		}
		if req.CatalogServiceID.IsZero() {
			req.CatalogServiceID = obj.CatalogServiceID
		}
		req.UpdatedObjects = append(req.UpdatedObjects, obj)
	}
	var droppedLibs []impalapb.CatalogObject
	for _, key := range delta.TopicDeletions {
		obj := catalogObjectFromKey(key)
		req.RemovedObjects = append(req.RemovedObjects, obj)
		if obj.Type == impalapb.CatalogObjectType_FUNCTION ||
			obj.Type == impalapb.CatalogObjectType_DATA_SOURCE {
			droppedLibs = append(droppedLibs, obj)
		}
	}

	// The planner call happens outside the version mutex.
	resp, err := srv.cfg.Frontend.UpdateCatalogCache(ctx, req)
	if err != nil {
		log.Errorf(ctx, "catalog cache update failed, requesting full topic: %v", err)
		*updates = append(*updates, impalapb.TopicDelta{
			TopicName:   statestore.CatalogTopic,
			FromVersion: 0,
		})
		if srv.cfg.LibCache != nil {
			srv.cfg.LibCache.DropCache()
		}
		return
	}

	srv.catalog.Lock()
	srv.catalog.catalogServiceID = resp.CatalogServiceID
	if newVersion > srv.catalog.catalogVersion {
		srv.catalog.catalogVersion = newVersion
	}
	srv.catalog.catalogTopicVersion = delta.ToVersion
	srv.catalog.minSubscriberTopicVersion = delta.MinSubscriberTopicVersion
	currentVersion := srv.catalog.catalogVersion
	srv.catalog.cond.Broadcast()
	srv.catalog.Unlock()

	srv.metrics.CatalogVersion.Set(float64(currentVersion))
	srv.setOnline(ctx)
	srv.evictDroppedLibraries(ctx, droppedLibs, currentVersion)
	srv.UpdateCatalogMetrics(ctx)
}

// catalogObjectFromKey parses a topic deletion key of the form "TYPE:name".
func catalogObjectFromKey(key string) impalapb.CatalogObject {
	obj := impalapb.CatalogObject{Name: key}
	if i := strings.Index(key, ":"); i > 0 {
		if t, ok := impalapb.CatalogObjectType_value[key[:i]]; ok {
			obj.Type = impalapb.CatalogObjectType(t)
			obj.Name = key[i+1:]
		}
	}
	return obj
}

// evictDroppedLibraries removes dropped function/data-source libraries from
// the library cache, but only when the re-fetched object's version is within
// the epoch just applied. A drop-and-recreate in the same epoch leaves the
// newer library alone.
func (srv *Server) evictDroppedLibraries(
	ctx context.Context, dropped []impalapb.CatalogObject, newCatalogVersion int64,
) {
	if srv.cfg.LibCache == nil {
		return
	}
	for i := range dropped {
		obj, err := srv.cfg.Frontend.GetCatalogObject(ctx, &dropped[i])
		if err != nil {
			log.VEventf(ctx, 2, "dropped object %s no longer in catalog: %v", dropped[i].Name, err)
			continue
		}
		if obj.CatalogVersion <= newCatalogVersion && obj.HdfsLocation != "" {
			srv.cfg.LibCache.RemoveEntry(obj.HdfsLocation)
		}
	}
}

// ProcessCatalogUpdateResult makes the effects of a completed DDL visible.
// Without waitForAllSubscribers and with a direct object update in the
// result, the object is applied to the local planner cache immediately.
// Otherwise the call blocks until the catalog topic has delivered version ≥
// result.Version under the same catalog service id; a service id change
// aborts the wait with success since the new service will re-publish a full
// topic. With waitForAllSubscribers it additionally waits until every
// subscriber has acknowledged the topic version carrying the change.
func (srv *Server) ProcessCatalogUpdateResult(
	ctx context.Context, result *impalapb.CatalogUpdateResult, waitForAllSubscribers bool,
) error {
	if (result.UpdatedObject != nil || result.RemovedObject != nil) && !waitForAllSubscribers {
		req := &impalapb.UpdateCatalogCacheRequest{
			IsDelta:          true,
			CatalogServiceID: result.CatalogServiceID,
		}
		if result.UpdatedObject != nil {
			req.UpdatedObjects = append(req.UpdatedObjects, *result.UpdatedObject)
		}
		if result.RemovedObject != nil {
			req.RemovedObjects = append(req.RemovedObjects, *result.RemovedObject)
		}
		_, err := srv.cfg.Frontend.UpdateCatalogCache(ctx, req)
		return err
	}

	srv.catalog.Lock()
	defer srv.catalog.Unlock()
	for srv.catalog.catalogServiceID == result.CatalogServiceID &&
		srv.catalog.catalogVersion < result.Version {
		if srv.catalog.draining {
			return nil
		}
		srv.catalog.cond.Wait()
	}
	if srv.catalog.catalogServiceID != result.CatalogServiceID {
		log.Infof(srv.AnnotateCtx(ctx),
			"catalog service id changed while waiting for version %d, returning", result.Version)
		return nil
	}
	if waitForAllSubscribers {
		// The topic version is re-read each pass: the wait target is the
		// current topic version, not the one seen on entry.
		for srv.catalog.catalogServiceID == result.CatalogServiceID &&
			srv.catalog.minSubscriberTopicVersion < srv.catalog.catalogTopicVersion {
			if srv.catalog.draining {
				return nil
			}
			srv.catalog.cond.Wait()
		}
	}
	return nil
}

// CatalogVersionInfo returns the current barrier state, for tests and
// diagnostics.
func (srv *Server) CatalogVersionInfo() (version, topicVersion int64, serviceID impalapb.UniqueID) {
	srv.catalog.Lock()
	defer srv.catalog.Unlock()
	return srv.catalog.catalogVersion, srv.catalog.catalogTopicVersion, srv.catalog.catalogServiceID
}

// UpdateCatalogMetrics refreshes the database and table count gauges from
// the planner's cache. Called after DDL and after catalog topic updates.
func (srv *Server) UpdateCatalogMetrics(ctx context.Context) {
	dbs, err := srv.cfg.Frontend.GetDbNames(ctx, "")
	if err != nil {
		log.VEventf(ctx, 1, "failed to refresh catalog metrics: %v", err)
		return
	}
	srv.metrics.CatalogNumDbs.Set(float64(len(dbs)))
	var numTables int
	for _, db := range dbs {
		tables, err := srv.cfg.Frontend.GetTableNames(ctx, db, "")
		if err != nil {
			log.VEventf(ctx, 1, "failed to list tables in %q: %v", db, err)
			return
		}
		numTables += len(tables)
	}
	srv.metrics.CatalogNumTables.Set(float64(numTables))
}
