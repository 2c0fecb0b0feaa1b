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

// Package statestore implements the subscriber side of the cluster
// membership and metadata bus. The statestore delivers periodic heartbeats,
// each carrying incremental deltas for the topics a subscriber registered
// interest in; callbacks may push updates of their own back to the bus.
package statestore

import (
	"context"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/syncutil"
)

// Topics subscribed by the coordinator.
const (
	// MembershipTopic announces which backends are live.
	MembershipTopic = "impala-membership"
	// CatalogTopic carries incremental catalog-object updates.
	CatalogTopic = "catalog-update"
)

// TopicDeltaMap maps topic name to the delta delivered in one heartbeat.
type TopicDeltaMap map[string]*impalapb.TopicDelta

// UpdateCallback is invoked once per heartbeat with the deltas for all
// subscribed topics. A callback may append TopicDeltas to updates, e.g. a
// delta with FromVersion=0 to request a full resubscribe. Callbacks run on
// the single heartbeat-processing goroutine and must not block on RPCs or
// per-query locks.
type UpdateCallback func(deltas TopicDeltaMap, updates *[]impalapb.TopicDelta)

// Subscriber dispatches statestore heartbeats to registered callbacks.
type Subscriber struct {
	log.AmbientContext

	mu struct {
		syncutil.Mutex
		callbacks map[string][]UpdateCallback
	}
}

// NewSubscriber returns an empty subscriber.
func NewSubscriber(ambient log.AmbientContext) *Subscriber {
	s := &Subscriber{AmbientContext: ambient}
	s.AddLogTag("statestore", nil)
	s.mu.callbacks = make(map[string][]UpdateCallback)
	return s
}

// AddTopic registers interest in a topic. Multiple callbacks per topic are
// allowed and run in registration order.
func (s *Subscriber) AddTopic(topic string, cb UpdateCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.callbacks[topic] = append(s.mu.callbacks[topic], cb)
}

// Topics returns the names of all registered topics.
func (s *Subscriber) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.mu.callbacks))
	for name := range s.mu.callbacks {
		names = append(names, name)
	}
	return names
}

// ProcessHeartbeat applies one heartbeat's deltas, invoking the callbacks of
// every registered topic present in the payload. Returns any updates the
// callbacks want pushed back to the statestore.
func (s *Subscriber) ProcessHeartbeat(
	ctx context.Context, deltas []impalapb.TopicDelta,
) []impalapb.TopicDelta {
	ctx = s.AnnotateCtx(ctx)

	byTopic := make(TopicDeltaMap, len(deltas))
	for i := range deltas {
		byTopic[deltas[i].TopicName] = &deltas[i]
	}

	s.mu.Lock()
	callbacks := make(map[string][]UpdateCallback, len(s.mu.callbacks))
	for topic, cbs := range s.mu.callbacks {
		callbacks[topic] = cbs
	}
	s.mu.Unlock()

	var updates []impalapb.TopicDelta
	for topic, cbs := range callbacks {
		delta, ok := byTopic[topic]
		if !ok {
			continue
		}
		if log.V(2) {
			log.Infof(ctx, "processing %s delta: %d entries, %d deletions, version %d",
				topic, len(delta.TopicEntries), len(delta.TopicDeletions), delta.ToVersion)
		}
		for _, cb := range cbs {
			cb(byTopic, &updates)
		}
	}
	return updates
}
