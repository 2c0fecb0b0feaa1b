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
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks coordinator-level counters and gauges.
type Metrics struct {
	NumQueries          prometheus.Counter
	NumQueriesExpired   prometheus.Counter
	NumSessionsExpired  prometheus.Counter
	NumOpenSessions     prometheus.Gauge
	NumInflightQueries  prometheus.Gauge
	NumArchivedQueries  prometheus.Gauge
	CancellationDropped prometheus.Counter
	CatalogNumDbs       prometheus.Gauge
	CatalogNumTables    prometheus.Gauge
	CatalogVersion      prometheus.Gauge
}

// NewMetrics creates the metric set and registers it with reg. A nil reg
// leaves the metrics unregistered, which tests use to avoid collisions.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NumQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "impala_server_num_queries_total",
			Help: "Total number of queries accepted by this coordinator.",
		}),
		NumQueriesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "impala_server_num_queries_expired_total",
			Help: "Queries cancelled due to client inactivity.",
		}),
		NumSessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "impala_server_num_sessions_expired_total",
			Help: "Sessions closed due to client inactivity.",
		}),
		NumOpenSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "impala_server_num_open_sessions",
			Help: "Number of currently open client sessions.",
		}),
		NumInflightQueries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "impala_server_num_inflight_queries",
			Help: "Number of registered, non-terminal queries.",
		}),
		NumArchivedQueries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "impala_server_num_archived_queries",
			Help: "Number of completed queries retained in the archive.",
		}),
		CancellationDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "impala_server_cancellation_work_dropped_total",
			Help: "Cancellation work items dropped due to a full queue.",
		}),
		CatalogNumDbs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "impala_server_catalog_num_databases",
			Help: "Databases visible in the local catalog cache.",
		}),
		CatalogNumTables: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "impala_server_catalog_num_tables",
			Help: "Tables visible in the local catalog cache.",
		}),
		CatalogVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "impala_server_catalog_version",
			Help: "Catalog version most recently applied to the planner cache.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.NumQueries, m.NumQueriesExpired, m.NumSessionsExpired,
			m.NumOpenSessions, m.NumInflightQueries, m.NumArchivedQueries,
			m.CancellationDropped, m.CatalogNumDbs, m.CatalogNumTables,
			m.CatalogVersion,
		)
	}
	return m
}
