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

// Package base holds the process configuration shared by the coordinator
// and backend services.
package base

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Default ports and sizing, mirroring the historical daemon defaults.
const (
	DefaultBeeswaxPort = 21000
	DefaultHS2Port     = 21050
	DefaultBackendPort = 22000

	DefaultFeServiceThreads           = 64
	DefaultBeServiceThreads           = 64
	DefaultCancellationThreadPoolSize = 5

	DefaultQueryLogSize       = 25
	DefaultMaxResultCacheSize = 100000

	// Completed queries per on-disk log file before rotation.
	DefaultMaxProfileLogFileSize    = 5000
	DefaultMaxAuditEventLogFileSize = 5000
)

// Config is the full set of recognised daemon options. Timeouts are in
// seconds; zero disables the corresponding feature.
type Config struct {
	// Hostname is the address advertised to peers and clients.
	Hostname    string
	BeeswaxPort int
	HS2Port     int
	BackendPort int

	FeServiceThreads           int
	BeServiceThreads           int
	CancellationThreadPoolSize int

	IdleSessionTimeout int
	IdleQueryTimeout   int

	// QueryLogSize bounds the in-memory archive of completed queries.
	// -1 means unbounded, 0 disables archival.
	QueryLogSize       int
	LogQueryToFile     bool
	MaxResultCacheSize int

	ProfileLogDir            string
	AuditEventLogDir         string
	MaxProfileLogFileSize    int
	MaxAuditEventLogFileSize int
	AbortOnFailedAuditEvent  bool

	SSLServerCertificate   string
	SSLPrivateKey          string
	SSLClientCACertificate string

	// AuthorizedProxyUserConfig has the form "proxy1=u1,u2;proxy2=*".
	AuthorizedProxyUserConfig string
	// DefaultQueryOptions has the form "key=value,key=value".
	DefaultQueryOptions string
}

// DefaultConfig returns a Config with all defaults filled in.
func DefaultConfig() Config {
	return Config{
		Hostname:                   "localhost",
		BeeswaxPort:                DefaultBeeswaxPort,
		HS2Port:                    DefaultHS2Port,
		BackendPort:                DefaultBackendPort,
		FeServiceThreads:           DefaultFeServiceThreads,
		BeServiceThreads:           DefaultBeServiceThreads,
		CancellationThreadPoolSize: DefaultCancellationThreadPoolSize,
		QueryLogSize:               DefaultQueryLogSize,
		LogQueryToFile:             true,
		MaxResultCacheSize:         DefaultMaxResultCacheSize,
		MaxProfileLogFileSize:      DefaultMaxProfileLogFileSize,
		MaxAuditEventLogFileSize:   DefaultMaxAuditEventLogFileSize,
		AbortOnFailedAuditEvent:    true,
	}
}

// Validate checks the configuration for fatal inconsistencies. It is called
// once at startup; failures terminate the process.
func (c *Config) Validate() error {
	if c.CancellationThreadPoolSize < 1 {
		return errors.Errorf("cancellation_thread_pool_size must be positive, got %d",
			c.CancellationThreadPoolSize)
	}
	if c.IdleSessionTimeout < 0 {
		return errors.Errorf("idle_session_timeout must be non-negative, got %d",
			c.IdleSessionTimeout)
	}
	if c.IdleQueryTimeout < 0 {
		return errors.Errorf("idle_query_timeout must be non-negative, got %d",
			c.IdleQueryTimeout)
	}
	if c.QueryLogSize < -1 {
		return errors.Errorf("query_log_size must be -1, 0 or positive, got %d",
			c.QueryLogSize)
	}
	if c.MaxProfileLogFileSize < 1 {
		return errors.Errorf("max_profile_log_file_size must be positive, got %d",
			c.MaxProfileLogFileSize)
	}
	if c.MaxAuditEventLogFileSize < 1 {
		return errors.Errorf("max_audit_event_log_file_size must be positive, got %d",
			c.MaxAuditEventLogFileSize)
	}
	if (c.SSLServerCertificate == "") != (c.SSLPrivateKey == "") {
		return errors.New("ssl_server_certificate and ssl_private_key must be set together")
	}
	if _, err := ParseProxyUserConfig(c.AuthorizedProxyUserConfig); err != nil {
		return err
	}
	return nil
}

// ProxyUsers parses AuthorizedProxyUserConfig. Validate has already vetted
// the string, so errors here indicate the config changed underneath us.
func (c *Config) ProxyUsers() (map[string][]string, error) {
	return ParseProxyUserConfig(c.AuthorizedProxyUserConfig)
}

// ParseProxyUserConfig parses "proxy1=u1,u2;proxy2=*" into a map from proxy
// principal to the users it may impersonate. An empty string yields an empty
// map, which refuses all delegation.
func ParseProxyUserConfig(s string) (map[string][]string, error) {
	m := make(map[string][]string)
	if strings.TrimSpace(s) == "" {
		return m, nil
	}
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		eq := strings.Index(entry, "=")
		if eq <= 0 {
			return nil, errors.Errorf(
				"invalid authorized_proxy_user_config entry %q: expected proxy=user,user", entry)
		}
		proxy := strings.TrimSpace(entry[:eq])
		var users []string
		for _, u := range strings.Split(entry[eq+1:], ",") {
			if u = strings.TrimSpace(u); u != "" {
				users = append(users, u)
			}
		}
		if len(users) == 0 {
			return nil, errors.Errorf(
				"invalid authorized_proxy_user_config entry %q: no users listed", entry)
		}
		m[proxy] = users
	}
	return m, nil
}
