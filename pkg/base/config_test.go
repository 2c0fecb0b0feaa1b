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

package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejections(t *testing.T) {
	testCases := []struct {
		name   string
		mut    func(*Config)
		expErr string
	}{
		{"cancel pool", func(c *Config) { c.CancellationThreadPoolSize = 0 }, "cancellation_thread_pool_size"},
		{"session timeout", func(c *Config) { c.IdleSessionTimeout = -1 }, "idle_session_timeout"},
		{"query timeout", func(c *Config) { c.IdleQueryTimeout = -2 }, "idle_query_timeout"},
		{"log size", func(c *Config) { c.QueryLogSize = -2 }, "query_log_size"},
		{"profile rotation", func(c *Config) { c.MaxProfileLogFileSize = 0 }, "max_profile_log_file_size"},
		{"ssl pair", func(c *Config) { c.SSLServerCertificate = "cert.pem" }, "ssl_server_certificate"},
		{"proxy config", func(c *Config) { c.AuthorizedProxyUserConfig = "=alice" }, "authorized_proxy_user_config"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mut(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.expErr)
		})
	}
}

func TestParseProxyUserConfig(t *testing.T) {
	m, err := ParseProxyUserConfig("")
	require.NoError(t, err)
	require.Empty(t, m)

	m, err = ParseProxyUserConfig("root=alice,bob; svc=*")
	require.NoError(t, err)
	require.Equal(t, map[string][]string{
		"root": {"alice", "bob"},
		"svc":  {"*"},
	}, m)

	for _, bad := range []string{"=alice", "root", "root="} {
		_, err := ParseProxyUserConfig(bad)
		require.Error(t, err, "input %q", bad)
	}
}
