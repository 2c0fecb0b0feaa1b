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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goimpala/impala/pkg/impalapb"
)

func TestShortUserName(t *testing.T) {
	require.Equal(t, "root", shortUserName("root"))
	require.Equal(t, "root", shortUserName("root@EXAMPLE.COM"))
	require.Equal(t, "root", shortUserName("root/admin-host@EXAMPLE.COM"))
	require.Equal(t, "", shortUserName("@EXAMPLE.COM"))
}

func TestAuthorizeProxyUser(t *testing.T) {
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.Cfg.AuthorizedProxyUserConfig = "root=alice,bob; svc=*"
	})

	// Kerberos principals authorize by their short name.
	require.NoError(t, ts.AuthorizeProxyUser("root@EXAMPLE.COM", "alice"))
	require.NoError(t, ts.AuthorizeProxyUser("root/admin-host@EXAMPLE.COM", "bob"))
	require.NoError(t, ts.AuthorizeProxyUser("root", "alice"))

	err := ts.AuthorizeProxyUser("root/admin-host@EXAMPLE.COM", "carol")
	require.EqualError(t, err,
		`User "root/admin-host@EXAMPLE.COM" is not authorized to delegate to "carol".`)
	require.Equal(t, impalapb.StatusCode_AUTHORIZATION, impalapb.CodeOf(err))
	require.True(t, isAuthorizationError(err))

	// The wildcard admits any delegated user.
	require.NoError(t, ts.AuthorizeProxyUser("svc", "anyone"))
	require.NoError(t, ts.AuthorizeProxyUser("svc@EXAMPLE.COM", "someone-else"))

	// Unconfigured proxies and empty principals are refused.
	require.Error(t, ts.AuthorizeProxyUser("mallory", "alice"))
	require.Error(t, ts.AuthorizeProxyUser("", "alice"))
}

func TestAuthorizeProxyUserWithoutConfig(t *testing.T) {
	ts := newTestServer(t, nil)
	err := ts.AuthorizeProxyUser("root", "alice")
	require.Error(t, err)
	require.Equal(t, impalapb.StatusCode_AUTHORIZATION, impalapb.CodeOf(err))
}
