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
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/impalapb"
)

// shortUserName derives the short form of a principal: everything up to the
// first '/' or '@', or the whole principal if neither appears.
func shortUserName(principal string) string {
	if i := strings.IndexAny(principal, "/@"); i >= 0 {
		return principal[:i]
	}
	return principal
}

// AuthorizeProxyUser checks whether connectedUser may submit requests on
// behalf of doAsUser. An empty proxy configuration or an empty connected
// principal always refuses.
func (srv *Server) AuthorizeProxyUser(connectedUser, doAsUser string) error {
	refuse := func() error {
		return impalapb.WithCode(errors.Errorf(
			"User %q is not authorized to delegate to %q.", connectedUser, doAsUser),
			impalapb.StatusCode_AUTHORIZATION)
	}
	if connectedUser == "" || len(srv.proxyUsers) == 0 {
		return refuse()
	}
	allowed, ok := srv.proxyUsers[shortUserName(connectedUser)]
	if !ok {
		return refuse()
	}
	for _, user := range allowed {
		if user == "*" || user == doAsUser {
			return nil
		}
	}
	return refuse()
}

func isAuthorizationError(err error) bool {
	return impalapb.CodeOf(err) == impalapb.StatusCode_AUTHORIZATION
}
