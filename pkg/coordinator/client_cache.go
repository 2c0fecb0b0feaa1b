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

package coordinator

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/syncutil"
)

// ClientCache pools gRPC connections to backends. It satisfies both
// ClientPool (for coordinators) and the coordinator frontend's
// BackendClientCache (for membership-driven connection teardown).
type ClientCache struct {
	log.AmbientContext

	dialOpts []grpc.DialOption

	mu struct {
		syncutil.Mutex
		conns map[string]*grpc.ClientConn
	}
}

// NewClientCache creates an empty cache. Extra dial options (e.g. TLS) are
// applied to every connection.
func NewClientCache(ambient log.AmbientContext, dialOpts ...grpc.DialOption) *ClientCache {
	c := &ClientCache{AmbientContext: ambient}
	if len(dialOpts) == 0 {
		dialOpts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	c.dialOpts = dialOpts
	c.mu.conns = make(map[string]*grpc.ClientConn)
	return c
}

// GetClient returns a client for addr, dialing and caching a connection on
// first use.
func (c *ClientCache) GetClient(addr impalapb.NetworkAddress) (BackendClient, error) {
	target := addr.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.mu.conns[target]
	if !ok {
		var err error
		conn, err = grpc.Dial(target, c.dialOpts...)
		if err != nil {
			return nil, errors.Wrapf(err, "dialing backend %s", target)
		}
		c.mu.conns[target] = conn
	}
	return grpcBackendClient{client: impalapb.NewInternalServiceClient(conn)}, nil
}

// grpcBackendClient narrows the generated client to the BackendClient
// surface.
type grpcBackendClient struct {
	client impalapb.InternalServiceClient
}

func (c grpcBackendClient) ExecPlanFragment(
	ctx context.Context, req *impalapb.ExecPlanFragmentRequest,
) (*impalapb.ExecPlanFragmentResponse, error) {
	return c.client.ExecPlanFragment(ctx, req)
}

func (c grpcBackendClient) CancelPlanFragment(
	ctx context.Context, req *impalapb.CancelPlanFragmentRequest,
) (*impalapb.CancelPlanFragmentResponse, error) {
	return c.client.CancelPlanFragment(ctx, req)
}

// CloseConnections tears down all cached connections to addr. Called when a
// backend drops out of the membership topic.
func (c *ClientCache) CloseConnections(addr impalapb.NetworkAddress) {
	target := addr.String()
	c.mu.Lock()
	conn, ok := c.mu.conns[target]
	if ok {
		delete(c.mu.conns, target)
	}
	c.mu.Unlock()
	if ok {
		if err := conn.Close(); err != nil {
			log.Warningf(c.AnnotateCtx(context.Background()),
				"error closing connection to %s: %v", target, err)
		}
	}
}

// Close tears down every cached connection.
func (c *ClientCache) Close() {
	c.mu.Lock()
	conns := c.mu.conns
	c.mu.conns = make(map[string]*grpc.ClientConn)
	c.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}
