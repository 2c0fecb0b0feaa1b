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
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/goimpala/impala/pkg/impalapb"
)

func TestCancellationPoolDrainsWork(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)
	session := ts.openTestSession(t)

	e, err := ts.ExecuteStatement(ctx, session, "select 1")
	require.NoError(t, err)

	cause := impalapb.WithCode(errors.New("cancelled by test"), impalapb.StatusCode_CANCELLED)
	require.True(t, ts.cancellationPool.tryOffer(ctx, cancellationWork{
		queryID: e.QueryID(),
		cause:   cause,
		kind:    cancelWork,
	}))

	require.Eventually(t, func() bool {
		return e.Status() != nil
	}, 5*time.Second, 10*time.Millisecond)
	require.EqualError(t, e.Status(), "cancelled by test")

	// cancelWork leaves the query registered; unregisterWork removes it.
	_, err = ts.GetQueryExecState(e.QueryID())
	require.NoError(t, err)
	require.True(t, ts.cancellationPool.tryOffer(ctx, cancellationWork{
		queryID: e.QueryID(),
		kind:    unregisterWork,
	}))
	require.Eventually(t, func() bool {
		_, err := ts.GetQueryExecState(e.QueryID())
		return err != nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCancellationQueueOverflowDropsWork(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t, nil)

	// A pool whose workers were never started: offers accumulate in the
	// queue until it fills up.
	pool := newCancellationPool(ts.Server)
	for i := 0; i < maxCancellationQueueSize; i++ {
		require.True(t, pool.tryOffer(ctx, cancellationWork{queryID: impalapb.MakeUniqueID()}))
	}
	require.Equal(t, maxCancellationQueueSize, pool.depth())

	// The queue is full; the offer is dropped, not blocked on.
	require.False(t, pool.tryOffer(ctx, cancellationWork{queryID: impalapb.MakeUniqueID()}))
	require.Equal(t, maxCancellationQueueSize, pool.depth())
	require.EqualValues(t, 1, testutil.ToFloat64(ts.Metrics().CancellationDropped))
}
