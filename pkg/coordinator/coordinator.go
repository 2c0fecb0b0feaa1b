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

// Package coordinator drives the distributed execution of one query:
// fan-out of plan fragments to backends, aggregation of their status
// reports, and assembly of result batches for the client.
package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/syncutil"
)

// BackendClient is the slice of the internal service a coordinator uses.
type BackendClient interface {
	ExecPlanFragment(ctx context.Context, req *impalapb.ExecPlanFragmentRequest,
	) (*impalapb.ExecPlanFragmentResponse, error)
	CancelPlanFragment(ctx context.Context, req *impalapb.CancelPlanFragmentRequest,
	) (*impalapb.CancelPlanFragmentResponse, error)
}

// ClientPool hands out clients for backend addresses.
type ClientPool interface {
	GetClient(addr impalapb.NetworkAddress) (BackendClient, error)
}

// backendExecState tracks one fragment instance on one backend.
type backendExecState struct {
	instanceID  impalapb.UniqueID
	fragmentIdx int32
	backendNum  int32
	host        impalapb.NetworkAddress

	done            bool
	status          error
	numRowsProduced int64
}

// Coordinator implements the distributed execution of a single query.
type Coordinator struct {
	log.AmbientContext

	queryCtx impalapb.QueryCtx
	request  *impalapb.ExecRequest
	clients  ClientPool

	// Result batches destined for the client arrive via DeliverResultBatch.
	results chan *impalapb.RowBatch

	mu struct {
		syncutil.Mutex
		backends map[impalapb.UniqueID]*backendExecState
		numDone  int
		status   error
		// doneCh closes when all instances reported done or the query was
		// cancelled.
		doneCh      chan struct{}
		doneClosed  bool
		execStarted bool
	}
}

// New creates a coordinator for one planned query.
func New(
	ambient log.AmbientContext,
	queryCtx *impalapb.QueryCtx,
	request *impalapb.ExecRequest,
	clients ClientPool,
) *Coordinator {
	c := &Coordinator{
		AmbientContext: ambient,
		queryCtx:       *queryCtx,
		request:        request,
		clients:        clients,
		results:        make(chan *impalapb.RowBatch, 16),
	}
	c.mu.backends = make(map[impalapb.UniqueID]*backendExecState)
	c.mu.doneCh = make(chan struct{})
	return c
}

// Exec assigns one instance of every fragment to every scheduled host and
// dispatches them in parallel. It fails if any backend rejects its fragment;
// already-dispatched fragments are cancelled on the way out.
func (c *Coordinator) Exec(ctx context.Context) error {
	ctx = c.AnnotateCtx(ctx)
	if len(c.request.Hosts) == 0 {
		return errors.AssertionFailedf("no hosts scheduled for query %s", c.queryCtx.QueryID)
	}

	c.mu.Lock()
	if c.mu.execStarted {
		c.mu.Unlock()
		return errors.AssertionFailedf("Exec called twice")
	}
	c.mu.execStarted = true
	var instances []*backendExecState
	backendNum := int32(0)
	for i := range c.request.Fragments {
		for _, host := range c.request.Hosts {
			b := &backendExecState{
				instanceID:  impalapb.MakeUniqueID(),
				fragmentIdx: c.request.Fragments[i].Idx,
				backendNum:  backendNum,
				host:        host,
			}
			c.mu.backends[b.instanceID] = b
			instances = append(instances, b)
			backendNum++
		}
	}
	c.mu.Unlock()

	log.VEventf(ctx, 1, "dispatching %d fragment instances to %d hosts",
		len(instances), len(c.request.Hosts))

	g, gCtx := errgroup.WithContext(ctx)
	for _, b := range instances {
		b := b
		g.Go(func() error {
			client, err := c.clients.GetClient(b.host)
			if err != nil {
				return errors.Wrapf(err, "connecting to backend %s", b.host)
			}
			fragment := c.fragmentByIdx(b.fragmentIdx)
			resp, err := client.ExecPlanFragment(gCtx, &impalapb.ExecPlanFragmentRequest{
				Fragment: *fragment,
				FragmentInstanceCtx: impalapb.FragmentInstanceCtx{
					QueryCtx:           c.queryCtx,
					FragmentInstanceID: b.instanceID,
					BackendNum:         b.backendNum,
				},
			})
			if err != nil {
				return errors.Wrapf(err, "ExecPlanFragment to %s failed", b.host)
			}
			return resp.Status.Err()
		})
	}
	if err := g.Wait(); err != nil {
		c.Cancel(err)
		return err
	}
	return nil
}

func (c *Coordinator) fragmentByIdx(idx int32) *impalapb.PlanFragment {
	for i := range c.request.Fragments {
		if c.request.Fragments[i].Idx == idx {
			return &c.request.Fragments[i]
		}
	}
	return &c.request.Fragments[0]
}

// UpdateFragmentExecStatus incorporates one backend status report. An error
// report latches the query status and cancels the remaining fragments.
func (c *Coordinator) UpdateFragmentExecStatus(req *impalapb.ReportExecStatusRequest) error {
	c.mu.Lock()
	b, ok := c.mu.backends[req.FragmentInstanceID]
	if !ok {
		c.mu.Unlock()
		return errors.Errorf("unknown fragment instance %s in status report", req.FragmentInstanceID)
	}
	reportErr := req.Status.Err()
	if reportErr != nil && c.mu.status == nil {
		c.mu.status = reportErr
	}
	b.numRowsProduced = req.NumRowsProduced
	if req.Done && !b.done {
		b.done = true
		b.status = reportErr
		c.mu.numDone++
		if c.mu.numDone == len(c.mu.backends) {
			c.closeDoneLocked()
		}
	}
	c.mu.Unlock()

	if reportErr != nil {
		c.Cancel(reportErr)
	}
	return nil
}

func (c *Coordinator) closeDoneLocked() {
	if !c.mu.doneClosed {
		c.mu.doneClosed = true
		close(c.mu.doneCh)
	}
}

// DeliverResultBatch feeds one batch of final results to the client-facing
// side. Called by the data-stream plumbing for batches addressed to the
// coordinator fragment.
func (c *Coordinator) DeliverResultBatch(batch *impalapb.RowBatch) {
	select {
	case c.results <- batch:
	case <-c.doneCh():
		// Query finished or was cancelled; drop the batch.
	}
}

// Wait reports whether execution is healthy enough to fetch from; it
// returns the latched failure status, if any.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.status
}

// GetNext returns the next result batch; eos once all fragment instances
// are done and the queue is drained.
func (c *Coordinator) GetNext(
	ctx context.Context, maxRows int64,
) (*impalapb.RowBatch, bool, error) {
	select {
	case batch := <-c.results:
		return batch, false, nil
	default:
	}
	select {
	case batch := <-c.results:
		return batch, false, nil
	case <-c.doneCh():
		// Drain anything that raced with completion.
		select {
		case batch := <-c.results:
			return batch, false, nil
		default:
		}
		c.mu.Lock()
		err := c.mu.status
		c.mu.Unlock()
		return nil, true, err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (c *Coordinator) doneCh() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.doneCh
}

// Cancel aborts execution on all backends. Idempotent; only the first cause
// is recorded.
func (c *Coordinator) Cancel(cause error) {
	if cause == nil {
		cause = impalapb.WithCode(errors.New("Cancelled"), impalapb.StatusCode_CANCELLED)
	}
	c.mu.Lock()
	if c.mu.status == nil {
		c.mu.status = cause
	}
	alreadyDone := c.mu.doneClosed
	var pending []*backendExecState
	for _, b := range c.mu.backends {
		if !b.done {
			pending = append(pending, b)
		}
	}
	c.closeDoneLocked()
	c.mu.Unlock()

	if alreadyDone {
		return
	}
	// Best-effort async cancellation; state is reaped when the fragments'
	// final reports arrive or the query is unregistered.
	for _, b := range pending {
		b := b
		go func() {
			client, err := c.clients.GetClient(b.host)
			if err != nil {
				return
			}
			_, _ = client.CancelPlanFragment(context.Background(),
				&impalapb.CancelPlanFragmentRequest{FragmentInstanceID: b.instanceID})
		}()
	}
}

// Progress describes completed vs. total fragment instances.
func (c *Coordinator) Progress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%d / %d fragment instances complete", c.mu.numDone, len(c.mu.backends))
}

// ExecSummary renders a per-instance table of hosts, completion and rows
// produced.
func (c *Coordinator) ExecSummary() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader([]string{"Fragment", "Instance", "Host", "Done", "Rows Produced", "Status"})
	table.SetBorder(false)
	for _, b := range c.mu.backends {
		status := "OK"
		if b.status != nil {
			status = b.status.Error()
		}
		table.Append([]string{
			fmt.Sprintf("F%02d", b.fragmentIdx),
			b.instanceID.String(),
			b.host.String(),
			fmt.Sprintf("%t", b.done),
			fmt.Sprintf("%d", b.numRowsProduced),
			status,
		})
	}
	table.Render()
	return sb.String()
}
