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

package backend

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/util/syncutil"
)

// RunFragmentFn executes a prepared plan fragment to completion. The
// execution engine is pluggable; ctx is cancelled when the fragment is
// cancelled.
type RunFragmentFn func(ctx context.Context, f *FragmentExecState) error

// FragmentExecState is one remote plan-fragment instance hosted on this
// backend. It is created by ExecPlanFragment, prepared synchronously, run on
// a dedicated goroutine and dropped from the fragment map when that
// goroutine exits.
//
// Cancel must never be called before Prepare has returned; the service
// enforces this by registering the fragment only after Prepare succeeds.
type FragmentExecState struct {
	fragment    impalapb.PlanFragment
	instanceCtx impalapb.FragmentInstanceCtx

	cancel context.CancelFunc
	// execCtx is cancelled by Cancel; Exec runs under it.
	execCtx context.Context

	mu struct {
		syncutil.Mutex
		prepared  bool
		cancelled bool
		status    error
	}
}

func newFragmentExecState(
	fragment impalapb.PlanFragment, instanceCtx impalapb.FragmentInstanceCtx,
) *FragmentExecState {
	return &FragmentExecState{fragment: fragment, instanceCtx: instanceCtx}
}

// InstanceID identifies this fragment instance.
func (f *FragmentExecState) InstanceID() impalapb.UniqueID {
	return f.instanceCtx.FragmentInstanceID
}

// QueryID identifies the parent query.
func (f *FragmentExecState) QueryID() impalapb.UniqueID {
	return f.instanceCtx.QueryCtx.QueryID
}

// Fragment returns the plan fragment definition.
func (f *FragmentExecState) Fragment() *impalapb.PlanFragment { return &f.fragment }

// Prepare validates the fragment and sets up the execution context. Called
// synchronously from ExecPlanFragment so that any later Cancel always finds
// a prepared fragment.
func (f *FragmentExecState) Prepare(ctx context.Context) error {
	if f.fragment.OutputSink == nil {
		return impalapb.WithCode(
			errors.Errorf("missing sink in plan fragment %d of query %s",
				f.fragment.Idx, f.QueryID()),
			impalapb.StatusCode_INTERNAL_ERROR)
	}
	f.execCtx, f.cancel = context.WithCancel(ctx)
	f.mu.Lock()
	f.mu.prepared = true
	f.mu.Unlock()
	return nil
}

// Exec runs the fragment with run until completion or cancellation and
// latches the resulting status.
func (f *FragmentExecState) Exec(run RunFragmentFn) error {
	f.mu.Lock()
	if !f.mu.prepared {
		f.mu.Unlock()
		return errors.AssertionFailedf("Exec called on unprepared fragment %s", f.InstanceID())
	}
	f.mu.Unlock()

	err := run(f.execCtx, f)
	if err == nil && f.execCtx.Err() != nil {
		err = impalapb.WithCode(errors.New("Cancelled"), impalapb.StatusCode_CANCELLED)
	}
	f.mu.Lock()
	if f.mu.status == nil {
		f.mu.status = err
	}
	f.mu.Unlock()
	return err
}

// Cancel initiates asynchronous cancellation: the exec context is cancelled
// and the exec goroutine winds down on its own.
func (f *FragmentExecState) Cancel() {
	f.mu.Lock()
	if !f.mu.prepared {
		f.mu.Unlock()
		panic("Cancel called before Prepare returned")
	}
	f.mu.cancelled = true
	f.mu.Unlock()
	f.cancel()
}

// Status returns the fragment's latched completion status.
func (f *FragmentExecState) Status() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mu.status
}

// Cancelled reports whether Cancel was invoked.
func (f *FragmentExecState) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mu.cancelled
}
