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

// Package backend implements the server side of the internal service: the
// endpoint on every backend that hosts remote plan-fragment instances and
// relays data and status between fragments and coordinators.
package backend

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/statestore"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/stop"
	"github.com/goimpala/impala/pkg/util/syncutil"
)

// StreamMgr routes transmitted row batches to the receiving fragment
// instances; inter-fragment transport is external to this package.
type StreamMgr interface {
	AddData(destFragmentInstanceID impalapb.UniqueID, destNodeID, senderID int32,
		batch *impalapb.RowBatch) error
	CloseSender(destFragmentInstanceID impalapb.UniqueID, destNodeID, senderID int32) error
}

// StatusReportHandler accepts fragment status reports on the coordinator
// side. The coordinator frontend implements this.
type StatusReportHandler interface {
	UpdateFragmentExecStatus(req *impalapb.ReportExecStatusRequest) error
}

// ServerConfig carries the dependencies of the backend service.
type ServerConfig struct {
	log.AmbientContext

	StreamMgr StreamMgr
	// Reports handles ReportExecStatus for queries coordinated by this
	// process.
	Reports StatusReportHandler
	// RunFragment executes a prepared fragment; pluggable for tests and for
	// embedding alternative engines.
	RunFragment RunFragmentFn
	// Subscriber receives statestore heartbeats delivered via UpdateState.
	Subscriber *statestore.Subscriber
}

// Server hosts remote plan-fragment instances and serves the internal RPC
// surface.
type Server struct {
	log.AmbientContext

	cfg     ServerConfig
	stopper *stop.Stopper

	mu struct {
		syncutil.Mutex
		fragments map[impalapb.UniqueID]*FragmentExecState
	}
}

var _ impalapb.InternalServiceServer = (*Server)(nil)

// NewServer constructs the backend service.
func NewServer(cfg ServerConfig, stopper *stop.Stopper) *Server {
	if cfg.RunFragment == nil {
		// Fragments complete as soon as they are cancelled or the engine
		// has nothing to do; the real engine is wired by the process.
		cfg.RunFragment = func(ctx context.Context, f *FragmentExecState) error {
			<-ctx.Done()
			return nil
		}
	}
	s := &Server{AmbientContext: cfg.AmbientContext, cfg: cfg, stopper: stopper}
	s.AddLogTag("backend", nil)
	s.mu.fragments = make(map[impalapb.UniqueID]*FragmentExecState)
	return s
}

// NumFragments returns the number of registered fragment instances.
func (s *Server) NumFragments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mu.fragments)
}

func (s *Server) getFragment(id impalapb.UniqueID) *FragmentExecState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.fragments[id]
}

// ExecPlanFragment accepts one fragment instance: prepare synchronously,
// register, then run on a dedicated goroutine that removes the registration
// when it exits. Prepare failures are returned synchronously and never
// register the fragment.
func (s *Server) ExecPlanFragment(
	ctx context.Context, req *impalapb.ExecPlanFragmentRequest,
) (*impalapb.ExecPlanFragmentResponse, error) {
	ctx = s.AnnotateCtx(ctx)
	f := newFragmentExecState(req.Fragment, req.FragmentInstanceCtx)
	instanceID := f.InstanceID()

	// The exec goroutine outlives the RPC; detach from its context.
	execCtx := s.AnnotateCtx(context.Background())
	if err := f.Prepare(execCtx); err != nil {
		log.Warningf(ctx, "prepare failed for fragment instance %s: %v", instanceID, err)
		return &impalapb.ExecPlanFragmentResponse{Status: impalapb.StatusFromError(err)}, nil
	}

	s.mu.Lock()
	if _, ok := s.mu.fragments[instanceID]; ok {
		s.mu.Unlock()
		err := impalapb.WithCode(
			errors.Errorf("fragment instance %s already registered", instanceID),
			impalapb.StatusCode_INTERNAL_ERROR)
		return &impalapb.ExecPlanFragmentResponse{Status: impalapb.StatusFromError(err)}, nil
	}
	s.mu.fragments[instanceID] = f
	s.mu.Unlock()

	if err := s.stopper.RunAsyncTask(execCtx, func(taskCtx context.Context) {
		defer func() {
			s.mu.Lock()
			delete(s.mu.fragments, instanceID)
			s.mu.Unlock()
		}()
		if err := f.Exec(s.cfg.RunFragment); err != nil {
			log.VEventf(taskCtx, 1, "fragment instance %s finished with error: %v", instanceID, err)
		}
	}); err != nil {
		// Shutting down; unwind the registration.
		s.mu.Lock()
		delete(s.mu.fragments, instanceID)
		s.mu.Unlock()
		return &impalapb.ExecPlanFragmentResponse{Status: impalapb.StatusFromError(err)}, nil
	}
	log.VEventf(ctx, 1, "executing fragment instance %s of query %s", instanceID, f.QueryID())
	return &impalapb.ExecPlanFragmentResponse{Status: impalapb.OKStatus()}, nil
}

// ReportExecStatus forwards a fragment status report to the coordinator of
// the parent query.
func (s *Server) ReportExecStatus(
	ctx context.Context, req *impalapb.ReportExecStatusRequest,
) (*impalapb.ReportExecStatusResponse, error) {
	if s.cfg.Reports == nil {
		err := impalapb.WithCode(errors.New("no coordinator is hosted on this backend"),
			impalapb.StatusCode_INTERNAL_ERROR)
		return &impalapb.ReportExecStatusResponse{Status: impalapb.StatusFromError(err)}, nil
	}
	err := s.cfg.Reports.UpdateFragmentExecStatus(req)
	return &impalapb.ReportExecStatusResponse{Status: impalapb.StatusFromError(err)}, nil
}

// TransmitData hands a row batch to the stream manager, closing the sender
// on eos.
func (s *Server) TransmitData(
	ctx context.Context, req *impalapb.TransmitDataRequest,
) (*impalapb.TransmitDataResponse, error) {
	if req.RowBatch != nil && req.RowBatch.NumRows > 0 {
		if err := s.cfg.StreamMgr.AddData(
			req.DestFragmentInstanceID, req.DestNodeID, req.SenderID, req.RowBatch); err != nil {
			return &impalapb.TransmitDataResponse{Status: impalapb.StatusFromError(err)}, nil
		}
	}
	if req.Eos {
		if err := s.cfg.StreamMgr.CloseSender(
			req.DestFragmentInstanceID, req.DestNodeID, req.SenderID); err != nil {
			return &impalapb.TransmitDataResponse{Status: impalapb.StatusFromError(err)}, nil
		}
	}
	return &impalapb.TransmitDataResponse{Status: impalapb.OKStatus()}, nil
}

// CancelPlanFragment initiates asynchronous cancellation of a fragment
// instance; the registration disappears when its exec goroutine exits.
func (s *Server) CancelPlanFragment(
	ctx context.Context, req *impalapb.CancelPlanFragmentRequest,
) (*impalapb.CancelPlanFragmentResponse, error) {
	f := s.getFragment(req.FragmentInstanceID)
	if f == nil {
		err := impalapb.WithCode(
			errors.Errorf("unknown fragment instance id: %s", req.FragmentInstanceID),
			impalapb.StatusCode_UNKNOWN_FRAGMENT)
		return &impalapb.CancelPlanFragmentResponse{Status: impalapb.StatusFromError(err)}, nil
	}
	log.VEventf(s.AnnotateCtx(ctx), 1, "cancelling fragment instance %s", req.FragmentInstanceID)
	f.Cancel()
	return &impalapb.CancelPlanFragmentResponse{Status: impalapb.OKStatus()}, nil
}

// UpdateState delivers one statestore heartbeat to the local subscriber and
// returns any topic updates it wants pushed back.
func (s *Server) UpdateState(
	ctx context.Context, req *impalapb.UpdateStateRequest,
) (*impalapb.UpdateStateResponse, error) {
	resp := &impalapb.UpdateStateResponse{Status: impalapb.OKStatus()}
	if s.cfg.Subscriber != nil {
		resp.TopicUpdates = s.cfg.Subscriber.ProcessHeartbeat(s.AnnotateCtx(ctx), req.TopicDeltas)
	}
	return resp, nil
}
