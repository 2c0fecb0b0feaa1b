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

package stop

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/util/syncutil"
)

// ErrUnavailable indicates that the server is quiescing and is unable to
// process new work.
var ErrUnavailable = errors.New("server is not accepting new work")

// Closer is an interface for objects to attach to the stopper to be closed
// once the stopper completes.
type Closer interface {
	Close()
}

// CloserFn is type that allows any function to be a Closer.
type CloserFn func()

// Close implements the Closer interface.
func (f CloserFn) Close() {
	f()
}

// A Stopper provides control over the lifecycle of goroutines started through
// it via its RunTask, RunWorker and RunAsyncTask methods.
//
// When Stop is invoked, the stopper first transitions to a quiescing state:
// the channel returned by ShouldQuiesce is closed, signalling all live
// workers to shut down. Once the last task has completed, registered closers
// are closed and Stop returns.
type Stopper struct {
	quiescer chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	mu struct {
		syncutil.Mutex
		quiescing bool
		numTasks  int
		idle      *sync.Cond
		closers   []Closer
	}
}

// NewStopper returns an instance of Stopper.
func NewStopper() *Stopper {
	s := &Stopper{
		quiescer: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	s.mu.idle = sync.NewCond(&s.mu.Mutex)
	return s
}

// AddCloser adds an object to close after the stopper has been stopped.
func (s *Stopper) AddCloser(c Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.quiescing {
		c.Close()
		return
	}
	s.mu.closers = append(s.mu.closers, c)
}

func (s *Stopper) runPrelude() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.quiescing {
		return false
	}
	s.mu.numTasks++
	return true
}

func (s *Stopper) runPostlude() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.numTasks--
	if s.mu.numTasks == 0 {
		s.mu.idle.Broadcast()
	}
}

// RunTask runs f synchronously if the stopper is not yet quiescing.
func (s *Stopper) RunTask(ctx context.Context, f func(context.Context)) error {
	if !s.runPrelude() {
		return ErrUnavailable
	}
	defer s.runPostlude()
	f(ctx)
	return nil
}

// RunWorker runs f in a goroutine tracked by the stopper. Workers are
// expected to observe ShouldQuiesce and exit promptly once it fires.
func (s *Stopper) RunWorker(ctx context.Context, f func(context.Context)) {
	if !s.runPrelude() {
		return
	}
	go func() {
		defer s.runPostlude()
		f(ctx)
	}()
}

// RunAsyncTask runs f in a goroutine tracked by the stopper, returning
// ErrUnavailable if the stopper is quiescing.
func (s *Stopper) RunAsyncTask(ctx context.Context, f func(context.Context)) error {
	if !s.runPrelude() {
		return ErrUnavailable
	}
	go func() {
		defer s.runPostlude()
		f(ctx)
	}()
	return nil
}

// ShouldQuiesce returns a channel which will be closed when Stop has been
// invoked.
func (s *Stopper) ShouldQuiesce() <-chan struct{} {
	return s.quiescer
}

// IsStopped returns a channel which will be closed after Stop has completed.
func (s *Stopper) IsStopped() <-chan struct{} {
	return s.stopped
}

// Stop signals all live workers to stop and blocks until they have exited,
// then runs the registered closers.
func (s *Stopper) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.mu.quiescing = true
		s.mu.Unlock()
		close(s.quiescer)

		s.mu.Lock()
		for s.mu.numTasks > 0 {
			s.mu.idle.Wait()
		}
		closers := s.mu.closers
		s.mu.Unlock()

		for _, c := range closers {
			c.Close()
		}
		close(s.stopped)
	})
}
