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

import "time"

// TestingKnobs groups testing hooks for the server.
type TestingKnobs struct {
	// DisableSweeps prevents the expiration sweepers from starting; tests
	// drive sweep passes directly.
	DisableSweeps bool

	// SessionSweepInterval overrides the idle_session_timeout/2 cadence.
	SessionSweepInterval time.Duration

	// QuerySweepInterval overrides the 1s query expiration cadence.
	QuerySweepInterval time.Duration

	// LogFlushInterval overrides the profile/audit log flush cadence.
	LogFlushInterval time.Duration
}
