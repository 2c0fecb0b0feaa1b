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

// Package uuid wraps github.com/gofrs/uuid behind the small surface the rest
// of the codebase needs.
package uuid

import "github.com/gofrs/uuid"

// UUID is a 128-bit universally unique identifier.
type UUID = uuid.UUID

// MakeV4 returns a new randomly generated UUID, panicking on failure. The
// only way random generation can fail is if the OS entropy source is broken,
// which is not a condition worth handling at every call site.
func MakeV4() UUID {
	return uuid.Must(uuid.NewV4())
}

// FromString parses the canonical string representation of a UUID.
func FromString(s string) (UUID, error) {
	return uuid.FromString(s)
}
