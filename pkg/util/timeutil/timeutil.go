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

package timeutil

import "time"

// FullTimeFormat is the time format used to display any timestamp with date,
// time and time zone data.
const FullTimeFormat = "2006-01-02 15:04:05.999999-07:00"

// Now returns the current UTC time.
//
// All wall-clock reads in the codebase go through this function so that tests
// and tools have a single point to interpose on.
func Now() time.Time {
	return time.Now().UTC()
}

// Since returns the time elapsed since t.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// ToUnixMillis returns t as milliseconds since the Unix epoch.
func ToUnixMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// FromUnixMillis returns the UTC time corresponding to ms milliseconds since
// the Unix epoch.
func FromUnixMillis(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}

// NowMillis returns the current wall-clock time in milliseconds since the
// Unix epoch.
func NowMillis() int64 {
	return ToUnixMillis(Now())
}
