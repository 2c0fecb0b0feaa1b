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

// Package log provides leveled, context-tagged logging. Context tags are
// carried via github.com/cockroachdb/logtags and rendered as a bracketed
// prefix on every line, so a query's log output can be attributed to it
// without threading identifiers through every call.
package log

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/logtags"
)

// Severity identifies the sort of log: info, warning, error, fatal.
type Severity int

// The severity levels, in increasing order of severity.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

var severityChar = [...]byte{'I', 'W', 'E', 'F'}

var verbosity int32

// SetVerbosity sets the global verbosity level consulted by V and VEventf.
func SetVerbosity(level int) {
	atomic.StoreInt32(&verbosity, int32(level))
}

// V returns true if the verbosity is at or above the requested level.
// Use as `if log.V(2) { ... }` to avoid formatting costs when disabled.
func V(level int) bool {
	return atomic.LoadInt32(&verbosity) >= int32(level)
}

// OnFatal is invoked after a fatal message has been emitted. It is a
// variable so tests can intercept process exit.
var OnFatal = func() { os.Exit(1) }

func formatTags(ctx context.Context) string {
	b := logtags.FromContext(ctx)
	if b == nil {
		return ""
	}
	return "[" + b.String() + "] "
}

func output(ctx context.Context, sev Severity, format string, args ...interface{}) {
	stdlog.Printf("%c %s%s", severityChar[sev], formatTags(ctx), fmt.Sprintf(format, args...))
}

// Infof logs to the INFO log.
func Infof(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityInfo, format, args...)
}

// Info logs its arguments to the INFO log.
func Info(ctx context.Context, args ...interface{}) {
	output(ctx, SeverityInfo, "%s", fmt.Sprint(args...))
}

// Warningf logs to the WARNING log.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityWarning, format, args...)
}

// Errorf logs to the ERROR log.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityError, format, args...)
}

// Error logs its arguments to the ERROR log.
func Error(ctx context.Context, args ...interface{}) {
	output(ctx, SeverityError, "%s", fmt.Sprint(args...))
}

// Fatalf logs to the FATAL log and terminates the process.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityFatal, format, args...)
	OnFatal()
}

// VEventf logs to the INFO log if the verbosity is at or above level.
func VEventf(ctx context.Context, level int, format string, args ...interface{}) {
	if V(level) {
		output(ctx, SeverityInfo, format, args...)
	}
}
