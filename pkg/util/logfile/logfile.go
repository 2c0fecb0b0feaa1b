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

// Package logfile implements an append-only, entry-counted rotating log used
// for the on-disk profile and audit event logs.
package logfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/util/syncutil"
	"github.com/goimpala/impala/pkg/util/timeutil"
)

// Log writes one entry per line to files named <prefix><ms-since-epoch> in a
// directory, starting a new file every maxEntriesPerFile entries. Writes are
// buffered; callers are expected to Flush periodically and Close on shutdown.
type Log struct {
	dir               string
	prefix            string
	maxEntriesPerFile int

	mu struct {
		syncutil.Mutex
		file    *os.File
		writer  *bufio.Writer
		entries int
	}
}

// New creates the log directory if necessary and opens the initial file.
func New(dir, prefix string, maxEntriesPerFile int) (*Log, error) {
	if maxEntriesPerFile < 1 {
		return nil, errors.Errorf("max entries per log file must be positive, got %d", maxEntriesPerFile)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating log directory %s", dir)
	}
	l := &Log{dir: dir, prefix: prefix, maxEntriesPerFile: maxEntriesPerFile}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l, l.rotateLocked()
}

func (l *Log) rotateLocked() error {
	if l.mu.writer != nil {
		if err := l.mu.writer.Flush(); err != nil {
			return err
		}
		if err := l.mu.file.Close(); err != nil {
			return err
		}
		l.mu.file, l.mu.writer = nil, nil
	}
	name := filepath.Join(l.dir, fmt.Sprintf("%s%d", l.prefix, timeutil.NowMillis()))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrapf(err, "opening log file %s", name)
	}
	l.mu.file = f
	l.mu.writer = bufio.NewWriter(f)
	l.mu.entries = 0
	return nil
}

// Append writes a single entry, rotating first if the current file is full.
func (l *Log) Append(entry string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mu.writer == nil {
		return errors.New("log is closed")
	}
	if l.mu.entries >= l.maxEntriesPerFile {
		if err := l.rotateLocked(); err != nil {
			return err
		}
	}
	if _, err := l.mu.writer.WriteString(entry); err != nil {
		return err
	}
	if err := l.mu.writer.WriteByte('\n'); err != nil {
		return err
	}
	l.mu.entries++
	return nil
}

// Flush pushes buffered entries to the OS.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mu.writer == nil {
		return nil
	}
	return l.mu.writer.Flush()
}

// Close flushes and closes the current file. Further Appends fail.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mu.writer == nil {
		return nil
	}
	err := l.mu.writer.Flush()
	if cerr := l.mu.file.Close(); err == nil {
		err = cerr
	}
	l.mu.file, l.mu.writer = nil, nil
	return err
}
