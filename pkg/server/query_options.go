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
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/impalapb"
)

func invalidOption(format string, args ...interface{}) error {
	return impalapb.WithCode(errors.Errorf(format, args...), impalapb.StatusCode_INVALID_OPTION)
}

func parseBoolOption(key, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, invalidOption("invalid value %q for boolean query option %s", value, key)
}

func parseIntOption(key, value string, bits int) (int64, error) {
	v, err := strconv.ParseInt(value, 10, bits)
	if err != nil {
		return 0, invalidOption("invalid value %q for numeric query option %s", value, key)
	}
	return v, nil
}

// SetQueryOption applies one key=value pair to opts. Keys are matched case
// insensitively; unknown keys and malformed values yield a descriptive
// INVALID_OPTION error.
func SetQueryOption(opts *impalapb.QueryOptions, key, value string) error {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "abort_on_error":
		v, err := parseBoolOption(key, value)
		if err != nil {
			return err
		}
		opts.AbortOnError = v
	case "max_errors":
		v, err := parseIntOption(key, value, 32)
		if err != nil {
			return err
		}
		opts.MaxErrors = int32(v)
	case "disable_codegen":
		v, err := parseBoolOption(key, value)
		if err != nil {
			return err
		}
		opts.DisableCodegen = v
	case "batch_size":
		v, err := parseIntOption(key, value, 32)
		if err != nil {
			return err
		}
		opts.BatchSize = int32(v)
	case "mem_limit":
		v, err := parseIntOption(key, value, 64)
		if err != nil {
			return err
		}
		opts.MemLimit = v
	case "num_nodes":
		v, err := parseIntOption(key, value, 32)
		if err != nil {
			return err
		}
		opts.NumNodes = int32(v)
	case "max_scan_range_length":
		v, err := parseIntOption(key, value, 64)
		if err != nil {
			return err
		}
		opts.MaxScanRangeLength = v
	case "num_scanner_threads":
		v, err := parseIntOption(key, value, 32)
		if err != nil {
			return err
		}
		opts.NumScannerThreads = int32(v)
	case "max_io_buffers":
		v, err := parseIntOption(key, value, 32)
		if err != nil {
			return err
		}
		opts.MaxIoBuffers = int32(v)
	case "compression_codec":
		codec, ok := impalapb.CompressionCodec_value[strings.ToUpper(value)]
		if !ok {
			return invalidOption("invalid compression codec %q", value)
		}
		opts.CompressionCodec = impalapb.CompressionCodec(codec)
	case "parquet_file_size":
		v, err := parseIntOption(key, value, 64)
		if err != nil {
			return err
		}
		opts.ParquetFileSize = v
	case "explain_level":
		// Accepts both the numeric level and its name.
		if level, ok := impalapb.ExplainLevel_value[strings.ToUpper(value)]; ok {
			opts.ExplainLevel = impalapb.ExplainLevel(level)
			return nil
		}
		v, err := parseIntOption(key, value, 32)
		if err != nil {
			return invalidOption("invalid explain level %q", value)
		}
		if _, ok := impalapb.ExplainLevel_name[int32(v)]; !ok {
			return invalidOption("invalid explain level %q", value)
		}
		opts.ExplainLevel = impalapb.ExplainLevel(v)
	case "sync_ddl":
		v, err := parseBoolOption(key, value)
		if err != nil {
			return err
		}
		opts.SyncDdl = v
	case "request_pool":
		opts.RequestPool = value
	case "query_timeout_s":
		v, err := parseIntOption(key, value, 32)
		if err != nil {
			return err
		}
		if v < 0 {
			return invalidOption("query_timeout_s must be non-negative, got %d", v)
		}
		opts.QueryTimeoutS = int32(v)
	case "max_block_mgr_memory":
		v, err := parseIntOption(key, value, 64)
		if err != nil {
			return err
		}
		opts.MaxBlockMgrMemory = v
	case "debug_action":
		opts.DebugAction = value
	default:
		return invalidOption("invalid query option: %s", key)
	}
	return nil
}

// ParseQueryOptions applies a comma-separated "key=value,key=value" string
// on top of opts.
func ParseQueryOptions(opts *impalapb.QueryOptions, s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	for _, kv := range strings.Split(s, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		eq := strings.Index(kv, "=")
		if eq <= 0 {
			return invalidOption("invalid query option string %q: expected key=value", kv)
		}
		if err := SetQueryOption(opts, kv[:eq], kv[eq+1:]); err != nil {
			return err
		}
	}
	return nil
}

func boolOptionStr(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// QueryOptionsToString renders opts in the same key=value form accepted by
// ParseQueryOptions; the two round-trip.
func QueryOptionsToString(opts *impalapb.QueryOptions) string {
	parts := []string{
		fmt.Sprintf("abort_on_error=%s", boolOptionStr(opts.AbortOnError)),
		fmt.Sprintf("max_errors=%d", opts.MaxErrors),
		fmt.Sprintf("disable_codegen=%s", boolOptionStr(opts.DisableCodegen)),
		fmt.Sprintf("batch_size=%d", opts.BatchSize),
		fmt.Sprintf("mem_limit=%d", opts.MemLimit),
		fmt.Sprintf("num_nodes=%d", opts.NumNodes),
		fmt.Sprintf("max_scan_range_length=%d", opts.MaxScanRangeLength),
		fmt.Sprintf("num_scanner_threads=%d", opts.NumScannerThreads),
		fmt.Sprintf("max_io_buffers=%d", opts.MaxIoBuffers),
		fmt.Sprintf("compression_codec=%s", strings.ToLower(opts.CompressionCodec.String())),
		fmt.Sprintf("parquet_file_size=%d", opts.ParquetFileSize),
		fmt.Sprintf("explain_level=%d", int32(opts.ExplainLevel)),
		fmt.Sprintf("sync_ddl=%s", boolOptionStr(opts.SyncDdl)),
		fmt.Sprintf("request_pool=%s", opts.RequestPool),
		fmt.Sprintf("query_timeout_s=%d", opts.QueryTimeoutS),
		fmt.Sprintf("max_block_mgr_memory=%d", opts.MaxBlockMgrMemory),
		fmt.Sprintf("debug_action=%s", opts.DebugAction),
	}
	return strings.Join(parts, ",")
}
