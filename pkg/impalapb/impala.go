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

package impalapb

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/goimpala/impala/pkg/util/uuid"
)

// MakeUniqueID returns a fresh random identifier.
func MakeUniqueID() UniqueID {
	u := uuid.MakeV4()
	return UniqueID{
		Hi: binary.BigEndian.Uint64(u[0:8]),
		Lo: binary.BigEndian.Uint64(u[8:16]),
	}
}

// String renders the id in the canonical "hi:lo" hex form used in log output,
// error messages and client-facing handles.
func (id UniqueID) String() string {
	return fmt.Sprintf("%x:%x", id.Hi, id.Lo)
}

// IsZero reports whether the id is unset.
func (id UniqueID) IsZero() bool {
	return id.Hi == 0 && id.Lo == 0
}

// ParseUniqueID parses the "hi:lo" hex form produced by String.
func ParseUniqueID(s string) (UniqueID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return UniqueID{}, errors.Errorf("invalid unique id %q", s)
	}
	hi, err := strconv.ParseUint(parts[0], 16, 64)
	if err != nil {
		return UniqueID{}, errors.Errorf("invalid unique id %q", s)
	}
	lo, err := strconv.ParseUint(parts[1], 16, 64)
	if err != nil {
		return UniqueID{}, errors.Errorf("invalid unique id %q", s)
	}
	return UniqueID{Hi: hi, Lo: lo}, nil
}

// MakeNetworkAddress is a convenience constructor.
func MakeNetworkAddress(hostname string, port int32) NetworkAddress {
	return NetworkAddress{Hostname: hostname, Port: port}
}

// String renders the address as "host:port".
func (a NetworkAddress) String() string {
	return fmt.Sprintf("%s:%d", a.Hostname, a.Port)
}

// OKStatus is the canonical success status.
func OKStatus() Status {
	return Status{StatusCode: StatusCode_OK}
}

// OK reports whether the status carries no error.
func (s *Status) OK() bool {
	return s.StatusCode == StatusCode_OK
}

// Err converts the status to an error, or nil if it is OK. The status code
// survives the round trip through CodeOf.
func (s *Status) Err() error {
	if s.OK() {
		return nil
	}
	msg := "unknown error"
	if len(s.ErrorMsgs) > 0 {
		msg = strings.Join(s.ErrorMsgs, "\n")
	}
	return WithCode(errors.Newf("%s", msg), s.StatusCode)
}

// StatusFromError converts an error to a wire status, preserving any code
// attached via WithCode. A nil error maps to OK.
func StatusFromError(err error) Status {
	if err == nil {
		return OKStatus()
	}
	return Status{
		StatusCode: CodeOf(err),
		ErrorMsgs:  []string{err.Error()},
	}
}

// withCode attaches a StatusCode to an error. It implements the Cause and
// Unwrap conventions so that errors.Is and friends see through it.
type withCode struct {
	cause error
	code  StatusCode
}

var _ error = (*withCode)(nil)

func (w *withCode) Error() string { return w.cause.Error() }
func (w *withCode) Cause() error  { return w.cause }
func (w *withCode) Unwrap() error { return w.cause }

// WithCode decorates err with a status code retrievable via CodeOf.
// WithCode(nil, ...) returns nil.
func WithCode(err error, code StatusCode) error {
	if err == nil {
		return nil
	}
	return &withCode{cause: err, code: code}
}

// CodeOf returns the status code attached to err, or INTERNAL_ERROR if none
// is attached. CodeOf(nil) is OK.
func CodeOf(err error) StatusCode {
	if err == nil {
		return StatusCode_OK
	}
	var w *withCode
	if errors.As(err, &w) {
		return w.code
	}
	return StatusCode_INTERNAL_ERROR
}

// IsCancelled reports whether err carries the CANCELLED code.
func IsCancelled(err error) bool {
	return CodeOf(err) == StatusCode_CANCELLED
}
