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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestUniqueIDRoundTrip(t *testing.T) {
	id := UniqueID{Hi: 0xdeadbeef, Lo: 0x42}
	require.Equal(t, "deadbeef:42", id.String())
	parsed, err := ParseUniqueID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	for _, bad := range []string{"", "abc", "x:y", "1:2:3"} {
		_, err := ParseUniqueID(bad)
		require.Error(t, err)
	}
}

func TestMakeUniqueID(t *testing.T) {
	a, b := MakeUniqueID(), MakeUniqueID()
	require.False(t, a.IsZero())
	require.NotEqual(t, a, b)
}

func TestStatusErrRoundTrip(t *testing.T) {
	ok := OKStatus()
	require.NoError(t, ok.Err())

	err := WithCode(errors.New("boom"), StatusCode_MEM_LIMIT_EXCEEDED)
	s := StatusFromError(err)
	require.Equal(t, StatusCode_MEM_LIMIT_EXCEEDED, s.StatusCode)
	require.Equal(t, []string{"boom"}, s.ErrorMsgs)

	back := s.Err()
	require.Error(t, back)
	require.Equal(t, StatusCode_MEM_LIMIT_EXCEEDED, CodeOf(back))
	require.Contains(t, back.Error(), "boom")
}

func TestCodeOfDefaults(t *testing.T) {
	require.Equal(t, StatusCode_OK, CodeOf(nil))
	require.Equal(t, StatusCode_INTERNAL_ERROR, CodeOf(errors.New("plain")))

	// Codes survive further wrapping.
	err := errors.Wrap(WithCode(errors.New("inner"), StatusCode_CANCELLED), "outer")
	require.True(t, IsCancelled(err))
}
