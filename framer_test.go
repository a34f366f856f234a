// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tagemu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramerAppendsChecksum(t *testing.T) {
	t.Parallel()

	framer := NewFramer(0)
	framed, err := framer.Frame([]byte{0x50, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x50, 0x00, 0x57, 0xCD}, framed)
}

func TestFramerOutputLength(t *testing.T) {
	t.Parallel()

	framer := NewFramer(DefaultModulationCapacity)
	for _, n := range []int{1, 2, 16, 57} {
		payload := make([]byte, n)
		framed, err := framer.Frame(payload)
		require.NoError(t, err)
		assert.Len(t, framed, n+2, "framed length must be payload+2 for %d bytes", n)
	}
}

func TestFramerVendorAckBecomesFourBytes(t *testing.T) {
	t.Parallel()

	// The two-byte raw XOR acknowledgement must leave the framer as a
	// four-byte final frame.
	framer := NewFramer(0)
	framed, err := framer.Frame([]byte{0xAA ^ 0x11, 0x00})
	require.NoError(t, err)
	assert.Len(t, framed, 4)
	assert.Equal(t, []byte{0xBB, 0x00}, framed[:2])
}

func TestFramerRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	framer := NewFramer(0)
	_, err := framer.Frame(nil)
	assert.ErrorIs(t, err, ErrNotRepresentable)
}

func TestFramerRejectsOverCapacity(t *testing.T) {
	t.Parallel()

	framer := NewFramer(8)
	assert.Equal(t, 8, framer.Capacity())

	// 6+2 fits exactly; 7+2 does not.
	_, err := framer.Frame(make([]byte, 6))
	require.NoError(t, err)

	_, err = framer.Frame(make([]byte, 7))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotRepresentable), "capacity overflow must map to ErrNotRepresentable")
}

func TestFramerDoesNotModifyPayload(t *testing.T) {
	t.Parallel()

	payload := []byte{0xAB, 0x01}
	framer := NewFramer(0)
	_, err := framer.Frame(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0x01}, payload)
}
