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
	"fmt"

	"github.com/ZaparooProject/go-tagemu/internal/iso14443"
)

// DefaultModulationCapacity is the transport modulation buffer limit a
// framed reply must fit into.
const DefaultModulationCapacity = 1024

// Framer prepares dynamic reply payloads for transmission: it appends the
// 2-byte CRC_A and enforces the modulation buffer capacity. Replies
// provided by the activation engine are already framed and never pass
// through here.
type Framer struct {
	capacity int
}

// NewFramer creates a framer for the given modulation buffer capacity.
// A capacity of zero or less selects DefaultModulationCapacity.
func NewFramer(capacity int) *Framer {
	if capacity <= 0 {
		capacity = DefaultModulationCapacity
	}
	return &Framer{capacity: capacity}
}

// Capacity returns the modulation buffer limit the framer enforces.
func (f *Framer) Capacity() int {
	return f.capacity
}

// Frame returns payload with its CRC_A appended; output length is always
// input length + 2. It fails with ErrNotRepresentable when the payload is
// empty or the framed reply would exceed the modulation capacity; on that
// failure the cycle must not transmit and must settle before receiving
// again.
func (f *Framer) Frame(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload: %w", ErrNotRepresentable)
	}
	if len(payload)+2 > f.capacity {
		return nil, fmt.Errorf("framed reply of %d bytes exceeds capacity %d: %w",
			len(payload)+2, f.capacity, ErrNotRepresentable)
	}
	return iso14443.AppendCRCA(payload), nil
}
