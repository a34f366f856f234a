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

package frame

import "sync"

// Buffer size categories. Wire reads happen once per received byte
// burst, so pooling here removes the bulk of transport allocations.
const (
	// SmallBufferSize covers ACK scanning and single-byte reads.
	SmallBufferSize = 16
	// WireBufferSize covers one complete normal frame with overhead.
	WireBufferSize = 270
)

var (
	smallPool = sync.Pool{
		New: func() any {
			buf := make([]byte, SmallBufferSize)
			return &buf
		},
	}
	wirePool = sync.Pool{
		New: func() any {
			buf := make([]byte, WireBufferSize)
			return &buf
		},
	}
)

// GetSmallBuffer returns a pooled buffer of at least size bytes, sliced
// to size. Buffers larger than SmallBufferSize are allocated directly.
func GetSmallBuffer(size int) []byte {
	if size > SmallBufferSize {
		return make([]byte, size)
	}
	bufPtr, ok := smallPool.Get().(*[]byte)
	if !ok {
		return make([]byte, size)
	}
	return (*bufPtr)[:size]
}

// GetWireBuffer returns a pooled buffer sized for one complete frame.
func GetWireBuffer() []byte {
	bufPtr, ok := wirePool.Get().(*[]byte)
	if !ok {
		return make([]byte, WireBufferSize)
	}
	return (*bufPtr)[:WireBufferSize]
}

// PutBuffer returns a pooled buffer. Buffers that did not come from a
// pool are left for the garbage collector. Contents are zeroed first so
// stale wire data never leaks into a later read.
func PutBuffer(buf []byte) {
	if buf == nil {
		return
	}
	for i := range buf {
		buf[i] = 0
	}
	switch cap(buf) {
	case SmallBufferSize:
		full := buf[:SmallBufferSize]
		smallPool.Put(&full)
	case WireBufferSize:
		full := buf[:WireBufferSize]
		wirePool.Put(&full)
	}
}
