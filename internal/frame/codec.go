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

// Package frame implements the controller's host link framing: normal
// information frames with length and data checksums, plus the ACK/NACK
// flow control frames.
package frame

import (
	"github.com/ZaparooProject/go-tagemu"
)

// Frame direction identifiers.
const (
	HostToController = 0xD4
	ControllerToHost = 0xD5
	ErrorIndicator   = 0x7F
)

// Frame size limits for normal (non-extended) frames.
const (
	MaxDataLength = 255
	MinWireLength = 6
)

// ACK and NACK flow control frames.
var (
	AckFrame  = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NackFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)

// Checksum sums the bytes of data. A valid span sums to zero together
// with its trailing checksum byte.
func Checksum(data []byte) byte {
	var chk byte
	for _, b := range data {
		chk += b
	}
	return chk
}

// Encode builds a complete host-to-controller wire frame around cmd and
// args: preamble, start code, length and its checksum, direction byte,
// payload, data checksum, postamble.
func Encode(cmd byte, args []byte) ([]byte, error) {
	dataLen := 2 + len(args)
	if dataLen > MaxDataLength {
		return nil, tagemu.NewDataTooLargeError("encode", "")
	}

	wire := make([]byte, 0, 7+dataLen)
	wire = append(wire, 0x00, 0x00, 0xFF)
	wire = append(wire, byte(dataLen), ^byte(dataLen)+1)
	wire = append(wire, HostToController, cmd)
	wire = append(wire, args...)
	wire = append(wire, ^(HostToController+cmd+Checksum(args))+1, 0x00)
	return wire, nil
}

// ValidateLength checks the length byte and its checksum. off points at
// the 0xFF start marker. It reports the payload length, or that the
// frame should be refused with a NACK, or a hard error when the buffer
// cannot hold a frame at all.
func ValidateLength(buf []byte, off, totalLen int, op, port string) (dataLen int, refuse bool, err error) {
	off++
	if off+1 >= totalLen {
		return 0, false, tagemu.NewFrameCorruptedError(op, port)
	}

	dataLen = int(buf[off])
	if (byte(dataLen)+buf[off+1])&0xFF != 0 {
		return 0, true, nil
	}
	return dataLen, false, nil
}

// ValidateChecksum reports whether buf[start:end], which spans the
// frame payload plus its data checksum byte, fails verification.
func ValidateChecksum(buf []byte, start, end int) bool {
	if start < 0 || end < start || end > len(buf) {
		return true
	}
	return Checksum(buf[start:end]) != 0
}

// ExtractData pulls the payload out of a checksum-validated frame. off
// points at the 0xFF start marker, as with ValidateLength. The
// direction byte is checked against want; a mismatch asks the caller to
// refuse the frame with a NACK. Controller error frames come back as a
// two-byte [ErrorIndicator, code] payload for the caller to interpret.
func ExtractData(buf []byte, off, dataLen int, want byte) (data []byte, refuse bool, err error) {
	if off < 0 || dataLen <= 0 {
		return nil, false, tagemu.NewFrameCorruptedError("extract", "")
	}

	off += 3
	if off >= len(buf) {
		return nil, false, tagemu.NewFrameCorruptedError("extract", "")
	}

	dir := buf[off]
	if dir == ErrorIndicator {
		if off+1 >= len(buf) {
			return nil, false, tagemu.NewFrameCorruptedError("extract", "")
		}
		return []byte{ErrorIndicator, buf[off+1]}, false, nil
	}
	if dir != want {
		return nil, true, nil
	}

	off++
	if off+dataLen-1 > len(buf) {
		return nil, false, tagemu.NewFrameCorruptedError("extract", "")
	}

	data = make([]byte, dataLen-1)
	copy(data, buf[off:off+dataLen-1])
	return data, false, nil
}
