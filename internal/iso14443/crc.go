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

// Package iso14443 implements the ISO/IEC 14443-3 Type A frame primitives
// (CRC_A and the cascade UID check byte) shared across the emulator.
package iso14443

// crcAPreset is the CRC_A shift register preset defined by ISO/IEC 14443-3.
const crcAPreset = 0x6363

// CRCA computes the 16-bit CRC_A over data. The result is returned in
// transmission order: low byte first.
func CRCA(data []byte) [2]byte {
	crc := uint32(crcAPreset)
	for _, b := range data {
		b ^= byte(crc)
		b ^= b << 4
		w := uint32(b)
		crc = (crc >> 8) ^ (w << 8) ^ (w << 3) ^ (w >> 4)
	}
	return [2]byte{byte(crc), byte(crc >> 8)}
}

// AppendCRCA returns data with its CRC_A appended, low byte first. The
// input slice is not modified.
func AppendCRCA(data []byte) []byte {
	crc := CRCA(data)
	out := make([]byte, 0, len(data)+2)
	out = append(out, data...)
	return append(out, crc[0], crc[1])
}

// BCC returns the anticollision check byte: the XOR of the identifier
// bytes in one cascade level.
func BCC(uid []byte) byte {
	var bcc byte
	for _, b := range uid {
		bcc ^= b
	}
	return bcc
}
