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

// TagKind names the tag family a scan captured, derived from its
// activation bytes. It is informational: emulation impersonates the
// identifier regardless of family.
type TagKind int

const (
	// TagUnknown is anything without a recognized ATQA/SAK pattern.
	TagUnknown TagKind = iota
	// TagType4 talks ISO/IEC 14443-4 blocks, like the emulator itself.
	TagType4
	// TagNTAG covers the NTAG21x family.
	TagNTAG
	// TagMIFAREClassic covers MIFARE Classic 1K and 4K.
	TagMIFAREClassic
)

// String returns a human-readable family name.
func (k TagKind) String() string {
	switch k {
	case TagType4:
		return "Type 4"
	case TagNTAG:
		return "NTAG"
	case TagMIFAREClassic:
		return "MIFARE Classic"
	case TagUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// IdentifyTarget classifies a scan capture by its ATQA and SAK bytes.
// ATQA is in transmission order, low byte first.
func IdentifyTarget(sel *SelectedTarget) TagKind {
	if sel == nil {
		return TagUnknown
	}

	// SAK bit 6 announces ISO/IEC 14443-4 support.
	if sel.SAK&0x20 != 0 {
		return TagType4
	}

	atqa, sak := sel.ATQA, sel.SAK
	switch {
	case sak == 0x00 && (atqa == [2]byte{0x44, 0x00} || atqa == [2]byte{0x00, 0x44}):
		// NTAG21x; some clones report the ATQA byte-swapped.
		return TagNTAG
	case sak == 0x08 && atqa == [2]byte{0x04, 0x00}:
		// MIFARE Classic 1K.
		return TagMIFAREClassic
	case sak == 0x18 && atqa == [2]byte{0x02, 0x00}:
		// MIFARE Classic 4K.
		return TagMIFAREClassic
	default:
		return TagUnknown
	}
}
