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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifyTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target *SelectedTarget
		want   TagKind
	}{
		{
			name:   "nil target",
			target: nil,
			want:   TagUnknown,
		},
		{
			name: "type 4 by SAK bit 6",
			target: &SelectedTarget{
				UID:  []byte{0x04, 0xA1, 0xB2, 0xC3},
				ATQA: [2]byte{0x04, 0x00},
				SAK:  0x20,
			},
			want: TagType4,
		},
		{
			name: "NTAG",
			target: &SelectedTarget{
				UID:  []byte{0x04, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC},
				ATQA: [2]byte{0x44, 0x00},
				SAK:  0x00,
			},
			want: TagNTAG,
		},
		{
			name: "NTAG clone with swapped ATQA",
			target: &SelectedTarget{
				UID:  []byte{0x04, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC},
				ATQA: [2]byte{0x00, 0x44},
				SAK:  0x00,
			},
			want: TagNTAG,
		},
		{
			name: "MIFARE Classic 1K",
			target: &SelectedTarget{
				UID:  []byte{0xDE, 0xAD, 0xBE, 0xEF},
				ATQA: [2]byte{0x04, 0x00},
				SAK:  0x08,
			},
			want: TagMIFAREClassic,
		},
		{
			name: "MIFARE Classic 4K",
			target: &SelectedTarget{
				UID:  []byte{0xDE, 0xAD, 0xBE, 0xEF},
				ATQA: [2]byte{0x02, 0x00},
				SAK:  0x18,
			},
			want: TagMIFAREClassic,
		},
		{
			name: "ultralight-style ATQA with wrong SAK",
			target: &SelectedTarget{
				UID:  []byte{0x04, 0x12, 0x34, 0x56},
				ATQA: [2]byte{0x44, 0x00},
				SAK:  0x09,
			},
			want: TagUnknown,
		},
		{
			name: "nothing recognizable",
			target: &SelectedTarget{
				UID:  []byte{0x01, 0x02, 0x03, 0x04},
				ATQA: [2]byte{0xFF, 0xFF},
				SAK:  0x42,
			},
			want: TagUnknown,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IdentifyTarget(tt.target))
		})
	}
}

func TestTagKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Type 4", TagType4.String())
	assert.Equal(t, "NTAG", TagNTAG.String())
	assert.Equal(t, "MIFARE Classic", TagMIFAREClassic.String())
	assert.Equal(t, "unknown", TagUnknown.String())
	assert.Equal(t, "invalid", TagKind(99).String())
}
