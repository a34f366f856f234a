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
)

func TestReaderCommandCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		constant byte
		expected byte
	}{
		{"cmdREQA", cmdREQA, 0x26},
		{"cmdWUPA", cmdWUPA, 0x52},
		{"cmdHLTA", cmdHLTA, 0x50},
		{"cmdSelectCL1", cmdSelectCL1, 0x93},
		{"cmdRATS", cmdRATS, 0xE0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.constant != tt.expected {
				t.Errorf("%s = 0x%02X, want 0x%02X", tt.name, tt.constant, tt.expected)
			}
		})
	}
}

func TestProtocolControlPairs(t *testing.T) {
	t.Parallel()
	// I-blocks and chained blocks alternate the low bit with the block
	// number; both variants must map to the same command.
	pairs := []struct {
		name string
		base byte
		alt  byte
	}{
		{"I-block", pcbIBlock, pcbIBlockAlt},
		{"I-block with CID", pcbIBlockCID, pcbIBlockCIDAlt},
		{"chained block", pcbChaining, pcbChainingAlt},
	}

	for _, tt := range pairs {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.base|0x01 != tt.alt {
				t.Errorf("%s: alt 0x%02X is not base 0x%02X with the block bit set", tt.name, tt.alt, tt.base)
			}
		})
	}
}

func TestLinkControlReplies(t *testing.T) {
	t.Parallel()
	if len(pingReply) != 2 || pingReply[0] != 0xAB {
		t.Errorf("pingReply = % X, want AB 01", pingReply)
	}
	if len(deselectReply) != 2 || deselectReply[0] != pcbDeselect {
		t.Errorf("deselectReply = % X, want the deselect PCB echoed", deselectReply)
	}
}

func TestVendorAckTransform(t *testing.T) {
	t.Parallel()
	// The XOR transform must produce distinct acknowledgements for the
	// two vendor commands.
	if vendorCmdA^vendorAckXor == vendorCmdB^vendorAckXor {
		t.Error("vendor acknowledgements collide")
	}
}

func TestCommandCodeUniqueness(t *testing.T) {
	t.Parallel()
	codes := map[string]byte{
		"cmdREQA":      cmdREQA,
		"cmdWUPA":      cmdWUPA,
		"cmdHLTA":      cmdHLTA,
		"cmdSelectCL1": cmdSelectCL1,
		"cmdRATS":      cmdRATS,
		"vendorCmdA":   vendorCmdA,
		"vendorCmdB":   vendorCmdB,
	}

	seen := make(map[byte]string)
	for name, value := range codes {
		if existing, exists := seen[value]; exists {
			t.Errorf("Duplicate command value 0x%02X: %s and %s", value, name, existing)
		}
		seen[value] = name
	}
}
