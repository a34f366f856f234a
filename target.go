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

import "fmt"

// Target identifies the tag currently impersonated, or the identifier
// probe used while scanning for one.
type Target struct {
	UID []byte
}

// DefaultTarget returns the identifier seed used before any scan has
// succeeded.
func DefaultTarget() Target {
	return Target{UID: []byte{0xBF, 0x88, 0x69, 0x3E}}
}

// Clone returns an independent copy of the target.
func (t Target) Clone() Target {
	return Target{UID: append([]byte(nil), t.UID...)}
}

// AdvanceProbe increments the first identifier byte after a failed scan,
// cycling through a small space of assumed identifiers. The byte
// saturates at 0xFF and never wraps. Returns true when the byte changed.
func (t *Target) AdvanceProbe() bool {
	if len(t.UID) == 0 || t.UID[0] >= 0xFF {
		return false
	}
	t.UID[0]++
	return true
}

// String renders the identifier as hex for logs.
func (t Target) String() string {
	return fmt.Sprintf("%X", t.UID)
}

// SelectedTarget describes a tag singled out by a scan.
type SelectedTarget struct {
	UID  []byte
	ATQA [2]byte
	SAK  byte
}

// String renders the scan result for logs.
func (s *SelectedTarget) String() string {
	return fmt.Sprintf("uid=%X atqa=%02X%02X sak=%02X", s.UID, s.ATQA[0], s.ATQA[1], s.SAK)
}
