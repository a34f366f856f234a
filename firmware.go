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

// FirmwareVersion describes the NFC front-end controller firmware as
// reported by its version probe.
type FirmwareVersion struct {
	// IC is the chip identifier byte (0x32 for a PN532).
	IC byte
	// Version and Revision form the firmware number, e.g. 1.6.
	Version  byte
	Revision byte
	// SupportIso14443A must be set for target-mode emulation to work.
	SupportIso14443A bool
	SupportIso14443B bool
	SupportIso18092  bool
}

// ParseFirmwareVersion decodes a version probe response body of
// [IC, Ver, Rev, Support].
func ParseFirmwareVersion(data []byte) (*FirmwareVersion, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("firmware response of %d bytes: %w", len(data), ErrInvalidResponse)
	}
	support := data[3]
	return &FirmwareVersion{
		IC:               data[0],
		Version:          data[1],
		Revision:         data[2],
		SupportIso14443A: support&0x01 != 0,
		SupportIso14443B: support&0x02 != 0,
		SupportIso18092:  support&0x04 != 0,
	}, nil
}

// String renders the chip and firmware number, e.g. "PN532 v1.6".
func (v *FirmwareVersion) String() string {
	name := fmt.Sprintf("IC 0x%02X", v.IC)
	if v.IC == 0x32 {
		name = "PN532"
	}
	return fmt.Sprintf("%s v%d.%d", name, v.Version, v.Revision)
}
