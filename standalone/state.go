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

// Package standalone drives the unattended scan-and-emulate loop. A
// Runner owns the operating mode, the emulated target identity, and the
// operator controls (button, lamps, watchdog heartbeat), and hands each
// emulation pass to the responder core.
package standalone

import (
	"github.com/ZaparooProject/go-tagemu"
)

// Mode represents the operating mode of the standalone loop.
type Mode int

const (
	// ModeScanning looks for a real tag whose identity can be cloned.
	ModeScanning Mode = iota
	// ModeEmulating impersonates the currently held target.
	ModeEmulating
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeScanning:
		return "scanning"
	case ModeEmulating:
		return "emulating"
	default:
		return "invalid"
	}
}

// Status is a point-in-time snapshot of the loop state.
type Status struct {
	// Target is the identity the next emulation pass will present.
	Target tagemu.Target
	// Mode is the current operating mode.
	Mode Mode
	// Passes counts completed emulation passes.
	Passes uint64
}
