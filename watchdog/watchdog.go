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

// Package watchdog arms the kernel watchdog device so a wedged
// emulation loop reboots the host instead of hanging it. Each loop
// iteration feeds the timer through Kick.
package watchdog

import (
	"errors"
	"time"
)

// DefaultDevice is the usual kernel watchdog node.
const DefaultDevice = "/dev/watchdog"

// ErrUnsupported reports that this platform has no watchdog device.
var ErrUnsupported = errors.New("watchdog: not supported on this platform")

// timeoutSeconds converts a duration to the whole seconds the driver
// expects, clamping at a minimum of one.
func timeoutSeconds(timeout time.Duration) int {
	seconds := int(timeout / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}
