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

//go:build !linux

package watchdog

import (
	"time"

	"github.com/ZaparooProject/go-tagemu/standalone"
)

// Device is a placeholder on platforms without a kernel watchdog.
type Device struct{}

// Open always fails off Linux.
func Open(_ string, _ time.Duration) (*Device, error) {
	return nil, ErrUnsupported
}

// Kick implements standalone.Watchdog.
func (*Device) Kick() error { return ErrUnsupported }

// Timeout reports the programmed interval.
func (*Device) Timeout() (time.Duration, error) { return 0, ErrUnsupported }

// Close releases the device.
func (*Device) Close() error { return ErrUnsupported }

var _ standalone.Watchdog = (*Device)(nil)
