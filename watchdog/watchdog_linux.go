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

//go:build linux

package watchdog

import (
	"fmt"
	"os"
	"time"

	"github.com/ZaparooProject/go-tagemu/standalone"
	"golang.org/x/sys/unix"
)

// Device holds an open kernel watchdog. Opening it starts the hardware
// timer; Kick must run before the timeout elapses or the machine
// reboots. Close disarms the timer.
type Device struct {
	file *os.File
}

// Open arms the named watchdog and programs the given timeout. A zero
// timeout keeps the driver default.
func Open(path string, timeout time.Duration) (*Device, error) {
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open watchdog %s: %w", path, err)
	}
	device := &Device{file: file}
	if timeout > 0 {
		if err := device.setTimeout(timeout); err != nil {
			_ = device.Close()
			return nil, err
		}
	}
	return device, nil
}

func (d *Device) setTimeout(timeout time.Duration) error {
	seconds := timeoutSeconds(timeout)
	if err := unix.IoctlSetPointerInt(int(d.file.Fd()), unix.WDIOC_SETTIMEOUT, seconds); err != nil {
		return fmt.Errorf("failed to set watchdog timeout: %w", err)
	}
	return nil
}

// Kick implements standalone.Watchdog.
func (d *Device) Kick() error {
	if _, err := unix.IoctlGetInt(int(d.file.Fd()), unix.WDIOC_KEEPALIVE); err != nil {
		return fmt.Errorf("watchdog keepalive failed: %w", err)
	}
	return nil
}

// Timeout reads back the programmed interval.
func (d *Device) Timeout() (time.Duration, error) {
	seconds, err := unix.IoctlGetInt(int(d.file.Fd()), unix.WDIOC_GETTIMEOUT)
	if err != nil {
		return 0, fmt.Errorf("failed to read watchdog timeout: %w", err)
	}
	return time.Duration(seconds) * time.Second, nil
}

// Close writes the magic close byte so the timer disarms instead of
// firing after exit. Drivers built with NOWAYOUT ignore the byte and
// reboot anyway.
func (d *Device) Close() error {
	_, writeErr := d.file.WriteString("V")
	closeErr := d.file.Close()
	if writeErr != nil {
		return fmt.Errorf("failed to disarm watchdog: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close watchdog: %w", closeErr)
	}
	return nil
}

var _ standalone.Watchdog = (*Device)(nil)
