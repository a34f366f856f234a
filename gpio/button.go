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

// Package gpio implements the operator controls on periph.io pins: an
// active-low push button and a three-lamp status panel.
package gpio

import (
	"context"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-tagemu/standalone"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	// DefaultHoldThreshold separates a click from a shutdown hold.
	DefaultHoldThreshold = time.Second

	// edgeWait bounds a single edge wait so cancellation is noticed.
	edgeWait = 100 * time.Millisecond
)

// Button reads a momentary push button wired between the pin and
// ground, with the internal pull-up engaged. A low level means pressed.
type Button struct {
	pin           gpio.PinIO
	holdThreshold time.Duration
}

// ButtonOption configures a Button.
type ButtonOption func(*Button)

// WithHoldThreshold sets how long a press must last to count as a hold.
func WithHoldThreshold(threshold time.Duration) ButtonOption {
	return func(b *Button) {
		if threshold > 0 {
			b.holdThreshold = threshold
		}
	}
}

// NewButton opens the named pin as an edge-triggered input.
func NewButton(pinName string, opts ...ButtonOption) (*Button, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("no GPIO pin named %q", pinName)
	}
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("failed to configure pin %s: %w", pin, err)
	}
	button := &Button{pin: pin, holdThreshold: DefaultHoldThreshold}
	for _, opt := range opts {
		opt(button)
	}
	return button, nil
}

// Poll implements standalone.Button. It waits up to the given duration
// for a press to begin and classifies it by how long the pin stays low.
// A press that begins inside the window is measured to completion even
// past the window.
func (b *Button) Poll(ctx context.Context, wait time.Duration) (standalone.ButtonEvent, error) {
	// A press can begin while nobody is polling; catch it by level.
	if b.pin.Read() == gpio.Low {
		return b.classify(ctx)
	}

	deadline := time.Now().Add(wait)
	for {
		if err := ctx.Err(); err != nil {
			return standalone.ButtonNone, err
		}
		left := time.Until(deadline)
		if left <= 0 {
			return standalone.ButtonNone, nil
		}
		if left > edgeWait {
			left = edgeWait
		}
		if !b.pin.WaitForEdge(left) {
			continue
		}
		if b.pin.Read() != gpio.Low {
			// Stray release edge from a press already reported.
			continue
		}
		return b.classify(ctx)
	}
}

// classify times a press that just began and maps it to an event. A
// press outlasting the hold threshold reports as a hold right away, but
// the release is still consumed so it does not read as a second press.
func (b *Button) classify(ctx context.Context) (standalone.ButtonEvent, error) {
	start := time.Now()
	for b.pin.Read() == gpio.Low {
		if err := ctx.Err(); err != nil {
			return standalone.ButtonNone, err
		}
		if time.Since(start) >= b.holdThreshold {
			b.drainPress(ctx)
			return standalone.ButtonHold, nil
		}
		remaining := b.holdThreshold - time.Since(start)
		if remaining <= 0 {
			continue
		}
		b.pin.WaitForEdge(remaining)
	}
	return classifyPress(time.Since(start), b.holdThreshold), nil
}

// drainPress waits for the release of a press already classified.
func (b *Button) drainPress(ctx context.Context) {
	for b.pin.Read() == gpio.Low && ctx.Err() == nil {
		b.pin.WaitForEdge(edgeWait)
	}
}

// classifyPress maps a completed press duration to an event.
func classifyPress(held, threshold time.Duration) standalone.ButtonEvent {
	if held >= threshold {
		return standalone.ButtonHold
	}
	return standalone.ButtonClick
}

// Close releases the pin.
func (b *Button) Close() error {
	if err := b.pin.Halt(); err != nil {
		return fmt.Errorf("failed to halt pin %s: %w", b.pin, err)
	}
	return nil
}

var _ standalone.Button = (*Button)(nil)
