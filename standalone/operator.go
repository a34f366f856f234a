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

package standalone

import (
	"context"
	"time"

	"github.com/ZaparooProject/go-tagemu"
)

// ButtonEvent is one debounced operator input.
type ButtonEvent int

const (
	// ButtonNone means the poll window elapsed without input.
	ButtonNone ButtonEvent = iota
	// ButtonClick is a short press, requesting one scan attempt.
	ButtonClick
	// ButtonHold is a sustained press, requesting shutdown.
	ButtonHold
)

// String returns a human-readable event name.
func (e ButtonEvent) String() string {
	switch e {
	case ButtonNone:
		return "none"
	case ButtonClick:
		return "click"
	case ButtonHold:
		return "hold"
	default:
		return "invalid"
	}
}

// Button polls for operator input. Poll waits up to the given duration
// and reports the first event, or ButtonNone once the window elapses.
// Cancellation of ctx ends the wait with ctx.Err().
type Button interface {
	Poll(ctx context.Context, wait time.Duration) (ButtonEvent, error)
}

// Indicators drives the operator-facing lamps. Implementations may
// block briefly while flashing a pattern; the loop tolerates that.
type Indicators interface {
	// Mode shows the steady lamp for the current operating mode.
	Mode(m Mode)
	// Activity reflects reader traffic during an emulation pass.
	Activity(active bool)
	// Found flashes the capture-success pattern.
	Found()
	// Error flashes the failure pattern.
	Error()
	// Shutdown flashes the exit acknowledgement pattern.
	Shutdown()
	// Off clears every lamp.
	Off()
}

// Watchdog receives the per-iteration liveness heartbeat.
type Watchdog interface {
	Kick() error
}

// Recorder persists captured target identities.
type Recorder interface {
	Record(sel *tagemu.SelectedTarget) error
}

// NopButton never reports input; Poll just honors the wait.
type NopButton struct{}

// Poll implements Button.
func (NopButton) Poll(ctx context.Context, wait time.Duration) (ButtonEvent, error) {
	if wait <= 0 {
		return ButtonNone, ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ButtonNone, ctx.Err()
	case <-timer.C:
		return ButtonNone, nil
	}
}

// NopIndicators discards every signal.
type NopIndicators struct{}

// Mode implements Indicators.
func (NopIndicators) Mode(Mode) {}

// Activity implements Indicators.
func (NopIndicators) Activity(bool) {}

// Found implements Indicators.
func (NopIndicators) Found() {}

// Error implements Indicators.
func (NopIndicators) Error() {}

// Shutdown implements Indicators.
func (NopIndicators) Shutdown() {}

// Off implements Indicators.
func (NopIndicators) Off() {}

// NopWatchdog accepts heartbeats without a backing device.
type NopWatchdog struct{}

// Kick implements Watchdog.
func (NopWatchdog) Kick() error { return nil }
