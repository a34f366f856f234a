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
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-tagemu"
	"github.com/ZaparooProject/go-tagemu/internal/syncutil"
)

// Emulator runs one emulation pass for a target. *tagemu.Responder
// satisfies this.
type Emulator interface {
	Emulate(ctx context.Context, target tagemu.Target) error
}

// Scanner singles out a real tag in the field. tagemu.Field satisfies
// this.
type Scanner interface {
	Select(ctx context.Context) (*tagemu.SelectedTarget, error)
}

// Runner owns the scan-and-emulate control loop.
//
// One iteration kicks the watchdog, polls the operator button, runs at
// most one scan attempt while in scanning mode, then always enters an
// emulation pass with whatever target is currently held. A short button
// press requests one more scan; a sustained hold shuts the loop down.
//
// Set the On* callbacks before calling Run; they fire from the loop
// goroutine.
type Runner struct {
	// OnModeChange fires when the operating mode changes.
	OnModeChange func(from, to Mode)
	// OnTargetFound fires after a scan captures a real tag.
	OnTargetFound func(sel *tagemu.SelectedTarget)

	emulator   Emulator
	scanner    Scanner
	button     Button
	indicators Indicators
	watchdog   Watchdog
	recorder   Recorder
	config     *Config

	target     tagemu.Target
	mode       Mode
	passes     uint64
	stateMutex syncutil.RWMutex
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithButton wires the operator button source.
func WithButton(button Button) RunnerOption {
	return func(r *Runner) {
		if button != nil {
			r.button = button
		}
	}
}

// WithIndicators wires the operator lamps.
func WithIndicators(indicators Indicators) RunnerOption {
	return func(r *Runner) {
		if indicators != nil {
			r.indicators = indicators
		}
	}
}

// WithWatchdog wires the liveness heartbeat sink.
func WithWatchdog(watchdog Watchdog) RunnerOption {
	return func(r *Runner) {
		if watchdog != nil {
			r.watchdog = watchdog
		}
	}
}

// WithRecorder wires a capture log for found targets.
func WithRecorder(recorder Recorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = recorder
	}
}

// NewRunner creates a standalone loop around an emulator and a scanner.
// A nil config selects DefaultConfig.
func NewRunner(emulator Emulator, scanner Scanner, config *Config, opts ...RunnerOption) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	runner := &Runner{
		emulator:   emulator,
		scanner:    scanner,
		button:     NopButton{},
		indicators: NopIndicators{},
		watchdog:   NopWatchdog{},
		config:     config,
		target:     config.InitialTarget.Clone(),
		mode:       ModeScanning,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Status returns a snapshot of the loop state. Safe to call from other
// goroutines while Run is active.
func (r *Runner) Status() Status {
	r.stateMutex.RLock()
	defer r.stateMutex.RUnlock()
	return Status{
		Mode:   r.mode,
		Target: r.target.Clone(),
		Passes: r.passes,
	}
}

// Run executes the loop until the operator holds the button, ctx is
// cancelled, or the transport fails for good. Lamps are cleared on
// every exit path.
func (r *Runner) Run(ctx context.Context) error {
	tagemu.Debugf("Standalone loop starting, initial target %s", r.currentTarget().String())
	r.indicators.Mode(r.currentMode())
	defer func() {
		r.indicators.Off()
		tagemu.Debugln("Standalone loop stopped")
	}()

	for {
		if err := r.watchdog.Kick(); err != nil {
			tagemu.Debugf("Watchdog heartbeat failed: %v", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		event, err := r.button.Poll(ctx, r.config.ButtonPollInterval)
		if err != nil {
			return err
		}
		switch event {
		case ButtonHold:
			tagemu.Debugln("Operator hold, shutting down")
			r.indicators.Shutdown()
			return nil
		case ButtonClick:
			r.setMode(ModeScanning)
		case ButtonNone:
		}

		if r.currentMode() == ModeScanning {
			r.scanOnce(ctx)
			// One attempt per trigger, then emulate with whatever we
			// hold.
			r.setMode(ModeEmulating)
		}

		err = r.emulator.Emulate(ctx, r.currentTarget())
		r.bumpPasses()
		switch {
		case err == nil:
		case errors.Is(err, tagemu.ErrInitFailed):
			tagemu.Debugf("Could not arm emulation: %v", err)
		case tagemu.IsFatal(err):
			return fmt.Errorf("emulation stopped: %w", err)
		default:
			tagemu.Debugf("Emulation pass ended: %v", err)
		}
	}
}

// scanOnce runs a single select cycle. A hit replaces the held target;
// a miss advances the probing identifier instead.
func (r *Runner) scanOnce(ctx context.Context) {
	sel, err := r.scanner.Select(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		tagemu.Debugf("Scan found no tag: %v", err)
		r.stateMutex.Lock()
		advanced := r.target.AdvanceProbe()
		probe := r.target.Clone()
		r.stateMutex.Unlock()
		if advanced {
			tagemu.Debugf("Probing identifier %s", probe.String())
		}
		r.indicators.Error()
		return
	}

	r.stateMutex.Lock()
	r.target = tagemu.Target{UID: append([]byte(nil), sel.UID...)}
	r.stateMutex.Unlock()
	tagemu.Debugf("Captured %s (%s)", sel.String(), tagemu.IdentifyTarget(sel))
	r.indicators.Found()

	if r.recorder != nil {
		if err := r.recorder.Record(sel); err != nil {
			tagemu.Debugf("Capture log failed: %v", err)
		}
	}
	if cb := r.OnTargetFound; cb != nil {
		cb(sel)
	}
}

func (r *Runner) setMode(to Mode) {
	r.stateMutex.Lock()
	from := r.mode
	r.mode = to
	r.stateMutex.Unlock()
	if from == to {
		return
	}
	r.indicators.Mode(to)
	if cb := r.OnModeChange; cb != nil {
		cb(from, to)
	}
}

func (r *Runner) currentMode() Mode {
	r.stateMutex.RLock()
	defer r.stateMutex.RUnlock()
	return r.mode
}

func (r *Runner) currentTarget() tagemu.Target {
	r.stateMutex.RLock()
	defer r.stateMutex.RUnlock()
	return r.target.Clone()
}

func (r *Runner) bumpPasses() {
	r.stateMutex.Lock()
	r.passes++
	r.stateMutex.Unlock()
}
