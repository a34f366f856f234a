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
	"context"
	"errors"
	"fmt"
	"time"
)

// ResponderConfig contains timing and sizing options for the emulation
// loop.
type ResponderConfig struct {
	// ModulationCapacity is the largest framed reply the front end can
	// modulate, in bytes.
	ModulationCapacity int
	// StartupDelay lets the field stabilize before target emulation is
	// armed.
	StartupDelay time.Duration
	// SettleDelay is the pause after a reply the hardware could not
	// represent, giving the reader time to move on.
	SettleDelay time.Duration
}

// DefaultResponderConfig returns the stock emulation loop configuration.
func DefaultResponderConfig() *ResponderConfig {
	return &ResponderConfig{
		ModulationCapacity: DefaultModulationCapacity,
		StartupDelay:       500 * time.Millisecond,
		SettleDelay:        500 * time.Millisecond,
	}
}

// Responder answers reader commands on behalf of an emulated target. It
// drives one receive/classify/reply cycle at a time: activation commands
// get the precomputed anticollision replies, application commands go
// through the response table, and everything it cannot answer stays
// mute.
//
// Thread Safety: Responder is NOT thread-safe. Run Emulate from a single
// goroutine; cancel its context to interrupt it.
type Responder struct {
	transport Transport
	field     Field
	table     *ResponseTable
	framer    *Framer
	config    *ResponderConfig
	trace     *TraceBuffer
	activity  func(active bool)
}

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

// WithResponderConfig replaces the default loop configuration.
func WithResponderConfig(config *ResponderConfig) ResponderOption {
	return func(r *Responder) {
		if config != nil {
			r.config = config
		}
	}
}

// WithActivityFunc registers a callback toggled around each command
// cycle, typically wired to an activity LED.
func WithActivityFunc(fn func(active bool)) ResponderOption {
	return func(r *Responder) {
		if fn != nil {
			r.activity = fn
		}
	}
}

// WithTraceBuffer records the frames of each emulation pass so aborts
// carry recent traffic context.
func WithTraceBuffer(trace *TraceBuffer) ResponderOption {
	return func(r *Responder) {
		r.trace = trace
	}
}

// NewResponder creates a responder that answers through transport,
// arms emulation through field, and resolves application commands
// against table.
func NewResponder(transport Transport, field Field, table *ResponseTable, opts ...ResponderOption) *Responder {
	responder := &Responder{
		transport: transport,
		field:     field,
		table:     table,
		config:    DefaultResponderConfig(),
		activity:  func(bool) {},
	}
	for _, opt := range opts {
		opt(responder)
	}
	responder.framer = NewFramer(responder.config.ModulationCapacity)
	return responder
}

// Emulate impersonates target until the reader field goes away, the
// transport fails, or ctx is cancelled. It always returns a reason: an
// error wrapping ErrInitFailed when emulation could not be armed, or
// one wrapping ErrEmulationAborted with the underlying cause otherwise.
// The caller decides whether to re-enter.
func (r *Responder) Emulate(ctx context.Context, target Target) error {
	if err := sleepWithContext(ctx, r.config.StartupDelay); err != nil {
		return r.abort(err)
	}

	responses, err := r.field.InitEmulation(ctx, target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}
	Debugf("Emulating target %s", target.String())

	for {
		r.activity(true)

		frame, err := r.transport.ReceiveFrame(ctx)
		if err != nil {
			r.activity(false)
			return r.abort(err)
		}
		if r.trace != nil {
			r.trace.RecordRX(frame, "reader command")
		}

		reply, precompiled := r.resolve(frame, responses)
		if len(reply) != 0 {
			if err := r.send(ctx, reply, precompiled); err != nil {
				r.activity(false)
				return r.abort(err)
			}
		}

		r.activity(false)
	}
}

// resolve maps one reader frame to the reply owed for it. Precompiled
// replies are already in final wire form; dynamic ones still need the
// transmission checksum. A nil reply means the cycle stays mute.
func (r *Responder) resolve(frame []byte, responses *StandardResponses) (reply []byte, precompiled bool) {
	cls := Classify(frame)
	Debugf("Reader command %s (%d bytes)", cls.Kind, len(frame))

	switch cls.Kind {
	case KindHalt:
		// The reader is done with us until the next wakeup.
		return nil, false
	case KindWake, KindAnticollision, KindSelect, KindActivate:
		return responses.ForKind(cls.Kind), true
	case KindIBlock, KindIBlockCID:
		reply := r.table.Match(frame, cls.HeaderLen)
		if reply == nil {
			DebugHex("Unmatched exchange block", frame)
		}
		return reply, false
	case KindVendorAck:
		return []byte{frame[0] ^ vendorAckXor, 0x00}, false
	case KindPing:
		return pingReply, false
	case KindDeselect:
		return deselectReply, false
	case KindChaining:
		return nil, false
	case KindUnknown:
		DebugHex("Unhandled command", frame)
		return nil, false
	default:
		return nil, false
	}
}

// send frames and transmits one reply. Replies the hardware cannot
// represent are dropped after a settle pause; the loop carries on.
func (r *Responder) send(ctx context.Context, reply []byte, precompiled bool) error {
	framed := reply
	if !precompiled {
		var err error
		framed, err = r.framer.Frame(reply)
		if err != nil {
			if errors.Is(err, ErrNotRepresentable) {
				Debugf("Dropping %d byte reply: %v", len(reply), err)
				return sleepWithContext(ctx, r.config.SettleDelay)
			}
			return err
		}
	}

	if r.trace != nil {
		r.trace.RecordTX(framed, "tag reply")
	}
	if err := r.transport.PrepareAndSend(framed, r.framer.Capacity()); err != nil {
		if errors.Is(err, ErrNotRepresentable) {
			Debugf("Front end rejected %d byte reply: %v", len(framed), err)
			return sleepWithContext(ctx, r.config.SettleDelay)
		}
		return err
	}
	return nil
}

// abort wraps the terminating cause, attaching recent traffic when a
// trace buffer is configured.
func (r *Responder) abort(cause error) error {
	err := fmt.Errorf("%w: %w", ErrEmulationAborted, cause)
	if r.trace != nil {
		return r.trace.WrapError(err)
	}
	return err
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
