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
	"fmt"
	"sync"
)

// Transport is the radio front end as seen from the emulation loop. It
// delivers raw reader command frames and transmits prepared replies.
// Carrier handling, bit framing and transmission timing live behind it.
type Transport interface {
	// ReceiveFrame blocks until one command frame arrives from the
	// reader. The wait is bounded by the transport's own timeout;
	// prolonged reader absence surfaces as an error satisfying
	// IsSilence.
	ReceiveFrame(ctx context.Context) ([]byte, error)

	// PrepareAndSend modulates and transmits one complete reply frame.
	// Replies the hardware cannot represent (for example larger than
	// maxLen) fail with ErrNotRepresentable and nothing is transmitted.
	PrepareAndSend(data []byte, maxLen int) error

	// Close releases the front end.
	Close() error
}

// Field is the anticollision/select engine behind the radio front end.
// It prepares the hardware to impersonate a target and, in the other
// direction, singles out real tags while scanning.
type Field interface {
	// InitEmulation arms target emulation for the given identifier and
	// returns the precomputed activation replies. Failure wraps
	// ErrInitFailed and aborts the emulation pass.
	InitEmulation(ctx context.Context, target Target) (*StandardResponses, error)

	// Select runs one reader-side select cycle. ErrNoTarget means
	// nothing answered; the caller applies its retry policy.
	Select(ctx context.Context) (*SelectedTarget, error)
}

// MockTransport provides a scripted Transport implementation for
// testing. Frames queued with QueueFrame are returned by ReceiveFrame in
// order; once the script runs out, ReceiveFrame reports the configured
// receive error (field silence by default).
type MockTransport struct {
	receiveErr error
	sendErr    error
	script     [][]byte
	sent       [][]byte
	sendErrOn  int
	mu         sync.Mutex
	closed     bool
}

// NewMockTransport creates a mock transport with an empty script.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		receiveErr: fmt.Errorf("script exhausted: %w", ErrFieldSilence),
	}
}

// QueueFrame appends one inbound reader frame to the script.
func (m *MockTransport) QueueFrame(frame []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, append([]byte(nil), frame...))
}

// SetReceiveError replaces the error reported once the script is
// exhausted.
func (m *MockTransport) SetReceiveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receiveErr = err
}

// FailSendAt makes the n-th PrepareAndSend call (1-based) fail with err.
func (m *MockTransport) FailSendAt(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErrOn = n
	m.sendErr = err
}

// ReceiveFrame implements Transport.
func (m *MockTransport) ReceiveFrame(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrTransportClosed
	}
	if len(m.script) == 0 {
		return nil, m.receiveErr
	}
	frame := m.script[0]
	m.script = m.script[1:]
	return frame, nil
}

// PrepareAndSend implements Transport. It enforces maxLen the way a real
// front end does and records every transmitted frame.
func (m *MockTransport) PrepareAndSend(data []byte, maxLen int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrTransportClosed
	}
	if maxLen > 0 && len(data) > maxLen {
		return fmt.Errorf("frame of %d bytes exceeds %d: %w", len(data), maxLen, ErrNotRepresentable)
	}
	if m.sendErrOn > 0 && len(m.sent)+1 == m.sendErrOn {
		return m.sendErr
	}
	m.sent = append(m.sent, append([]byte(nil), data...))
	return nil
}

// Sent returns copies of all transmitted frames in order.
func (m *MockTransport) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	for i, frame := range m.sent {
		out[i] = append([]byte(nil), frame...)
	}
	return out
}

// Close implements Transport.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockField provides a scripted Field implementation for testing.
type MockField struct {
	initErr     error
	responses   *StandardResponses
	selections  []*SelectedTarget
	initTargets []Target
	initCalls   int
	selectCalls int
	mu          sync.Mutex
}

// NewMockField creates a mock field engine. InitEmulation builds real
// activation responses unless SetResponses overrides them.
func NewMockField() *MockField {
	return &MockField{}
}

// SetInitError makes every InitEmulation call fail with err.
func (f *MockField) SetInitError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initErr = err
}

// SetResponses overrides the activation replies returned by
// InitEmulation.
func (f *MockField) SetResponses(resp *StandardResponses) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = resp
}

// QueueSelect appends one scan outcome; nil marks a miss reported as
// ErrNoTarget. Once the queue empties, further scans miss too.
func (f *MockField) QueueSelect(sel *SelectedTarget) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selections = append(f.selections, sel)
}

// InitEmulation implements Field.
func (f *MockField) InitEmulation(_ context.Context, target Target) (*StandardResponses, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	f.initTargets = append(f.initTargets, target.Clone())
	if f.initErr != nil {
		return nil, f.initErr
	}
	if f.responses != nil {
		return f.responses, nil
	}
	resp, err := BuildStandardResponses(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}
	return resp, nil
}

// Select implements Field.
func (f *MockField) Select(_ context.Context) (*SelectedTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectCalls++
	if len(f.selections) == 0 {
		return nil, ErrNoTarget
	}
	sel := f.selections[0]
	f.selections = f.selections[1:]
	if sel == nil {
		return nil, ErrNoTarget
	}
	return sel, nil
}

// InitTargets returns the targets passed to InitEmulation in order.
func (f *MockField) InitTargets() []Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Target, len(f.initTargets))
	copy(out, f.initTargets)
	return out
}

// InitCalls returns how many times InitEmulation ran.
func (f *MockField) InitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initCalls
}

// SelectCalls returns how many times Select ran.
func (f *MockField) SelectCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectCalls
}
