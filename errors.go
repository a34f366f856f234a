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
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Error categories for error handling and retry logic
var (
	// Emulation errors - the core loop's taxonomy
	ErrFieldSilence     = errors.New("reader field silent")
	ErrEmulationAborted = errors.New("emulation aborted")
	ErrInitFailed       = errors.New("emulation init failed")
	ErrNotRepresentable = errors.New("response exceeds modulation capacity")
	ErrNoTarget         = errors.New("no target in field")

	// Transport errors - potentially retryable
	ErrTransportTimeout  = errors.New("transport timeout")
	ErrTransportWrite    = errors.New("transport write failed")
	ErrTransportRead     = errors.New("transport read failed")
	ErrTransportClosed   = errors.New("transport is closed")
	ErrTransportNotReady = errors.New("transport not ready")

	// Communication errors - potentially retryable
	ErrNoACK            = errors.New("no ACK received")
	ErrFrameCorrupted   = errors.New("frame corrupted")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrInvalidResponse  = errors.New("invalid response format")

	// Data errors - not retryable
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrDataTooLarge     = errors.New("data too large")
	ErrTargetLength     = errors.New("target identifier must be 4 bytes")
)

// ErrorType represents the category of error for retry logic
type ErrorType int

const (
	// ErrorTypeTransient indicates a potentially retryable error
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a non-retryable error
	ErrorTypePermanent
	// ErrorTypeTimeout indicates a timeout error (special handling)
	ErrorTypeTimeout
)

// TransportError wraps transport-level errors with additional context
type TransportError struct {
	Err       error     // Underlying error
	Op        string    // Operation that failed
	Port      string    // Port or device identifier
	Type      ErrorType // Error category
	Retryable bool      // Whether the error is retryable
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ControllerError wraps status codes reported by the NFC front-end
// controller. It keeps the failed command and the raw code for
// protocol-level debugging.
type ControllerError struct {
	Command string
	Code    byte
}

func (e *ControllerError) Error() string {
	return fmt.Sprintf("controller error 0x%02X during %s: %s",
		e.Code, e.Command, controllerCodeMeaning(e.Code))
}

// controllerCodeMeaning translates front-end status codes into
// human-readable descriptions for error messages.
func controllerCodeMeaning(code byte) string {
	switch code {
	case 0x01:
		return "timeout, the initiator has not answered"
	case 0x02:
		return "CRC error detected by the controller"
	case 0x03:
		return "parity error detected by the controller"
	case 0x05:
		return "framing error during anticollision"
	case 0x0A:
		return "RF field not activated in time by the initiator"
	case 0x13:
		return "data format mismatch in the exchanged frame"
	case 0x25:
		return "command invalid in the current controller state"
	case 0x27:
		return "command not acceptable in the current context"
	case 0x29:
		return "released by the initiator"
	case 0x31:
		return "initiator RF field switched off"
	case 0x7F:
		return "command rejected as a syntax error"
	default:
		return "unknown status code"
	}
}

// IsTimeout returns true when the controller reported an initiator
// timeout.
func (e *ControllerError) IsTimeout() bool {
	return e.Code == 0x01
}

// IsFieldLost returns true when the code means the reader is gone:
// released by the initiator, field dropped, or activation timeout.
func (e *ControllerError) IsFieldLost() bool {
	switch e.Code {
	case 0x01, 0x0A, 0x29, 0x31:
		return true
	default:
		return false
	}
}

// NewControllerError creates a ControllerError for a status code.
func NewControllerError(command string, code byte) *ControllerError {
	return &ControllerError{Command: command, Code: code}
}

// IsSilence returns true if the error means the reader field is gone or
// quiet. Silence ends an emulation pass but never the whole run.
func IsSilence(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrFieldSilence) {
		return true
	}
	var ce *ControllerError
	if errors.As(err, &ce) {
		return ce.IsFieldLost()
	}
	return false
}

// IsRetryable returns true if the error may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	var ce *ControllerError
	if errors.As(err, &ce) {
		return ce.IsTimeout()
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrNoACK),
		errors.Is(err, ErrFrameCorrupted),
		errors.Is(err, ErrChecksumMismatch):
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error indicates the device/connection is
// gone and the run should stop entirely. This is distinct from
// IsRetryable which indicates whether a single operation can be retried.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type == ErrorTypePermanent
	}

	if isDeviceGoneError(err) {
		return true
	}

	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// Windows error codes for device disconnection detection.
// Defined here because they're not available on non-Windows platforms.
const (
	errAccessDenied syscall.Errno = 5   // ERROR_ACCESS_DENIED
	errGenFailure   syscall.Errno = 31  // ERROR_GEN_FAILURE
	errNoSuchDevice syscall.Errno = 433 // ERROR_NO_SUCH_DEVICE
)

// isDeviceGoneError checks for OS-level errors indicating device
// disconnection, e.g. a USB serial adapter unplugged mid-operation.
func isDeviceGoneError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}

	if runtime.GOOS == "windows" {
		switch errno {
		case errAccessDenied, errGenFailure, errNoSuchDevice:
			return true
		}
		return false
	}

	switch errno {
	case syscall.ENODEV, syscall.ENXIO, syscall.EIO:
		return true
	default:
		return false
	}
}

// NewTransportError creates a new transport error
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a timeout transport error
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewFrameCorruptedError creates a frame corruption error
func NewFrameCorruptedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrFrameCorrupted, ErrorTypeTransient)
}

// NewDataTooLargeError creates a data size error
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDataTooLarge, ErrorTypePermanent)
}

// NewTransportWriteError creates a write failure error
func NewTransportWriteError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportWrite, ErrorTypeTransient)
}

// NewTransportReadError creates a read failure error
func NewTransportReadError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportRead, ErrorTypeTransient)
}

// NewNoACKError creates a missing ACK error
func NewNoACKError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrNoACK, ErrorTypeTransient)
}

// NewChecksumMismatchError creates a checksum mismatch error
func NewChecksumMismatchError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrChecksumMismatch, ErrorTypeTransient)
}

// NewInvalidResponseError creates an invalid response error
func NewInvalidResponseError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrInvalidResponse, ErrorTypePermanent)
}

// TraceDirection indicates the direction of traced wire traffic
type TraceDirection string

const (
	// TraceTX marks outbound traffic
	TraceTX TraceDirection = "TX"
	// TraceRX marks inbound traffic
	TraceRX TraceDirection = "RX"
)

// TraceEntry is a single captured wire exchange
type TraceEntry struct {
	Timestamp time.Time
	Direction TraceDirection
	Note      string
	Data      []byte
}

func (e TraceEntry) String() string {
	ts := e.Timestamp.Format("15:04:05.000")
	if e.Note != "" {
		return fmt.Sprintf("%s %s %s (%s)", ts, e.Direction, formatHexBytes(e.Data), e.Note)
	}
	return fmt.Sprintf("%s %s %s", ts, e.Direction, formatHexBytes(e.Data))
}

// formatHexBytes renders data as spaced hex pairs, truncating long
// buffers to keep error messages readable.
func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	if len(data) > 32 {
		parts := make([]string, 32)
		for i := 0; i < 32; i++ {
			parts[i] = fmt.Sprintf("%02X", data[i])
		}
		return strings.Join(parts, " ") + fmt.Sprintf(" ... (%d bytes total)", len(data))
	}
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// TraceableError attaches recent wire traffic to a transport error so
// failures can be diagnosed without re-running with a bus analyzer.
type TraceableError struct {
	Err     error
	Trace   []TraceEntry
	Context string
}

func (e *TraceableError) Error() string {
	return e.Err.Error()
}

func (e *TraceableError) Unwrap() error {
	return e.Err
}

// FormatTrace renders the captured exchanges, most recent last.
func (e *TraceableError) FormatTrace() string {
	if len(e.Trace) == 0 {
		return "no trace captured"
	}
	var sb strings.Builder
	if e.Context != "" {
		sb.WriteString(e.Context)
		sb.WriteString("\n")
	}
	for _, entry := range e.Trace {
		sb.WriteString("  ")
		sb.WriteString(entry.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// TraceBuffer collects wire exchanges during a command operation.
// It keeps a fixed number of entries to bound memory usage.
type TraceBuffer struct {
	transport string
	port      string
	entries   []TraceEntry
	maxSize   int
	mu        sync.Mutex
}

// NewTraceBuffer creates a trace buffer for a transport/port pair.
func NewTraceBuffer(transport, port string, maxSize int) *TraceBuffer {
	if maxSize <= 0 {
		maxSize = 16
	}
	return &TraceBuffer{
		transport: transport,
		port:      port,
		maxSize:   maxSize,
		entries:   make([]TraceEntry, 0, maxSize),
	}
}

// RecordTX records outbound traffic.
func (tb *TraceBuffer) RecordTX(data []byte, note string) {
	tb.record(TraceTX, data, note)
}

// RecordRX records inbound traffic.
func (tb *TraceBuffer) RecordRX(data []byte, note string) {
	tb.record(TraceRX, data, note)
}

func (tb *TraceBuffer) record(dir TraceDirection, data []byte, note string) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	entry := TraceEntry{
		Timestamp: time.Now(),
		Direction: dir,
		Data:      cp,
		Note:      note,
	}
	if len(tb.entries) >= tb.maxSize {
		copy(tb.entries, tb.entries[1:])
		tb.entries[len(tb.entries)-1] = entry
		return
	}
	tb.entries = append(tb.entries, entry)
}

// WrapError attaches the current trace to err.
func (tb *TraceBuffer) WrapError(err error) error {
	if err == nil {
		return nil
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()

	trace := make([]TraceEntry, len(tb.entries))
	copy(trace, tb.entries)
	return &TraceableError{
		Err:     err,
		Trace:   trace,
		Context: fmt.Sprintf("%s %s", tb.transport, tb.port),
	}
}

// Clear drops all recorded entries.
func (tb *TraceBuffer) Clear() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.entries = tb.entries[:0]
}
