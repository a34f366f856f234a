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

// Package uart drives an NXP-style NFC front-end controller over a
// serial line. The controller hardware runs the carrier, bit framing
// and activation primitives; this package speaks its host link
// protocol and exposes the device as a tagemu.Transport and
// tagemu.Field.
package uart

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	tagemu "github.com/ZaparooProject/go-tagemu"
	"github.com/ZaparooProject/go-tagemu/internal/frame"
	"go.bug.st/serial"
)

// Controller command codes used by the device.
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSAMConfiguration    = 0x14
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
	cmdTgGetData           = 0x86
	cmdTgInitAsTarget      = 0x8C
	cmdTgResponseToInit    = 0x90
)

// statusOK is the success value of the status byte carried by In* and
// Tg* responses.
const statusOK = 0x00

// Default wait windows for the emulation side of the device.
const (
	// DefaultActivationWindow bounds how long one armed pass waits for
	// a reader before reporting field silence.
	DefaultActivationWindow = 2 * time.Second
	// DefaultReceiveWindow bounds the wait for the next reader frame
	// once activated, and for ordinary command responses.
	DefaultReceiveWindow = 500 * time.Millisecond
)

// Device is a controller attached over UART. All exported methods are
// safe for concurrent use; the host link itself is strictly
// half-duplex and serialized by a mutex.
type Device struct {
	port               serial.Port
	firmware           *tagemu.FirmwareVersion
	portName           string
	readTimeout        time.Duration
	activationWindow   time.Duration
	receiveWindow      time.Duration
	mu                 sync.Mutex
	awaitingActivation bool
}

// Option adjusts a Device before it connects.
type Option func(*Device)

// WithReadTimeout replaces the per-read serial timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(dev *Device) {
		if d > 0 {
			dev.readTimeout = d
		}
	}
}

// WithActivationWindow replaces the reader activation wait window.
func WithActivationWindow(d time.Duration) Option {
	return func(dev *Device) {
		if d > 0 {
			dev.activationWindow = d
		}
	}
}

// WithReceiveWindow replaces the response and reader frame wait window.
func WithReceiveWindow(d time.Duration) Option {
	return func(dev *Device) {
		if d > 0 {
			dev.receiveWindow = d
		}
	}
}

// serialReadTimeout returns the per-read timeout. Windows drivers need
// a longer slice than the 50ms that works elsewhere.
func serialReadTimeout() time.Duration {
	if runtime.GOOS == "windows" {
		return 100 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// Open connects to the controller on portName, wakes it, configures
// the SAM and probes the firmware. The returned device is ready to
// arm for emulation or to scan.
func Open(portName string, opts ...Option) (*Device, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}

	d := &Device{
		port:             port,
		portName:         portName,
		readTimeout:      serialReadTimeout(),
		activationWindow: DefaultActivationWindow,
		receiveWindow:    DefaultReceiveWindow,
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := port.SetReadTimeout(d.readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", portName, err)
	}

	// A chip waking from power-down misses the first exchange now and
	// then; give the bring-up a few tries before giving up on the port.
	initRetry := &tagemu.RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        500 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	err = tagemu.RetryWithConfig(context.Background(), initRetry, func() error {
		return d.initController(context.Background())
	})
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return d, nil
}

// initController wakes the chip and brings it to a known state.
func (d *Device) initController(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.wakeUp(); err != nil {
		return err
	}

	// Normal mode, one second virtual card timeout, IRQ pin unused.
	if _, err := d.roundTrip(ctx, cmdSAMConfiguration, []byte{0x01, 0x14, 0x01}); err != nil {
		return fmt.Errorf("SAM configuration: %w", err)
	}

	fw, err := d.roundTrip(ctx, cmdGetFirmwareVersion, nil)
	if err != nil {
		return fmt.Errorf("firmware probe: %w", err)
	}
	version, err := tagemu.ParseFirmwareVersion(fw)
	if err != nil {
		return fmt.Errorf("firmware probe: %w", err)
	}
	if !version.SupportIso14443A {
		return fmt.Errorf("controller firmware %s cannot modulate ISO/IEC 14443A", version)
	}
	d.firmware = version
	tagemu.Debugf("controller firmware: %s", version)
	return nil
}

// FirmwareVersion reports the firmware identified during Open.
func (d *Device) FirmwareVersion() *tagemu.FirmwareVersion {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.firmware
}

// Close releases the serial port. A blocked read unblocks with an
// error once the port goes away.
func (d *Device) Close() error {
	if d.port == nil {
		return nil
	}
	if err := d.port.Close(); err != nil {
		return fmt.Errorf("close %s: %w", d.portName, err)
	}
	return nil
}

// roundTrip sends one command and reads its response within the
// receive window, stripping the verified response code. The caller
// must hold d.mu.
func (d *Device) roundTrip(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := d.send(cmd, args); err != nil {
		return nil, err
	}
	return d.response(ctx, cmd, d.receiveWindow)
}

// send encodes and writes one command frame, then waits for the
// controller's ACK. The caller must hold d.mu.
func (d *Device) send(cmd byte, args []byte) error {
	wire, err := frame.Encode(cmd, args)
	if err != nil {
		return err
	}

	n, err := d.port.Write(wire)
	if err != nil {
		return fmt.Errorf("write %s: %w", commandName(cmd), err)
	}
	if n != len(wire) {
		return tagemu.NewTransportWriteError(commandName(cmd), d.portName)
	}
	if err := d.drainWithRetry("send"); err != nil {
		return err
	}
	return d.waitAck()
}

// response reads the reply to cmd, answering corrupt frames with a
// NACK for retransmission. The deadline covers the whole exchange
// including retries. The caller must hold d.mu.
func (d *Device) response(ctx context.Context, cmd byte, window time.Duration) ([]byte, error) {
	const maxAttempts = 3
	deadline := time.Now().Add(window)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		data, refuse, err := d.readWireFrame(ctx, deadline)
		if err != nil {
			return nil, err
		}
		if refuse {
			if err := d.sendNack(); err != nil {
				return nil, err
			}
			continue
		}
		if len(data) == 0 {
			return nil, tagemu.NewInvalidResponseError(commandName(cmd), d.portName)
		}

		if data[0] == frame.ErrorIndicator {
			return nil, tagemu.NewControllerError(commandName(cmd), frame.ErrorIndicator)
		}
		if data[0] != cmd+1 {
			return nil, tagemu.NewInvalidResponseError(commandName(cmd), d.portName)
		}
		if err := d.sendAck(); err != nil {
			return nil, err
		}
		return data[1:], nil
	}
	return nil, tagemu.NewFrameCorruptedError(commandName(cmd), d.portName)
}

// readWireFrame accumulates one information frame from the line and
// extracts its payload. refuse reports a frame that arrived corrupt
// and should be NACKed. Absent data within the deadline is a timeout;
// ctx cancellation cuts the wait short.
func (d *Device) readWireFrame(ctx context.Context, deadline time.Time) (data []byte, refuse bool, err error) {
	buf := frame.GetWireBuffer()
	defer frame.PutBuffer(buf)

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if time.Now().After(deadline) {
			return nil, false, tagemu.NewTimeoutError("readFrame", d.portName)
		}
		if total < len(buf) {
			n, readErr := d.port.Read(buf[total:])
			if readErr != nil {
				return nil, false, fmt.Errorf("frame read: %w", readErr)
			}
			if n == 0 {
				continue
			}
			total += n
		}

		off := bytes.IndexByte(buf[:total], 0xFF)
		if off < 0 || off+2 >= total {
			continue
		}

		dataLen, badLen, err := frame.ValidateLength(buf, off, total, "readFrame", d.portName)
		if err != nil {
			return nil, false, err
		}
		if badLen {
			return nil, true, nil
		}

		need := off + 3 + dataLen + 1
		if need > len(buf) {
			return nil, false, tagemu.NewDataTooLargeError("readFrame", d.portName)
		}
		if total < need {
			continue
		}

		if frame.ValidateChecksum(buf, off+3, off+3+dataLen+1) {
			return nil, true, nil
		}
		return frame.ExtractData(buf, off, dataLen, frame.ControllerToHost)
	}
}

// waitAck scans for the ACK that must follow every command. Bytes
// arriving before it are tolerated and dropped; some chips flush
// stale response data ahead of the ACK.
func (d *Device) waitAck() error {
	const maxTries = 32

	buf := frame.GetSmallBuffer(1)
	defer frame.PutBuffer(buf)

	window := make([]byte, 0, len(frame.AckFrame))
	dropped := 0

	for tries := 0; tries < maxTries; {
		n, err := d.port.Read(buf[:1])
		if err != nil {
			return fmt.Errorf("ACK read: %w", err)
		}
		if n == 0 {
			tries++
			continue
		}

		window = append(window, buf[0])
		if len(window) < len(frame.AckFrame) {
			continue
		}
		if bytes.Equal(window, frame.AckFrame) {
			if dropped > 0 {
				tagemu.Debugf("dropped %d bytes before ACK", dropped)
			}
			return nil
		}
		window = window[1:]
		dropped++
		tries++
	}
	return tagemu.NewNoACKError("waitAck", d.portName)
}

// wakeUp raises the line long enough for the controller to leave
// low-power mode: a 0x55 preamble followed by zero padding.
func (d *Device) wakeUp() error {
	preamble := make([]byte, 16)
	preamble[0] = 0x55

	n, err := d.port.Write(preamble)
	if err != nil {
		return fmt.Errorf("wakeup write: %w", err)
	}
	if n != len(preamble) {
		return tagemu.NewTransportWriteError("wakeUp", d.portName)
	}
	return d.drainWithRetry("wakeup")
}

func (d *Device) sendAck() error {
	n, err := d.port.Write(frame.AckFrame)
	if err != nil {
		return fmt.Errorf("ACK write: %w", err)
	}
	if n != len(frame.AckFrame) {
		return tagemu.NewTransportWriteError("sendAck", d.portName)
	}
	return d.drainWithRetry("ACK")
}

func (d *Device) sendNack() error {
	n, err := d.port.Write(frame.NackFrame)
	if err != nil {
		return fmt.Errorf("NACK write: %w", err)
	}
	if n != len(frame.NackFrame) {
		return tagemu.NewTransportWriteError("sendNack", d.portName)
	}
	return d.drainWithRetry("NACK")
}

// drainWithRetry flushes the transmit path, retrying interrupted
// system calls with a short backoff.
func (d *Device) drainWithRetry(operation string) error {
	const maxRetries = 3
	baseDelay := 2 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := d.port.Drain()
		if err == nil {
			return nil
		}
		if isInterruptedSystemCall(err) && attempt < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<attempt))
			continue
		}
		return fmt.Errorf("drain after %s: %w", operation, err)
	}
	return fmt.Errorf("drain after %s: interrupted too often", operation)
}

func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "interrupted system call") ||
		strings.Contains(s, "eintr")
}

// commandName labels commands in errors and debug output.
func commandName(cmd byte) string {
	switch cmd {
	case cmdGetFirmwareVersion:
		return "GetFirmwareVersion"
	case cmdSAMConfiguration:
		return "SAMConfiguration"
	case cmdInListPassiveTarget:
		return "InListPassiveTarget"
	case cmdInRelease:
		return "InRelease"
	case cmdTgGetData:
		return "TgGetData"
	case cmdTgInitAsTarget:
		return "TgInitAsTarget"
	case cmdTgResponseToInit:
		return "TgResponseToInitiator"
	default:
		return fmt.Sprintf("command 0x%02X", cmd)
	}
}
