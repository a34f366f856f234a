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

// Package testing provides test utilities, including a wire-level
// simulator of the NFC front-end controller.
//
// The VirtualController type implements io.ReadWriter and mimics the
// controller's host link at the frame protocol level: length and data
// checksums, the ACK/NACK handshake, and the command subset the
// emulator drives. It runs the target side of the command set: it arms
// on TgInitAsTarget, plays queued reader frames back through the
// activation response and TgGetData, and captures every reply passed
// to TgResponseToInitiator. Unlike the real chip it answers instantly,
// which keeps transport tests deterministic.
package testing

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-tagemu/internal/syncutil"
)

// Host link frame markers.
const (
	ctrlPreamble   = 0x00
	ctrlStartCode1 = 0x00
	ctrlStartCode2 = 0xFF
	ctrlPostamble  = 0x00

	tfiHostToController = 0xD4
	tfiControllerToHost = 0xD5
	tfiError            = 0x7F
)

// ACK and NACK flow control frames.
var (
	// ACKFrame acknowledges successful frame reception.
	ACKFrame = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}

	// NACKFrame requests retransmission of the last response.
	NACKFrame = []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)

// Command codes the simulator understands.
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSAMConfiguration    = 0x14
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
	cmdTgGetData           = 0x86
	cmdTgInitAsTarget      = 0x8C
	cmdTgResponseToInit    = 0x90
)

// Status codes carried in the status byte of Tg* responses.
const (
	statusOK             = 0x00
	statusTargetReleased = 0x29
)

// activationMode summarizes baudrate and framing in the TgInitAsTarget
// response. The host link layer passes it through without interpreting
// it.
const activationMode = 0x08

// ScanTarget is a card the simulator presents to InListPassiveTarget.
// ATQA is kept in transmission order; the wire carries it byte-swapped
// the way the real controller reports SENS_RES.
type ScanTarget struct {
	UID  []byte
	ATQA [2]byte
	SAK  byte
}

// VirtualController simulates the NFC front-end controller at the wire
// protocol level. It implements io.ReadWriter to plug directly into
// transport tests.
type VirtualController struct {
	lastResponse   []byte
	armParams      []byte
	readerFrames   [][]byte
	replies        [][]byte
	scanTargets    []ScanTarget
	rxBuffer       bytes.Buffer
	txBuffer       bytes.Buffer
	mu             syncutil.Mutex
	readChunk      int
	firmware       [4]byte
	releaseCode    byte
	replyStatus    byte
	samConfigured  bool
	armed          bool
	activated      bool
	corruptNextDCS bool
	dropNextACK    bool
}

// NewVirtualController creates a wire-level controller simulator. It
// starts unarmed, with no scan targets and no queued reader traffic.
func NewVirtualController() *VirtualController {
	return &VirtualController{
		firmware:    [4]byte{0x32, 0x01, 0x06, 0x07},
		releaseCode: statusTargetReleased,
		replyStatus: statusOK,
	}
}

// Write implements io.Writer, receiving data from the host. Complete
// frames are processed as they arrive; partial frames wait for more
// bytes.
func (v *VirtualController) Write(data []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.rxBuffer.Write(data)
	v.processReceivedData()
	return len(data), nil
}

// Read implements io.Reader, returning queued response data to the
// host. An empty queue reads as zero bytes, like a serial port timing
// out.
func (v *VirtualController) Read(buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.txBuffer.Len() == 0 {
		return 0, nil
	}
	if v.readChunk > 0 && len(buf) > v.readChunk {
		buf = buf[:v.readChunk]
	}
	n, err := v.txBuffer.Read(buf)
	if err != nil {
		return n, fmt.Errorf("read simulator buffer: %w", err)
	}
	return n, nil
}

// SetFirmwareVersion configures the GetFirmwareVersion reply: IC,
// version, revision, support bytes.
func (v *VirtualController) SetFirmwareVersion(ic, ver, rev, support byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.firmware = [4]byte{ic, ver, rev, support}
}

// AddScanTarget queues a card for the next InListPassiveTarget. Each
// scan consumes one; an empty queue scans as no target.
func (v *VirtualController) AddScanTarget(target ScanTarget) {
	v.mu.Lock()
	defer v.mu.Unlock()
	target.UID = append([]byte(nil), target.UID...)
	v.scanTargets = append(v.scanTargets, target)
}

// QueueReaderFrame queues one frame from the simulated reader. The
// first queued frame doubles as the initiator command in the
// TgInitAsTarget activation response; the rest come back through
// TgGetData.
func (v *VirtualController) QueueReaderFrame(frame []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readerFrames = append(v.readerFrames, append([]byte(nil), frame...))
}

// SetReleaseCode replaces the status code reported by TgGetData once
// the reader frame queue is empty. The default means released by the
// initiator.
func (v *VirtualController) SetReleaseCode(code byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.releaseCode = code
}

// SetReplyStatus makes the next TgResponseToInitiator report the given
// status instead of success.
func (v *VirtualController) SetReplyStatus(code byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.replyStatus = code
}

// CorruptNextResponse flips a bit in the data checksum of the next
// response. A NACK retransmits the clean frame.
func (v *VirtualController) CorruptNextResponse() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.corruptNextDCS = true
}

// DropNextACK suppresses the ACK for the next command.
func (v *VirtualController) DropNextACK() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dropNextACK = true
}

// SetReadChunk caps how many bytes a single Read returns, forcing the
// host to reassemble frames from partial reads. Zero removes the cap.
func (v *VirtualController) SetReadChunk(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readChunk = n
}

// Replies returns copies of the reply payloads captured from
// TgResponseToInitiator, in order.
func (v *VirtualController) Replies() [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([][]byte, len(v.replies))
	for i, r := range v.replies {
		out[i] = append([]byte(nil), r...)
	}
	return out
}

// ArmParams returns the parameters of the last TgInitAsTarget.
func (v *VirtualController) ArmParams() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.armParams...)
}

// Armed reports whether the controller is armed for target emulation.
func (v *VirtualController) Armed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.armed
}

// SAMConfigured reports whether SAMConfiguration ran.
func (v *VirtualController) SAMConfigured() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.samConfigured
}

// Reset clears all buffers and state.
func (v *VirtualController) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.rxBuffer.Reset()
	v.txBuffer.Reset()
	v.lastResponse = nil
	v.armParams = nil
	v.readerFrames = nil
	v.replies = nil
	v.scanTargets = nil
	v.releaseCode = statusTargetReleased
	v.replyStatus = statusOK
	v.samConfigured = false
	v.armed = false
	v.activated = false
	v.corruptNextDCS = false
	v.dropNextACK = false
}

// processReceivedData parses frames from the receive buffer and queues
// responses until the buffer runs out of complete frames.
func (v *VirtualController) processReceivedData() {
	for {
		data := v.rxBuffer.Bytes()
		if len(data) < 6 {
			return
		}

		if bytes.HasPrefix(data, ACKFrame) {
			v.rxBuffer.Next(len(ACKFrame))
			continue
		}
		if bytes.HasPrefix(data, NACKFrame) {
			v.rxBuffer.Next(len(NACKFrame))
			if v.lastResponse != nil {
				v.txBuffer.Write(v.lastResponse)
			}
			continue
		}

		start := findFrameStart(data)
		if start < 0 {
			// Wakeup preamble or line noise. Keep a trailing zero in
			// case it is the first half of a start code split across
			// writes.
			tail := data[len(data)-1]
			v.rxBuffer.Reset()
			if tail == ctrlStartCode1 {
				v.rxBuffer.WriteByte(tail)
			}
			return
		}
		if start > 0 {
			v.rxBuffer.Next(start)
			data = v.rxBuffer.Bytes()
		}

		body, frameLen, err := parseFrame(data)
		if err != nil {
			if errors.Is(err, errIncompleteFrame) {
				return
			}
			v.rxBuffer.Next(1)
			continue
		}
		v.rxBuffer.Next(frameLen)

		v.dispatch(body)
	}
}

var errIncompleteFrame = errors.New("incomplete frame")

// findFrameStart locates the 0x00 0xFF start code.
func findFrameStart(data []byte) int {
	for i := 0; i < len(data)-1; i++ {
		if data[i] == ctrlStartCode1 && data[i+1] == ctrlStartCode2 {
			return i
		}
	}
	return -1
}

// parseFrame validates one normal information frame starting at the
// start code. It returns the frame body (TFI, command, parameters) and
// the total bytes consumed.
func parseFrame(data []byte) ([]byte, int, error) {
	if len(data) < 6 {
		return nil, 0, errIncompleteFrame
	}
	if data[0] != ctrlStartCode1 || data[1] != ctrlStartCode2 {
		return nil, 0, errors.New("invalid start code")
	}

	frameLen := int(data[2])
	if (byte(frameLen)+data[3])&0xFF != 0 {
		return nil, 0, errors.New("length checksum error")
	}
	if frameLen == 0 {
		return nil, 0, errors.New("empty frame body")
	}

	totalLen := 4 + frameLen + 2
	if len(data) < totalLen {
		return nil, 0, errIncompleteFrame
	}

	body := data[4 : 4+frameLen]
	var sum byte
	for _, b := range body {
		sum += b
	}
	if sum+data[4+frameLen] != 0 {
		return nil, 0, errors.New("data checksum error")
	}
	if body[0] != tfiHostToController {
		return nil, 0, fmt.Errorf("unexpected frame identifier 0x%02X", body[0])
	}

	return body, totalLen, nil
}

// dispatch acknowledges one command frame and queues its response.
// body holds TFI, command code, parameters.
func (v *VirtualController) dispatch(body []byte) {
	if len(body) < 2 {
		v.queueErrorFrame()
		return
	}

	if v.dropNextACK {
		v.dropNextACK = false
	} else {
		v.txBuffer.Write(ACKFrame)
	}

	cmd := body[1]
	params := body[2:]

	switch cmd {
	case cmdGetFirmwareVersion:
		v.queueResponse(cmd, v.firmware[:])
	case cmdSAMConfiguration:
		v.samConfigured = true
		v.queueResponse(cmd, nil)
	case cmdInListPassiveTarget:
		v.queueResponse(cmd, v.scanResult())
	case cmdInRelease:
		v.armed = false
		v.activated = false
		v.queueResponse(cmd, []byte{statusOK})
	case cmdTgInitAsTarget:
		v.handleArm(params)
	case cmdTgGetData:
		v.queueResponse(cmd, v.nextReaderFrame())
	case cmdTgResponseToInit:
		v.replies = append(v.replies, append([]byte(nil), params...))
		status := v.replyStatus
		v.replyStatus = statusOK
		v.queueResponse(cmd, []byte{status})
	default:
		v.queueErrorFrame()
	}
}

// handleArm records the arming parameters. The real controller answers
// TgInitAsTarget only once an initiator selects it, so with no reader
// traffic queued the command stays unanswered and the host times out.
func (v *VirtualController) handleArm(params []byte) {
	v.armParams = append([]byte(nil), params...)
	v.armed = true
	v.activated = false

	if len(v.readerFrames) == 0 {
		return
	}
	first := v.popReaderFrame()
	v.activated = true
	v.queueResponse(cmdTgInitAsTarget, append([]byte{activationMode}, first...))
}

// nextReaderFrame builds the TgGetData response body: a status byte
// followed by the reader frame. An exhausted queue reports the release
// code and drops out of target mode, like a reader walking away.
func (v *VirtualController) nextReaderFrame() []byte {
	if !v.activated || len(v.readerFrames) == 0 {
		v.armed = false
		v.activated = false
		return []byte{v.releaseCode}
	}
	return append([]byte{statusOK}, v.popReaderFrame()...)
}

func (v *VirtualController) popReaderFrame() []byte {
	frame := v.readerFrames[0]
	v.readerFrames = v.readerFrames[1:]
	return frame
}

// scanResult builds the InListPassiveTarget response: the number of
// targets found, then per target its number, SENS_RES, SEL_RES,
// identifier length and identifier bytes.
func (v *VirtualController) scanResult() []byte {
	if len(v.scanTargets) == 0 {
		return []byte{0x00}
	}
	tgt := v.scanTargets[0]
	v.scanTargets = v.scanTargets[1:]

	out := []byte{0x01, 0x01, tgt.ATQA[1], tgt.ATQA[0], tgt.SAK, byte(len(tgt.UID))}
	return append(out, tgt.UID...)
}

// queueResponse frames data under the response code for cmd and queues
// it for the host. The clean frame is kept for NACK retransmission
// even when the transmitted copy is corrupted.
func (v *VirtualController) queueResponse(cmd byte, data []byte) {
	body := append([]byte{tfiControllerToHost, cmd + 1}, data...)
	frame := buildFrame(body)
	v.lastResponse = frame

	if v.corruptNextDCS {
		v.corruptNextDCS = false
		sent := append([]byte(nil), frame...)
		sent[len(sent)-2] ^= 0xFF
		v.txBuffer.Write(sent)
		return
	}
	v.txBuffer.Write(frame)
}

// queueErrorFrame queues the fixed syntax error frame. It carries no
// code byte; command status codes travel in response bodies instead.
func (v *VirtualController) queueErrorFrame() {
	frame := []byte{
		ctrlPreamble,
		ctrlStartCode1, ctrlStartCode2,
		0x01, 0xFF,
		tfiError,
		0x81,
		ctrlPostamble,
	}
	v.lastResponse = frame
	v.txBuffer.Write(frame)
}

// buildFrame wraps body (TFI plus payload) in a normal information
// frame with length and data checksums.
func buildFrame(body []byte) []byte {
	frame := make([]byte, 0, len(body)+7)
	frame = append(frame, ctrlPreamble, ctrlStartCode1, ctrlStartCode2)
	frame = append(frame, byte(len(body)), ^byte(len(body))+1)
	frame = append(frame, body...)
	var sum byte
	for _, b := range body {
		sum += b
	}
	frame = append(frame, ^sum+1, ctrlPostamble)
	return frame
}
