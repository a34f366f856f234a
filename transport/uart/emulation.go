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

package uart

import (
	"context"
	"errors"
	"fmt"
	"time"

	tagemu "github.com/ZaparooProject/go-tagemu"
)

// targetModePassivePICC arms the controller as a passive ISO/IEC
// 14443-4 card only, never as a peer-to-peer target.
const targetModePassivePICC = 0x05

// InitEmulation implements tagemu.Field. It arms the controller to
// impersonate target and returns the precomputed activation replies.
// The hardware answers the activation primitives itself and presents
// a fixed 0x08 cascade byte on the air, so only the last three
// identifier bytes are controllable on this chip.
func (d *Device) InitEmulation(_ context.Context, target tagemu.Target) (*tagemu.StandardResponses, error) {
	responses, err := tagemu.BuildStandardResponses(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tagemu.ErrInitFailed, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// A pass that aborted while armed leaves the arming command
	// pending. An ACK cancels it; stale response bytes get flushed.
	if d.awaitingActivation {
		if err := d.sendAck(); err != nil {
			return nil, fmt.Errorf("%w: %w", tagemu.ErrInitFailed, err)
		}
		d.awaitingActivation = false
	}
	if err := d.port.ResetInputBuffer(); err != nil {
		tagemu.Debugf("input flush before arming: %v", err)
	}

	if err := d.send(cmdTgInitAsTarget, targetArgs(target)); err != nil {
		return nil, fmt.Errorf("%w: %w", tagemu.ErrInitFailed, err)
	}
	d.awaitingActivation = true
	return responses, nil
}

// ReceiveFrame implements tagemu.Transport. The first call after
// arming waits for a reader to activate the emulated tag; later calls
// fetch the next reader frame. Reader absence, release or field loss
// surfaces as an error satisfying tagemu.IsSilence.
func (d *Device) ReceiveFrame(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.awaitingActivation {
		resp, err := d.response(ctx, cmdTgInitAsTarget, d.activationWindow)
		if err != nil {
			if errors.Is(err, tagemu.ErrTransportTimeout) {
				return nil, fmt.Errorf("no reader within %v: %w",
					d.activationWindow, tagemu.ErrFieldSilence)
			}
			return nil, err
		}
		d.awaitingActivation = false

		// Mode byte, then the initiator command that completed
		// activation. Activation without a command falls through to a
		// normal fetch.
		if len(resp) > 1 {
			return resp[1:], nil
		}
	}

	resp, err := d.roundTrip(ctx, cmdTgGetData, nil)
	if err != nil {
		if errors.Is(err, tagemu.ErrTransportTimeout) {
			return nil, fmt.Errorf("reader went quiet: %w", tagemu.ErrFieldSilence)
		}
		return nil, err
	}
	if len(resp) == 0 {
		return nil, tagemu.NewInvalidResponseError("TgGetData", d.portName)
	}
	if resp[0] != statusOK {
		return nil, tagemu.NewControllerError("TgGetData", resp[0])
	}
	return resp[1:], nil
}

// PrepareAndSend implements tagemu.Transport. The controller modulates
// the reply as-is; replies the radio cannot carry are refused before
// anything is written.
func (d *Device) PrepareAndSend(data []byte, maxLen int) error {
	if maxLen > 0 && len(data) > maxLen {
		return fmt.Errorf("reply of %d bytes exceeds %d: %w",
			len(data), maxLen, tagemu.ErrNotRepresentable)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	resp, err := d.roundTrip(context.Background(), cmdTgResponseToInit, data)
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		return tagemu.NewInvalidResponseError("TgResponseToInitiator", d.portName)
	}
	if resp[0] != statusOK {
		return tagemu.NewControllerError("TgResponseToInitiator", resp[0])
	}
	return nil
}

// Select implements tagemu.Field. It runs one passive scan round for
// a 106 kbps Type A tag, releases whatever it finds and reports the
// captured identity.
func (d *Device) Select(ctx context.Context) (*tagemu.SelectedTarget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp, err := d.roundTrip(ctx, cmdInListPassiveTarget, []byte{0x01, 0x00})
	if err != nil {
		// Some firmware stays quiet instead of reporting zero targets.
		if errors.Is(err, tagemu.ErrTransportTimeout) {
			return nil, tagemu.ErrNoTarget
		}
		return nil, err
	}

	sel, err := d.parseScanResult(resp)
	if err != nil {
		return nil, err
	}
	if sel == nil {
		return nil, tagemu.ErrNoTarget
	}

	// Drop the field so the tag deselects cleanly. Best effort: the
	// identity is already captured.
	if _, err := d.roundTrip(ctx, cmdInRelease, []byte{0x01}); err != nil {
		tagemu.Debugf("release after scan: %v", err)
	}
	return sel, nil
}

// parseScanResult decodes an InListPassiveTarget reply: target count,
// then per target its number, SENS_RES (most significant byte first),
// SEL_RES, identifier length and identifier. A nil result means no
// target answered.
func (d *Device) parseScanResult(resp []byte) (*tagemu.SelectedTarget, error) {
	if len(resp) == 0 || resp[0] == 0 {
		return nil, nil
	}
	if len(resp) < 6 {
		return nil, tagemu.NewInvalidResponseError("InListPassiveTarget", d.portName)
	}
	uidLen := int(resp[5])
	if uidLen == 0 || len(resp) < 6+uidLen {
		return nil, tagemu.NewInvalidResponseError("InListPassiveTarget", d.portName)
	}

	return &tagemu.SelectedTarget{
		UID:  append([]byte(nil), resp[6:6+uidLen]...),
		ATQA: [2]byte{resp[3], resp[2]},
		SAK:  resp[4],
	}, nil
}

// targetArgs builds the TgInitAsTarget parameter block: mode, Type A
// activation data, FeliCa activation data, NFCID3t, then zero-length
// general and historical byte sections.
func targetArgs(target tagemu.Target) []byte {
	args := make([]byte, 0, 37)
	args = append(args, targetModePassivePICC)
	args = append(args, 0x04, 0x00)                                  // SENS_RES
	args = append(args, target.UID[1], target.UID[2], target.UID[3]) // NFCID1t
	args = append(args, 0x20)                                        // SEL_RES
	args = append(args, make([]byte, 18)...)                         // FeliCa params, unused
	args = append(args, make([]byte, 10)...)                         // NFCID3t, unused
	args = append(args, 0x00, 0x00)                                  // no general or historical bytes
	return args
}

// ActivationWindow reports the configured reader activation wait.
func (d *Device) ActivationWindow() time.Duration {
	return d.activationWindow
}

var (
	_ tagemu.Transport = (*Device)(nil)
	_ tagemu.Field     = (*Device)(nil)
)
