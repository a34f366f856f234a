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
	"testing"
	"time"

	tagemu "github.com/ZaparooProject/go-tagemu"
	virt "github.com/ZaparooProject/go-tagemu/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

var errPortClosed = errors.New("port closed")

// mockSerialPort adapts the wire simulator to the serial.Port surface.
type mockSerialPort struct {
	sim         *virt.VirtualController
	readTimeout time.Duration
	closed      bool
}

func (*mockSerialPort) SetMode(_ *serial.Mode) error {
	return nil
}

func (m *mockSerialPort) Read(p []byte) (int, error) {
	if m.closed {
		return 0, errPortClosed
	}
	n, err := m.sim.Read(p)
	if n == 0 && err == nil {
		// Mimic a serial read timing out with nothing on the line.
		time.Sleep(200 * time.Microsecond)
	}
	return n, err
}

func (m *mockSerialPort) Write(p []byte) (int, error) {
	if m.closed {
		return 0, errPortClosed
	}
	return m.sim.Write(p)
}

func (*mockSerialPort) Drain() error {
	return nil
}

func (m *mockSerialPort) ResetInputBuffer() error {
	scratch := make([]byte, 256)
	for {
		n, err := m.sim.Read(scratch)
		if err != nil || n == 0 {
			return nil
		}
	}
}

func (*mockSerialPort) ResetOutputBuffer() error {
	return nil
}

func (*mockSerialPort) SetDTR(_ bool) error {
	return nil
}

func (*mockSerialPort) SetRTS(_ bool) error {
	return nil
}

func (*mockSerialPort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func (m *mockSerialPort) SetReadTimeout(t time.Duration) error {
	m.readTimeout = t
	return nil
}

func (m *mockSerialPort) Close() error {
	m.closed = true
	return nil
}

func (*mockSerialPort) Break(_ time.Duration) error {
	return nil
}

var _ serial.Port = (*mockSerialPort)(nil)

// newTestDevice wires a device straight to the simulator, skipping the
// real port setup in Open.
func newTestDevice(sim *virt.VirtualController) *Device {
	return &Device{
		port:             &mockSerialPort{sim: sim},
		portName:         "mock://controller",
		readTimeout:      time.Millisecond,
		activationWindow: 50 * time.Millisecond,
		receiveWindow:    50 * time.Millisecond,
	}
}

func TestInitControllerConfiguresChip(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)

	require.NoError(t, d.initController(context.Background()))
	assert.True(t, sim.SAMConfigured())

	fw := d.FirmwareVersion()
	require.NotNil(t, fw)
	assert.Equal(t, "PN532 v1.6", fw.String())
	assert.True(t, fw.SupportIso14443A)
}

func TestInitControllerRejectsUnsupportedFirmware(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	sim.SetFirmwareVersion(0x32, 0x01, 0x06, 0x06)
	d := newTestDevice(sim)

	err := d.initController(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot modulate")
	assert.Nil(t, d.FirmwareVersion())
}

func TestDeviceHandlesChunkedReads(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)
	sim.SetReadChunk(3)

	require.NoError(t, d.initController(context.Background()))
	assert.True(t, sim.SAMConfigured())
}

func TestInitEmulationArmsController(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)

	target := tagemu.Target{UID: []byte{0xBF, 0x88, 0x69, 0x3E}}
	responses, err := d.InitEmulation(context.Background(), target)
	require.NoError(t, err)
	require.NotNil(t, responses)
	assert.Equal(t, []byte{0x04, 0x00}, responses.ATQA)

	require.True(t, sim.Armed())
	params := sim.ArmParams()
	require.Len(t, params, 37)
	assert.Equal(t, byte(targetModePassivePICC), params[0])
	assert.Equal(t, []byte{0x04, 0x00}, params[1:3])
	assert.Equal(t, []byte{0x88, 0x69, 0x3E}, params[3:6],
		"last three identifier bytes ride in NFCID1t")
	assert.Equal(t, byte(0x20), params[6])
}

func TestInitEmulationRejectsBadIdentifier(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)

	_, err := d.InitEmulation(context.Background(), tagemu.Target{UID: []byte{0x01, 0x02}})
	require.ErrorIs(t, err, tagemu.ErrInitFailed)
	require.ErrorIs(t, err, tagemu.ErrTargetLength)
	assert.False(t, sim.Armed())
}

func TestReceiveFrameDeliversReaderTraffic(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)
	ctx := context.Background()

	sim.QueueReaderFrame([]byte{0x02, 0x5A, 0x00, 0x01})
	sim.QueueReaderFrame([]byte{0x03, 0xAA, 0xBB})

	_, err := d.InitEmulation(ctx, tagemu.DefaultTarget())
	require.NoError(t, err)

	// First frame rides in with activation.
	got, err := d.ReceiveFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x5A, 0x00, 0x01}, got)

	// Second frame arrives through a data fetch.
	got, err = d.ReceiveFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0xAA, 0xBB}, got)

	// The exhausted queue reads as the reader releasing us.
	_, err = d.ReceiveFrame(ctx)
	require.Error(t, err)
	assert.True(t, tagemu.IsSilence(err))
}

func TestReceiveFrameTimesOutWithoutReader(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)
	ctx := context.Background()

	_, err := d.InitEmulation(ctx, tagemu.DefaultTarget())
	require.NoError(t, err)

	_, err = d.ReceiveFrame(ctx)
	require.ErrorIs(t, err, tagemu.ErrFieldSilence)
}

func TestReceiveFrameContextCancelled(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)

	_, err := d.InitEmulation(context.Background(), tagemu.DefaultTarget())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.ReceiveFrame(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRearmAfterSilentPass(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)
	ctx := context.Background()

	_, err := d.InitEmulation(ctx, tagemu.DefaultTarget())
	require.NoError(t, err)
	_, err = d.ReceiveFrame(ctx)
	require.ErrorIs(t, err, tagemu.ErrFieldSilence)

	// The next pass cancels the stale arming command and re-arms.
	sim.QueueReaderFrame([]byte{0xC2})
	_, err = d.InitEmulation(ctx, tagemu.DefaultTarget())
	require.NoError(t, err)

	got, err := d.ReceiveFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xC2}, got)
}

func TestPrepareAndSendDeliversReply(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)
	ctx := context.Background()

	sim.QueueReaderFrame([]byte{0x02, 0xAA})
	_, err := d.InitEmulation(ctx, tagemu.DefaultTarget())
	require.NoError(t, err)
	_, err = d.ReceiveFrame(ctx)
	require.NoError(t, err)

	reply := []byte{0x02, 0xBB, 0x12, 0x34}
	require.NoError(t, d.PrepareAndSend(reply, 1024))

	replies := sim.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, reply, replies[0])
}

func TestPrepareAndSendRefusesOversizedReply(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)

	err := d.PrepareAndSend([]byte{1, 2, 3, 4, 5}, 4)
	require.ErrorIs(t, err, tagemu.ErrNotRepresentable)
	assert.Empty(t, sim.Replies())
}

func TestPrepareAndSendReportsFieldLoss(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)
	ctx := context.Background()

	sim.QueueReaderFrame([]byte{0x02, 0xAA})
	_, err := d.InitEmulation(ctx, tagemu.DefaultTarget())
	require.NoError(t, err)
	_, err = d.ReceiveFrame(ctx)
	require.NoError(t, err)

	sim.SetReplyStatus(0x29)
	err = d.PrepareAndSend([]byte{0x02, 0xBB}, 0)
	require.Error(t, err)
	assert.True(t, tagemu.IsSilence(err))
}

func TestSelectCapturesTag(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)

	sim.AddScanTarget(virt.ScanTarget{
		UID:  []byte{0x04, 0xA1, 0xB2, 0xC3},
		ATQA: [2]byte{0x04, 0x00},
		SAK:  0x20,
	})

	sel, err := d.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0xA1, 0xB2, 0xC3}, sel.UID)
	assert.Equal(t, [2]byte{0x04, 0x00}, sel.ATQA)
	assert.Equal(t, byte(0x20), sel.SAK)
}

func TestSelectReportsEmptyField(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)

	_, err := d.Select(context.Background())
	require.ErrorIs(t, err, tagemu.ErrNoTarget)
}

func TestResponseRecoversFromCorruptFrame(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	d := newTestDevice(sim)

	sim.AddScanTarget(virt.ScanTarget{
		UID:  []byte{0x04, 0x11, 0x22, 0x33},
		ATQA: [2]byte{0x04, 0x00},
		SAK:  0x00,
	})
	sim.CorruptNextResponse()

	sel, err := d.Select(context.Background())
	require.NoError(t, err, "one NACK retry should recover the frame")
	assert.Equal(t, []byte{0x04, 0x11, 0x22, 0x33}, sel.UID)
}

func TestCloseReleasesPort(t *testing.T) {
	t.Parallel()
	sim := virt.NewVirtualController()
	mock := &mockSerialPort{sim: sim}
	d := &Device{port: mock, portName: "mock://controller"}

	require.NoError(t, d.Close())
	assert.True(t, mock.closed)
}
