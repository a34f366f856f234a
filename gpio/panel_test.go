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

package gpio

import (
	"testing"

	"github.com/ZaparooProject/go-tagemu/standalone"
	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func newTestPanel() (*Panel, [3]*gpiotest.Pin) {
	pins := [3]*gpiotest.Pin{
		{N: "LED1", Num: 10},
		{N: "LED2", Num: 11},
		{N: "LED3", Num: 12},
	}
	return &Panel{scan: pins[0], emulate: pins[1], activity: pins[2]}, pins
}

func TestPanelModeLamps(t *testing.T) {
	t.Parallel()
	panel, pins := newTestPanel()

	panel.Mode(standalone.ModeScanning)
	assert.Equal(t, gpio.High, pins[0].Read())
	assert.Equal(t, gpio.Low, pins[1].Read())

	panel.Mode(standalone.ModeEmulating)
	assert.Equal(t, gpio.Low, pins[0].Read())
	assert.Equal(t, gpio.High, pins[1].Read())
}

func TestPanelActivity(t *testing.T) {
	t.Parallel()
	panel, pins := newTestPanel()

	panel.Activity(true)
	assert.Equal(t, gpio.High, pins[2].Read())
	panel.Activity(false)
	assert.Equal(t, gpio.Low, pins[2].Read())
}

func TestPanelPatternsEndDark(t *testing.T) {
	t.Parallel()
	panel, pins := newTestPanel()

	panel.Found()
	assert.Equal(t, gpio.Low, pins[2].Read())

	panel.Error()
	assert.Equal(t, gpio.Low, pins[2].Read())

	panel.Shutdown()
	for _, pin := range pins {
		assert.Equal(t, gpio.Low, pin.Read())
	}
}

func TestPanelOff(t *testing.T) {
	t.Parallel()
	panel, pins := newTestPanel()

	panel.Mode(standalone.ModeScanning)
	panel.Activity(true)
	panel.Off()
	for _, pin := range pins {
		assert.Equal(t, gpio.Low, pin.Read())
	}
}
