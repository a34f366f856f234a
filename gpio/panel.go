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
	"fmt"
	"time"

	"github.com/ZaparooProject/go-tagemu/standalone"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// blinkInterval paces the flash patterns. Patterns block the caller.
const blinkInterval = 80 * time.Millisecond

// Panel drives three status lamps: one per operating mode and one for
// reader traffic and event flashes.
type Panel struct {
	scan     gpio.PinOut
	emulate  gpio.PinOut
	activity gpio.PinOut
}

// NewPanel opens the three named lamp pins and clears them.
func NewPanel(scanPin, emulatePin, activityPin string) (*Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	panel := &Panel{}
	lamps := []struct {
		target *gpio.PinOut
		name   string
	}{
		{&panel.scan, scanPin},
		{&panel.emulate, emulatePin},
		{&panel.activity, activityPin},
	}
	for _, lamp := range lamps {
		pin := gpioreg.ByName(lamp.name)
		if pin == nil {
			return nil, fmt.Errorf("no GPIO pin named %q", lamp.name)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("failed to configure pin %s: %w", pin, err)
		}
		*lamp.target = pin
	}
	return panel, nil
}

// Mode implements standalone.Indicators.
func (p *Panel) Mode(m standalone.Mode) {
	_ = p.scan.Out(level(m == standalone.ModeScanning))
	_ = p.emulate.Out(level(m == standalone.ModeEmulating))
}

// Activity implements standalone.Indicators.
func (p *Panel) Activity(active bool) {
	_ = p.activity.Out(level(active))
}

// Found implements standalone.Indicators. Three quick flashes on the
// activity lamp acknowledge a captured tag.
func (p *Panel) Found() {
	p.blink(p.activity, 3)
}

// Error implements standalone.Indicators. One long flash on the
// activity lamp signals a failed scan.
func (p *Panel) Error() {
	_ = p.activity.Out(gpio.High)
	time.Sleep(3 * blinkInterval)
	_ = p.activity.Out(gpio.Low)
}

// Shutdown implements standalone.Indicators. Every lamp lights briefly
// to acknowledge the exit request.
func (p *Panel) Shutdown() {
	for _, lamp := range p.lamps() {
		_ = lamp.Out(gpio.High)
	}
	time.Sleep(4 * blinkInterval)
	p.Off()
}

// Off implements standalone.Indicators.
func (p *Panel) Off() {
	for _, lamp := range p.lamps() {
		_ = lamp.Out(gpio.Low)
	}
}

func (p *Panel) lamps() [3]gpio.PinOut {
	return [3]gpio.PinOut{p.scan, p.emulate, p.activity}
}

func (p *Panel) blink(lamp gpio.PinOut, count int) {
	for i := 0; i < count; i++ {
		_ = lamp.Out(gpio.High)
		time.Sleep(blinkInterval)
		_ = lamp.Out(gpio.Low)
		time.Sleep(blinkInterval)
	}
}

func level(on bool) gpio.Level {
	if on {
		return gpio.High
	}
	return gpio.Low
}

var _ standalone.Indicators = (*Panel)(nil)
