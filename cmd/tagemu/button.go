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

package main

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/ZaparooProject/go-tagemu/standalone"
)

// stdinButton maps terminal lines to operator button events when no
// GPIO pin is wired: an empty line clicks, "q" or "quit" holds.
type stdinButton struct {
	events chan standalone.ButtonEvent
}

func newStdinButton(input io.Reader) *stdinButton {
	button := &stdinButton{events: make(chan standalone.ButtonEvent, 4)}
	go button.readLines(input)
	return button
}

func (b *stdinButton) readLines(input io.Reader) {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
			b.events <- standalone.ButtonClick
		case "q", "quit", "exit":
			b.events <- standalone.ButtonHold
			return
		}
	}
}

// Poll implements standalone.Button.
func (b *stdinButton) Poll(ctx context.Context, wait time.Duration) (standalone.ButtonEvent, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return standalone.ButtonNone, ctx.Err()
	case event := <-b.events:
		return event, nil
	case <-timer.C:
		return standalone.ButtonNone, nil
	}
}

var _ standalone.Button = (*stdinButton)(nil)
