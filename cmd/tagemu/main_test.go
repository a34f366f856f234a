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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tagemu "github.com/ZaparooProject/go-tagemu"
	"github.com/ZaparooProject/go-tagemu/standalone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLampPins(t *testing.T) {
	t.Parallel()

	t.Run("three names", func(t *testing.T) {
		t.Parallel()
		scanPin, emulatePin, activityPin, err := parseLampPins("GPIO5,GPIO6,GPIO13")
		require.NoError(t, err)
		assert.Equal(t, "GPIO5", scanPin)
		assert.Equal(t, "GPIO6", emulatePin)
		assert.Equal(t, "GPIO13", activityPin)
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		t.Parallel()
		scanPin, emulatePin, activityPin, err := parseLampPins(" GPIO5 , GPIO6 , GPIO13 ")
		require.NoError(t, err)
		assert.Equal(t, "GPIO5", scanPin)
		assert.Equal(t, "GPIO6", emulatePin)
		assert.Equal(t, "GPIO13", activityPin)
	})

	t.Run("wrong count", func(t *testing.T) {
		t.Parallel()
		_, _, _, err := parseLampPins("GPIO5,GPIO6")
		require.Error(t, err)
	})
}

func TestLoadTemplatesBuiltIn(t *testing.T) {
	t.Parallel()
	templates, err := loadTemplates("")
	require.NoError(t, err)
	assert.Len(t, templates, len(tagemu.DefaultTemplates()))
}

func TestLoadTemplatesFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "session.tpl")
	content := "# replayed session\n" +
		"00a4 0000 => 9000\n" +
		"\n" +
		"00b09500 => 6a82\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	templates, err := loadTemplates(path)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, []byte{0x00, 0xA4, 0x00, 0x00}, templates[0].Match)
	assert.Equal(t, []byte{0x90, 0x00}, templates[0].Reply)
	assert.Equal(t, []byte{0x00, 0xB0, 0x95, 0x00}, templates[1].Match)
	assert.Equal(t, []byte{0x6A, 0x82}, templates[1].Reply)
}

func TestLoadTemplatesMissingFile(t *testing.T) {
	t.Parallel()
	_, err := loadTemplates(filepath.Join(t.TempDir(), "absent.tpl"))
	require.Error(t, err)
}

func TestLoadTemplatesBadHex(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "session.tpl")
	require.NoError(t, os.WriteFile(path, []byte("zz => 9000\n"), 0o600))

	_, err := loadTemplates(path)
	require.Error(t, err)
}

func TestStdinButtonEvents(t *testing.T) {
	t.Parallel()
	button := newStdinButton(strings.NewReader("\nq\n"))
	ctx := context.Background()

	event, err := button.Poll(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, standalone.ButtonClick, event)

	event, err = button.Poll(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, standalone.ButtonHold, event)
}

func TestStdinButtonNoInput(t *testing.T) {
	t.Parallel()
	button := newStdinButton(strings.NewReader(""))

	event, err := button.Poll(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, standalone.ButtonNone, event)
}

func TestStdinButtonCancelled(t *testing.T) {
	t.Parallel()
	button := newStdinButton(strings.NewReader(""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := button.Poll(ctx, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}
