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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseTableMatchEchoesHeader(t *testing.T) {
	t.Parallel()

	table := NewResponseTable([]ResponseTemplate{
		{Match: []byte{0x00, 0xA4}, Reply: []byte{0x90, 0x00}},
	})

	// Single header byte (I-block without CID).
	frame := []byte{0x02, 0x00, 0xA4, 0x00, 0x00}
	got := table.Match(frame, 1)
	assert.Equal(t, []byte{0x02, 0x90, 0x00}, got)

	// Two header bytes (I-block with CID) echo both.
	frame = []byte{0x0A, 0x01, 0x00, 0xA4, 0x00, 0x00}
	got = table.Match(frame, 2)
	assert.Equal(t, []byte{0x0A, 0x01, 0x90, 0x00}, got)
}

func TestResponseTableFirstMatchWins(t *testing.T) {
	t.Parallel()

	table := NewResponseTable([]ResponseTemplate{
		{Match: []byte{0x00, 0xA4}, Reply: []byte{0x01}},
		{Match: []byte{0x00, 0xA4, 0x04}, Reply: []byte{0x02}},
	})

	// Both templates prefix-match; table order decides, not length.
	got := table.Match([]byte{0x02, 0x00, 0xA4, 0x04, 0x00}, 1)
	assert.Equal(t, []byte{0x02, 0x01}, got, "first defined template must win")
}

func TestResponseTableFitGuard(t *testing.T) {
	t.Parallel()

	table := NewResponseTable([]ResponseTemplate{
		{Match: []byte{0x00, 0xA4, 0x00, 0x00, 0x02, 0x3F, 0x00}, Reply: []byte{0x01}},
		{Match: []byte{0x00}, Reply: []byte{0x02}},
	})

	// Payload shorter than the first template: the template is skipped,
	// not partially compared, and the next one still gets its turn.
	got := table.Match([]byte{0x02, 0x00, 0xA4}, 1)
	assert.Equal(t, []byte{0x02, 0x02}, got)
}

func TestResponseTableNoMatch(t *testing.T) {
	t.Parallel()

	table := NewResponseTable(DefaultTemplates())

	assert.Nil(t, table.Match([]byte{0x02, 0xFF, 0xFF}, 1))
	assert.Nil(t, table.Match([]byte{0x02}, 1), "empty payload matches nothing")
	assert.Nil(t, table.Match([]byte{0x02, 0x00}, 5), "header beyond frame length")
	assert.Nil(t, table.Match([]byte{0x02, 0x00}, -1), "negative header offset")
}

func TestResponseTableCopiesTemplates(t *testing.T) {
	t.Parallel()

	match := []byte{0x00, 0xB0}
	reply := []byte{0x6E, 0x90, 0x00}
	table := NewResponseTable([]ResponseTemplate{{Match: match, Reply: reply}})

	// Mutating the caller's slices must not affect the table.
	match[1] = 0xFF
	reply[0] = 0xFF

	got := table.Match([]byte{0x02, 0x00, 0xB0}, 1)
	require.NotNil(t, got, "table should still match the original prefix")
	assert.Equal(t, []byte{0x02, 0x6E, 0x90, 0x00}, got)
}

func TestDefaultTemplates(t *testing.T) {
	t.Parallel()

	templates := DefaultTemplates()
	require.Len(t, templates, 3)

	table := NewResponseTable(templates)

	// SELECT MF replay, header echoed.
	frame := append([]byte{0x02}, templates[0].Match...)
	got := table.Match(frame, 1)
	require.NotNil(t, got)
	assert.Equal(t, byte(0x02), got[0])
	assert.Equal(t, templates[0].Reply, got[1:])
	assert.Equal(t, []byte{0x90, 0x00}, got[len(got)-2:], "status word terminates the reply")

	// READ BINARY replay.
	frame = append([]byte{0x03}, templates[2].Match...)
	got = table.Match(frame, 1)
	require.NotNil(t, got)
	assert.Len(t, got, 1+len(templates[2].Reply))
}

func TestParseTemplates(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"# replayed session",
		"",
		"00A40000023F00 => 6F158090 00",
		"00 B0 95 00 1E => 6E 90 00",
	}, "\n")

	templates, err := ParseTemplates(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, templates, 2)

	assert.Equal(t, []byte{0x00, 0xA4, 0x00, 0x00, 0x02, 0x3F, 0x00}, templates[0].Match)
	assert.Equal(t, []byte{0x6F, 0x15, 0x80, 0x90, 0x00}, templates[0].Reply)
	assert.Equal(t, []byte{0x00, 0xB0, 0x95, 0x00, 0x1E}, templates[1].Match)
	assert.Equal(t, []byte{0x6E, 0x90, 0x00}, templates[1].Reply)
}

func TestParseTemplatesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "missing separator", input: "00A4 90 00"},
		{name: "odd hex digits", input: "00A => 9000"},
		{name: "non-hex characters", input: "00AZ => 9000"},
		{name: "empty prefix", input: " => 9000"},
		{name: "empty reply", input: "00A4 => "},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseTemplates(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
