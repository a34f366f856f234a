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
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// ResponseTemplate pairs an expected command prefix with the canned reply
// sent when an information block carries that prefix.
type ResponseTemplate struct {
	// Match is compared byte-for-byte against the application payload.
	Match []byte
	// Reply is returned on match, after the echoed block header.
	Reply []byte
}

// ResponseTable is an ordered, immutable set of response templates.
// Templates are tried in order and the first exact prefix match wins;
// there is no best-match scoring.
type ResponseTable struct {
	templates []ResponseTemplate
}

// NewResponseTable builds a table from templates. The slices are copied,
// so the table stays stable even if the caller reuses its buffers.
func NewResponseTable(templates []ResponseTemplate) *ResponseTable {
	copied := make([]ResponseTemplate, len(templates))
	for i, tpl := range templates {
		copied[i] = ResponseTemplate{
			Match: append([]byte(nil), tpl.Match...),
			Reply: append([]byte(nil), tpl.Reply...),
		}
	}
	return &ResponseTable{templates: copied}
}

// Len returns the number of templates in the table.
func (t *ResponseTable) Len() int {
	return len(t.templates)
}

// Match looks up the reply for frame, whose first headerLen bytes are
// reader framing. Templates longer than the remaining payload are skipped
// (a fit guard, not a matching criterion). On a match the result echoes
// the header bytes followed by the template reply; nil means no match and
// the cycle continues without a transmission.
func (t *ResponseTable) Match(frame []byte, headerLen int) []byte {
	if headerLen < 0 || headerLen > len(frame) {
		return nil
	}
	payload := frame[headerLen:]
	for i := range t.templates {
		tpl := &t.templates[i]
		if len(payload) < len(tpl.Match) {
			continue
		}
		if !bytes.Equal(payload[:len(tpl.Match)], tpl.Match) {
			continue
		}
		out := make([]byte, 0, headerLen+len(tpl.Reply))
		out = append(out, frame[:headerLen]...)
		return append(out, tpl.Reply...)
	}
	return nil
}

// DefaultTemplates returns the built-in application session: the
// SELECT/READ BINARY exchange of a contactless payment card captured for
// replay. Table order matches the capture order.
func DefaultTemplates() []ResponseTemplate {
	return []ResponseTemplate{
		{
			Match: []byte{
				0x00,       // CLA
				0xA4,       // INS: select
				0x00,       // P1:  select MF, DF or EF
				0x00,       // P2
				0x02,       // Lc
				0x3F, 0x00, // data: MF
			},
			Reply: []byte{
				0x6F, 0x15, 0x84, 0x0E, 0x31, 0x50, 0x41, 0x59,
				0x2E, 0x53, 0x59, 0x53, 0x2E, 0x44, 0x44, 0x46,
				0x30, 0x31, 0xA5, 0x03, 0x08, 0x01, 0x01, 0x90,
				0x00,
			},
		},
		{
			Match: []byte{
				0x00, // CLA
				0xA4, // INS: select
				0x04, // P1:  select by DF name
				0x00, // P2
				0x0E, // Lc
				0x4E, 0x43, 0x2E, 0x65, 0x43, 0x61, 0x72, 0x64,
				0x2E, 0x44, 0x44, 0x46, 0x30, 0x31, // data: NC.eCard.DDF01
			},
			Reply: []byte{
				0x6F, 0x37, 0x84, 0x0E, 0x4E, 0x43, 0x2E, 0x65,
				0x43, 0x61, 0x72, 0x64, 0x2E, 0x44, 0x44, 0x46,
				0x30, 0x31, 0xA5, 0x25, 0x9F, 0x08, 0x01, 0x02,
				0x9F, 0x0C, 0x1E, 0x6E, 0x65, 0x77, 0x63, 0x61,
				0x70, 0x65, 0x63, 0x00, 0x05, 0xAA, 0x00, 0x00,
				0x01, 0x88, 0x0A, 0x10, 0x00, 0x1A, 0x34, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF8,
				0x6A, 0x90, 0x00,
			},
		},
		{
			Match: []byte{
				0x00, // CLA
				0xB0, // INS: read binary
				0x95, // P1
				0x00, // P2
				0x1E, // Le
			},
			Reply: []byte{
				0x6E, 0x65, 0x77, 0x63, 0x61, 0x70, 0x65, 0x63,
				0x00, 0x05, 0xAA, 0x00, 0x00, 0x01, 0x88, 0x0A,
				0x10, 0x00, 0x1A, 0x34, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0xF8, 0x6F, 0x90, 0x00,
			},
		},
	}
}

// ParseTemplates reads an ordered template list from text. Each line is
// "<hex prefix> => <hex reply>"; hex digits may be spaced in pairs. Blank
// lines and lines starting with '#' are ignored. Line order is match
// order.
func ParseTemplates(r io.Reader) ([]ResponseTemplate, error) {
	var templates []ResponseTemplate
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		match, reply, found := strings.Cut(line, "=>")
		if !found {
			return nil, fmt.Errorf("templates line %d: missing \"=>\": %w", lineNo, ErrInvalidParameter)
		}
		matchBytes, err := parseHexField(match)
		if err != nil {
			return nil, fmt.Errorf("templates line %d: prefix: %w", lineNo, err)
		}
		replyBytes, err := parseHexField(reply)
		if err != nil {
			return nil, fmt.Errorf("templates line %d: reply: %w", lineNo, err)
		}
		templates = append(templates, ResponseTemplate{Match: matchBytes, Reply: replyBytes})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return templates, nil
}

func parseHexField(field string) ([]byte, error) {
	compact := strings.Join(strings.Fields(field), "")
	if compact == "" {
		return nil, fmt.Errorf("empty hex field: %w", ErrInvalidParameter)
	}
	data, err := hex.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("bad hex %q: %w", field, err)
	}
	return data, nil
}
