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
	"fmt"
	"os"
	"time"
)

// debugEnabled gates the console copy of debug output. The session log,
// when one is open, receives every line regardless.
var debugEnabled = false

func init() {
	if os.Getenv("TAGEMU_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		debugEnabled = true
	}
}

// emitDebug fans a debug line out to the session log (always, with a
// timestamp) and to the console (only when debug mode is on).
func emitDebug(message string) {
	if sessionLogWriter != nil {
		stamp := time.Now().Format("15:04:05.000")
		_, _ = fmt.Fprintf(sessionLogWriter, "%s DEBUG: %s\n", stamp, message)
	}
	if debugEnabled {
		_, _ = fmt.Printf("DEBUG: %s\n", message)
	}
}

// Debugf logs printf-style debug output.
func Debugf(format string, args ...any) {
	emitDebug(fmt.Sprintf(format, args...))
}

// Debugln logs its arguments in the manner of fmt.Sprint.
func Debugln(args ...any) {
	emitDebug(fmt.Sprint(args...))
}

// DebugHex logs a labeled frame with its full byte content. Unknown
// reader commands are logged through this so captures stay diagnosable;
// nothing is truncated.
func DebugHex(label string, data []byte) {
	if len(data) == 0 {
		Debugf("%s: (empty)", label)
		return
	}
	buf := make([]byte, 0, len(data)*3)
	for i, b := range data {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	Debugf("%s (%d bytes): %s", label, len(data), buf)
}

const hexDigits = "0123456789ABCDEF"

// SetDebugEnabled switches console debug output on or off at runtime,
// overriding whatever the environment selected at startup.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}
