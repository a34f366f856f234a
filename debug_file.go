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
	"io"
	"os"
	"runtime"
	"strings"
	"time"
)

// The session log mirrors everything Debugf prints so a failed field
// session can be reconstructed after the fact. One log per process run.
var (
	sessionFile      *os.File
	sessionPath      string
	sessionLogWriter io.Writer
)

// InitSessionLog opens a timestamped log file in the working directory
// and points debug output at it. The returned path is relative.
func InitSessionLog() (string, error) {
	name := "tagemu_" + time.Now().Format("20060102_150405") + ".log"

	file, err := os.Create(name) //nolint:gosec // name is built from the clock, not input
	if err != nil {
		return "", fmt.Errorf("failed to create session log: %w", err)
	}

	sessionFile = file
	sessionPath = name
	sessionLogWriter = file
	writeSessionHeader(file)

	return name, nil
}

// CloseSessionLog stamps a footer and closes the log. Safe to call when
// no session log is open.
func CloseSessionLog() error {
	if sessionFile == nil {
		return nil
	}

	stamp := time.Now().Format("15:04:05.000")
	_, _ = fmt.Fprintf(sessionLogWriter, "\n%s === Session ended ===\n", stamp)

	err := sessionFile.Close()
	sessionFile = nil
	sessionPath = ""
	sessionLogWriter = nil
	if err != nil {
		return fmt.Errorf("failed to close session log: %w", err)
	}
	return nil
}

// GetSessionLogPath returns the path of the open session log, or an
// empty string when none is open.
func GetSessionLogPath() string {
	return sessionPath
}

// writeSessionHeader records enough about the process to interpret the
// log without the terminal scrollback.
func writeSessionHeader(w io.Writer) {
	_, _ = fmt.Fprintln(w, "=== Tag Emulator Debug Session Log ===")
	_, _ = fmt.Fprintln(w, "Started:", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintln(w, "PID:", os.Getpid())
	_, _ = fmt.Fprintf(w, "OS: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintln(w, "Go Version:", runtime.Version())
	if exe, err := os.Executable(); err == nil {
		_, _ = fmt.Fprintln(w, "Executable:", exe)
	}
	_, _ = fmt.Fprintln(w, "Command Line:", strings.Join(os.Args, " "))
	_, _ = fmt.Fprintln(w, strings.Repeat("=", 38))
	_, _ = fmt.Fprintln(w)
}
