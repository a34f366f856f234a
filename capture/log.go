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

package capture

import (
	"fmt"

	"github.com/ZaparooProject/go-tagemu"
	"github.com/ZaparooProject/go-tagemu/internal/syncutil"
)

// DefaultLogName is the capture file used when no name is configured.
const DefaultLogName = "tagemu_targets.log"

// Log records captured target identities, one line per capture. The
// first record after startup creates the file unless it already exists;
// every later record appends.
type Log struct {
	store   Store
	name    string
	present bool
	mu      syncutil.Mutex
}

// NewLog creates a capture log writing to the named file in store.
func NewLog(store Store, name string) *Log {
	if name == "" {
		name = DefaultLogName
	}
	return &Log{
		store:   store,
		name:    name,
		present: store.Exists(name),
	}
}

// Record persists one captured target.
func (l *Log) Record(sel *tagemu.SelectedTarget) error {
	if sel == nil {
		return fmt.Errorf("%w: nil capture", tagemu.ErrInvalidParameter)
	}
	line := []byte(sel.String() + "\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.present {
		if err := l.store.Write(l.name, line); err != nil {
			return err
		}
		l.present = true
		return nil
	}
	return l.store.Append(l.name, line)
}
