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

// Package capture persists the identities of tags found while scanning.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is the flat-file backend a capture log writes through.
type Store interface {
	// Exists reports whether the named file is already present.
	Exists(name string) bool
	// Write creates or truncates the named file with data.
	Write(name string, data []byte) error
	// Append adds data to the end of the named file.
	Append(name string, data []byte) error
}

// DirStore keeps capture files in a single directory.
type DirStore struct {
	dir string
}

// NewDirStore creates the directory if needed and returns a store over
// it.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create capture directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Exists implements Store.
func (s *DirStore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}

// Write implements Store.
func (s *DirStore) Write(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o600); err != nil {
		return fmt.Errorf("write capture file: %w", err)
	}
	return nil
}

// Append implements Store.
func (s *DirStore) Append(name string, data []byte) error {
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open capture file: %w", err)
	}
	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("append capture file: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close capture file: %w", closeErr)
	}
	return nil
}
