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

package standalone

import (
	"time"

	"github.com/ZaparooProject/go-tagemu"
)

// Config holds standalone loop configuration options.
type Config struct {
	// InitialTarget seeds emulation before any tag has been captured.
	InitialTarget tagemu.Target
	// ButtonPollInterval bounds each operator input wait. The loop
	// stays responsive to hold-to-exit at this granularity even while
	// idle.
	ButtonPollInterval time.Duration
}

// DefaultConfig returns the default standalone loop configuration.
func DefaultConfig() *Config {
	return &Config{
		InitialTarget:      tagemu.DefaultTarget(),
		ButtonPollInterval: time.Second,
	}
}
