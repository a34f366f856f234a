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
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// RetryConfig configures retry behavior for controller operations that
// fail transiently, such as bring-up over a freshly opened serial port.
type RetryConfig struct {
	// MaxAttempts caps the number of tries (0 means a single attempt)
	MaxAttempts int
	// InitialBackoff is the delay after the first failure
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts
	MaxBackoff time.Duration
	// BackoffMultiplier grows the delay after each failure
	BackoffMultiplier float64
	// Jitter adds randomness to backoff to avoid lockstep retries
	Jitter float64
	// RetryTimeout bounds the whole retry sequence (0 means unbounded)
	RetryTimeout time.Duration
}

// DefaultRetryConfig returns the settings used when the caller passes
// a nil config.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        1 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		RetryTimeout:      5 * time.Second,
	}
}

// RetryableFunc is the operation handed to RetryWithConfig.
type RetryableFunc func() error

// RetryWithConfig runs retryFunc, retrying transient failures with
// exponential backoff. Errors that IsRetryable rejects abort
// immediately; the config's RetryTimeout bounds the whole sequence.
func RetryWithConfig(ctx context.Context, config *RetryConfig, retryFunc RetryableFunc) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxAttempts <= 0 {
		return retryFunc()
	}
	if config.RetryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.RetryTimeout)
		defer cancel()
	}

	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return lastErr
			}
			return fmt.Errorf("retry context cancelled: %w", ctx.Err())
		default:
		}

		err := retryFunc()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == config.MaxAttempts {
			break
		}
		if sleepWithContext(ctx, jitteredSleep(backoff, config.Jitter)) != nil {
			// Interrupted mid-backoff; the attempt error is
			// more useful than the context error.
			break
		}
		backoff = nextBackoff(backoff, config)
	}

	return lastErr
}

func nextBackoff(backoff time.Duration, config *RetryConfig) time.Duration {
	next := time.Duration(float64(backoff) * config.BackoffMultiplier)
	if next > config.MaxBackoff {
		return config.MaxBackoff
	}
	return next
}

// jitteredSleep stretches the base delay by up to Jitter of itself,
// drawn from crypto/rand so parallel units do not sync up.
func jitteredSleep(baseSleep time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return baseSleep
	}
	var raw [8]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return baseSleep
	}
	fraction := float64(binary.LittleEndian.Uint64(raw[:])) / float64(1<<64)
	return baseSleep + time.Duration(fraction*jitterFactor*float64(baseSleep))
}
