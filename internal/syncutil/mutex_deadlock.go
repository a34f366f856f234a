//go:build deadlock

// Deadlock-detecting build of the syncutil mutex types.
package syncutil

import "github.com/sasha-s/go-deadlock"

// Mutex is deadlock.Mutex when built with -tags=deadlock.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex is deadlock.RWMutex when built with -tags=deadlock.
type RWMutex struct {
	deadlock.RWMutex
}
