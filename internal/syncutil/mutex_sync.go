//go:build !deadlock

// Package syncutil supplies the mutex types used by stateful parts of
// the emulator. The default build aliases the standard library types;
// compiling with -tags=deadlock swaps in github.com/sasha-s/go-deadlock
// so lock-order violations in the runner and capture paths surface
// during development instead of in the field.
package syncutil

import "sync"

// Mutex is sync.Mutex in the default build.
//
//nolint:gocritic // Intentionally embedding sync.Mutex to expose its interface
type Mutex struct {
	sync.Mutex
}

// RWMutex is sync.RWMutex in the default build.
//
//nolint:gocritic // Intentionally embedding sync.RWMutex to expose its interface
type RWMutex struct {
	sync.RWMutex
}
