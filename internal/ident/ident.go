// Package ident allocates process-wide unique ids for listeners, layers
// and tiles. It replaces ad-hoc global counters with one allocator that
// tests can reset.
package ident

import "sync/atomic"

var counter atomic.Uint64

// Next returns the next unique id; the first id handed out is 1
func Next() uint64 {
	return counter.Add(1)
}

// Reset rewinds the allocator. Only for tests that assert on concrete id
// values.
func Reset() {
	counter.Store(0)
}
