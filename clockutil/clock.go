// Package clockutil provides the node's notion of "now" for debounce
// timers, adapted from the mesh node's monotonic clock so that tests can
// substitute a deterministic time source.
package clockutil

import (
	"sync"
	"time"
)

// Clock reports the current time in milliseconds. The zero value is not
// usable; construct one with New or NewWithFunc.
type Clock struct {
	mu    sync.Mutex
	nowFn func() int64
}

// New returns a Clock backed by the real wall clock.
func New() *Clock {
	return &Clock{nowFn: func() int64 {
		return time.Now().UnixMilli()
	}}
}

// NewWithFunc returns a Clock backed by fn, for deterministic tests.
func NewWithFunc(fn func() int64) *Clock {
	return &Clock{nowFn: fn}
}

// NowMillis returns the current time in milliseconds.
func (c *Clock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowFn()
}

// SetFunc swaps the time source, used by tests to advance time explicitly.
func (c *Clock) SetFunc(fn func() int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowFn = fn
}
