// ABOUTME: Monotonic millisecond clock used everywhere the coordinator stamps or compares time
// ABOUTME: Real and fake implementations so tests never touch the wall clock
package clockservice

import (
	"sync"
	"time"
)

// Clock is the single source of wall-clock milliseconds for the coordinator,
// the sync ticker and the session registry. It is an injected interface
// rather than a direct time.Now() call so tests can drive it
// deterministically.
type Clock interface {
	NowMillis() int64
}

// Real is a Clock backed by the process's monotonic clock.
type Real struct {
	start time.Time
}

// NewReal returns a Clock reading Unix milliseconds: the wall-clock time at
// creation, advanced by the monotonic clock from then on.
func NewReal() *Real {
	return &Real{start: time.Now()}
}

func (r *Real) NowMillis() int64 {
	return r.start.UnixMilli() + time.Since(r.start).Milliseconds()
}

// Fake is a manually-advanced Clock for deterministic tests.
type Fake struct {
	mu  sync.Mutex
	now int64
}

// NewFake creates a Fake clock starting at the given millisecond value.
func NewFake(startMillis int64) *Fake {
	return &Fake{now: startMillis}
}

func (f *Fake) NowMillis() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake clock forward by the given number of milliseconds
// and returns the new value.
func (f *Fake) Advance(deltaMillis int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now += deltaMillis
	return f.now
}

// Set pins the fake clock to an exact value.
func (f *Fake) Set(millis int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = millis
}
