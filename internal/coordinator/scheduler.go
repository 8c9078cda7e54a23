// ABOUTME: Pluggable delayed-execution used by the ready-timeout and navigation-delay timers
// ABOUTME: Real scheduler wraps time.AfterFunc; FakeScheduler lets tests fire delays deterministically
package coordinator

import (
	"sync"
	"time"
)

// CancelTimer is the subset of time.Timer the coordinator needs.
type CancelTimer interface {
	Stop() bool
}

// Scheduler abstracts time.AfterFunc so tests can avoid real sleeps while
// still exercising the ready-timeout (10s) and navigation-delay (500ms)
// logic, the same way clockservice.Clock lets tests avoid real wall time
// for timestamp comparisons.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) CancelTimer
}

// realScheduler is the production Scheduler, a thin wrapper over
// time.AfterFunc.
type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) CancelTimer {
	return time.AfterFunc(d, f)
}

var defaultScheduler Scheduler = realScheduler{}

// WithScheduler overrides the coordinator's Scheduler, used by tests to
// inject a FakeScheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.scheduler = s }
}

// pendingCall is one armed-but-not-yet-fired or cancelled delayed call.
type pendingCall struct {
	due   time.Duration
	fn    func()
	fired bool
	stop  bool
}

func (p *pendingCall) Stop() bool {
	already := p.fired || p.stop
	p.stop = true
	return !already
}

// FakeScheduler records every AfterFunc call instead of scheduling it for
// real, letting a test fire (or skip) each one explicitly. Calls are kept
// in submission order.
type FakeScheduler struct {
	mu      sync.Mutex
	pending []*pendingCall
}

// NewFakeScheduler creates an empty FakeScheduler.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) CancelTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := &pendingCall{due: d, fn: f}
	s.pending = append(s.pending, call)
	return call
}

// FireNext runs the oldest not-yet-fired, not-cancelled call and returns
// true, or returns false if there is none.
func (s *FakeScheduler) FireNext() bool {
	s.mu.Lock()
	var call *pendingCall
	for _, p := range s.pending {
		if !p.fired && !p.stop {
			call = p
			break
		}
	}
	if call != nil {
		call.fired = true
	}
	s.mu.Unlock()

	if call == nil {
		return false
	}
	call.fn()
	return true
}

// Pending reports how many calls are armed and not yet fired or cancelled.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pending {
		if !p.fired && !p.stop {
			n++
		}
	}
	return n
}

// tickerHandle is the minimal surface the sync ticker needs from
// time.Ticker, kept as its own type so it stays independent of exactly how
// the channel is produced.
type tickerHandle struct {
	C    <-chan time.Time
	Stop func()
}

func newTicker(d time.Duration) *tickerHandle {
	t := time.NewTicker(d)
	return &tickerHandle{C: t.C, Stop: t.Stop}
}
