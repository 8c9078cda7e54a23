package clientcontrol

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/syncjam/syncjam-go/internal/clockservice"
	"github.com/syncjam/syncjam-go/internal/protocol"
)

type fakeScheduler struct {
	mu      sync.Mutex
	pending []func()
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) CancelTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, f)
	return &fakeTimer{}
}

func (s *fakeScheduler) FireAll() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

type fakeTimer struct{}

func (*fakeTimer) Stop() bool { return true }

type fakePlayer struct {
	mu             sync.Mutex
	loadedID       string
	position       float64
	playing        bool
	rate           float64
	bufferedAhead  float64
	loadCalls      int
	seekCalls      []float64
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{rate: 1.0, bufferedAhead: 10}
}

func (p *fakePlayer) Load(track protocol.Track) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadedID = track.ID
	p.loadCalls++
	return nil
}

func (p *fakePlayer) BufferedAheadSeconds(float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bufferedAhead
}

func (p *fakePlayer) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = seconds
	p.seekCalls = append(p.seekCalls, seconds)
}

func (p *fakePlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

func (p *fakePlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) SetPlaybackRate(rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = rate
}

func (p *fakePlayer) LoadedTrackID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadedID
}

func (p *fakePlayer) getRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

func newTestController(t *testing.T) (*Controller, *fakePlayer, *clockservice.Fake, *fakeScheduler) {
	t.Helper()
	clock := clockservice.NewFake(0)
	player := newFakePlayer()
	sched := &fakeScheduler{}
	tr := NewTransport(Config{ServerAddr: "127.0.0.1:0"})
	c := New(tr, player, clock, WithScheduler(sched))
	return c, player, clock, sched
}

func TestHandleSynchronizedPlayComputesAdjustedTime(t *testing.T) {
	c, player, clock, _ := newTestController(t)
	c.epoch = 1
	clock.Set(1000)

	c.handleSynchronizedPlay(protocol.SynchronizedPlay{
		StartTime:       10.0,
		ServerTimestamp: 900,
		Epoch:           1,
	})

	// adjustedTime = 10 + (1000-900)/1000 + latency(0)/1000 = 10.1
	if got := player.CurrentTime(); got != 10.1 {
		t.Errorf("CurrentTime() = %v, want 10.1", got)
	}
	if !player.IsPlaying() {
		t.Errorf("expected Play() to have been called")
	}
}

func TestHandleSynchronizedPlayIgnoresStaleEpoch(t *testing.T) {
	c, player, _, _ := newTestController(t)
	c.epoch = 2

	c.handleSynchronizedPlay(protocol.SynchronizedPlay{StartTime: 5, Epoch: 1})

	if player.IsPlaying() {
		t.Errorf("stale-epoch synchronizedPlay should not start playback")
	}
}

func TestHandleSyncTimeBelowThresholdIsNoOp(t *testing.T) {
	c, player, _, _ := newTestController(t)
	c.epoch = 1
	player.Seek(10.0)

	c.handleSyncTime(protocol.SyncTime{CurrentTime: 10.1, Epoch: 1})

	if got := player.getRate(); got != 1.0 {
		t.Errorf("rate changed for sub-threshold drift: %v", got)
	}
}

func TestHandleSyncTimeSoftCorrection(t *testing.T) {
	c, player, clock, sched := newTestController(t)
	c.epoch = 1
	player.Seek(10.0)
	clock.Set(1000)

	c.handleSyncTime(protocol.SyncTime{CurrentTime: 10.5, Epoch: 1}) // drift 0.5, server ahead

	if got := player.getRate(); got != SoftCorrectionRateUp {
		t.Errorf("rate = %v, want %v", got, SoftCorrectionRateUp)
	}

	sched.FireAll() // fires the revert-to-1.0 timer
	if got := player.getRate(); got != 1.0 {
		t.Errorf("rate after revert = %v, want 1.0", got)
	}
}

func TestHandleSyncTimeHardSeek(t *testing.T) {
	c, player, _, _ := newTestController(t)
	c.epoch = 1
	player.Seek(5.0)

	c.handleSyncTime(protocol.SyncTime{CurrentTime: 7.0, Epoch: 1}) // drift 2.0 >= hard

	if got := player.CurrentTime(); got != 7.0 {
		t.Errorf("CurrentTime() = %v, want hard seek to 7.0", got)
	}
	if got := player.getRate(); got != 1.0 {
		t.Errorf("hard seek should not change rate, got %v", got)
	}
}

func TestHandleSyncTimeIgnoredWhileTransitioning(t *testing.T) {
	c, player, _, _ := newTestController(t)
	c.epoch = 1
	c.setTransitioning(true)
	player.Seek(5.0)

	c.handleSyncTime(protocol.SyncTime{CurrentTime: 10.0, Epoch: 1})

	if got := player.CurrentTime(); got != 5.0 {
		t.Errorf("syncTime applied while transitioning: CurrentTime() = %v", got)
	}
}

func TestHandleSyncTimeRespectsCooldown(t *testing.T) {
	c, player, clock, _ := newTestController(t)
	c.epoch = 1
	player.Seek(5.0)
	clock.Set(1000)

	c.handleSyncTime(protocol.SyncTime{CurrentTime: 7.0, Epoch: 1}) // hard seek, sets cooldown
	player.Seek(5.0)                                                 // undo, to detect a second correction

	clock.Advance(500) // still within the 2000ms cooldown
	c.handleSyncTime(protocol.SyncTime{CurrentTime: 7.0, Epoch: 1})

	if got := player.CurrentTime(); got != 5.0 {
		t.Errorf("correction applied within cooldown window: CurrentTime() = %v", got)
	}
}

func TestWaitForPrebufferReturnsImmediatelyWhenBuffered(t *testing.T) {
	c, player, _, _ := newTestController(t)
	player.bufferedAhead = 5.0

	start := time.Now()
	c.waitForPrebuffer(context.Background(), 0)
	if time.Since(start) > time.Second {
		t.Errorf("waitForPrebuffer took too long when already buffered")
	}
}

func TestHandleQueueUpdateSetsTransitionOnIndexChange(t *testing.T) {
	c, _, _, _ := newTestController(t)
	c.handleRoomState(protocol.RoomState{CurrentIndex: 0})

	c.handleQueueUpdate(protocol.RoomState{CurrentIndex: 1})
	if !c.isTransitioning() {
		t.Errorf("expected transitioning=true after currentIndex changed")
	}
}

func TestHandleQueueUpdateNoTransitionWhenIndexUnchanged(t *testing.T) {
	c, _, _, _ := newTestController(t)
	c.handleRoomState(protocol.RoomState{CurrentIndex: 0})

	c.handleQueueUpdate(protocol.RoomState{CurrentIndex: 0})
	if c.isTransitioning() {
		t.Errorf("expected transitioning=false when currentIndex did not change")
	}
}
