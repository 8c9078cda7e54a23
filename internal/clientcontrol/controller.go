// ABOUTME: Client Controller: ping loop, pre-buffer confirmation, bounded drift correction
// ABOUTME: Drives an injected MediaPlayer against an injected Transport
package clientcontrol

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/syncjam/syncjam-go/internal/clockservice"
	"github.com/syncjam/syncjam-go/internal/protocol"
)

// Logger is the minimal logging surface the controller needs.
type Logger interface {
	Printf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Controller runs on each client. It measures latency, pre-buffers ahead of
// synchronized starts, and keeps local playback within the room's drift
// budget by an adaptive soft/hard correction scheme.
type Controller struct {
	transport *Transport
	player    MediaPlayer
	clock     clockservice.Clock
	sync      *ClockSync
	scheduler Scheduler
	log       Logger

	mu                 sync.Mutex
	state              State
	epoch              int64
	transitioning       bool
	transitionTimer     CancelTimer
	lastQueueIndex      int
	haveQueueIndex      bool
	consecutiveResyncs  int
	lastCorrectionAtMs  int64
	haveLastCorrection  bool
	softCorrectionUntil int64
	room                *protocol.RoomState
}

// Scheduler is the same delayed-execution abstraction the coordinator uses,
// letting tests fire timed transitions deterministically instead of
// sleeping in real time.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) CancelTimer
}

// CancelTimer is the subset of time.Timer the controller needs.
type CancelTimer interface {
	Stop() bool
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) CancelTimer {
	return time.AfterFunc(d, f)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a Logger.
func WithLogger(l Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithScheduler overrides the Controller's Scheduler, used by tests.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// New creates a Controller wired to a transport and a local player.
func New(transport *Transport, player MediaPlayer, clock clockservice.Clock, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		player:    player,
		clock:     clock,
		sync:      NewClockSync(),
		scheduler: realScheduler{},
		log:       noopLogger{},
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives the controller's event loop until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	go c.pingLoop(ctx)
	go c.watchdogLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case state := <-c.transport.RoomState:
			c.handleRoomState(state)
		case state := <-c.transport.QueueUpdate:
			c.handleQueueUpdate(state)
		case pu := <-c.transport.PlayerUpdate:
			c.handlePlayerUpdate(pu)
		case pp := <-c.transport.PreparePlayback:
			go c.handlePreparePlayback(ctx, pp)
		case sp := <-c.transport.SynchronizedPlay:
			c.handleSynchronizedPlay(sp)
		case st := <-c.transport.SyncTime:
			c.handleSyncTime(st)
		case pong := <-c.transport.Pong:
			c.handlePong(pong)
		case <-c.transport.ForceReload:
			c.log.Printf("force reload requested")
		}
	}
}

func (c *Controller) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.transport.SendPing(c.clock.NowMillis())
		}
	}
}

func (c *Controller) handlePong(p protocol.Pong) {
	c.sync.ProcessPong(p.ServerTimestamp, p.LatencyMs, c.clock.NowMillis())
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State returns the controller's current client state machine value.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setTransitioning(v bool) {
	c.mu.Lock()
	c.transitioning = v
	if c.transitionTimer != nil {
		c.transitionTimer.Stop()
		c.transitionTimer = nil
	}
	c.mu.Unlock()
}

func (c *Controller) setTransitioningFor(d time.Duration) {
	c.mu.Lock()
	c.transitioning = true
	if c.transitionTimer != nil {
		c.transitionTimer.Stop()
	}
	c.transitionTimer = c.scheduler.AfterFunc(d, func() { c.setTransitioning(false) })
	c.mu.Unlock()
}

func (c *Controller) isTransitioning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitioning
}

func (c *Controller) handleRoomState(state protocol.RoomState) {
	c.mu.Lock()
	c.room = &state
	c.lastQueueIndex = state.CurrentIndex
	c.haveQueueIndex = true
	c.mu.Unlock()
}

// handleQueueUpdate sets a 3-second transition window whenever the current
// track index changes underneath the client, defending against a syncTime
// chasing a target that no longer matches the loaded track.
func (c *Controller) handleQueueUpdate(state protocol.RoomState) {
	c.mu.Lock()
	indexChanged := c.haveQueueIndex && state.CurrentIndex != c.lastQueueIndex
	c.room = &state
	c.lastQueueIndex = state.CurrentIndex
	c.haveQueueIndex = true
	c.mu.Unlock()

	if indexChanged {
		c.setTransitioningFor(QueueChangeTransitionWindow)
	}
}

func (c *Controller) handlePlayerUpdate(pu protocol.PlayerUpdate) {
	if !pu.IsPlaying {
		c.player.Pause()
		c.setState(StatePaused)
		return
	}
	if pu.StartWallMs != nil {
		c.player.Seek(pu.CurrentTime)
	}
	c.player.Play()
	c.setState(StatePlaying)
}

// handlePreparePlayback implements the pre-buffer protocol: load the
// target track if needed, wait for enough buffered data (or time out),
// seek to the start position and emit readyToPlay. The client ignores
// incoming syncTime for the whole window (transition state).
func (c *Controller) handlePreparePlayback(ctx context.Context, pp protocol.PreparePlayback) {
	c.mu.Lock()
	c.epoch = pp.Epoch
	c.mu.Unlock()
	c.setTransitioning(true)
	c.setState(StateLoading)

	track, ok := c.trackAt(pp.TrackIndex)
	if ok && c.player.LoadedTrackID() != track.ID {
		if err := c.player.Load(track); err != nil {
			c.log.Printf("failed to load track %s: %v", track.ID, err)
		}
	}

	c.setState(StatePreBuffering)
	c.waitForPrebuffer(ctx, pp.StartTime)

	c.player.Seek(pp.StartTime)
	if err := c.transport.SendReadyToPlay(pp.Epoch); err != nil {
		c.log.Printf("failed to send readyToPlay: %v", err)
	}
}

func (c *Controller) trackAt(index int) (protocol.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil || index < 0 || index >= len(c.room.Queue) {
		return protocol.Track{}, false
	}
	return c.room.Queue[index], true
}

func (c *Controller) waitForPrebuffer(ctx context.Context, startTime float64) {
	deadline := time.Now().Add(PrebufferTimeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if c.player.BufferedAheadSeconds(startTime) >= MinPrebufferSeconds {
			return
		}
		if time.Now().After(deadline) {
			c.log.Printf("prebuffer timeout waiting for %0.1fs ahead of %0.2f", MinPrebufferSeconds, startTime)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// handleSynchronizedPlay starts playback at the server-computed moment,
// compensating for the one-way trip and measured latency, then exits
// transition after a settling window.
func (c *Controller) handleSynchronizedPlay(sp protocol.SynchronizedPlay) {
	c.mu.Lock()
	stale := sp.Epoch != c.epoch
	c.mu.Unlock()
	if stale {
		return
	}

	now := c.clock.NowMillis()
	latencyMs := c.sync.GetLatencyMs()
	adjustedTime := sp.StartTime + float64(now-sp.ServerTimestamp)/1000.0 + float64(latencyMs)/1000.0

	c.player.Seek(adjustedTime)
	c.player.Play()
	c.setState(StatePlaying)

	c.scheduler.AfterFunc(SynchronizedPlayTransitionWindow, func() { c.setTransitioning(false) })
}

// handleSyncTime applies bounded drift correction: ignored while
// transitioning or out-of-epoch; otherwise soft rate adjustment for small
// drift, hard seek for large drift, both rate-limited by an adaptive
// cooldown.
func (c *Controller) handleSyncTime(st protocol.SyncTime) {
	if c.isTransitioning() {
		return
	}
	c.mu.Lock()
	stale := st.Epoch != c.epoch
	c.mu.Unlock()
	if stale {
		return
	}

	now := c.clock.NowMillis()

	c.mu.Lock()
	if c.haveLastCorrection && now-c.lastCorrectionAtMs > DegradedResetWindow.Milliseconds() {
		c.consecutiveResyncs = 0
	}
	softActive := now < c.softCorrectionUntil
	threshold := DriftSoftLow
	if c.consecutiveResyncs > 2 {
		threshold = DriftSoftHigh
	}
	cooldown := ClientResyncCooldown
	if c.consecutiveResyncs >= MaxConsecutiveResyncs {
		cooldown = DegradedCooldown
	}
	withinCooldown := c.haveLastCorrection && now-c.lastCorrectionAtMs < cooldown.Milliseconds()
	c.mu.Unlock()

	if softActive || withinCooldown {
		return
	}

	localTime := c.player.CurrentTime()
	drift := math.Abs(st.CurrentTime - localTime)
	if drift < threshold {
		return
	}

	latencyMs := c.sync.GetLatencyMs()
	if drift >= DriftHard {
		c.player.Seek(st.CurrentTime + float64(latencyMs)/1000.0)
	} else {
		rate := SoftCorrectionRateDn
		if st.CurrentTime > localTime {
			rate = SoftCorrectionRateUp
		}
		c.player.SetPlaybackRate(rate)
		c.setState(StateSoftCorrecting)

		c.mu.Lock()
		c.softCorrectionUntil = now + SoftCorrectionWindow.Milliseconds()
		c.mu.Unlock()

		c.scheduler.AfterFunc(SoftCorrectionWindow, func() {
			c.player.SetPlaybackRate(1.0)
			if c.State() == StateSoftCorrecting {
				c.setState(StatePlaying)
			}
		})
	}

	c.mu.Lock()
	c.lastCorrectionAtMs = now
	c.haveLastCorrection = true
	c.consecutiveResyncs++
	c.mu.Unlock()
}
