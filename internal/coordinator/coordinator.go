// ABOUTME: Playback Coordinator: the single-writer state machine owning Room State
// ABOUTME: Idle/Preparing/Playing/Paused, fed by a command queue on one goroutine
package coordinator

import (
	"context"
	"time"

	"github.com/syncjam/syncjam-go/internal/clockservice"
	"github.com/syncjam/syncjam-go/internal/protocol"
	"github.com/syncjam/syncjam-go/internal/queue"
	"github.com/syncjam/syncjam-go/internal/registry"
)

// Wire-visible timing and drift-correction constants shared by the
// coordinator and its clients.
const (
	SyncInterval         = 100 * time.Millisecond
	ReadyTimeout         = 10 * time.Second
	PlayPauseCooldown    = 300 * time.Millisecond
	NavPrepareDelay      = 500 * time.Millisecond
	DriftSoftLow         = 0.3
	DriftSoftHigh        = 0.5
	DriftHard            = 1.0
	ClientResyncCooldown = 2 * time.Second
	DegradedCooldown     = 5 * time.Second
	MaxConsecutiveResync = 3
	PingInterval         = 5 * time.Second
	MinPrebufferSeconds  = 3.0
)

// Mode is the coordinator's playback state.
type Mode int

const (
	Idle Mode = iota
	Preparing
	Playing
	Paused
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Broadcaster fans out protocol messages to connected sessions. The
// coordinator never touches a transport directly: broadcasts must not
// block state transitions, so a real implementation (internal/room) makes
// Send/BroadcastAll fire-and-forget with per-session backpressure
// isolation, decoupling a slow client from the rest of the room.
type Broadcaster interface {
	BroadcastAll(msg protocol.Message)
	Send(sessionID string, msg protocol.Message)
}

// Metrics receives coordinator lifecycle events. Every method is optional to
// implement meaningfully; a nil Metrics is valid and every call site checks
// for it, so tests that don't care about metrics can omit it entirely.
type Metrics interface {
	CommandProcessed(kind string)
	CommandDropped(kind, reason string)
	ReadyTimeoutFired()
	ModeChanged(mode string)
}

// Logger is the minimal structured-logging surface the coordinator needs,
// satisfied by logging.WithComponent("coordinator") in production and by a
// no-op in tests that don't care about log output.
type Logger interface {
	Printf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Coordinator is the server's single authoritative writer for Room State.
// All mutation happens inside jobs processed one at a time by Run, an
// explicit command-queue-fed loop with an injected clock, registry and
// broadcaster.
type Coordinator struct {
	clock       clockservice.Clock
	registry    *registry.Registry
	queue       *queue.Queue
	broadcaster Broadcaster
	metrics     Metrics
	log         Logger
	scheduler   Scheduler

	jobs chan func()

	mode            Mode
	currentTime     float64
	startWallMs     int64
	epoch           int64
	lastPlayPauseAt int64
	hasPlayPauseAt  bool

	readyTimer CancelTimer
	navTimer   CancelTimer
	ticker     *tickerHandle
	tickerDone chan struct{}
}

// Option configures optional Coordinator collaborators.
type Option func(*Coordinator)

// WithMetrics attaches a Metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithLogger attaches a Logger.
func WithLogger(l Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// New creates a Coordinator in the Idle state with an empty queue.
func New(clock clockservice.Clock, reg *registry.Registry, q *queue.Queue, b Broadcaster, opts ...Option) *Coordinator {
	c := &Coordinator{
		clock:       clock,
		registry:    reg,
		queue:       q,
		broadcaster: b,
		log:         noopLogger{},
		scheduler:   defaultScheduler,
		jobs:        make(chan func(), 64),
		mode:        Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes queued jobs one at a time until ctx is cancelled. It is the
// coordinator's single writer goroutine; every mutation of Room State
// happens here and nowhere else.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.stopTicker()
			c.cancelReadyTimer()
			c.cancelNavTimer()
			return
		case job := <-c.jobs:
			job()
		}
	}
}

// submit enqueues job and blocks until Run has executed it, giving callers a
// synchronous call-like API while preserving single-writer ordering.
func (c *Coordinator) submit(job func()) {
	done := make(chan struct{})
	c.jobs <- func() {
		job()
		close(done)
	}
	<-done
}

func (c *Coordinator) now() int64 {
	return c.clock.NowMillis()
}

func (c *Coordinator) setMode(m Mode) {
	c.mode = m
	if c.metrics != nil {
		c.metrics.ModeChanged(m.String())
	}
}

// computeCurrentTime returns the authoritative currentTime: live-derived
// from the wall clock while Playing (I1), the frozen field otherwise.
func (c *Coordinator) computeCurrentTime() float64 {
	if c.mode == Playing {
		return float64(c.now()-c.startWallMs) / 1000.0
	}
	return c.currentTime
}

// Snapshot returns the current Room State, safe to call from any goroutine;
// it is itself processed as a job to observe single-writer ordering.
func (c *Coordinator) Snapshot() protocol.RoomState {
	var state protocol.RoomState
	c.submit(func() {
		state = c.buildRoomState()
	})
	return state
}

func (c *Coordinator) buildRoomState() protocol.RoomState {
	return protocol.RoomState{
		Queue:        c.queue.Tracks(),
		CurrentIndex: c.queue.CurrentIndex(),
		Mode:         c.mode.String(),
		CurrentTime:  c.computeCurrentTime(),
		Epoch:        c.epoch,
	}
}

func (c *Coordinator) broadcastQueueUpdate() {
	c.broadcaster.BroadcastAll(protocol.Message{Type: protocol.TypeQueueUpdate, Payload: c.buildRoomState()})
}

func (c *Coordinator) broadcastRoomState() {
	c.broadcaster.BroadcastAll(protocol.Message{Type: protocol.TypeRoomState, Payload: c.buildRoomState()})
}
