// ABOUTME: Command handlers implementing the room's playback state transitions
// ABOUTME: Each public method submits a job onto the coordinator's single writer goroutine
package coordinator

import "github.com/syncjam/syncjam-go/internal/protocol"

// Connect attaches a new session and sends it the current Room State.
func (c *Coordinator) Connect(sessionID string) {
	c.submit(func() {
		c.registry.Attach(sessionID)
		c.broadcaster.Send(sessionID, protocol.Message{Type: protocol.TypeRoomState, Payload: c.buildRoomState()})
	})
}

// Disconnect removes a session. Per spec, this never changes mode; it can
// however unblock ready convergence if every remaining session is ready.
func (c *Coordinator) Disconnect(sessionID string) {
	c.submit(func() {
		c.registry.Detach(sessionID)
		if c.mode == Preparing {
			c.checkReadyConvergence()
		}
	})
}

func (c *Coordinator) canAcceptPlayPause() bool {
	if !c.hasPlayPauseAt {
		return true
	}
	return c.now()-c.lastPlayPauseAt >= PlayPauseCooldown.Milliseconds()
}

// Play handles the play command: guarded by the play/pause cooldown, only
// effective from Paused/Idle with a non-empty queue.
func (c *Coordinator) Play(sessionID string) {
	c.submit(func() {
		if !c.canAcceptPlayPause() {
			c.drop("play", "cooldown")
			return
		}
		if c.mode == Playing {
			c.drop("play", "already playing")
			return
		}
		if c.mode == Preparing {
			c.drop("play", "already preparing")
			return
		}
		if c.queue.Len() == 0 {
			c.drop("play", "empty queue")
			return
		}

		c.markPlayPause()
		c.registry.ResetReadyAll()
		now := c.now()
		c.startWallMs = now - int64(c.currentTime*1000)
		c.epoch++
		c.setMode(Preparing)

		c.broadcaster.BroadcastAll(protocol.Message{
			Type: protocol.TypePreparePlayback,
			Payload: protocol.PreparePlayback{
				TrackIndex:      c.queue.CurrentIndex(),
				StartTime:       c.currentTime,
				ServerTimestamp: now,
				Epoch:           c.epoch,
			},
		})
		c.armReadyTimeout(c.epoch)
		c.accept("play")
	})
}

// Pause handles the pause command: only effective from Playing.
func (c *Coordinator) Pause() {
	c.submit(func() {
		if !c.canAcceptPlayPause() {
			c.drop("pause", "cooldown")
			return
		}
		if c.mode != Playing {
			c.drop("pause", "not playing")
			return
		}

		c.markPlayPause()
		c.currentTime = c.computeCurrentTime()
		c.setMode(Paused)
		c.cancelReadyTimer()
		c.stopTicker()

		c.broadcaster.BroadcastAll(protocol.Message{
			Type:    protocol.TypePlayerUpdate,
			Payload: protocol.PlayerUpdate{IsPlaying: false, CurrentTime: c.currentTime},
		})
		c.accept("pause")
	})
}

func (c *Coordinator) markPlayPause() {
	c.lastPlayPauseAt = c.now()
	c.hasPlayPauseAt = true
}

// Skip moves to the next track.
func (c *Coordinator) Skip() {
	c.submit(func() { c.navigate("skip", c.queue.CurrentIndex()+1) })
}

// Previous moves to the previous track.
func (c *Coordinator) Previous() {
	c.submit(func() { c.navigate("previous", c.queue.CurrentIndex()-1) })
}

// JumpTo moves directly to the given index.
func (c *Coordinator) JumpTo(index int) {
	c.submit(func() { c.navigate("jumpTo", index) })
}

// navigate implements the shared transport-navigation transition: skip,
// previous and jumpTo all unconditionally move currentIndex (when the
// target is in range), reset currentTime, bump the epoch, settle in Paused
// and broadcast the queueUpdate, then, if playback was running, re-enter
// Preparing after the navigation delay.
func (c *Coordinator) navigate(kind string, targetIndex int) {
	if !c.queue.JumpTo(targetIndex) {
		c.drop(kind, "index out of range")
		return
	}

	wasPlaying := c.mode == Playing
	c.currentTime = 0
	c.registry.ResetReadyAll()
	c.epoch++
	c.cancelReadyTimer()
	c.cancelNavTimer()
	c.stopTicker()
	c.setMode(Paused)
	c.broadcastQueueUpdate()

	if wasPlaying {
		c.scheduleEnterPreparing(c.epoch, c.queue.CurrentIndex())
	}
	c.accept(kind)
}

// Seek jumps within the current track without re-entering Preparing.
func (c *Coordinator) Seek(seconds float64) {
	c.submit(func() {
		c.currentTime = seconds
		now := c.now()
		update := protocol.PlayerUpdate{IsPlaying: c.mode == Playing, CurrentTime: seconds}
		if c.mode == Playing {
			c.startWallMs = now - int64(seconds*1000)
			startWall := c.startWallMs
			update.StartWallMs = &startWall
		}
		c.broadcaster.BroadcastAll(protocol.Message{Type: protocol.TypePlayerUpdate, Payload: update})
		c.accept("seek")
	})
}

// AddToQueue appends a track.
func (c *Coordinator) AddToQueue(t protocol.Track) {
	c.submit(func() {
		c.queue.Append(t)
		c.broadcastQueueUpdate()
		c.accept("addToQueue")
	})
}

// RemoveFromQueue removes the track at index, preserving the current-track
// index across the removal except when the removed track was the current
// and last one, in which case playback stops and the queue rewinds.
func (c *Coordinator) RemoveFromQueue(index int) {
	c.submit(func() {
		outcome, ok := c.queue.RemoveAt(index)
		if !ok {
			c.drop("removeFromQueue", "index out of range")
			return
		}
		if outcome.BecameEmpty || outcome.Wrapped {
			c.cancelReadyTimer()
			c.cancelNavTimer()
			c.stopTicker()
			c.currentTime = 0
			c.setMode(Paused)
		}
		c.broadcastQueueUpdate()
		c.accept("removeFromQueue")
	})
}

// ReorderQueue replaces the queue wholesale, trusting the client-supplied
// current index as-is.
func (c *Coordinator) ReorderQueue(tracks []protocol.Track, currentIndex int) {
	c.submit(func() {
		c.queue.Reorder(tracks, currentIndex)
		c.broadcastQueueUpdate()
		c.accept("reorderQueue")
	})
}

// ReadyToPlay records a session's readiness for the given epoch. Stale
// epochs (from a session that hasn't caught up to a navigation) are
// ignored.
func (c *Coordinator) ReadyToPlay(sessionID string, epoch int64) {
	c.submit(func() {
		if epoch != c.epoch {
			c.drop("readyToPlay", "stale epoch")
			return
		}
		c.registry.MarkReady(sessionID)
		if c.mode == Preparing {
			c.checkReadyConvergence()
		}
		c.accept("readyToPlay")
	})
}

// checkReadyConvergence transitions Preparing -> Playing once every
// currently-attached session is ready.
func (c *Coordinator) checkReadyConvergence() {
	ready, total := c.registry.SnapshotReady()
	if total > 0 && ready < total {
		return
	}
	c.cancelReadyTimer()
	c.enterPlaying()
}

func (c *Coordinator) enterPlaying() {
	now := c.now()
	c.setMode(Playing)
	c.startTicker()
	c.broadcaster.BroadcastAll(protocol.Message{
		Type: protocol.TypeSynchronizedPlay,
		Payload: protocol.SynchronizedPlay{
			StartTime:       c.currentTime,
			ServerTimestamp: now,
			IsPlaying:       true,
			Epoch:           c.epoch,
		},
	})
}

// Ping answers a client latency probe: latencyMs = (nowServer - clientTs)/2,
// recorded in the registry and echoed back as pong.
func (c *Coordinator) Ping(sessionID string, clientTimestamp int64) {
	c.submit(func() {
		now := c.now()
		rtt := now - clientTimestamp
		c.registry.RecordLatency(sessionID, rtt, now)
		c.broadcaster.Send(sessionID, protocol.Message{
			Type: protocol.TypePong,
			Payload: protocol.Pong{
				ClientTimestamp: clientTimestamp,
				ServerTimestamp: now,
				LatencyMs:       rtt / 2,
			},
		})
	})
}

func (c *Coordinator) accept(kind string) {
	if c.metrics != nil {
		c.metrics.CommandProcessed(kind)
	}
}

func (c *Coordinator) drop(kind, reason string) {
	c.log.Printf("dropping command %s: %s", kind, reason)
	if c.metrics != nil {
		c.metrics.CommandDropped(kind, reason)
	}
}
