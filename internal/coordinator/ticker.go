// ABOUTME: Sync Ticker: the 100ms authoritative-clock broadcaster while Playing
package coordinator

import "github.com/syncjam/syncjam-go/internal/protocol"

func (c *Coordinator) startTicker() {
	c.stopTicker()
	c.ticker = newTicker(SyncInterval)
	c.tickerDone = make(chan struct{})

	ticks := c.ticker.C
	done := c.tickerDone
	go func() {
		for {
			select {
			case <-ticks:
				c.submit(c.handleTick)
			case <-done:
				return
			}
		}
	}()
}

func (c *Coordinator) stopTicker() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.tickerDone)
	c.ticker = nil
	c.tickerDone = nil
}

// handleTick is the body of one sync-ticker firing: recompute currentTime,
// raise end-of-track if the track has finished, otherwise broadcast
// syncTime. Runs on the coordinator's single writer goroutine.
func (c *Coordinator) handleTick() {
	if c.mode != Playing {
		return
	}

	c.currentTime = c.computeCurrentTime()
	track, ok := c.queue.Current()
	if ok && c.currentTime >= track.Duration {
		c.handleEndOfTrack()
		return
	}

	c.broadcaster.BroadcastAll(protocol.Message{
		Type: protocol.TypeSyncTime,
		Payload: protocol.SyncTime{
			CurrentTime:       c.currentTime,
			IsPlaying:         true,
			CurrentTrackIndex: c.queue.CurrentIndex(),
			ServerTimestamp:   c.now(),
			Epoch:             c.epoch,
		},
	})
}

// handleEndOfTrack advances to the next track and schedules the next
// prepare cycle if possible, otherwise settles in Paused at the head of
// a finished track.
func (c *Coordinator) handleEndOfTrack() {
	c.stopTicker()

	if c.queue.Advance() {
		c.currentTime = 0
		c.registry.ResetReadyAll()
		c.epoch++
		c.setMode(Paused)
		c.broadcastQueueUpdate()
		c.scheduleEnterPreparing(c.epoch, c.queue.CurrentIndex())
		return
	}

	c.setMode(Paused)
	c.currentTime = 0
	c.broadcaster.BroadcastAll(protocol.Message{
		Type:    protocol.TypePlayerUpdate,
		Payload: protocol.PlayerUpdate{IsPlaying: false, CurrentTime: 0},
	})
}
