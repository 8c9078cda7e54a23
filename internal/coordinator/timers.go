// ABOUTME: Ready-timeout and post-navigation-delay scheduling
// ABOUTME: Timers post back into the coordinator's job queue, preserving single-writer ordering
package coordinator

import "github.com/syncjam/syncjam-go/internal/protocol"

// armReadyTimeout schedules the 10s ready-timeout for the given epoch. If
// no conflicting transition cancels it first, Preparing proceeds to Playing
// regardless of how many sessions are ready.
func (c *Coordinator) armReadyTimeout(epoch int64) {
	c.cancelReadyTimer()
	c.readyTimer = c.scheduler.AfterFunc(ReadyTimeout, func() {
		c.submit(func() { c.handleReadyTimeout(epoch) })
	})
}

func (c *Coordinator) handleReadyTimeout(epoch int64) {
	if epoch != c.epoch || c.mode != Preparing {
		return
	}
	ready, total := c.registry.SnapshotReady()
	c.log.Printf("ready-timeout: starting with %d/%d ready", ready, total)
	if c.metrics != nil {
		c.metrics.ReadyTimeoutFired()
	}
	c.enterPlaying()
}

func (c *Coordinator) cancelReadyTimer() {
	if c.readyTimer != nil {
		c.readyTimer.Stop()
		c.readyTimer = nil
	}
}

// scheduleEnterPreparing arms the 500ms post-navigation delay: after it
// elapses (and nothing conflicting cancelled it), the coordinator
// broadcasts preparePlayback for trackIndex and enters Preparing.
func (c *Coordinator) scheduleEnterPreparing(epoch int64, trackIndex int) {
	c.cancelNavTimer()
	c.navTimer = c.scheduler.AfterFunc(NavPrepareDelay, func() {
		c.submit(func() { c.handleNavDelay(epoch, trackIndex) })
	})
}

func (c *Coordinator) handleNavDelay(epoch int64, trackIndex int) {
	if epoch != c.epoch {
		return
	}
	now := c.now()
	c.setMode(Preparing)
	c.broadcaster.BroadcastAll(protocol.Message{
		Type: protocol.TypePreparePlayback,
		Payload: protocol.PreparePlayback{
			TrackIndex:      trackIndex,
			StartTime:       0,
			ServerTimestamp: now,
			Epoch:           epoch,
		},
	})
	c.armReadyTimeout(epoch)
}

func (c *Coordinator) cancelNavTimer() {
	if c.navTimer != nil {
		c.navTimer.Stop()
		c.navTimer = nil
	}
}
