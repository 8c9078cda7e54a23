// ABOUTME: Health watchdog: detects a stalled media element and reloads it
// ABOUTME: Runs a 2s-interval / 3s-stall check, escalating to skip on repeated failure
package clientcontrol

import (
	"context"
	"time"
)

const watchdogMaxFailures = 3

func (c *Controller) watchdogLoop(ctx context.Context) {
	ticker := time.NewTicker(WatchdogInterval)
	defer ticker.Stop()

	var lastTime float64
	var lastAdvanceAt time.Time
	var failures int

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.player.IsPlaying() {
				lastAdvanceAt = time.Time{}
				failures = 0
				continue
			}

			now := c.player.CurrentTime()
			if lastAdvanceAt.IsZero() || now != lastTime {
				lastTime = now
				lastAdvanceAt = time.Now()
				failures = 0
				continue
			}

			if time.Since(lastAdvanceAt) < WatchdogStallWindow {
				continue
			}

			failures++
			c.log.Printf("playback stalled at %0.2fs, reload attempt %d", now, failures)
			track, ok := c.trackAt(c.currentTrackIndex())
			if ok {
				if err := c.player.Load(track); err != nil {
					c.log.Printf("watchdog reload failed: %v", err)
				} else {
					c.player.Seek(now)
					c.player.Play()
				}
			}
			lastAdvanceAt = time.Now()

			if failures >= watchdogMaxFailures {
				c.log.Printf("playback repeatedly stalled, requesting skip")
				c.transport.SendSkip()
				failures = 0
			}
		}
	}
}

func (c *Controller) currentTrackIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return 0
	}
	return c.room.CurrentIndex
}
