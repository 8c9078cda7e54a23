// ABOUTME: Client-side clock offset tracking derived from ping/pong latency samples
package clientcontrol

import (
	"sync"
	"time"
)

// Quality describes how trustworthy the current offset estimate is.
type Quality int

const (
	QualityGood Quality = iota
	QualityDegraded
	QualityLost
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityDegraded:
		return "degraded"
	default:
		return "lost"
	}
}

// ClockSync tracks serverTimeOffset and latencyMs from the room's ping/pong
// exchange. The pong carries three values (clientTimestamp, serverTimestamp,
// latency), so offset is computed directly as serverTs - nowClient at
// receipt. Exponential smoothing and quality classification sit on top of
// that as an enhancement; GetRawOffset/GetLatencyMs return the unsmoothed
// numbers the adjustedTime formula uses directly.
type ClockSync struct {
	mu sync.RWMutex

	latencyMs     int64
	rawOffsetMs   int64
	smoothedMs    int64
	quality       Quality
	lastSync      time.Time
	sampleCount   int
	smoothingRate float64
}

// NewClockSync creates a ClockSync with no samples yet (QualityLost).
func NewClockSync() *ClockSync {
	return &ClockSync{
		smoothingRate: 0.1,
		quality:       QualityLost,
	}
}

// ProcessPong records one ping/pong round trip. nowClientAtReceipt is the
// client's clock reading at the moment the pong arrived.
func (cs *ClockSync) ProcessPong(serverTimestamp, latencyMs, nowClientAtReceipt int64) {
	offset := serverTimestamp - nowClientAtReceipt

	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.latencyMs = latencyMs
	cs.rawOffsetMs = offset
	cs.lastSync = time.UnixMilli(nowClientAtReceipt)

	if cs.sampleCount == 0 {
		cs.smoothedMs = offset
	} else {
		cs.smoothedMs = int64(float64(cs.smoothedMs)*(1-cs.smoothingRate) + float64(offset)*cs.smoothingRate)
	}
	cs.sampleCount++

	if latencyMs < 50 {
		cs.quality = QualityGood
	} else {
		cs.quality = QualityDegraded
	}
}

// GetOffset returns the smoothed server-time offset in milliseconds.
func (cs *ClockSync) GetOffset() int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.smoothedMs
}

// GetRawOffset returns the most recent unsmoothed offset, the exact
// serverTimeOffset value the adjustedTime formula uses.
func (cs *ClockSync) GetRawOffset() int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.rawOffsetMs
}

// GetLatencyMs returns the most recent latency sample.
func (cs *ClockSync) GetLatencyMs() int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.latencyMs
}

// GetStats returns the smoothed offset, latency and quality together.
func (cs *ClockSync) GetStats() (offsetMs, latencyMs int64, quality Quality) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.smoothedMs, cs.latencyMs, cs.quality
}

// CheckQuality degrades to QualityLost if no sample has arrived recently.
func (cs *ClockSync) CheckQuality(now time.Time) Quality {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.sampleCount > 0 && now.Sub(cs.lastSync) > 3*PingInterval {
		cs.quality = QualityLost
	}
	return cs.quality
}
