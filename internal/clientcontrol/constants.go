package clientcontrol

import "time"

// Wire-visible constants from the room protocol, mirrored here so the
// controller and the coordinator agree without importing one another.
const (
	PingInterval          = 5 * time.Second
	MinPrebufferSeconds   = 3.0
	PrebufferTimeout      = 10 * time.Second
	DriftSoftLow          = 0.3
	DriftSoftHigh         = 0.5
	DriftHard             = 1.0
	ClientResyncCooldown  = 2 * time.Second
	DegradedCooldown      = 5 * time.Second
	MaxConsecutiveResyncs = 3
	DegradedResetWindow   = 10 * time.Second
	SoftCorrectionWindow  = 500 * time.Millisecond
	SoftCorrectionRateUp  = 1.10
	SoftCorrectionRateDn  = 0.90
	SynchronizedPlayTransitionWindow = 1 * time.Second
	QueueChangeTransitionWindow      = 3 * time.Second
	PlayPauseUIcooldown              = 400 * time.Millisecond
	WatchdogInterval                 = 2 * time.Second
	WatchdogStallWindow              = 3 * time.Second
)
