// ABOUTME: Prometheus counters for coordinator lifecycle events
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/syncjam/syncjam-go/internal/coordinator"
)

var _ coordinator.Metrics = Coordinator{}

var (
	commandsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncjam_coordinator_commands_processed_total",
		Help: "Total number of commands the coordinator accepted and applied, by kind",
	}, []string{"kind"})

	commandsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncjam_coordinator_commands_dropped_total",
		Help: "Total number of commands the coordinator rejected, by kind and reason",
	}, []string{"kind", "reason"})

	readyTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syncjam_coordinator_ready_timeouts_total",
		Help: "Total number of times the ready-timeout fired while preparing a track",
	})

	modeChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncjam_coordinator_mode_changes_total",
		Help: "Total number of room mode transitions, by resulting mode",
	}, []string{"mode"})
)

// Coordinator implements coordinator.Metrics against Prometheus counters
// registered with the default registry.
type Coordinator struct{}

// NewCoordinator returns a Coordinator metrics sink. It can be passed
// directly to coordinator.WithMetrics.
func NewCoordinator() Coordinator {
	return Coordinator{}
}

// CommandProcessed records a successfully applied command.
func (Coordinator) CommandProcessed(kind string) {
	commandsProcessedTotal.WithLabelValues(kind).Inc()
}

// CommandDropped records a rejected command and why.
func (Coordinator) CommandDropped(kind, reason string) {
	commandsDroppedTotal.WithLabelValues(kind, reason).Inc()
}

// ReadyTimeoutFired records a ready-timeout expiring during track preparation.
func (Coordinator) ReadyTimeoutFired() {
	readyTimeoutsTotal.Inc()
}

// ModeChanged records a room mode transition.
func (Coordinator) ModeChanged(mode string) {
	modeChangesTotal.WithLabelValues(mode).Inc()
}
