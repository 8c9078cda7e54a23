// ABOUTME: Tracks connected sessions and their per-epoch readiness/latency state
// ABOUTME: Holds no transport; the WebSocket connection itself lives in internal/room
package registry

import "sync"

const (
	minLatencyMs = 0
	maxLatencyMs = 10000
)

// Session is one connected client's playback-relevant state. It deliberately
// excludes the transport connection, which lives in internal/room instead,
// so the coordinator can depend on session state without depending on
// websockets.
type Session struct {
	ID         string
	LatencyMs  int64
	LastPingAt int64
	Ready      bool
}

// Registry is the set of currently-connected sessions, guarded by a single
// RWMutex.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Attach registers sessionId if it is not already present. Idempotent: a
// second Attach for the same id returns the existing session unchanged.
func (r *Registry) Attach(sessionID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s
	}
	s := &Session{ID: sessionID}
	r.sessions[sessionID] = s
	return s
}

// Detach removes a session. Releasing its ready bit never affects room mode.
func (r *Registry) Detach(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// RecordLatency computes latencyMs = rttMs/2 and stores it, rejecting
// measurements outside [0, 10000] per I5 rather than clamping them.
func (r *Registry) RecordLatency(sessionID string, rttMs int64, nowMillis int64) bool {
	// Compare on the RTT itself so an odd RTT just over 2*maxLatencyMs is
	// not truncated back into range by the integer halving below.
	if rttMs < 0 || rttMs > 2*maxLatencyMs {
		return false
	}
	latencyMs := rttMs / 2
	if latencyMs < minLatencyMs || latencyMs > maxLatencyMs {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	s.LatencyMs = latencyMs
	s.LastPingAt = nowMillis
	return true
}

// MarkReady sets ready=true for a session. Returns false if the session is
// unknown (e.g. it disconnected between sending readyToPlay and processing).
func (r *Registry) MarkReady(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	s.Ready = true
	return true
}

// ResetReadyAll clears every session's ready bit, called on every Preparing
// entry per I4.
func (r *Registry) ResetReadyAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		s.Ready = false
	}
}

// SnapshotReady reports how many of the currently-attached sessions are
// ready, used by the coordinator to decide on ready convergence.
func (r *Registry) SnapshotReady() (readyCount, totalCount int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		totalCount++
		if s.Ready {
			readyCount++
		}
	}
	return readyCount, totalCount
}

// Get returns a copy of a session's current state, for admin/debug views.
func (r *Registry) Get(sessionID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Snapshot returns a copy of every session, sorted by nothing in particular;
// callers that need stable ordering should sort by ID themselves.
func (r *Registry) Snapshot() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}
