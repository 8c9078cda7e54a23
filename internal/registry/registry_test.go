package registry

import "testing"

func TestAttachIdempotent(t *testing.T) {
	r := New()
	a := r.Attach("s1")
	b := r.Attach("s1")
	if a != b {
		t.Errorf("Attach returned different sessions for the same id")
	}
	if got, want := len(r.Snapshot()), 1; got != want {
		t.Errorf("session count = %d, want %d", got, want)
	}
}

func TestDetachRemoves(t *testing.T) {
	r := New()
	r.Attach("s1")
	r.Detach("s1")
	if _, ok := r.Get("s1"); ok {
		t.Errorf("session s1 still present after Detach")
	}
}

func TestRecordLatencyHalvesRTT(t *testing.T) {
	r := New()
	r.Attach("s1")
	ok := r.RecordLatency("s1", 40, 1000)
	if !ok {
		t.Fatalf("RecordLatency rejected a valid sample")
	}
	s, _ := r.Get("s1")
	if s.LatencyMs != 20 {
		t.Errorf("LatencyMs = %d, want 20", s.LatencyMs)
	}
	if s.LastPingAt != 1000 {
		t.Errorf("LastPingAt = %d, want 1000", s.LastPingAt)
	}
}

func TestRecordLatencyRejectsNegativeRTT(t *testing.T) {
	r := New()
	r.Attach("s1")
	if r.RecordLatency("s1", -5, 1000) {
		t.Errorf("RecordLatency accepted a negative RTT")
	}
}

func TestRecordLatencyRejectsOutOfRangeDropsNotClamps(t *testing.T) {
	r := New()
	r.Attach("s1")
	if r.RecordLatency("s1", 20001, 1000) {
		t.Errorf("RecordLatency accepted a latency over 10000ms")
	}
	s, _ := r.Get("s1")
	if s.LatencyMs != 0 {
		t.Errorf("LatencyMs = %d, want unchanged 0 (dropped, not clamped)", s.LatencyMs)
	}
}

func TestRecordLatencyUnknownSession(t *testing.T) {
	r := New()
	if r.RecordLatency("ghost", 10, 1000) {
		t.Errorf("RecordLatency succeeded for an unattached session")
	}
}

func TestMarkReadyAndResetReadyAll(t *testing.T) {
	r := New()
	r.Attach("s1")
	r.Attach("s2")
	r.MarkReady("s1")

	ready, total := r.SnapshotReady()
	if ready != 1 || total != 2 {
		t.Errorf("SnapshotReady() = (%d, %d), want (1, 2)", ready, total)
	}

	r.ResetReadyAll()
	ready, total = r.SnapshotReady()
	if ready != 0 || total != 2 {
		t.Errorf("after ResetReadyAll, SnapshotReady() = (%d, %d), want (0, 2)", ready, total)
	}
}

func TestMarkReadyUnknownSession(t *testing.T) {
	r := New()
	if r.MarkReady("ghost") {
		t.Errorf("MarkReady succeeded for an unattached session")
	}
}
