// ABOUTME: Tests for Engine, the clientcontrol.MediaPlayer implementation
// ABOUTME: Uses a fake resolver and a recording Sink so no real audio device is touched
package playerengine

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/syncjam/syncjam-go/internal/protocol"
	"github.com/syncjam/syncjam-go/internal/resolver"
)

type fakeResolver struct {
	url string
	err error
}

func (r *fakeResolver) Resolve(ctx context.Context, id string) (resolver.Resolved, error) {
	if r.err != nil {
		return resolver.Resolved{}, r.err
	}
	return resolver.Resolved{URL: r.url, ContentType: ""}, nil
}

type fakeSink struct {
	mu         sync.Mutex
	format     Format
	initialized bool
	plays      int
}

func (s *fakeSink) Initialize(format Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.format = format
	s.initialized = true
	return nil
}

func (s *fakeSink) Play(buf Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays++
	return nil
}

func (s *fakeSink) Close() {}

func (s *fakeSink) playCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

// rawPCM builds a short 16-bit stereo PCM payload: numFrames frames of silence-ish samples.
func rawPCM(numFrames int) []byte {
	buf := make([]byte, numFrames*2*2) // 2 channels, 2 bytes/sample
	for i := 0; i < numFrames*2; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(i))
	}
	return buf
}

func newTestEngine(t *testing.T, pcm []byte) (*Engine, *fakeSink) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pcm)
	}))
	t.Cleanup(srv.Close)

	sink := &fakeSink{}
	res := &fakeResolver{url: srv.URL}
	e := New(res, sink)
	return e, sink
}

func TestLoadDecodesPCMAndInitializesSink(t *testing.T) {
	e, sink := newTestEngine(t, rawPCM(44100)) // ~1 second at 44100Hz stereo

	if err := e.Load(protocol.Track{ID: "track-1"}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if e.LoadedTrackID() != "track-1" {
		t.Errorf("LoadedTrackID() = %q, want track-1", e.LoadedTrackID())
	}
	if !sink.initialized {
		t.Error("expected sink to be initialized")
	}
	if ahead := e.BufferedAheadSeconds(0); ahead < 0.9 {
		t.Errorf("BufferedAheadSeconds(0) = %v, want ~1.0", ahead)
	}
}

func TestSeekClampsToTrackBounds(t *testing.T) {
	e, _ := newTestEngine(t, rawPCM(44100))
	if err := e.Load(protocol.Track{ID: "t"}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	e.Seek(-5)
	if got := e.CurrentTime(); got != 0 {
		t.Errorf("Seek(-5): CurrentTime() = %v, want 0", got)
	}

	e.Seek(1000)
	if got := e.CurrentTime(); got > 1.01 {
		t.Errorf("Seek(1000): CurrentTime() = %v, want clamped near track end", got)
	}
}

func TestPlayAdvancesPositionThenPause(t *testing.T) {
	e, sink := newTestEngine(t, rawPCM(44100))
	if err := e.Load(protocol.Track{ID: "t"}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	e.Play()
	if !e.IsPlaying() {
		t.Fatal("expected IsPlaying() to be true after Play")
	}
	time.Sleep(150 * time.Millisecond)
	e.Pause()

	if e.IsPlaying() {
		t.Error("expected IsPlaying() to be false after Pause")
	}
	if e.CurrentTime() <= 0 {
		t.Error("expected playback position to advance")
	}
	if sink.playCount() == 0 {
		t.Error("expected at least one chunk written to the sink")
	}
}

func TestLoadResolverErrorPropagates(t *testing.T) {
	sink := &fakeSink{}
	res := &fakeResolver{err: resolver.ErrUnavailable}
	e := New(res, sink)

	if err := e.Load(protocol.Track{ID: "missing"}); err == nil {
		t.Fatal("expected Load to propagate resolver error")
	}
}
