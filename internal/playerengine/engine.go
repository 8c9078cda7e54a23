// ABOUTME: Engine wires resolver + decoder + output sink into a clientcontrol.MediaPlayer
// ABOUTME: Decodes a track fully on Load, then plays it out in small chunks honoring the controller's rate corrections
package playerengine

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/syncjam/syncjam-go/internal/clientcontrol"
	"github.com/syncjam/syncjam-go/internal/protocol"
	"github.com/syncjam/syncjam-go/internal/resolver"
)

var _ clientcontrol.MediaPlayer = (*Engine)(nil)

// Logger is the minimal logging surface the engine needs.
type Logger interface {
	Printf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

const chunkDuration = 50 * time.Millisecond

// Engine implements clientcontrol.MediaPlayer against a resolved, fully
// decoded track. It plays the decoded samples out in small real-time chunks
// through a Sink, running them through a linear resampler whenever the
// controller asks for a non-1.0 playback rate (the soft drift-correction
// path).
type Engine struct {
	resolver resolver.Resolver
	client   *http.Client
	sink     Sink
	log      Logger

	mu             sync.Mutex
	track          protocol.Track
	format         Format
	samples        []int32
	positionFrames int64
	playing        bool
	rate           float64
	sinkReady      bool
	cancelPlay     context.CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a Logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithHTTPClient overrides the client used to fetch resolved audio.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// New creates an Engine.
func New(res resolver.Resolver, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		resolver: res,
		client:   http.DefaultClient,
		sink:     sink,
		log:      noopLogger{},
		rate:     1.0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load resolves the track's id to a playable URL, fetches it in full and
// decodes it to PCM. Playback does not start automatically.
func (e *Engine) Load(track protocol.Track) error {
	e.stopPlaybackLoop()

	resolved, err := e.resolver.Resolve(context.Background(), track.ID)
	if err != nil {
		return fmt.Errorf("resolve track %s: %w", track.ID, err)
	}

	req, err := http.NewRequest(http.MethodGet, resolved.URL, nil)
	if err != nil {
		return fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch track %s: %w", track.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch track %s: status %d", track.ID, resp.StatusCode)
	}

	format := formatFromContentType(resolved.ContentType)
	decoder, err := NewDecoder(format)
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	defer decoder.Close()

	body := make([]byte, 0, 1<<20)
	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			body = append(body, buf[:n]...)
		}
		if rerr != nil {
			break
		}
	}

	samples, err := decoder.Decode(body)
	if err != nil {
		return fmt.Errorf("decode track %s: %w", track.ID, err)
	}

	e.mu.Lock()
	e.track = track
	e.format = format
	e.samples = samples
	e.positionFrames = 0
	e.rate = 1.0
	e.mu.Unlock()

	if !e.sinkReady {
		if err := e.sink.Initialize(format); err != nil {
			return fmt.Errorf("initialize output: %w", err)
		}
		e.sinkReady = true
	}

	return nil
}

// formatFromContentType maps a resolved MIME type to a decodable Format.
// Defaults to 16-bit stereo PCM at 44.1 kHz when the type is unrecognized.
func formatFromContentType(contentType string) Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "mpeg") || strings.Contains(ct, "mp3"):
		return Format{Codec: "mp3", SampleRate: 44100, Channels: 2, BitDepth: 16}
	case strings.Contains(ct, "flac"):
		return Format{Codec: "flac", SampleRate: 44100, Channels: 2, BitDepth: 24}
	case strings.Contains(ct, "opus"):
		return Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}
	default:
		return Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}
	}
}

// BufferedAheadSeconds reports how much decoded audio is available ahead of
// fromPosition. The engine decodes a track fully on Load, so once Load has
// returned the whole remaining track is "buffered".
func (e *Engine) BufferedAheadSeconds(fromPosition float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.format.SampleRate == 0 || e.format.Channels == 0 {
		return 0
	}
	totalFrames := len(e.samples) / e.format.Channels
	totalSeconds := float64(totalFrames) / float64(e.format.SampleRate)
	ahead := totalSeconds - fromPosition
	if ahead < 0 {
		return 0
	}
	return ahead
}

// Seek repositions playback to the given offset.
func (e *Engine) Seek(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.format.SampleRate == 0 {
		return
	}
	frame := int64(seconds * float64(e.format.SampleRate))
	channels := e.format.Channels
	if channels < 1 {
		channels = 1
	}
	totalFrames := int64(len(e.samples) / channels)
	if frame < 0 {
		frame = 0
	}
	if frame > totalFrames {
		frame = totalFrames
	}
	e.positionFrames = frame
}

// Play starts (or resumes) the playback loop.
func (e *Engine) Play() {
	e.mu.Lock()
	if e.playing {
		e.mu.Unlock()
		return
	}
	e.playing = true
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelPlay = cancel
	e.mu.Unlock()

	go e.runPlaybackLoop(ctx)
}

// Pause stops the playback loop, leaving the position where it is.
func (e *Engine) Pause() {
	e.stopPlaybackLoop()
}

func (e *Engine) stopPlaybackLoop() {
	e.mu.Lock()
	e.playing = false
	cancel := e.cancelPlay
	e.cancelPlay = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// CurrentTime returns playback position in seconds.
func (e *Engine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.format.SampleRate == 0 {
		return 0
	}
	return float64(e.positionFrames) / float64(e.format.SampleRate)
}

// IsPlaying reports whether the playback loop is running.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// SetPlaybackRate adjusts the playback rate; 1.0 is normal speed. Values
// away from 1.0 implement the controller's soft drift correction by
// feeding more or less source material per wall-clock chunk through the
// resampler.
func (e *Engine) SetPlaybackRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rate = rate
}

// LoadedTrackID returns the id of the currently loaded track.
func (e *Engine) LoadedTrackID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.track.ID
}

func (e *Engine) runPlaybackLoop(ctx context.Context) {
	e.mu.Lock()
	channels := e.format.Channels
	sampleRate := e.format.SampleRate
	e.mu.Unlock()
	if channels == 0 || sampleRate == 0 {
		e.stopPlaybackLoop()
		return
	}

	chunkFrames := int(float64(sampleRate) * chunkDuration.Seconds())
	if chunkFrames < 1 {
		chunkFrames = 1
	}

	var resampler *Resampler
	lastRate := 1.0

	ticker := time.NewTicker(chunkDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		rate := e.rate
		pos := e.positionFrames
		total := int64(len(e.samples) / channels)
		e.mu.Unlock()

		if pos >= total {
			e.stopPlaybackLoop()
			return
		}

		if resampler == nil || rate != lastRate {
			resampler = NewResampler(int(float64(sampleRate)*rate), sampleRate, channels)
			lastRate = rate
		}

		inputFrames := int(float64(chunkFrames) * rate)
		if inputFrames < 1 {
			inputFrames = 1
		}
		endFrame := pos + int64(inputFrames)
		if endFrame > total {
			endFrame = total
		}

		e.mu.Lock()
		input := e.samples[pos*int64(channels) : endFrame*int64(channels)]
		e.mu.Unlock()

		output := make([]int32, chunkFrames*channels)
		n := resampler.Resample(input, output)

		if n > 0 {
			if err := e.sink.Play(Buffer{Samples: output[:n], Format: e.format}); err != nil {
				e.log.Printf("output error: %v", err)
			}
		}

		e.mu.Lock()
		e.positionFrames = endFrame
		e.mu.Unlock()
	}
}
