// ABOUTME: Audio output using the oto library
// ABOUTME: Handles PCM playback with software volume control
package playerengine

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/ebitengine/oto/v3"
)

// Sink is the audio-output surface the Engine drives. Output is the real
// oto-backed implementation; tests substitute a recording fake so they
// never touch an actual audio device.
type Sink interface {
	Initialize(format Format) error
	Play(buf Buffer) error
	Close()
}

// Output manages audio output via oto.
type Output struct {
	ctx    context.Context
	cancel context.CancelFunc
	otoCtx *oto.Context
	format Format
	volume int
	muted  bool
	ready  bool
}

// NewOutput creates an audio output.
func NewOutput() *Output {
	ctx, cancel := context.WithCancel(context.Background())
	return &Output{
		ctx:    ctx,
		cancel: cancel,
		volume: 100,
	}
}

// Initialize sets up oto with the specified format.
func (o *Output) Initialize(format Format) error {
	if o.otoCtx != nil {
		o.Close()
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.format = format
	o.ready = true
	return nil
}

// Play plays a decoded PCM buffer, narrowing 24-bit-range samples to the
// 16-bit output oto expects and applying software volume/mute.
func (o *Output) Play(buf Buffer) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	samples := make([]int16, len(buf.Samples))
	for i, s := range buf.Samples {
		samples[i] = SampleToInt16(s)
	}
	samples = applyVolume(samples, o.volume, o.muted)

	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}

	player := o.otoCtx.NewPlayer(bytes.NewReader(raw))
	player.Play()
	return nil
}

// SetVolume sets the volume (0-100).
func (o *Output) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.volume = volume
}

// SetMuted sets mute state.
func (o *Output) SetMuted(muted bool) {
	o.muted = muted
}

// GetVolume returns current volume.
func (o *Output) GetVolume() int {
	return o.volume
}

// IsMuted returns mute state.
func (o *Output) IsMuted() bool {
	return o.muted
}

// Close closes the audio output.
func (o *Output) Close() {
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
		o.ready = false
	}
	o.cancel()
}

func applyVolume(samples []int16, volume int, muted bool) []int16 {
	multiplier := getVolumeMultiplier(volume, muted)
	result := make([]int16, len(samples))
	for i, sample := range samples {
		result[i] = int16(float64(sample) * multiplier)
	}
	return result
}

func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
