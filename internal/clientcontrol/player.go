// ABOUTME: MediaPlayer is the abstract playback backend the controller drives
// ABOUTME: internal/playerengine implements it for the reference probe client
package clientcontrol

import "github.com/syncjam/syncjam-go/internal/protocol"

// MediaPlayer is the local playback surface the Client Controller drives:
// load a track, report buffered-ahead seconds for pre-buffer confirmation,
// seek, play/pause, report position, and adjust rate for soft drift
// correction.
type MediaPlayer interface {
	Load(track protocol.Track) error
	BufferedAheadSeconds(fromPosition float64) float64
	Seek(seconds float64)
	Play()
	Pause()
	CurrentTime() float64
	IsPlaying() bool
	SetPlaybackRate(rate float64)
	LoadedTrackID() string
}
