// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes a full MP3 payload to int32 samples via go-mp3
package playerengine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes a complete MP3 file into PCM.
type MP3Decoder struct{}

// NewMP3 creates a new MP3 decoder.
func NewMP3(format Format) (Decoder, error) {
	if format.Codec != "mp3" {
		return nil, fmt.Errorf("invalid codec for MP3 decoder: %s", format.Codec)
	}
	return &MP3Decoder{}, nil
}

// Decode converts an entire MP3 byte stream to int32 samples. go-mp3 always
// produces interleaved 16-bit stereo PCM at the stream's native sample rate.
func (d *MP3Decoder) Decode(data []byte) ([]int32, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	var samples []int32
	buf := make([]byte, 8192)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			numSamples := n / 2
			for i := 0; i < numSamples; i++ {
				sample16 := int16(binary.LittleEndian.Uint16(buf[i*2:]))
				samples = append(samples, SampleFromInt16(sample16))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mp3 decode error: %w", err)
		}
	}

	return samples, nil
}

// Close releases decoder resources.
func (d *MP3Decoder) Close() error {
	return nil
}
