// ABOUTME: Opus audio decoder
// ABOUTME: Decodes a sequence of length-prefixed Opus packets to int32 samples
package playerengine

import (
	"encoding/binary"
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// OpusDecoder decodes Opus audio.
//
// hraban/opus decodes one packet at a time; it does not demux a container.
// Decode here expects data framed as a sequence of uint16-length-prefixed
// packets (big-endian length, then packet bytes). Neither the engine nor
// internal/streamproxy, which passes bytes through unchanged, adds this
// framing, and an Ogg container is not demuxed.
type OpusDecoder struct {
	decoder *opus.Decoder
	format  Format
}

// NewOpus creates a new Opus decoder.
func NewOpus(format Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder: dec,
		format:  format,
	}, nil
}

// Decode converts a framed sequence of Opus packets to interleaved int32 samples.
func (d *OpusDecoder) Decode(data []byte) ([]int32, error) {
	var samples []int32
	pcm16 := make([]int16, 5760*d.format.Channels) // max opus frame size

	for len(data) > 2 {
		packetLen := int(binary.BigEndian.Uint16(data))
		data = data[2:]
		if packetLen > len(data) {
			return nil, fmt.Errorf("opus decode: truncated packet (want %d, have %d)", packetLen, len(data))
		}
		packet := data[:packetLen]
		data = data[packetLen:]

		n, err := d.decoder.Decode(packet, pcm16)
		if err != nil {
			return nil, fmt.Errorf("opus decode failed: %w", err)
		}

		actualSamples := n * d.format.Channels
		for i := 0; i < actualSamples; i++ {
			samples = append(samples, SampleFromInt16(pcm16[i]))
		}
	}

	return samples, nil
}

// Close releases decoder resources.
func (d *OpusDecoder) Close() error {
	return nil
}
