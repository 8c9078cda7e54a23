// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes a full FLAC stream to int32 samples via mewkiz/flac
package playerengine

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// FLACDecoder decodes a complete FLAC file into PCM.
type FLACDecoder struct {
	format Format
}

// NewFLAC creates a new FLAC decoder.
func NewFLAC(format Format) (Decoder, error) {
	if format.Codec != "flac" {
		return nil, fmt.Errorf("invalid codec for FLAC decoder: %s", format.Codec)
	}
	return &FLACDecoder{format: format}, nil
}

// Decode converts an entire FLAC byte stream to interleaved int32 samples,
// left-justified into 24-bit range regardless of the stream's native depth.
func (d *FLACDecoder) Decode(data []byte) ([]int32, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open flac stream: %w", err)
	}
	defer stream.Close()

	shift := uint(24 - int(stream.Info.BitsPerSample))

	var samples []int32
	for {
		frm, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac decode error: %w", err)
		}

		for i := 0; i < int(frm.BlockSize); i++ {
			for _, subframe := range frm.Subframes {
				samples = append(samples, subframe.Samples[i]<<shift)
			}
		}
	}

	return samples, nil
}

// Close releases decoder resources.
func (d *FLACDecoder) Close() error {
	return nil
}
