// ABOUTME: Tests for MP3 decoder
// ABOUTME: Tests decoder construction, codec validation and malformed-input handling
package playerengine

import "testing"

func TestNewMP3(t *testing.T) {
	format := Format{
		Codec:      "mp3",
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewMP3(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewMP3_InvalidCodec(t *testing.T) {
	format := Format{
		Codec:      "opus",
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewMP3(format)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}
	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for MP3 decoder: opus"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestMP3DecodeMalformedInputErrors(t *testing.T) {
	decoder, err := NewMP3(Format{Codec: "mp3"})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if _, err := decoder.Decode([]byte("not an mp3 stream")); err == nil {
		t.Fatal("expected an error decoding malformed mp3 data")
	}
}
