// ABOUTME: Tests for FLAC decoder
// ABOUTME: Tests decoder construction, codec validation and malformed-input handling
package playerengine

import "testing"

func TestNewFLAC(t *testing.T) {
	format := Format{
		Codec:      "flac",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   24,
	}

	decoder, err := NewFLAC(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewFLAC_InvalidCodec(t *testing.T) {
	format := Format{
		Codec:      "opus",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   24,
	}

	decoder, err := NewFLAC(format)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}
	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for FLAC decoder: opus"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestFLACDecodeMalformedInputErrors(t *testing.T) {
	decoder, err := NewFLAC(Format{Codec: "flac"})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if _, err := decoder.Decode([]byte("not a flac stream")); err == nil {
		t.Fatal("expected an error decoding malformed flac data")
	}
}

func TestFLACClose(t *testing.T) {
	decoder, err := NewFLAC(Format{Codec: "flac"})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if err := decoder.Close(); err != nil {
		t.Errorf("expected Close to succeed, got error: %v", err)
	}
}
