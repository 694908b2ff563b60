// ABOUTME: Tests for the Opus encoder
// ABOUTME: Tests encoder creation, validation, and frame length checks
package encode

import (
	"testing"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

func TestNewOpus(t *testing.T) {
	format := audio.Format{
		Codec:      "opus",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	encoder, err := NewOpus(format)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	if encoder == nil {
		t.Fatal("expected encoder to be created")
	}

	// 20ms at 48kHz stereo is 960 samples per channel.
	if got := encoder.FrameSamples(); got != 1920 {
		t.Errorf("expected frame of 1920 samples, got %d", got)
	}
}

func TestNewOpus_InvalidCodec(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	encoder, err := NewOpus(format)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}
	if encoder != nil {
		t.Fatal("expected encoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for Opus encoder: pcm"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestOpusEncodeRejectsPartialFrame(t *testing.T) {
	format := audio.Format{
		Codec:      "opus",
		SampleRate: 48000,
		Channels:   1,
		BitDepth:   16,
	}

	encoder, err := NewOpus(format)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	defer encoder.Close()

	if _, err := encoder.Encode(make([]float64, 100)); err == nil {
		t.Error("expected error for partial frame, got nil")
	}
}

func TestOpusEncodeFullFrame(t *testing.T) {
	format := audio.Format{
		Codec:      "opus",
		SampleRate: 48000,
		Channels:   1,
		BitDepth:   16,
	}

	encoder, err := NewOpus(format)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	defer encoder.Close()

	packet, err := encoder.Encode(make([]float64, encoder.FrameSamples()))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(packet) == 0 {
		t.Error("expected a non-empty opus packet")
	}
}
