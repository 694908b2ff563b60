// ABOUTME: Opus audio encoder
// ABOUTME: Encodes fixed 20ms frames to Opus packets for streaming
package encode

import (
	"fmt"
	"log"

	"gopkg.in/hraban/opus.v2"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// OpusEncoder encodes Opus audio.
type OpusEncoder struct {
	encoder   *opus.Encoder
	channels  int
	frameSize int // samples per channel per frame
}

// NewOpus creates a new Opus encoder for format. Frames are 20ms.
func NewOpus(format audio.Format) (Encoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	// 128 kbps for stereo, 64 kbps for mono
	bitrate := 64000 * format.Channels
	if err := encoder.SetBitrate(bitrate); err != nil {
		log.Printf("Warning: Failed to set Opus bitrate: %v", err)
	}

	return &OpusEncoder{
		encoder:   encoder,
		channels:  format.Channels,
		frameSize: format.SampleRate / 50,
	}, nil
}

// Encode converts exactly one frame of samples to an Opus packet.
func (e *OpusEncoder) Encode(samples []float64) ([]byte, error) {
	want := e.FrameSamples()
	if len(samples) != want {
		return nil, fmt.Errorf("opus frame must be %d samples, got %d", want, len(samples))
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = audio.SampleToInt16(s)
	}

	// Opus packets never exceed 4000 bytes.
	output := make([]byte, 4000)
	n, err := e.encoder.Encode(pcm, output)
	if err != nil {
		return nil, fmt.Errorf("opus encode failed: %w", err)
	}
	return output[:n], nil
}

// FrameSamples returns the required interleaved block length.
func (e *OpusEncoder) FrameSamples() int {
	return e.frameSize * e.channels
}

// Close releases resources.
func (e *OpusEncoder) Close() error {
	return nil
}
