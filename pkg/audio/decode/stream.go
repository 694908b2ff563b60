// ABOUTME: Packetized stream decoders for the monitor feed
// ABOUTME: Decodes Opus packets and raw PCM frames one packet at a time
package decode

import (
	"encoding/binary"
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// Stream decodes a packetized audio stream. Decode returns interleaved
// normalized samples for one packet.
type Stream interface {
	Decode(packet []byte) ([]float64, error)
	Close() error
}

// NewStream creates the stream decoder matching format.Codec.
func NewStream(format audio.Format) (Stream, error) {
	switch format.Codec {
	case "opus":
		return NewOpusStream(format)
	case "pcm":
		return NewPCMStream(format)
	default:
		return nil, fmt.Errorf("unsupported stream codec: %s", format.Codec)
	}
}

// OpusStream decodes Opus packets.
type OpusStream struct {
	decoder  *opus.Decoder
	channels int
}

// NewOpusStream creates an Opus stream decoder.
func NewOpusStream(format audio.Format) (*OpusStream, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	return &OpusStream{decoder: dec, channels: format.Channels}, nil
}

// Decode converts one Opus packet to interleaved samples.
func (s *OpusStream) Decode(packet []byte) ([]float64, error) {
	// 5760 frames covers the maximum Opus frame size at 48 kHz.
	pcm16 := make([]int16, 5760*s.channels)

	n, err := s.decoder.Decode(packet, pcm16)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	total := n * s.channels
	out := make([]float64, total)
	for i := 0; i < total; i++ {
		out[i] = audio.SampleFromInt16(pcm16[i])
	}
	return out, nil
}

// Close releases decoder resources.
func (s *OpusStream) Close() error {
	return nil
}

// PCMStream decodes raw 16-bit little-endian PCM packets.
type PCMStream struct {
	format audio.Format
}

// NewPCMStream creates a PCM stream decoder.
func NewPCMStream(format audio.Format) (*PCMStream, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported stream bit depth: %d (supported: 16)", format.BitDepth)
	}
	return &PCMStream{format: format}, nil
}

// Decode converts one PCM packet to interleaved samples.
func (s *PCMStream) Decode(packet []byte) ([]float64, error) {
	n := len(packet) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(packet[i*2:])))
	}
	return out, nil
}

// Close releases decoder resources.
func (s *PCMStream) Close() error {
	return nil
}
