// ABOUTME: Encoder interface and frame accumulation
// ABOUTME: Common interface for the monitor stream encoders
package encode

import (
	"fmt"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// Encoder encodes normalized interleaved samples to wire bytes.
type Encoder interface {
	// Encode converts one block of samples to encoded audio data.
	Encode(samples []float64) ([]byte, error)

	// FrameSamples is the exact block length Encode requires, or 0
	// when any length is accepted.
	FrameSamples() int

	// Close releases encoder resources.
	Close() error
}

// NewEncoder creates the encoder matching format.Codec.
func NewEncoder(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case "opus":
		return NewOpus(format)
	case "pcm":
		return NewPCM(format)
	default:
		return nil, fmt.Errorf("unsupported encoder codec: %s", format.Codec)
	}
}

// Framer accumulates arbitrarily sized sample blocks and emits
// fixed-length frames for encoders that require them.
type Framer struct {
	size    int
	pending []float64
}

// NewFramer creates a framer emitting blocks of size samples.
func NewFramer(size int) *Framer {
	return &Framer{size: size}
}

// Push appends samples and returns every complete frame now available.
func (f *Framer) Push(samples []float64) [][]float64 {
	f.pending = append(f.pending, samples...)

	var frames [][]float64
	for len(f.pending) >= f.size {
		frame := make([]float64, f.size)
		copy(frame, f.pending[:f.size])
		frames = append(frames, frame)
		f.pending = f.pending[f.size:]
	}
	return frames
}

// Flush returns the remaining partial frame zero padded to full
// length, or nil when nothing is pending.
func (f *Framer) Flush() []float64 {
	if len(f.pending) == 0 {
		return nil
	}
	frame := make([]float64, f.size)
	copy(frame, f.pending)
	f.pending = f.pending[:0]
	return frame
}
