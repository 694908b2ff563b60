// ABOUTME: PCM audio encoder
// ABOUTME: Encodes samples to 16-bit or 24-bit little-endian PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// PCMEncoder encodes raw PCM audio.
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a new PCM encoder.
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}
	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMEncoder{bitDepth: format.BitDepth}, nil
}

// Encode converts samples to PCM bytes.
func (e *PCMEncoder) Encode(samples []float64) ([]byte, error) {
	if e.bitDepth == 24 {
		output := make([]byte, len(samples)*3)
		for i, s := range samples {
			b := audio.SampleTo24Bit(s)
			output[i*3] = b[0]
			output[i*3+1] = b[1]
			output[i*3+2] = b[2]
		}
		return output, nil
	}

	output := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(s)))
	}
	return output, nil
}

// FrameSamples returns 0; PCM accepts any block length.
func (e *PCMEncoder) FrameSamples() int {
	return 0
}

// Close releases resources.
func (e *PCMEncoder) Close() error {
	return nil
}
