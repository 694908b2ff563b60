// ABOUTME: FLAC file decoder
// ABOUTME: Decodes FLAC frames to normalized per-channel samples
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// FLAC decodes a complete FLAC stream into a buffer.
func FLAC(data []byte) (*audio.Buffer, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse FLAC stream: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	samples := make([][]float64, channels)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}
		if len(frame.Subframes) != channels {
			return nil, fmt.Errorf("frame has %d subframes, expected %d", len(frame.Subframes), channels)
		}

		maxVal := float64(int64(1) << (frame.BitsPerSample - 1))
		for ch, sub := range frame.Subframes {
			for _, s := range sub.Samples {
				samples[ch] = append(samples[ch], float64(s)/maxVal)
			}
		}
	}

	return &audio.Buffer{
		Samples:    samples,
		SampleRate: int(stream.Info.SampleRate),
	}, nil
}
