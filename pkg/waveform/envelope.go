// ABOUTME: Min/max waveform envelope computation
// ABOUTME: Partitions a channel into one sample span per pixel column
package waveform

import (
	"fmt"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// Span is the sample range covered by one pixel column.
type Span struct {
	Min float64
	Max float64
}

// Envelope is one Span per pixel column, left to right.
type Envelope []Span

// ComputeEnvelope partitions the channel's samples into pixelWidth
// contiguous windows of ceil(frames/pixelWidth) samples (the final
// window may be shorter) and records the minimum and maximum of each.
// Columns past the end of short buffers are zero spans. The result is
// deterministic for a given buffer and width, and is display-only; it
// is never consulted for audio decisions. Out-of-range channels fall
// back to channel 0.
func ComputeEnvelope(buf *audio.Buffer, channel, pixelWidth int) (Envelope, error) {
	if pixelWidth <= 0 {
		return nil, fmt.Errorf("pixel width must be positive, got %d", pixelWidth)
	}
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("cannot compute envelope: %w", err)
	}

	samples := buf.Channel(channel)
	frames := len(samples)
	window := (frames + pixelWidth - 1) / pixelWidth
	if window < 1 {
		window = 1
	}

	env := make(Envelope, pixelWidth)
	for px := 0; px < pixelWidth; px++ {
		start := px * window
		if start >= frames {
			break
		}
		end := start + window
		if end > frames {
			end = frames
		}

		lo, hi := samples[start], samples[start]
		for _, s := range samples[start+1 : end] {
			if s < lo {
				lo = s
			}
			if s > hi {
				hi = s
			}
		}
		env[px] = Span{Min: lo, Max: hi}
	}
	return env, nil
}

// PixelSpan maps a span onto a column of the given height: sample
// range [-1, 1] maps to pixel range [0, height], so the run goes from
// (1+min)*amp to (1+max)*amp with amp = height/2.
func PixelSpan(s Span, height int) (lo, hi float64) {
	amp := float64(height) / 2
	return (1 + s.Min) * amp, (1 + s.Max) * amp
}
