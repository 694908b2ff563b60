// ABOUTME: Audio type definitions
// ABOUTME: Defines the decoded sample buffer and sample conversions
package audio

import "fmt"

// Format describes a PCM stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Buffer represents decoded audio: one normalized float64 slice per channel.
// Samples are in [-1, 1]. A Buffer is immutable once published; components
// that hold one (session, render chain, waveform) read it without copying.
type Buffer struct {
	Samples    [][]float64 // per-channel, equal lengths
	SampleRate int
	Source     string // file name or URL the audio came from
}

// NewBuffer allocates a buffer with the given channel count and frame length.
func NewBuffer(channels, frames, sampleRate int) *Buffer {
	samples := make([][]float64, channels)
	for i := range samples {
		samples[i] = make([]float64, frames)
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate}
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	return len(b.Samples)
}

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Channel returns the sample slice for channel i, falling back to channel 0
// when i is out of range. Returns nil for an empty buffer.
func (b *Buffer) Channel(i int) []float64 {
	if len(b.Samples) == 0 {
		return nil
	}
	if i < 0 || i >= len(b.Samples) {
		return b.Samples[0]
	}
	return b.Samples[i]
}

// Mono returns a single-channel downmix, averaging across channels.
// A buffer that is already mono returns its own slice.
func (b *Buffer) Mono() []float64 {
	if len(b.Samples) == 0 {
		return nil
	}
	if len(b.Samples) == 1 {
		return b.Samples[0]
	}
	frames := b.Frames()
	out := make([]float64, frames)
	for _, ch := range b.Samples {
		for i, s := range ch {
			out[i] += s
		}
	}
	scale := 1.0 / float64(len(b.Samples))
	for i := range out {
		out[i] *= scale
	}
	return out
}

// Validate reports whether the buffer is coherent: at least one channel,
// equal channel lengths, positive sample rate.
func (b *Buffer) Validate() error {
	if b == nil || len(b.Samples) == 0 {
		return fmt.Errorf("buffer has no channels")
	}
	frames := len(b.Samples[0])
	for i, ch := range b.Samples {
		if len(ch) != frames {
			return fmt.Errorf("channel %d has %d frames, expected %d", i, len(ch), frames)
		}
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", b.SampleRate)
	}
	return nil
}

// SampleToInt16 converts a normalized float64 sample to int16 with clipping.
func SampleToInt16(s float64) int16 {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	return int16(s * 32767.0)
}

// SampleFromInt16 converts an int16 sample to normalized float64.
func SampleFromInt16(s int16) float64 {
	return float64(s) / 32768.0
}

// SampleFrom24Bit converts a 24-bit little-endian sample to normalized
// float64, sign extending the top byte.
func SampleFrom24Bit(b [3]byte) float64 {
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if v&0x800000 != 0 {
		v |= ^int32(0xFFFFFF)
	}
	return float64(v) / 8388608.0
}

// SampleTo24Bit converts a normalized float64 sample to 24-bit
// little-endian bytes with clipping.
func SampleTo24Bit(s float64) [3]byte {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	v := int32(s * 8388607.0)
	return [3]byte{byte(v), byte(v >> 8), byte(v >> 16)}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
