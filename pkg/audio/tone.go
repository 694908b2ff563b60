// ABOUTME: Test tone buffer generator
// ABOUTME: Produces sine wave buffers for examples and tests
package audio

import "math"

// Tone generates a sine wave buffer. Handy for examples and tests that
// need a deterministic buffer without decoding a file.
func Tone(freq float64, seconds float64, sampleRate, channels int) *Buffer {
	frames := int(seconds * float64(sampleRate))
	buf := NewBuffer(channels, frames, sampleRate)
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		s := math.Sin(2*math.Pi*freq*t) * 0.5
		for c := 0; c < channels; c++ {
			buf.Samples[c][i] = s
		}
	}
	buf.Source = "tone"
	return buf
}

// Silence generates an all-zero buffer of the given length.
func Silence(seconds float64, sampleRate, channels int) *Buffer {
	frames := int(seconds * float64(sampleRate))
	buf := NewBuffer(channels, frames, sampleRate)
	buf.Source = "silence"
	return buf
}
