// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the Buffer type and sample conversion functions
// Package audio provides fundamental audio types and utilities for the
// woodshed library.
//
// This package defines core types used throughout the deck:
//   - Buffer: Decoded audio as normalized float64 channels
//   - Format: Describes a PCM stream format (codec, sample rate, channels, bit depth)
//
// It also provides utilities for converting between normalized float samples
// and 16-bit integer PCM used by the output device and the monitor stream.
//
// Example:
//
//	buf := audio.NewBuffer(2, 44100, 44100) // one second, stereo
//	secs := buf.Duration()                  // 1.0
//	mono := buf.Mono()                      // averaged downmix
package audio
