// ABOUTME: Waveform display package
// ABOUTME: Envelope computation, spectrum analysis, and PNG rendering
// Package waveform turns decoded audio into display data.
//
// ComputeEnvelope reduces a channel to one (min, max) span per pixel
// column for drawing; Spectrum produces binned FFT magnitudes for an
// analyser pane; Image and SavePNG render an envelope with an optional
// position marker and label.
//
// Example:
//
//	env, _ := waveform.ComputeEnvelope(buf, 0, 800)
//	img := waveform.Image(env, waveform.ImageOptions{Height: 200, Label: "take 3"})
//	waveform.SavePNG("take3.png", img)
package waveform
