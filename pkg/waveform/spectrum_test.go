// ABOUTME: Tests for the FFT spectrum binning
// ABOUTME: Verifies peak placement, normalization bounds, and determinism
package waveform

import (
	"math"
	"testing"
)

func sineWindow(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestSpectrumPeakPlacement(t *testing.T) {
	samples := sineWindow(440, 44100, 2048)

	bars, err := Spectrum(samples, 64)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	if len(bars) != 64 {
		t.Fatalf("expected 64 bars, got %d", len(bars))
	}

	maxBar := 0
	for i, v := range bars {
		if v > bars[maxBar] {
			maxBar = i
		}
	}
	// 440 Hz lands in FFT bin ~20 of 1024, which is bar 1 at 16 bins per bar.
	if maxBar > 4 {
		t.Errorf("expected peak in a low bar for 440 Hz, got bar %d", maxBar)
	}
	if bars[maxBar] <= 0 {
		t.Errorf("expected positive peak magnitude, got %v", bars[maxBar])
	}
}

func TestSpectrumBounds(t *testing.T) {
	samples := sineWindow(1000, 44100, 1024)

	bars, err := Spectrum(samples, 32)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	for i, v := range bars {
		if v < 0 || v > 1 {
			t.Errorf("bar %d out of [0,1]: %v", i, v)
		}
	}
}

func TestSpectrumSilence(t *testing.T) {
	samples := make([]float64, 512)

	bars, err := Spectrum(samples, 16)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	for i, v := range bars {
		if v != 0 {
			t.Errorf("bar %d: expected 0 for silence, got %v", i, v)
		}
	}
}

func TestSpectrumEmptyInput(t *testing.T) {
	bars, err := Spectrum(nil, 16)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	if len(bars) != 16 {
		t.Fatalf("expected 16 bars, got %d", len(bars))
	}
	for i, v := range bars {
		if v != 0 {
			t.Errorf("bar %d: expected 0 for empty input, got %v", i, v)
		}
	}
}

func TestSpectrumNonPowerOfTwoInput(t *testing.T) {
	// 1000-sample window gets zero padded to 1024 internally.
	samples := sineWindow(440, 44100, 1000)

	bars, err := Spectrum(samples, 32)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}

	any := false
	for _, v := range bars {
		if v > 0 {
			any = true
		}
	}
	if !any {
		t.Error("expected non-zero energy from a sine input")
	}
}

func TestSpectrumDeterministic(t *testing.T) {
	samples := sineWindow(880, 44100, 2048)

	first, err := Spectrum(samples, 64)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	second, err := Spectrum(samples, 64)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("bar %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestSpectrumErrors(t *testing.T) {
	if _, err := Spectrum(make([]float64, 64), 0); err == nil {
		t.Error("expected error for zero bars")
	}
	if _, err := Spectrum(make([]float64, 64), -3); err == nil {
		t.Error("expected error for negative bars")
	}
}
