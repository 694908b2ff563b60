// ABOUTME: Magnitude spectrum computation for the analyser pane
// ABOUTME: Hanning window and FFT binned into display bars
package waveform

import (
	"fmt"
	"math"

	"github.com/argusdusty/gofft"
)

// Spectrum computes a binned magnitude spectrum of the given samples:
// Hanning window, FFT (input zero-padded to a power of two), then the
// positive-frequency magnitudes averaged into bars and log-compressed
// into roughly [0, 1]. Used for display only.
func Spectrum(samples []float64, bars int) ([]float64, error) {
	if bars <= 0 {
		return nil, fmt.Errorf("bar count must be positive, got %d", bars)
	}
	if len(samples) == 0 {
		return make([]float64, bars), nil
	}

	windowed := hanning(samples)
	n := nextPow2(len(windowed))
	if n != len(windowed) {
		padded := make([]float64, n)
		copy(padded, windowed)
		windowed = padded
	}

	coeffs := gofft.Float64ToComplex128Array(windowed)
	if err := gofft.FFT(coeffs); err != nil {
		return nil, fmt.Errorf("fft failed: %w", err)
	}

	half := len(coeffs) / 2
	if bars > half {
		bars = half
	}
	binsPerBar := half / bars

	out := make([]float64, bars)
	scale := 2.0 / float64(len(windowed))
	for bar := 0; bar < bars; bar++ {
		start := bar * binsPerBar
		end := start + binsPerBar
		var sum float64
		for i := start; i < end; i++ {
			sum += math.Hypot(real(coeffs[i]), imag(coeffs[i]))
		}
		mag := sum / float64(binsPerBar) * scale
		// Log compression spreads quiet content; clamp the top.
		v := math.Log10(1 + mag*9)
		if v > 1 {
			v = 1
		}
		out[bar] = v
	}
	return out, nil
}

func hanning(data []float64) []float64 {
	n := len(data)
	windowed := make([]float64, n)
	if n == 1 {
		windowed[0] = data[0]
		return windowed
	}
	for i, s := range data {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = s * w
	}
	return windowed
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
