// ABOUTME: Tests for audio types
// ABOUTME: Tests buffer accessors and sample conversion functions
package audio

import (
	"math"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	buf := NewBuffer(2, 100, 44100)

	if buf.Channels() != 2 {
		t.Errorf("expected 2 channels, got %d", buf.Channels())
	}
	if buf.Frames() != 100 {
		t.Errorf("expected 100 frames, got %d", buf.Frames())
	}
	if buf.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", buf.SampleRate)
	}
}

func TestBufferDuration(t *testing.T) {
	tests := []struct {
		name       string
		frames     int
		sampleRate int
		expected   float64
	}{
		{"one second", 44100, 44100, 1.0},
		{"ten seconds", 480000, 48000, 10.0},
		{"half second", 22050, 44100, 0.5},
		{"empty", 0, 44100, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer(1, tt.frames, tt.sampleRate)
			if got := buf.Duration(); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected duration %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestBufferDurationZeroRate(t *testing.T) {
	buf := &Buffer{Samples: [][]float64{make([]float64, 10)}}
	if got := buf.Duration(); got != 0 {
		t.Errorf("expected 0 duration for zero sample rate, got %v", got)
	}
}

func TestBufferChannelFallback(t *testing.T) {
	buf := NewBuffer(2, 4, 44100)
	buf.Samples[0][0] = 0.5
	buf.Samples[1][0] = -0.5

	if got := buf.Channel(1)[0]; got != -0.5 {
		t.Errorf("expected channel 1 sample -0.5, got %v", got)
	}
	// Out-of-range channel falls back to channel 0
	if got := buf.Channel(5)[0]; got != 0.5 {
		t.Errorf("expected fallback to channel 0 (0.5), got %v", got)
	}
	if got := buf.Channel(-1)[0]; got != 0.5 {
		t.Errorf("expected fallback to channel 0 (0.5), got %v", got)
	}
}

func TestBufferMono(t *testing.T) {
	buf := NewBuffer(2, 3, 44100)
	buf.Samples[0] = []float64{1.0, 0.0, -1.0}
	buf.Samples[1] = []float64{0.0, 0.0, -1.0}

	mono := buf.Mono()
	expected := []float64{0.5, 0.0, -1.0}
	for i, want := range expected {
		if math.Abs(mono[i]-want) > 1e-9 {
			t.Errorf("frame %d: expected %v, got %v", i, want, mono[i])
		}
	}
}

func TestBufferMonoSingleChannel(t *testing.T) {
	buf := NewBuffer(1, 4, 44100)
	buf.Samples[0][2] = 0.25

	mono := buf.Mono()
	if &mono[0] != &buf.Samples[0][0] {
		t.Error("expected mono of a mono buffer to return the same slice")
	}
}

func TestBufferValidate(t *testing.T) {
	good := NewBuffer(2, 10, 44100)
	if err := good.Validate(); err != nil {
		t.Errorf("expected valid buffer, got error: %v", err)
	}

	empty := &Buffer{SampleRate: 44100}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for buffer with no channels")
	}

	ragged := &Buffer{
		Samples:    [][]float64{make([]float64, 10), make([]float64, 5)},
		SampleRate: 44100,
	}
	if err := ragged.Validate(); err == nil {
		t.Error("expected error for ragged channel lengths")
	}

	badRate := NewBuffer(1, 10, 0)
	if err := badRate.Validate(); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int16
	}{
		{"zero", 0.0, 0},
		{"full scale", 1.0, 32767},
		{"negative full scale", -1.0, -32767},
		{"half", 0.5, 16383},
		{"clip high", 1.5, 32767},
		{"clip low", -2.0, -32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected float64
	}{
		{"zero", 0, 0.0},
		{"max", 32767, 32767.0 / 32768.0},
		{"min", -32768, -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected float64
	}{
		{"zero", [3]byte{0x00, 0x00, 0x00}, 0.0},
		{"half", [3]byte{0x00, 0x00, 0x40}, 0.5},
		{"max", [3]byte{0xFF, 0xFF, 0x7F}, 8388607.0 / 8388608.0},
		{"min", [3]byte{0x00, 0x00, 0x80}, -1.0},
		{"negative one step", [3]byte{0xFF, 0xFF, 0xFF}, -1.0 / 8388608.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestRoundTrip16Bit(t *testing.T) {
	// Conversion error should stay within one quantization step
	samples := []float64{0.0, 0.25, -0.25, 0.9, -0.9}

	for _, original := range samples {
		encoded := SampleToInt16(original)
		result := SampleFromInt16(encoded)
		if math.Abs(result-original) > 1.0/32767.0 {
			t.Errorf("round-trip drifted: %v -> %d -> %v", original, encoded, result)
		}
	}
}

func TestRoundTrip24Bit(t *testing.T) {
	samples := []float64{0.0, 0.25, -0.25, 0.9, -0.9}

	for _, original := range samples {
		encoded := SampleTo24Bit(original)
		result := SampleFrom24Bit(encoded)
		if math.Abs(result-original) > 1.0/8388607.0 {
			t.Errorf("round-trip drifted: %v -> %v -> %v", original, encoded, result)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		expected  float64
	}{
		{"inside", 0.5, 0, 1, 0.5},
		{"below", -1, 0, 1, 0},
		{"above", 2, 0, 1, 1},
		{"at low edge", 0, 0, 1, 0},
		{"at high edge", 1, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
