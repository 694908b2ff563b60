// ABOUTME: Tests for the render chain processor
// ABOUTME: Verifies PCM output, gain application, rate changes, tail, and tap
package render

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

func constBuffer(value float64, frames, sampleRate int) *audio.Buffer {
	buf := audio.NewBuffer(1, frames, sampleRate)
	for i := range buf.Samples[0] {
		buf.Samples[0][i] = value
	}
	return buf
}

func readAllFrames(t *testing.T, p *processor, channels int) []int16 {
	t.Helper()
	var samples []int16
	chunk := make([]byte, 256*2*channels)
	for {
		n, err := p.Read(chunk)
		for i := 0; i+1 < n; i += 2 {
			samples = append(samples, int16(binary.LittleEndian.Uint16(chunk[i:])))
		}
		if err == io.EOF {
			return samples
		}
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
	}
}

func TestProcessorDryPassthrough(t *testing.T) {
	buf := constBuffer(0.5, 100, 100)
	p := newProcessor(buf, 0, 1.0, 100, 2)

	out := make([]byte, 10*2*2)
	n, err := p.Read(out)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != len(out) {
		t.Fatalf("expected %d bytes, got %d", len(out), n)
	}

	want := audio.SampleToInt16(0.5)
	for i := 0; i < n; i += 2 {
		got := int16(binary.LittleEndian.Uint16(out[i:]))
		if got != want {
			t.Fatalf("sample at byte %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestProcessorMonoDuplicatedToStereo(t *testing.T) {
	buf := constBuffer(0.25, 10, 100)
	p := newProcessor(buf, 0, 1.0, 100, 2)

	out := make([]byte, 4*2*2)
	if _, err := p.Read(out); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	left := int16(binary.LittleEndian.Uint16(out[0:]))
	right := int16(binary.LittleEndian.Uint16(out[2:]))
	if left != right {
		t.Errorf("expected identical channels, got left %d right %d", left, right)
	}
}

func TestProcessorGainScales(t *testing.T) {
	buf := constBuffer(0.5, 100, 100)
	p := newProcessor(buf, 0, 1.0, 100, 1)
	p.setGains(0.5, 0)

	out := make([]byte, 10*2)
	if _, err := p.Read(out); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := audio.SampleToInt16(0.25)
	got := int16(binary.LittleEndian.Uint16(out[0:]))
	if got != want {
		t.Errorf("expected %d after 0.5 dry gain, got %d", want, got)
	}
}

func TestProcessorLengthWithTail(t *testing.T) {
	sampleRate := 100
	buf := constBuffer(0.1, 100, sampleRate)
	p := newProcessor(buf, 0, 1.0, sampleRate, 1)

	samples := readAllFrames(t, p, 1)
	// 100 source frames plus the reverb tail
	expected := 100 + int(tailSeconds*float64(sampleRate))
	if len(samples) != expected {
		t.Errorf("expected %d frames including tail, got %d", expected, len(samples))
	}

	// Subsequent reads stay at EOF
	n, err := p.Read(make([]byte, 16))
	if n != 0 || err != io.EOF {
		t.Errorf("expected (0, EOF) after completion, got (%d, %v)", n, err)
	}
}

func TestProcessorFastRateConsumesSooner(t *testing.T) {
	sampleRate := 100
	buf := constBuffer(0.1, 100, sampleRate)
	p := newProcessor(buf, 0, 2.0, sampleRate, 1)

	samples := readAllFrames(t, p, 1)
	// 50 output frames cover the source at double speed, plus tail
	expected := 50 + int(tailSeconds*float64(sampleRate))
	if len(samples) != expected {
		t.Errorf("expected %d frames at rate 2.0, got %d", expected, len(samples))
	}
}

func TestProcessorSetRateMidStream(t *testing.T) {
	sampleRate := 100
	buf := constBuffer(0.1, 100, sampleRate)
	p := newProcessor(buf, 0, 1.0, sampleRate, 1)

	// Consume 25 output frames at rate 1.0 (25 source frames)
	chunk := make([]byte, 25*2)
	if _, err := p.Read(chunk); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	p.setRate(0.5)
	samples := readAllFrames(t, p, 1)
	// Remaining 75 source frames take 150 output frames at half speed
	expected := 150 + int(tailSeconds*float64(sampleRate))
	if len(samples) != expected {
		t.Errorf("expected %d frames after slowing down, got %d", expected, len(samples))
	}
}

func TestProcessorDeviceRateScaling(t *testing.T) {
	// A 200Hz buffer on a 100Hz device consumes two source frames per
	// output frame even at rate 1.0.
	buf := constBuffer(0.1, 200, 200)
	p := newProcessor(buf, 0, 1.0, 100, 1)

	samples := readAllFrames(t, p, 1)
	expected := 100 + int(tailSeconds*100)
	if len(samples) != expected {
		t.Errorf("expected %d frames with device-rate scaling, got %d", expected, len(samples))
	}
}

func TestProcessorTapReceivesBlocks(t *testing.T) {
	buf := constBuffer(0.5, 50, 100)
	p := newProcessor(buf, 0, 1.0, 100, 2)

	var tapped []float64
	var tappedRate int
	p.setTap(func(block []float64, sampleRate int) {
		tapped = append(tapped, block...)
		tappedRate = sampleRate
	})

	out := make([]byte, 20*2*2)
	if _, err := p.Read(out); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if len(tapped) != 20*2 {
		t.Errorf("expected 40 tapped samples, got %d", len(tapped))
	}
	if tappedRate != 100 {
		t.Errorf("expected tapped rate 100, got %d", tappedRate)
	}
	for i, s := range tapped {
		if s != 0.5 {
			t.Fatalf("tapped sample %d: expected 0.5, got %v", i, s)
		}
	}
}
