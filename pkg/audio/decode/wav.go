// ABOUTME: WAV file decoder
// ABOUTME: Decodes RIFF/WAVE data to normalized per-channel samples
package decode

import (
	"bytes"
	"fmt"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// WAV decodes a complete WAV file into a buffer.
func WAV(data []byte) (*audio.Buffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV data")
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	channels := int(d.NumChans)
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	frames := len(pcm.Data) / channels
	maxVal := float64(goaudio.IntMaxSignedValue(int(d.BitDepth)))
	if maxVal == 0 {
		return nil, fmt.Errorf("unsupported bit depth: %d", d.BitDepth)
	}

	buf := audio.NewBuffer(channels, frames, int(d.SampleRate))
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			buf.Samples[ch][i] = float64(pcm.Data[i*channels+ch]) / maxVal
		}
	}
	return buf, nil
}
