// ABOUTME: MP3 file decoder
// ABOUTME: Decodes MP3 data to normalized stereo samples
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// MP3 decodes a complete MP3 stream into a buffer. The output is
// always stereo at the stream's sample rate.
func MP3(data []byte) (*audio.Buffer, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	// go-mp3 always emits interleaved stereo int16: 4 bytes per frame.
	frames := len(pcm) / 4
	buf := audio.NewBuffer(2, frames, d.SampleRate())
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		buf.Samples[0][i] = audio.SampleFromInt16(left)
		buf.Samples[1][i] = audio.SampleFromInt16(right)
	}
	return buf, nil
}
