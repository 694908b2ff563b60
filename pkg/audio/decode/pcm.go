// ABOUTME: Raw PCM decoder
// ABOUTME: Decodes 16-bit and 24-bit interleaved PCM to per-channel samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// PCM decodes raw interleaved little-endian PCM described by format.
// Unlike the file decoders, PCM has no header to sniff, so the format
// must come from the caller.
func PCM(data []byte, format audio.Format) (*audio.Buffer, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}
	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}
	if format.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", format.Channels)
	}
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}

	bytesPerSample := format.BitDepth / 8
	frames := len(data) / (bytesPerSample * format.Channels)

	buf := audio.NewBuffer(format.Channels, frames, format.SampleRate)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < format.Channels; ch++ {
			off := (i*format.Channels + ch) * bytesPerSample
			if format.BitDepth == 24 {
				b := [3]byte{data[off], data[off+1], data[off+2]}
				buf.Samples[ch][i] = audio.SampleFrom24Bit(b)
			} else {
				s := int16(binary.LittleEndian.Uint16(data[off:]))
				buf.Samples[ch][i] = audio.SampleFromInt16(s)
			}
		}
	}
	return buf, nil
}
