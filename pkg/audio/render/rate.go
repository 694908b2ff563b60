// ABOUTME: Variable-rate buffer reader using linear interpolation
// ABOUTME: Advances a fractional frame cursor by a step per output frame
package render

import (
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// varispeed reads a buffer at a fractional frame cursor, interpolating
// linearly between adjacent frames. The step is how many buffer frames
// the cursor advances per output frame, so a step above 1.0 plays fast
// and below 1.0 plays slow.
type varispeed struct {
	buf    *audio.Buffer
	cursor float64
	step   float64
}

func newVarispeed(buf *audio.Buffer, offsetSeconds, step float64) *varispeed {
	cursor := offsetSeconds * float64(buf.SampleRate)
	if cursor < 0 {
		cursor = 0
	}
	return &varispeed{
		buf:    buf,
		cursor: cursor,
		step:   step,
	}
}

// readFrame writes one interpolated sample per buffer channel into out
// and advances the cursor. Returns false once the cursor has passed the
// final frame.
func (v *varispeed) readFrame(out []float64) bool {
	frames := v.buf.Frames()
	idx := int(v.cursor)
	if idx >= frames {
		return false
	}

	frac := v.cursor - float64(idx)
	for ch := range v.buf.Samples {
		s1 := v.buf.Samples[ch][idx]
		s2 := s1
		if idx+1 < frames {
			s2 = v.buf.Samples[ch][idx+1]
		}
		out[ch] = s1*(1.0-frac) + s2*frac
	}

	v.cursor += v.step
	return true
}

// setStep updates the per-frame cursor advance.
func (v *varispeed) setStep(step float64) {
	v.step = step
}

// position returns the cursor in seconds of buffer time.
func (v *varispeed) position() float64 {
	return v.cursor / float64(v.buf.SampleRate)
}
