// ABOUTME: Small Schroeder reverberator for the wet path
// ABOUTME: Four parallel feedback combs into two series allpass filters
package render

// reverb is a compact Schroeder reverberator tuned for a short room
// tail. One instance per output channel; the zero value is not usable,
// construct with newReverb.
type reverb struct {
	combs     [4]comb
	allpasses [2]allpass
}

// Comb delays in seconds, chosen mutually prime-ish so the tail stays
// diffuse rather than ringing at one period.
var combDelays = [4]float64{0.0297, 0.0371, 0.0411, 0.0437}
var combFeedback = [4]float64{0.805, 0.827, 0.783, 0.764}

var allpassDelays = [2]float64{0.005, 0.0017}

const allpassFeedback = 0.7

func newReverb(sampleRate int) *reverb {
	r := &reverb{}
	for i := range r.combs {
		r.combs[i] = newComb(int(combDelays[i]*float64(sampleRate)), combFeedback[i])
	}
	for i := range r.allpasses {
		r.allpasses[i] = newAllpass(int(allpassDelays[i] * float64(sampleRate)))
	}
	return r
}

// process runs one sample through the reverberator.
func (r *reverb) process(in float64) float64 {
	var out float64
	for i := range r.combs {
		out += r.combs[i].process(in)
	}
	out *= 0.25
	for i := range r.allpasses {
		out = r.allpasses[i].process(out)
	}
	return out
}

type comb struct {
	buf      []float64
	idx      int
	feedback float64
}

func newComb(delay int, feedback float64) comb {
	if delay < 1 {
		delay = 1
	}
	return comb{buf: make([]float64, delay), feedback: feedback}
}

func (c *comb) process(in float64) float64 {
	out := c.buf[c.idx]
	c.buf[c.idx] = in + out*c.feedback
	c.idx++
	if c.idx >= len(c.buf) {
		c.idx = 0
	}
	return out
}

type allpass struct {
	buf []float64
	idx int
}

func newAllpass(delay int) allpass {
	if delay < 1 {
		delay = 1
	}
	return allpass{buf: make([]float64, delay)}
}

func (a *allpass) process(in float64) float64 {
	delayed := a.buf[a.idx]
	out := delayed - in*allpassFeedback
	a.buf[a.idx] = in + delayed*allpassFeedback
	a.idx++
	if a.idx >= len(a.buf) {
		a.idx = 0
	}
	return out
}
