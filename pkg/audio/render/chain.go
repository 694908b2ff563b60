// ABOUTME: Signal path processor behind a live render chain
// ABOUTME: Variable-rate source through dry and reverb wet gains to 16-bit PCM
package render

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// tailSeconds is how long the reverb rings out after the source ends
// before the chain reports EOF.
const tailSeconds = 0.5

// processor renders a buffer into interleaved 16-bit little-endian PCM
// at the device format. It implements io.Reader so an output player can
// pull from it, and is safe for concurrent parameter updates.
type processor struct {
	mu          sync.Mutex
	src         *varispeed
	scale       float64 // buffer frames per device frame at rate 1.0
	outRate     int
	outChannels int
	dry         float64
	wet         float64
	revs        []*reverb
	frame       []float64
	tap         func([]float64, int)
	tailLeft    int
	done        bool
}

func newProcessor(buf *audio.Buffer, offset, rate float64, outRate, outChannels int) *processor {
	scale := float64(buf.SampleRate) / float64(outRate)
	p := &processor{
		src:         newVarispeed(buf, offset, rate*scale),
		scale:       scale,
		outRate:     outRate,
		outChannels: outChannels,
		dry:         1.0,
		revs:        make([]*reverb, outChannels),
		frame:       make([]float64, buf.Channels()),
		tailLeft:    int(tailSeconds * float64(outRate)),
	}
	for i := range p.revs {
		p.revs[i] = newReverb(outRate)
	}
	return p
}

// Read fills out with rendered PCM. After the source is exhausted it
// keeps feeding silence through the reverb for the tail, then reports
// io.EOF.
func (p *processor) Read(out []byte) (int, error) {
	p.mu.Lock()

	if p.done {
		p.mu.Unlock()
		return 0, io.EOF
	}

	frameBytes := 2 * p.outChannels
	frames := len(out) / frameBytes
	if frames == 0 {
		p.mu.Unlock()
		return 0, nil
	}

	tap := p.tap
	var block []float64
	if tap != nil {
		block = make([]float64, 0, frames*p.outChannels)
	}

	n := 0
	for i := 0; i < frames; i++ {
		if !p.src.readFrame(p.frame) {
			if p.tailLeft <= 0 {
				p.done = true
				break
			}
			p.tailLeft--
			for j := range p.frame {
				p.frame[j] = 0
			}
		}

		for c := 0; c < p.outChannels; c++ {
			s := p.frame[0]
			if c < len(p.frame) {
				s = p.frame[c]
			}
			mixed := s*p.dry + p.revs[c].process(s)*p.wet
			binary.LittleEndian.PutUint16(out[n:], uint16(audio.SampleToInt16(mixed)))
			n += 2
			if block != nil {
				block = append(block, mixed)
			}
		}
	}
	p.mu.Unlock()

	// Tap callbacks run without the lock and may do slow work.
	if tap != nil && len(block) > 0 {
		tap(block, p.outRate)
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (p *processor) setRate(rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.src.setStep(rate * p.scale)
}

func (p *processor) setGains(dry, wet float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dry = dry
	p.wet = wet
}

func (p *processor) setTap(fn func([]float64, int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tap = fn
}
