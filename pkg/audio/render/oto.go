// ABOUTME: Oto-backed render system implementation
// ABOUTME: Builds device-output chains with software rate, reverb, and gain control
package render

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// Oto renders chains through the system audio device using the oto
// library. The device context is created on the first Build and reused
// afterwards; oto only allows one context per process.
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	sampleRate int
	channels   int
}

// NewOto creates an Oto render system. No device resources are claimed
// until the first chain is built.
func NewOto() *Oto {
	return &Oto{}
}

// Build opens the device on first use and starts a chain playing buf
// from offset at the given rate.
func (o *Oto) Build(buf *audio.Buffer, offset, rate float64) (Chain, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid buffer: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		channels := buf.Channels()
		if channels > 2 {
			channels = 2
		}
		op := &oto.NewContextOptions{
			SampleRate:   buf.SampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return nil, fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan
		o.otoCtx = ctx
		o.sampleRate = buf.SampleRate
		o.channels = channels
		log.Printf("Audio output initialized: %dHz, %d channels", o.sampleRate, o.channels)
	} else if o.sampleRate != buf.SampleRate {
		// oto does not support reinitialization; the varispeed cursor
		// absorbs the rate difference via its scale factor.
		log.Printf("Buffer rate %dHz differs from device rate %dHz, rescaling", buf.SampleRate, o.sampleRate)
	}

	proc := newProcessor(buf, offset, rate, o.sampleRate, o.channels)
	player := o.otoCtx.NewPlayer(proc)
	player.Play()

	return &otoChain{proc: proc, player: player}, nil
}

// Now returns the wall clock, which oto playback follows.
func (o *Oto) Now() time.Time {
	return time.Now()
}

// Ready reports whether output is permitted. Desktop devices need no
// unlock gesture, so this is true; failures surface from Build.
func (o *Oto) Ready() bool {
	return true
}

type otoChain struct {
	proc      *processor
	player    *oto.Player
	closeOnce sync.Once
}

func (c *otoChain) SetRate(rate float64) error {
	c.proc.setRate(rate)
	return nil
}

func (c *otoChain) SetGains(dry, wet float64) error {
	c.proc.setGains(dry, wet)
	return nil
}

func (c *otoChain) Tap(fn func([]float64, int)) {
	c.proc.setTap(fn)
}

func (c *otoChain) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.player.Close()
	})
	return err
}
