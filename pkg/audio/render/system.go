// ABOUTME: Render subsystem contract for the playback engine
// ABOUTME: Defines the System and Chain interfaces and a silent implementation
package render

import (
	"sync"
	"time"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// System builds live render chains and provides the device clock the
// engine anchors against. The engine never touches rendering
// primitives directly, only this contract.
type System interface {
	// Build constructs a chain playing buf from offset seconds at the
	// given playback rate. The chain starts rendering immediately.
	Build(buf *audio.Buffer, offset, rate float64) (Chain, error)

	// Now returns the device clock reading. Monotonic by contract.
	Now() time.Time

	// Ready reports whether output is currently permitted. A false
	// value is treated by the engine as not-ready rather than an error.
	Ready() bool
}

// Chain is a live signal path: buffer source at a variable rate, a dry
// path and a reverb wet path summed through two gains, then the output
// device.
type Chain interface {
	// SetRate updates the playback rate of the running chain.
	SetRate(rate float64) error

	// SetGains updates the dry and wet gain coefficients.
	SetGains(dry, wet float64) error

	// Tap registers a callback receiving each rendered interleaved
	// block and its sample rate. Pass nil to remove the tap.
	Tap(fn func(block []float64, sampleRate int))

	// Close tears the chain down. Safe to call more than once.
	Close() error
}

// Null is a render system with no audio device. It records built
// chains and exposes a manual clock. Serves tests and headless runs.
type Null struct {
	mu     sync.Mutex
	now    time.Time
	ready  bool
	chains []*NullChain
}

// NewNull creates a ready Null system with its clock at a fixed epoch.
func NewNull() *Null {
	return &Null{
		now:   time.Unix(1000, 0),
		ready: true,
	}
}

// Build records and returns a NullChain.
func (n *Null) Build(buf *audio.Buffer, offset, rate float64) (Chain, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	c := &NullChain{offset: offset, rate: rate, dry: 1.0}
	n.chains = append(n.chains, c)
	return c, nil
}

// Now returns the manual clock reading.
func (n *Null) Now() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.now
}

// Ready reports the configured readiness.
func (n *Null) Ready() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ready
}

// SetReady configures readiness, emulating an output gate that has not
// been unlocked yet.
func (n *Null) SetReady(ready bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ready = ready
}

// Advance moves the manual clock forward.
func (n *Null) Advance(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.now = n.now.Add(d)
}

// SetNow pins the manual clock to t.
func (n *Null) SetNow(t time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.now = t
}

// Chains returns all chains built so far, oldest first.
func (n *Null) Chains() []*NullChain {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*NullChain, len(n.chains))
	copy(out, n.chains)
	return out
}

// Last returns the most recently built chain, or nil.
func (n *Null) Last() *NullChain {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.chains) == 0 {
		return nil
	}
	return n.chains[len(n.chains)-1]
}

// NullChain records the calls made against it.
type NullChain struct {
	mu     sync.Mutex
	offset float64
	rate   float64
	dry    float64
	wet    float64
	closed bool
	tap    func([]float64, int)
}

// Offset returns the buffer offset the chain was built at.
func (c *NullChain) Offset() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// Rate returns the most recently set rate.
func (c *NullChain) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// Gains returns the most recently set gain pair.
func (c *NullChain) Gains() (dry, wet float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dry, c.wet
}

// Closed reports whether Close was called.
func (c *NullChain) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SetRate records the rate.
func (c *NullChain) SetRate(rate float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = rate
	return nil
}

// SetGains records the gain pair.
func (c *NullChain) SetGains(dry, wet float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dry = dry
	c.wet = wet
	return nil
}

// Tap records the tap callback.
func (c *NullChain) Tap(fn func([]float64, int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tap = fn
}

// Tapped reports whether a tap callback is registered.
func (c *NullChain) Tapped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tap != nil
}

// Emit invokes the registered tap with a block, simulating rendered
// output.
func (c *NullChain) Emit(block []float64, sampleRate int) {
	c.mu.Lock()
	fn := c.tap
	c.mu.Unlock()
	if fn != nil {
		fn(block, sampleRate)
	}
}

// Close marks the chain closed.
func (c *NullChain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
