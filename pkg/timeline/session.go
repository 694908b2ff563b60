// ABOUTME: Playback state machine owning transport state, anchor, and params
// ABOUTME: Implements load, play, pause, stop, seek, rate, and position logic
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio/render"
	"github.com/Woodshed-Audio/woodshed-go/pkg/effects"
)

// State is the transport state.
type State int

const (
	// Stopped: position is 0 and no render chain is active.
	Stopped State = iota
	// Playing: a render chain is active and position is computed from
	// the anchor, never stored.
	Playing
	// Paused: a held position with no active chain.
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// LoadState tracks the async load lifecycle.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadPending
	LoadReady
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadIdle:
		return "idle"
	case LoadPending:
		return "loading"
	case LoadReady:
		return "ready"
	case LoadFailed:
		return "error"
	default:
		return "unknown"
	}
}

// Playback rate bounds. Out-of-range rates are clamped, not rejected.
const (
	MinRate = 0.5
	MaxRate = 1.5
)

// ErrNotReady reports a transport operation with no usable buffer, a
// load still in flight, or an output that is not yet permitted.
var ErrNotReady = errors.New("not ready")

// Status is the snapshot the session emits to UIs and bridges.
type Status struct {
	State    State
	Position float64
	Duration float64
	Rate     float64
	Mix      float64
	Load     LoadState
	Track    string
}

// Config holds session configuration.
type Config struct {
	// Render is the rendering collaborator. Required.
	Render render.System

	// Mix is the effects controller. Created if nil.
	Mix *effects.Mix

	// ProgressInterval is the progress loop tick (default: 16ms).
	ProgressInterval time.Duration

	// OnStateChange is called after every transport, rate, mix, or
	// load-state transition.
	OnStateChange func(Status)

	// OnProgress is called each progress tick while playing.
	OnProgress func(position float64)

	// OnError is called for asynchronous errors.
	OnError func(error)

	// Tap receives rendered audio blocks. Reapplied to every chain the
	// session builds, so it survives seeks and rate rebuilds.
	Tap func(block []float64, sampleRate int)
}

// Session is the playback engine: it owns the loaded buffer, transport
// state, anchor, playback params, and the live render chain handle. It
// is the only component that mutates the anchor. All methods are safe
// for concurrent use.
type Session struct {
	config Config

	mu       sync.RWMutex
	render   render.System
	mix      *effects.Mix
	buf      *audio.Buffer
	duration float64
	state    State
	anchor   Anchor
	held     float64
	rate     float64
	chain    render.Chain
	load     LoadState
	loadGen  uint64
	loopGen  uint64

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewSession creates a session around the given render system.
func NewSession(config Config) (*Session, error) {
	if config.Render == nil {
		return nil, fmt.Errorf("render system is required")
	}
	if config.Mix == nil {
		config.Mix = effects.NewMix(0)
	}
	if config.ProgressInterval == 0 {
		config.ProgressInterval = 16 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		config: config,
		render: config.Render,
		mix:    config.Mix,
		state:  Stopped,
		rate:   1.0,
		load:   LoadIdle,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Load replaces the buffer synchronously: stops rendering, resets to
// Stopped at position 0, and adopts the new buffer and duration. Any
// in-flight async load is superseded.
func (s *Session) Load(buf *audio.Buffer) error {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("cannot load buffer: %w", err)
	}

	s.mu.Lock()
	s.loadGen++
	s.adoptLocked(buf)
	s.mu.Unlock()

	s.notifyStateChange()
	return nil
}

// BeginLoad starts an async load: playback stops, transport operations
// report not-ready until the matching CompleteLoad arrives. Returns the
// generation token that CompleteLoad must present. A newer BeginLoad
// supersedes this one.
func (s *Session) BeginLoad() uint64 {
	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.teardownLocked()
	s.state = Stopped
	s.held = 0
	s.load = LoadPending
	s.mu.Unlock()

	s.notifyStateChange()
	return gen
}

// CompleteLoad resolves the async load started by BeginLoad. Stale
// generations are ignored. On error the prior buffer survives and the
// session stays usable for another attempt. Returns true when the
// buffer was adopted.
func (s *Session) CompleteLoad(gen uint64, buf *audio.Buffer, loadErr error) bool {
	s.mu.Lock()
	if gen != s.loadGen {
		s.mu.Unlock()
		log.Printf("Ignoring stale load completion (gen %d, current %d)", gen, s.loadGen)
		return false
	}

	if loadErr != nil {
		if s.buf != nil {
			s.load = LoadReady
		} else {
			s.load = LoadFailed
		}
		s.mu.Unlock()
		s.notifyError(loadErr)
		s.notifyStateChange()
		return false
	}

	if err := buf.Validate(); err != nil {
		if s.buf != nil {
			s.load = LoadReady
		} else {
			s.load = LoadFailed
		}
		s.mu.Unlock()
		s.notifyError(fmt.Errorf("cannot load buffer: %w", err))
		s.notifyStateChange()
		return false
	}

	s.adoptLocked(buf)
	s.mu.Unlock()
	s.notifyStateChange()
	return true
}

// adoptLocked installs buf as the current track. Caller holds the lock.
func (s *Session) adoptLocked(buf *audio.Buffer) {
	s.teardownLocked()
	s.buf = buf
	s.duration = buf.Duration()
	s.state = Stopped
	s.held = 0
	s.load = LoadReady
}

// Play starts playback from the held position. Valid from Stopped or
// Paused; a no-op while already Playing. Reports ErrNotReady with no
// buffer, a pending load, or an output that is not permitted yet.
func (s *Session) Play() error {
	s.mu.Lock()
	if s.buf == nil || s.load == LoadPending {
		s.mu.Unlock()
		return ErrNotReady
	}
	if s.state == Playing {
		s.mu.Unlock()
		return nil
	}
	if !s.render.Ready() {
		s.mu.Unlock()
		return fmt.Errorf("output not permitted: %w", ErrNotReady)
	}

	start := s.held
	if err := s.buildChainLocked(start); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = Playing
	s.loopGen++
	gen := s.loopGen
	s.mu.Unlock()

	go s.progressLoop(gen)
	s.notifyStateChange()
	return nil
}

// Pause computes the position exactly once from the anchor, tears the
// chain down, and holds that position. A no-op unless Playing; calling
// it while Paused does not alter the held position.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.state != Playing {
		s.mu.Unlock()
		return nil
	}

	p := audio.Clamp(Position(s.anchor, s.render.Now()), 0, s.duration)
	s.teardownLocked()
	s.held = p
	s.state = Paused
	s.mu.Unlock()

	s.notifyStateChange()
	return nil
}

// Stop tears down any chain and resets the position to 0. Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	changed := s.state != Stopped
	s.teardownLocked()
	s.held = 0
	s.state = Stopped
	s.mu.Unlock()

	if changed {
		s.notifyStateChange()
	}
}

// Seek moves to target seconds, clamped to [0, duration]. While
// Playing the chain is rebuilt at the target and the anchor reset;
// otherwise the position is held directly. A held nonzero position in
// Stopped becomes Paused, since Stopped means position 0.
func (s *Session) Seek(target float64) error {
	s.mu.Lock()
	if s.buf == nil || s.load == LoadPending {
		s.mu.Unlock()
		return ErrNotReady
	}
	target = audio.Clamp(target, 0, s.duration)

	switch s.state {
	case Playing:
		s.teardownLocked()
		if err := s.buildChainLocked(target); err != nil {
			// Chain is down; keep the target as a paused position so
			// the engine stays usable.
			s.held = target
			s.state = Paused
			s.mu.Unlock()
			s.notifyError(err)
			s.notifyStateChange()
			return err
		}
	case Paused:
		s.held = target
	case Stopped:
		s.held = target
		if target > 0 {
			s.state = Paused
		}
	}
	s.mu.Unlock()

	s.notifyStateChange()
	return nil
}

// SetRate clamps to [MinRate, MaxRate] and applies the rate. While
// Playing the anchor is recomputed from the position observed under the
// old rate, so position stays continuous and only its velocity changes.
// The anchor is never rescaled in place.
func (s *Session) SetRate(rate float64) {
	rate = audio.Clamp(rate, MinRate, MaxRate)

	s.mu.Lock()
	if s.state == Playing {
		now := s.render.Now()
		p := audio.Clamp(Position(s.anchor, now), 0, s.duration)
		s.anchor = Anchor{DeviceTime: now, BufferPos: p, Rate: rate}
		s.rate = rate
		if s.chain != nil {
			if err := s.chain.SetRate(rate); err != nil {
				log.Printf("Failed to set chain rate: %v", err)
			}
		}
	} else {
		s.rate = rate
	}
	s.mu.Unlock()

	s.notifyStateChange()
}

// SetMix forwards to the effects controller, which clamps to [0, 1]
// and updates the live chain when one exists.
func (s *Session) SetMix(amount float64) {
	s.mix.Set(amount)
	s.notifyStateChange()
}

// Position returns the current buffer position in seconds. While
// Playing it is always computed from the anchor and the render clock.
// When the computed position reaches the end of the buffer, the session
// auto-stops and this call returns exactly the duration.
func (s *Session) Position() float64 {
	s.mu.Lock()
	if s.state != Playing {
		p := s.held
		s.mu.Unlock()
		return p
	}

	p := Position(s.anchor, s.render.Now())
	if p >= s.duration {
		d := s.duration
		s.teardownLocked()
		s.held = 0
		s.state = Stopped
		s.mu.Unlock()
		s.notifyStateChange()
		return d
	}
	if p < 0 {
		p = 0
	}
	s.mu.Unlock()
	return p
}

// State returns the transport state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Duration returns the loaded buffer's duration, 0 when empty.
func (s *Session) Duration() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration
}

// Rate returns the playback rate that applies now or on the next Play.
func (s *Session) Rate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rate
}

// Mix returns the effects controller.
func (s *Session) Mix() *effects.Mix {
	return s.mix
}

// Buffer returns the loaded buffer, nil when empty.
func (s *Session) Buffer() *audio.Buffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf
}

// LoadState returns the load lifecycle state.
func (s *Session) LoadState() LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load
}

// Status returns a passive snapshot for display. Unlike Position it
// never fires the auto-stop; the computed position is only clamped.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	st := Status{
		State:    s.state,
		Duration: s.duration,
		Rate:     s.rate,
		Mix:      s.mix.Amount(),
		Load:     s.load,
	}
	if s.buf != nil {
		st.Track = s.buf.Source
	}
	if s.state == Playing {
		st.Position = audio.Clamp(Position(s.anchor, s.render.Now()), 0, s.duration)
	} else {
		st.Position = s.held
	}
	return st
}

// Close stops playback and releases the session.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		s.teardownLocked()
		s.held = 0
		s.state = Stopped
		s.mu.Unlock()
	})
	return nil
}

// buildChainLocked constructs a chain at start seconds, applies the
// current gains through the mix controller, and records the anchor.
// Caller holds the lock. On any failure the partial chain is torn down.
func (s *Session) buildChainLocked(start float64) error {
	chain, err := s.render.Build(s.buf, start, s.rate)
	if err != nil {
		return fmt.Errorf("failed to build render chain: %w", err)
	}
	if err := s.mix.Bind(chain); err != nil {
		if cerr := chain.Close(); cerr != nil {
			log.Printf("Chain teardown after failed bind: %v", cerr)
		}
		return fmt.Errorf("failed to apply mix gains: %w", err)
	}
	if s.config.Tap != nil {
		chain.Tap(s.config.Tap)
	}
	s.chain = chain
	s.anchor = Anchor{DeviceTime: s.render.Now(), BufferPos: start, Rate: s.rate}
	return nil
}

// teardownLocked closes the live chain if one exists. Caller holds the
// lock.
func (s *Session) teardownLocked() {
	if s.chain == nil {
		return
	}
	s.mix.Unbind()
	if err := s.chain.Close(); err != nil {
		log.Printf("Chain teardown failed: %v", err)
	}
	s.chain = nil
}

func (s *Session) notifyStateChange() {
	if s.config.OnStateChange == nil {
		return
	}
	s.mu.RLock()
	st := s.statusLocked()
	s.mu.RUnlock()
	s.config.OnStateChange(st)
}

func (s *Session) notifyError(err error) {
	if s.config.OnError != nil {
		s.config.OnError(err)
	} else {
		log.Printf("Session error: %v", err)
	}
}
