// ABOUTME: High-level Deck API bundling playback, loading, and rendering
// ABOUTME: Provides the public facade over the session, fetcher, and decoder
package deck

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Woodshed-Audio/woodshed-go/internal/fetch"
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio/decode"
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio/render"
	"github.com/Woodshed-Audio/woodshed-go/pkg/timeline"
	"github.com/Woodshed-Audio/woodshed-go/pkg/waveform"
	"github.com/google/uuid"
)

// Config holds deck configuration.
type Config struct {
	// Name is the display name for this deck
	Name string

	// Render is the rendering collaborator (default: the oto device)
	Render render.System

	// CacheDir is where fetched tracks are cached (default: per-user temp dir)
	CacheDir string

	// ProgressInterval is the progress callback cadence (default: 16ms)
	ProgressInterval time.Duration

	// Tap receives rendered audio blocks, e.g. for a monitor feed
	Tap func(block []float64, sampleRate int)

	// OnStateChange is called when transport or load state changes
	OnStateChange func(timeline.Status)

	// OnProgress is called each progress tick while playing
	OnProgress func(position float64)

	// OnError is called when errors occur
	OnError func(error)

	// OnLoad is called when a track finishes loading
	OnLoad func(*audio.Buffer)
}

// Deck provides high-level track playback: loading from files and URLs,
// transport control, and waveform access.
type Deck struct {
	config Config

	id      string
	session *timeline.Session
	fetcher *fetch.Fetcher

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewDeck creates a deck with the given configuration.
func NewDeck(config Config) (*Deck, error) {
	if config.Name == "" {
		config.Name = "Woodshed Deck"
	}
	if config.Render == nil {
		config.Render = render.NewOto()
	}

	fetcher, err := fetch.NewFetcher(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create track fetcher: %w", err)
	}

	session, err := timeline.NewSession(timeline.Config{
		Render:           config.Render,
		ProgressInterval: config.ProgressInterval,
		OnStateChange:    config.OnStateChange,
		OnProgress:       config.OnProgress,
		OnError:          config.OnError,
		Tap:              config.Tap,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Deck{
		config:  config,
		id:      uuid.New().String(),
		session: session,
		fetcher: fetcher,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// ID returns the deck's unique identifier.
func (d *Deck) ID() string {
	return d.id
}

// Name returns the deck's display name.
func (d *Deck) Name() string {
	return d.config.Name
}

// Load installs an already-decoded buffer as the current track.
func (d *Deck) Load(buf *audio.Buffer) error {
	if err := d.session.Load(buf); err != nil {
		return err
	}
	d.notifyLoad(buf)
	return nil
}

// LoadFile reads and decodes a track from disk. The load runs in the
// background; transport operations report not-ready until it resolves.
// A newer load supersedes this one.
func (d *Deck) LoadFile(path string) {
	log.Printf("Loading track from file: %s", path)
	gen := d.session.BeginLoad()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		buf, err := d.decodeFile(path)
		if err != nil {
			d.session.CompleteLoad(gen, nil, err)
			return
		}
		if d.session.CompleteLoad(gen, buf, nil) {
			d.notifyLoad(buf)
		}
	}()
}

// LoadURL fetches and decodes a track over HTTP. The load runs in the
// background; transport operations report not-ready until it resolves.
// A newer load supersedes this one.
func (d *Deck) LoadURL(rawURL string) {
	log.Printf("Loading track from URL: %s", rawURL)
	gen := d.session.BeginLoad()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		buf, err := d.fetchURL(rawURL)
		if err != nil {
			d.session.CompleteLoad(gen, nil, err)
			return
		}
		if d.session.CompleteLoad(gen, buf, nil) {
			d.notifyLoad(buf)
		}
	}()
}

func (d *Deck) decodeFile(path string) (*audio.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track file: %w", err)
	}
	buf, err := decode.Decode(data, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return buf, nil
}

func (d *Deck) fetchURL(rawURL string) (*audio.Buffer, error) {
	data, err := d.fetcher.Fetch(d.ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch track: %w", err)
	}
	buf, err := decode.Decode(data, fetch.Name(rawURL))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", fetch.Name(rawURL), err)
	}
	return buf, nil
}

// Play starts playback from the current position.
func (d *Deck) Play() error {
	return d.session.Play()
}

// Pause holds playback at the current position.
func (d *Deck) Pause() error {
	return d.session.Pause()
}

// Stop halts playback and returns to the start of the track.
func (d *Deck) Stop() {
	d.session.Stop()
}

// Seek jumps to the target position in seconds.
func (d *Deck) Seek(target float64) error {
	return d.session.Seek(target)
}

// SetRate sets the playback rate.
func (d *Deck) SetRate(rate float64) {
	d.session.SetRate(rate)
}

// SetMix sets the effect mix amount.
func (d *Deck) SetMix(amount float64) {
	d.session.SetMix(amount)
}

// Position returns the current playback position in seconds.
func (d *Deck) Position() float64 {
	return d.session.Position()
}

// Duration returns the loaded track's duration in seconds.
func (d *Deck) Duration() float64 {
	return d.session.Duration()
}

// State returns the current transport state.
func (d *Deck) State() timeline.State {
	return d.session.State()
}

// Rate returns the current playback rate.
func (d *Deck) Rate() float64 {
	return d.session.Rate()
}

// LoadState returns the track load state.
func (d *Deck) LoadState() timeline.LoadState {
	return d.session.LoadState()
}

// Buffer returns the loaded track, or nil.
func (d *Deck) Buffer() *audio.Buffer {
	return d.session.Buffer()
}

// Status returns a snapshot of the deck's playback state.
func (d *Deck) Status() timeline.Status {
	return d.session.Status()
}

// Envelope computes the loaded track's waveform envelope at the given
// pixel width.
func (d *Deck) Envelope(channel, pixelWidth int) (waveform.Envelope, error) {
	buf := d.session.Buffer()
	if buf == nil {
		return nil, fmt.Errorf("no track loaded")
	}
	return waveform.ComputeEnvelope(buf, channel, pixelWidth)
}

// Close stops playback, cancels pending loads, and releases resources.
func (d *Deck) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.cancel()
		d.wg.Wait()
		err = d.session.Close()
	})
	return err
}

// notifyLoad calls the OnLoad callback if set.
func (d *Deck) notifyLoad(buf *audio.Buffer) {
	if d.config.OnLoad != nil {
		d.config.OnLoad(buf)
	}
}
