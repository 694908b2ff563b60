// ABOUTME: Main deck application orchestration
// ABOUTME: Coordinates the deck, TUI, monitor bridge, and discovery
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Woodshed-Audio/woodshed-go/internal/discovery"
	"github.com/Woodshed-Audio/woodshed-go/internal/monitor"
	"github.com/Woodshed-Audio/woodshed-go/internal/ui"
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio/render"
	"github.com/Woodshed-Audio/woodshed-go/pkg/deck"
	"github.com/Woodshed-Audio/woodshed-go/pkg/timeline"
	"github.com/Woodshed-Audio/woodshed-go/pkg/waveform"
)

// spectrumBars is the number of bars in the TUI spectrum pane.
const spectrumBars = 32

// Config holds application configuration.
type Config struct {
	Name        string
	TrackPath   string
	TrackURL    string
	CacheDir    string
	Monitor     bool
	MonitorPort int
	Advertise   bool
	Headless    bool

	// Render overrides the audio device, mainly for tests.
	Render render.System
}

// App wires the deck to the TUI, the monitor bridge, and discovery.
type App struct {
	config Config

	deck      *deck.Deck
	bridge    *monitor.Server
	discovery *discovery.Manager
	controls  *ui.Controls
	tuiProg   *tea.Program

	tapMu   sync.Mutex
	tapRing []float64

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates the application.
func New(config Config) *App {
	if config.Name == "" {
		config.Name = "Woodshed Deck"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		config:   config,
		controls: ui.NewControls(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start brings up all components and kicks off the initial track load.
// It returns once everything is running; use Wait to block until quit.
func (a *App) Start() error {
	d, err := deck.NewDeck(deck.Config{
		Name:          a.config.Name,
		Render:        a.config.Render,
		CacheDir:      a.config.CacheDir,
		Tap:           a.handleTap,
		OnStateChange: a.handleStatus,
		OnProgress:    a.handleProgress,
		OnError:       a.handleError,
		OnLoad:        a.handleLoad,
	})
	if err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}
	a.deck = d

	if a.config.Monitor {
		a.bridge = monitor.NewServer(monitor.Config{
			Port: a.config.MonitorPort,
			Name: a.config.Name,
		}, a.deck)
		if err := a.bridge.Start(); err != nil {
			a.deck.Close()
			return fmt.Errorf("failed to start monitor bridge: %w", err)
		}
		log.Printf("Monitor bridge listening on %s", a.bridge.Addr())
	}

	if a.config.Advertise && a.bridge != nil {
		a.discovery = discovery.NewManager(discovery.Config{
			ServiceName: a.config.Name,
			Port:        a.bridge.Port(),
		})
		if err := a.discovery.Advertise(); err != nil {
			log.Printf("Warning: mDNS advertisement failed: %v", err)
		}
	}

	if !a.config.Headless {
		a.tuiProg = ui.Run(a.config.Name, a.controls)
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if _, err := a.tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			a.cancel()
		}()

		a.wg.Add(1)
		go a.displayLoop()
	}

	a.wg.Add(1)
	go a.actionLoop()

	switch {
	case a.config.TrackPath != "":
		a.deck.LoadFile(a.config.TrackPath)
	case a.config.TrackURL != "":
		a.deck.LoadURL(a.config.TrackURL)
	}

	return nil
}

// Wait blocks until the application is asked to quit.
func (a *App) Wait() {
	<-a.ctx.Done()
}

// Stop tears everything down in reverse start order.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()
		if a.tuiProg != nil {
			a.tuiProg.Quit()
		}
		a.wg.Wait()

		if a.discovery != nil {
			a.discovery.Stop()
		}
		if a.bridge != nil {
			a.bridge.Stop()
		}
		if a.deck != nil {
			a.deck.Close()
		}
	})
}

// Deck exposes the deck for direct control.
func (a *App) Deck() *deck.Deck {
	return a.deck
}

// Controls exposes the TUI action channel.
func (a *App) Controls() *ui.Controls {
	return a.controls
}

// MonitorPort returns the bridge's bound port, or 0 without a bridge.
func (a *App) MonitorPort() int {
	if a.bridge == nil {
		return 0
	}
	return a.bridge.Port()
}

// actionLoop dispatches keyboard actions to the deck.
func (a *App) actionLoop() {
	defer a.wg.Done()

	for {
		select {
		case action := <-a.controls.Actions:
			a.dispatch(action)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) dispatch(action ui.Action) {
	switch action.Kind {
	case ui.ActionTogglePlay:
		var err error
		if a.deck.State() == timeline.Playing {
			err = a.deck.Pause()
		} else {
			err = a.deck.Play()
		}
		if err != nil {
			a.handleError(err)
		}
	case ui.ActionStop:
		a.deck.Stop()
	case ui.ActionSeekBy:
		if err := a.deck.Seek(a.deck.Position() + action.Value); err != nil {
			a.handleError(err)
		}
	case ui.ActionRateBy:
		a.deck.SetRate(a.deck.Rate() + action.Value)
	case ui.ActionMixBy:
		a.deck.SetMix(a.deck.Status().Mix + action.Value)
	}
}

// displayLoop refreshes the spectrum pane and monitor line.
func (a *App) displayLoop() {
	defer a.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.tapMu.Lock()
			block := a.tapRing
			a.tapRing = nil
			a.tapMu.Unlock()

			if len(block) > 0 {
				if bars, err := waveform.Spectrum(block, spectrumBars); err == nil {
					a.tuiProg.Send(ui.SpectrumMsg(bars))
				}
			}

			if a.bridge != nil {
				a.tuiProg.Send(ui.MonitorMsg{
					Port:    a.bridge.Port(),
					Clients: a.bridge.ClientCount(),
				})
			}

		case <-a.ctx.Done():
			return
		}
	}
}

// handleTap forwards rendered audio to the bridge and keeps the most
// recent block for the spectrum pane.
func (a *App) handleTap(block []float64, sampleRate int) {
	if a.bridge != nil {
		a.bridge.PublishAudio(block)
	}

	if a.config.Headless {
		return
	}
	a.tapMu.Lock()
	a.tapRing = append(a.tapRing, block...)
	if len(a.tapRing) > 4096 {
		a.tapRing = a.tapRing[len(a.tapRing)-4096:]
	}
	a.tapMu.Unlock()
}

// handleStatus fans a status snapshot out to the TUI and the bridge.
func (a *App) handleStatus(st timeline.Status) {
	if a.tuiProg != nil {
		a.tuiProg.Send(ui.StatusMsg(st))
	}
	if a.bridge != nil {
		a.bridge.PublishStatus(monitor.StatusUpdate{
			State:    st.State.String(),
			Position: st.Position,
			Duration: st.Duration,
			Rate:     st.Rate,
			Mix:      st.Mix,
			Track:    st.Track,
		})
	}
}

func (a *App) handleProgress(position float64) {
	if a.deck == nil {
		return
	}
	a.handleStatus(a.deck.Status())
}

func (a *App) handleError(err error) {
	log.Printf("Deck error: %v", err)
	if a.tuiProg != nil {
		a.tuiProg.Send(ui.ErrorMsg{Err: err})
	}
}

// handleLoad renegotiates the bridge stream and pushes the waveform to
// the TUI when a track lands.
func (a *App) handleLoad(buf *audio.Buffer) {
	if a.bridge != nil {
		channels := buf.Channels()
		if channels > 2 {
			channels = 2
		}
		a.bridge.SetStream(buf.SampleRate, channels)
	}

	if a.tuiProg != nil {
		env, err := waveform.ComputeEnvelope(buf, 0, 100)
		if err != nil {
			log.Printf("Envelope computation failed: %v", err)
			env = nil
		}
		a.tuiProg.Send(ui.LoadedMsg{Track: buf.Source, Envelope: env})
	}
}
