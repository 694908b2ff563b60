// ABOUTME: Bubbletea model for the deck TUI
// ABOUTME: Defines application state, key handling, and update logic
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Woodshed-Audio/woodshed-go/pkg/timeline"
	"github.com/Woodshed-Audio/woodshed-go/pkg/waveform"
)

// Woodshed colour palette
var (
	amberBright = lipgloss.Color("#FFB347")
	amberDeep   = lipgloss.Color("#E8871E")
	woodBrown   = lipgloss.Color("#8B5A2B")
	emberDim    = lipgloss.Color("#6B4226")
	ashGray     = lipgloss.Color("#3A3A3A")
)

// ActionKind identifies a transport request from the keyboard.
type ActionKind int

const (
	ActionTogglePlay ActionKind = iota
	ActionStop
	ActionSeekBy
	ActionRateBy
	ActionMixBy
)

// Action is a transport request emitted by the TUI.
type Action struct {
	Kind  ActionKind
	Value float64
}

// Controls carries keyboard actions out of the TUI event loop.
type Controls struct {
	Actions chan Action
}

// NewControls creates a controls handler.
func NewControls() *Controls {
	return &Controls{
		Actions: make(chan Action, 10),
	}
}

// StatusMsg updates the playback display.
type StatusMsg timeline.Status

// LoadedMsg announces a newly loaded track.
type LoadedMsg struct {
	Track    string
	Envelope waveform.Envelope
}

// SpectrumMsg carries live spectrum bars from the audio tap.
type SpectrumMsg []float64

// MonitorMsg updates the remote monitor display.
type MonitorMsg struct {
	Port    int
	Clients int
}

// ErrorMsg displays a transient error line.
type ErrorMsg struct {
	Err error
}

// Model represents the TUI state.
type Model struct {
	deckName string
	controls *Controls

	// Playback
	state    timeline.State
	position float64
	duration float64
	rate     float64
	mix      float64
	load     timeline.LoadState
	track    string

	// Display data
	envelope waveform.Envelope
	spectrum []float64
	lastErr  string

	// Monitor
	monitorPort    int
	monitorClients int

	// Widgets
	progressBar progress.Model

	// Dimensions
	width  int
	height int
}

// NewModel creates a deck TUI model.
func NewModel(deckName string, controls *Controls) Model {
	bar := progress.New(
		progress.WithGradient(string(emberDim), string(amberBright)),
		progress.WithWidth(46),
		progress.WithoutPercentage(),
	)

	return Model{
		deckName:    deckName,
		controls:    controls,
		rate:        1.0,
		progressBar: bar,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = clampInt(msg.Width-14, 20, 46)
	case StatusMsg:
		m.applyStatus(timeline.Status(msg))
	case LoadedMsg:
		m.track = msg.Track
		m.envelope = msg.Envelope
		m.lastErr = ""
	case SpectrumMsg:
		m.spectrum = msg
	case MonitorMsg:
		m.monitorPort = msg.Port
		m.monitorClients = msg.Clients
	case ErrorMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
	}

	return m, nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.emit(Action{Kind: ActionTogglePlay})
	case "s":
		m.emit(Action{Kind: ActionStop})
	case "left":
		m.emit(Action{Kind: ActionSeekBy, Value: -5})
	case "right":
		m.emit(Action{Kind: ActionSeekBy, Value: 5})
	case "[", "-":
		m.emit(Action{Kind: ActionRateBy, Value: -0.05})
	case "]", "+", "=":
		m.emit(Action{Kind: ActionRateBy, Value: 0.05})
	case "down":
		m.emit(Action{Kind: ActionMixBy, Value: -0.1})
	case "up":
		m.emit(Action{Kind: ActionMixBy, Value: 0.1})
	}

	return m, nil
}

// emit sends an action without blocking the event loop.
func (m Model) emit(action Action) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Actions <- action:
	default:
	}
}

// applyStatus updates playback fields from a status snapshot.
func (m *Model) applyStatus(st timeline.Status) {
	m.state = st.State
	m.position = st.Position
	m.duration = st.Duration
	m.rate = st.Rate
	m.mix = st.Mix
	m.load = st.Load
	if st.Track != "" {
		m.track = st.Track
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var s strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(amberBright).Render("Woodshed")
	s.WriteString(title)
	s.WriteString("  ")
	s.WriteString(lipgloss.NewStyle().Foreground(woodBrown).Render(m.deckName))
	s.WriteString("\n\n")

	s.WriteString(m.renderTrackLine())
	s.WriteString("\n")
	s.WriteString(m.renderWaveform())
	s.WriteString("\n")
	s.WriteString(m.renderTransport())
	s.WriteString("\n")
	s.WriteString(m.renderSpectrumLine())
	s.WriteString(m.renderMonitorLine())

	if m.lastErr != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6347")).Render("! " + truncate(m.lastErr, 60)))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	help := "space:Play/Pause  s:Stop  ←/→:Seek  [/]:Rate  ↑/↓:Mix  q:Quit"
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(help))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(woodBrown).
		Padding(1, 2).
		Render(s.String())
}

// renderTrackLine renders the loaded track name and load state.
func (m Model) renderTrackLine() string {
	label := lipgloss.NewStyle().Faint(true).Render("Track: ")
	switch {
	case m.load == timeline.LoadPending:
		return label + lipgloss.NewStyle().Italic(true).Render("loading...") + "\n"
	case m.load == timeline.LoadFailed:
		return label + lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6347")).Render("load failed") + "\n"
	case m.track == "":
		return label + lipgloss.NewStyle().Faint(true).Italic(true).Render("(none)") + "\n"
	}
	return label + truncate(m.track, 50) + "\n"
}

// renderTransport renders the state icon, progress bar, and timing.
func (m Model) renderTransport() string {
	icon := "■"
	switch m.state {
	case timeline.Playing:
		icon = "▶"
	case timeline.Paused:
		icon = "❚❚"
	}

	var percent float64
	if m.duration > 0 {
		percent = m.position / m.duration
	}
	if percent > 1 {
		percent = 1
	}

	bar := m.progressBar.ViewAs(percent)
	line1 := fmt.Sprintf("%-2s %s\n", icon, bar)

	timing := fmt.Sprintf("%s / %s   rate ×%.2f   mix %d%%",
		formatClock(m.position), formatClock(m.duration), m.rate, int(m.mix*100+0.5))
	line2 := lipgloss.NewStyle().Faint(true).Render(timing) + "\n"

	return line1 + line2
}

// renderWaveform renders the envelope as a two-row block display with
// the played portion highlighted.
func (m Model) renderWaveform() string {
	if len(m.envelope) == 0 {
		return lipgloss.NewStyle().Faint(true).Render(strings.Repeat("─", 50)) + "\n"
	}

	width := clampInt(m.width-10, 20, 50)
	playedCols := 0
	if m.duration > 0 {
		playedCols = int(m.position / m.duration * float64(width))
	}

	stride := len(m.envelope) / width
	if stride == 0 {
		stride = 1
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	var top, bottom strings.Builder
	col := 0
	for i := 0; i < len(m.envelope) && col < width; i += stride {
		span := m.envelope[i]
		color := ashGray
		if col < playedCols {
			color = amberDeep
		}
		style := lipgloss.NewStyle().Foreground(color)

		top.WriteString(style.Render(blockFor(span.Max, blocks)))
		bottom.WriteString(style.Render(blockFor(-span.Min, blocks)))
		col++
	}

	return top.String() + "\n" + bottom.String() + "\n"
}

// renderSpectrumLine renders live spectrum bars while playing.
func (m Model) renderSpectrumLine() string {
	if len(m.spectrum) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	var s strings.Builder
	for _, v := range m.spectrum {
		s.WriteString(lipgloss.NewStyle().Foreground(amberDeep).Render(blockFor(v, blocks)))
	}
	return s.String() + "\n"
}

// renderMonitorLine renders remote monitor status when the bridge is up.
func (m Model) renderMonitorLine() string {
	if m.monitorPort == 0 {
		return ""
	}
	word := "monitors"
	if m.monitorClients == 1 {
		word = "monitor"
	}
	line := fmt.Sprintf("Bridge: port %d, %d %s connected", m.monitorPort, m.monitorClients, word)
	return lipgloss.NewStyle().Foreground(woodBrown).Render(line) + "\n"
}

// blockFor maps a magnitude in [0,1] to a block rune. Zero and negative
// magnitudes render as a space.
func blockFor(v float64, blocks []rune) string {
	if v <= 0 {
		return " "
	}
	if v > 1 {
		v = 1
	}
	idx := int(v * float64(len(blocks)-1))
	return string(blocks[idx])
}

// formatClock formats seconds as M:SS.
func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	return fmt.Sprintf("%d:%02d", whole/60, whole%60)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
