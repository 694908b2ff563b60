// ABOUTME: Tests for the deck facade
// ABOUTME: Covers direct, file, and URL loads plus transport passthrough
package deck

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio/render"
	"github.com/Woodshed-Audio/woodshed-go/pkg/timeline"
)

func newTestDeck(t *testing.T, config Config) (*Deck, *render.Null) {
	t.Helper()

	null := render.NewNull()
	config.Render = null
	if config.CacheDir == "" {
		config.CacheDir = t.TempDir()
	}

	d, err := NewDeck(config)
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d, null
}

// writeWAVFile writes a mono 16-bit WAV with the given number of
// samples at 8kHz and returns its path.
func writeWAVFile(t *testing.T, name string, samples int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp wav: %v", err)
	}

	data := make([]int, samples)
	for i := range data {
		data[i] = 16384
	}

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}
	return path
}

func waitForLoadState(t *testing.T, d *Deck, want timeline.LoadState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d.LoadState() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for load state %v, got %v", want, d.LoadState())
}

func TestNewDeckDefaults(t *testing.T) {
	d, _ := newTestDeck(t, Config{})
	if d.Name() != "Woodshed Deck" {
		t.Errorf("expected default name, got %q", d.Name())
	}
	if d.ID() == "" {
		t.Error("expected a non-empty deck ID")
	}

	other, _ := newTestDeck(t, Config{Name: "Deck B"})
	if other.Name() != "Deck B" {
		t.Errorf("expected configured name, got %q", other.Name())
	}
	if other.ID() == d.ID() {
		t.Error("expected decks to get distinct IDs")
	}
}

func TestLoadDirect(t *testing.T) {
	var loaded *audio.Buffer
	d, _ := newTestDeck(t, Config{
		OnLoad: func(buf *audio.Buffer) { loaded = buf },
	})

	buf := audio.Silence(5, 1000, 1)
	if err := d.Load(buf); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if d.Duration() != 5.0 {
		t.Errorf("expected duration 5.0, got %v", d.Duration())
	}
	if d.State() != timeline.Stopped {
		t.Errorf("expected stopped after load, got %v", d.State())
	}
	if loaded != buf {
		t.Error("expected OnLoad to deliver the loaded buffer")
	}
}

func TestLoadFileAsync(t *testing.T) {
	var mu sync.Mutex
	var loaded *audio.Buffer
	d, _ := newTestDeck(t, Config{
		OnLoad: func(buf *audio.Buffer) {
			mu.Lock()
			loaded = buf
			mu.Unlock()
		},
	})

	path := writeWAVFile(t, "riff.wav", 800)
	d.LoadFile(path)
	waitForLoadState(t, d, timeline.LoadReady)

	if got := d.Duration(); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("expected duration 0.1, got %v", got)
	}
	if d.Buffer().Source != "riff.wav" {
		t.Errorf("expected source riff.wav, got %q", d.Buffer().Source)
	}
	mu.Lock()
	defer mu.Unlock()
	if loaded == nil {
		t.Error("expected OnLoad after the async load resolved")
	}
}

func TestLoadFileMissing(t *testing.T) {
	var mu sync.Mutex
	var reported error
	d, _ := newTestDeck(t, Config{
		OnError: func(err error) {
			mu.Lock()
			reported = err
			mu.Unlock()
		},
	})

	d.LoadFile(filepath.Join(t.TempDir(), "no-such-track.wav"))
	waitForLoadState(t, d, timeline.LoadFailed)

	if err := d.Play(); !errors.Is(err, timeline.ErrNotReady) {
		t.Errorf("expected ErrNotReady after failed load, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if reported == nil || !strings.Contains(reported.Error(), "read track file") {
		t.Errorf("expected a read error to be reported, got %v", reported)
	}
}

func TestLoadFileUndecodable(t *testing.T) {
	var mu sync.Mutex
	var reported error
	d, _ := newTestDeck(t, Config{
		OnError: func(err error) {
			mu.Lock()
			reported = err
			mu.Unlock()
		},
	})

	path := filepath.Join(t.TempDir(), "garbage.xyz")
	if err := os.WriteFile(path, []byte("not audio at all"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	d.LoadFile(path)
	waitForLoadState(t, d, timeline.LoadFailed)

	mu.Lock()
	defer mu.Unlock()
	if reported == nil || !strings.Contains(reported.Error(), "garbage.xyz") {
		t.Errorf("expected a decode error naming the file, got %v", reported)
	}
}

func TestLoadURLAsync(t *testing.T) {
	wavPath := writeWAVFile(t, "remote.wav", 1600)
	wavData, err := os.ReadFile(wavPath)
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(wavData)
	}))
	defer server.Close()

	d, _ := newTestDeck(t, Config{})
	d.LoadURL(server.URL + "/remote.wav")
	waitForLoadState(t, d, timeline.LoadReady)

	if got := d.Duration(); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("expected duration 0.2, got %v", got)
	}
	if d.Buffer().Source != "remote.wav" {
		t.Errorf("expected source remote.wav, got %q", d.Buffer().Source)
	}
}

func TestLoadURLFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	var mu sync.Mutex
	var reported error
	d, _ := newTestDeck(t, Config{
		OnError: func(err error) {
			mu.Lock()
			reported = err
			mu.Unlock()
		},
	})

	d.LoadURL(server.URL + "/missing.wav")
	waitForLoadState(t, d, timeline.LoadFailed)

	mu.Lock()
	defer mu.Unlock()
	if reported == nil || !strings.Contains(reported.Error(), "404") {
		t.Errorf("expected an HTTP failure to be reported, got %v", reported)
	}
}

func TestNewerLoadWins(t *testing.T) {
	first := writeWAVFile(t, "first.wav", 800)
	second := writeWAVFile(t, "second.wav", 1600)

	d, _ := newTestDeck(t, Config{})
	d.LoadFile(first)
	d.LoadFile(second)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d.LoadState() == timeline.LoadReady && math.Abs(d.Duration()-0.2) < 1e-9 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if d.Buffer() == nil || d.Buffer().Source != "second.wav" {
		t.Fatalf("expected the newer load to win, got %+v", d.Buffer())
	}
	if got := d.Duration(); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("expected duration 0.2, got %v", got)
	}
}

func TestTransportPassthrough(t *testing.T) {
	d, null := newTestDeck(t, Config{})
	if err := d.Load(audio.Silence(10, 1000, 1)); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := d.Play(); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	null.Advance(2 * time.Second)
	if got := d.Position(); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("expected position 2.0, got %v", got)
	}

	d.SetRate(1.25)
	if d.Rate() != 1.25 {
		t.Errorf("expected rate 1.25, got %v", d.Rate())
	}

	if err := d.Seek(4.0); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if err := d.Pause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if d.State() != timeline.Paused {
		t.Errorf("expected paused, got %v", d.State())
	}

	d.SetMix(0.5)
	st := d.Status()
	if st.Mix != 0.5 {
		t.Errorf("expected mix 0.5 in status, got %v", st.Mix)
	}

	d.Stop()
	if d.State() != timeline.Stopped {
		t.Errorf("expected stopped, got %v", d.State())
	}
	if d.Position() != 0 {
		t.Errorf("expected position 0 after stop, got %v", d.Position())
	}
}

func TestTapForwarded(t *testing.T) {
	var mu sync.Mutex
	var got []float64
	d, null := newTestDeck(t, Config{
		Tap: func(block []float64, sampleRate int) {
			mu.Lock()
			got = append(got, block...)
			mu.Unlock()
		},
	})

	if err := d.Load(audio.Silence(5, 1000, 1)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := d.Play(); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	chain := null.Last()
	if !chain.Tapped() {
		t.Fatal("expected the tap to reach the render chain")
	}
	chain.Emit([]float64{0.5, -0.5}, 1000)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != 0.5 {
		t.Errorf("expected the tap block to arrive, got %v", got)
	}
}

func TestEnvelopeConvenience(t *testing.T) {
	d, _ := newTestDeck(t, Config{})

	if _, err := d.Envelope(0, 4); err == nil {
		t.Error("expected an error with no track loaded")
	}

	if err := d.Load(audio.Silence(1, 1000, 1)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	env, err := d.Envelope(0, 4)
	if err != nil {
		t.Fatalf("envelope failed: %v", err)
	}
	if len(env) != 4 {
		t.Fatalf("expected 4 spans, got %d", len(env))
	}
	for i, span := range env {
		if span.Min != 0 || span.Max != 0 {
			t.Errorf("expected silence at span %d, got %+v", i, span)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	d, _ := newTestDeck(t, Config{})
	if err := d.Close(); err != nil {
		t.Errorf("first close failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}
