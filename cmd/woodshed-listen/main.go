// ABOUTME: Remote monitor client for listening to a deck
// ABOUTME: Discovers a deck over mDNS, decodes its feed, and plays it
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ebitengine/oto/v3"

	"github.com/Woodshed-Audio/woodshed-go/internal/discovery"
	"github.com/Woodshed-Audio/woodshed-go/internal/monitor"
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio/decode"
)

var CLI struct {
	Server  string `help:"Deck address (host:port); empty discovers over mDNS"`
	Name    string `help:"Monitor name shown on the deck" default:"woodshed-listen"`
	Volume  int    `help:"Playback volume (0-100)" default:"100"`
	Timeout int    `help:"Discovery timeout in seconds" default:"10"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("woodshed-listen"),
		kong.Description("Listen to a woodshed deck from another room."),
		kong.UsageOnError(),
	)

	log.SetFlags(log.Ltime)

	serverAddr := CLI.Server
	if serverAddr == "" {
		serverAddr = discoverDeck()
	}

	client := monitor.NewClient(monitor.ClientConfig{
		ServerAddr: serverAddr,
		Name:       CLI.Name,
	})
	if err := client.Connect(); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer client.Close()

	log.Printf("Connected to deck at %s", serverAddr)

	var stream monitor.StreamInfo
	select {
	case stream = <-client.Stream:
	case <-time.After(5 * time.Second):
		log.Fatalf("Deck never announced its stream format")
	}
	log.Printf("Stream: %s %dHz %dch %d-bit", stream.Codec, stream.SampleRate, stream.Channels, stream.BitDepth)

	decoder, err := decode.NewStream(audio.Format{
		Codec:      stream.Codec,
		SampleRate: stream.SampleRate,
		Channels:   stream.Channels,
		BitDepth:   stream.BitDepth,
	})
	if err != nil {
		log.Fatalf("Failed to create stream decoder: %v", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   stream.SampleRate,
		ChannelCount: stream.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		log.Fatalf("Failed to open audio output: %v", err)
	}
	<-readyChan

	// Two seconds of backlog keeps latency bounded after a stall.
	feed := newFeeder(stream.SampleRate * stream.Channels * 2 * 2)
	player := otoCtx.NewPlayer(feed)
	player.Play()
	defer player.Close()

	volume := float64(clampVolume(CLI.Volume)) / 100.0

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var lastState, lastTrack string
	for {
		select {
		case chunk := <-client.Audio:
			samples, err := decoder.Decode(chunk.Data)
			if err != nil {
				log.Printf("Decode error: %v", err)
				continue
			}
			feed.Push(pcmBytes(samples, volume))

		case info := <-client.Stream:
			// The deck renegotiates when a new track has a different
			// format. The decoder follows; the device keeps its rate.
			if info.SampleRate != stream.SampleRate || info.Channels != stream.Channels {
				log.Printf("Deck stream changed to %dHz %dch; restart to match the device rate", info.SampleRate, info.Channels)
			}
			next, err := decode.NewStream(audio.Format{
				Codec:      info.Codec,
				SampleRate: info.SampleRate,
				Channels:   info.Channels,
				BitDepth:   info.BitDepth,
			})
			if err != nil {
				log.Printf("Failed to follow stream change: %v", err)
				continue
			}
			decoder = next
			stream = info

		case st := <-client.Status:
			if st.State != lastState || st.Track != lastTrack {
				track := st.Track
				if track == "" {
					track = "(no track)"
				}
				log.Printf("Deck: %s %s", st.State, track)
				lastState, lastTrack = st.State, st.Track
			}

		case errInfo := <-client.Errors:
			log.Printf("Deck error: %s (%s)", errInfo.Error, errInfo.Message)

		case <-sigChan:
			log.Printf("Stopping")
			return
		}
	}
}

// discoverDeck browses mDNS and returns the first deck found.
func discoverDeck() string {
	log.Printf("Browsing for decks...")

	mgr := discovery.NewManager(discovery.Config{ServiceName: CLI.Name})
	if err := mgr.Browse(); err != nil {
		log.Fatalf("Failed to browse for decks: %v", err)
	}
	defer mgr.Stop()

	select {
	case deck := <-mgr.Decks():
		addr := fmt.Sprintf("%s:%d", deck.Host, deck.Port)
		log.Printf("Found deck %q at %s", deck.Name, addr)
		return addr
	case <-time.After(time.Duration(CLI.Timeout) * time.Second):
		log.Fatalf("No deck found after %d seconds", CLI.Timeout)
		return ""
	}
}

// pcmBytes converts float samples to little-endian s16 with volume
// applied.
func pcmBytes(samples []float64, volume float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := audio.SampleToInt16(s * volume)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// feeder buffers decoded PCM for the audio callback, substituting
// silence when the network runs dry.
type feeder struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	backlog int
}

func newFeeder(backlog int) *feeder {
	return &feeder{backlog: backlog}
}

// Push appends PCM bytes, dropping the oldest backlog when the reader
// falls too far behind.
func (f *feeder) Push(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buf.Len() > f.backlog {
		f.buf.Reset()
	}
	f.buf.Write(b)
}

// Read never blocks; starvation yields silence so the device keeps a
// steady cadence.
func (f *feeder) Read(p []byte) (int, error) {
	f.mu.Lock()
	n, _ := f.buf.Read(p)
	f.mu.Unlock()
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}
