// ABOUTME: Entry point for the woodshed deck
// ABOUTME: Parses CLI flags and starts the deck application
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Woodshed-Audio/woodshed-go/internal/app"
	"github.com/Woodshed-Audio/woodshed-go/internal/version"
)

var CLI struct {
	Track       string `arg:"" optional:"" help:"Track to load at startup (file path or http(s) URL)"`
	Name        string `help:"Deck friendly name (default: hostname-woodshed)"`
	CacheDir    string `help:"Directory for the fetched track cache"`
	Monitor     bool   `help:"Serve the remote monitor bridge"`
	MonitorPort int    `help:"Monitor bridge port" default:"8927"`
	Advertise   bool   `help:"Announce the bridge over mDNS (implies --monitor)"`
	LogFile     string `help:"Log file path" default:"woodshed.log"`
	NoTUI       bool   `help:"Disable the TUI, stream logs to stdout"`
	Version     bool   `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("woodshed"),
		kong.Description("Practice-room audio deck with waveform display and remote monitors."),
		kong.UsageOnError(),
	)

	if CLI.Version {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		os.Exit(0)
	}

	useTUI := !CLI.NoTUI

	f, err := os.OpenFile(CLI.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// The TUI owns the terminal, so logs go only to the file.
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	deckName := CLI.Name
	if deckName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		deckName = fmt.Sprintf("%s-woodshed", hostname)
	}

	trackPath, trackURL := splitTrackArg(CLI.Track)

	a := app.New(app.Config{
		Name:        deckName,
		TrackPath:   trackPath,
		TrackURL:    trackURL,
		CacheDir:    CLI.CacheDir,
		Monitor:     CLI.Monitor || CLI.Advertise,
		MonitorPort: CLI.MonitorPort,
		Advertise:   CLI.Advertise,
		Headless:    !useTUI,
	})

	log.Printf("Starting %s %s: %s", version.Product, version.Version, deckName)

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("Shutdown signal received")
		a.Stop()
	}()

	a.Wait()
	a.Stop()
	log.Printf("Deck stopped")
}

// splitTrackArg routes the positional track argument to a file path or
// a URL load.
func splitTrackArg(track string) (path, url string) {
	if track == "" {
		return "", ""
	}
	if strings.HasPrefix(track, "http://") || strings.HasPrefix(track, "https://") {
		return "", track
	}
	return track, ""
}
