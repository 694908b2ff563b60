// ABOUTME: CLI tool that renders an audio file's waveform to a PNG
// ABOUTME: Decodes a track, computes its envelope, and draws the card
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio/decode"
	"github.com/Woodshed-Audio/woodshed-go/pkg/waveform"
)

var CLI struct {
	Input   string  `arg:"" help:"Audio file to render (wav, mp3, or flac)"`
	Output  string  `arg:"" optional:"" help:"Output PNG path (default: input name with .png)"`
	Width   int     `help:"Output width in pixels" default:"800"`
	Height  int     `help:"Output height in pixels" default:"160"`
	Channel int     `help:"Channel to render" default:"0"`
	Marker  float64 `help:"Position marker as a fraction of the track, negative to disable" default:"-1"`
	Label   string  `help:"Caption drawn in the corner (default: track name)"`
	Font    string  `help:"TTF font file for the caption"`
	NoLabel bool    `help:"Disable the caption"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("woodshed-wave"),
		kong.Description("Render an audio file's waveform to a PNG card."),
		kong.UsageOnError(),
	)

	data, err := os.ReadFile(CLI.Input)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", CLI.Input, err)
	}

	buf, err := decode.Decode(data, filepath.Base(CLI.Input))
	if err != nil {
		log.Fatalf("Failed to decode: %v", err)
	}

	env, err := waveform.ComputeEnvelope(buf, CLI.Channel, CLI.Width)
	if err != nil {
		log.Fatalf("Failed to compute envelope: %v", err)
	}

	label := CLI.Label
	if label == "" && !CLI.NoLabel {
		label = filepath.Base(CLI.Input)
	}
	if CLI.NoLabel {
		label = ""
	}

	opts := waveform.ImageOptions{
		Height: CLI.Height,
		Marker: CLI.Marker,
		Label:  label,
	}
	if CLI.Font != "" {
		face, err := waveform.LoadFace(CLI.Font, 13)
		if err != nil {
			log.Fatalf("Failed to load font: %v", err)
		}
		opts.Face = face
	}

	img := waveform.Image(env, opts)

	out := CLI.Output
	if out == "" {
		out = strings.TrimSuffix(CLI.Input, filepath.Ext(CLI.Input)) + ".png"
	}
	if err := waveform.SavePNG(out, img); err != nil {
		log.Fatalf("Failed to write PNG: %v", err)
	}

	fmt.Printf("%s: %.1fs, %d channels at %dHz\n", filepath.Base(CLI.Input), buf.Duration(), buf.Channels(), buf.SampleRate)
	fmt.Printf("Wrote %dx%d waveform to %s\n", CLI.Width, CLI.Height, out)
}
