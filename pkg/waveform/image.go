// ABOUTME: Waveform image rendering and PNG export
// ABOUTME: Draws the envelope, position marker, and labels into an RGBA image
package waveform

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// ImageOptions controls waveform rendering. Zero values draw a plain
// wave on a dark background at the envelope's natural width.
type ImageOptions struct {
	// Width scales the output horizontally; 0 keeps one column per span.
	Width int
	// Height of the image in pixels (default: 160).
	Height int
	// Marker is a playback position in [0, 1] of the width; negative
	// disables the marker column.
	Marker float64
	// Label is drawn in the lower-left corner when non-empty.
	Label string
	// Face renders the label; nil uses a built-in bitmap face.
	Face font.Face

	Background color.RGBA
	Wave       color.RGBA
	MarkerHue  color.RGBA
}

func (o *ImageOptions) applyDefaults() {
	if o.Height == 0 {
		o.Height = 160
	}
	if o.Marker == 0 {
		o.Marker = -1
	}
	var zero color.RGBA
	if o.Background == zero {
		o.Background = color.RGBA{R: 18, G: 18, B: 24, A: 255}
	}
	if o.Wave == zero {
		o.Wave = color.RGBA{R: 120, G: 200, B: 255, A: 255}
	}
	if o.MarkerHue == zero {
		o.MarkerHue = color.RGBA{R: 255, G: 120, B: 80, A: 255}
	}
	if o.Face == nil {
		o.Face = basicfont.Face7x13
	}
}

// Image renders the envelope into an RGBA image. Columns map through
// PixelSpan, so the sample range [-1, 1] spans the full height. When
// opts.Width differs from the envelope length the natural-size render
// is rescaled with bilinear filtering.
func Image(env Envelope, opts ImageOptions) *image.RGBA {
	opts.applyDefaults()

	width := len(env)
	if width == 0 {
		width = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, width, opts.Height))
	fill(img, opts.Background)

	for x, span := range env {
		lo, hi := PixelSpan(span, opts.Height)
		drawColumn(img, x, lo, hi, opts.Wave)
	}

	if opts.Width > 0 && opts.Width != width {
		dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
		draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}

	if opts.Marker >= 0 && opts.Marker <= 1 {
		x := int(opts.Marker * float64(img.Bounds().Dx()-1))
		drawColumn(img, x, 0, float64(opts.Height), opts.MarkerHue)
	}

	if opts.Label != "" {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.RGBA{R: 230, G: 230, B: 230, A: 255}),
			Face: opts.Face,
			Dot:  freetype.Pt(6, opts.Height-6),
		}
		d.DrawString(opts.Label)
	}

	return img
}

// LoadFace parses a TTF file for label rendering. Callers without a
// font on hand can leave ImageOptions.Face nil instead.
func LoadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: size, DPI: 72}), nil
}

// WritePNG encodes the image as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG writes the image to a PNG file.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return WritePNG(f, img)
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// drawColumn paints the vertical run [lo, hi) in column x, clamped to
// the image, always covering at least one pixel so silent stretches
// stay visible as a center line.
func drawColumn(img *image.RGBA, x int, lo, hi float64, c color.RGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	y0, y1 := int(lo), int(hi)
	if y1 <= y0 {
		y1 = y0 + 1
	}
	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if y1 > b.Max.Y {
		y1 = b.Max.Y
	}
	for y := y0; y < y1; y++ {
		img.SetRGBA(x, y, c)
	}
}
