// ABOUTME: Format detection and decoder dispatch
// ABOUTME: Sniffs magic bytes, falls back to the file extension
package decode

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
)

// ErrUnknownFormat is returned when neither the leading bytes nor the
// file name identify a supported codec.
var ErrUnknownFormat = errors.New("unknown audio format")

// DecodeFunc turns a complete encoded track into a buffer.
type DecodeFunc func(data []byte) (*audio.Buffer, error)

var decoders = map[string]DecodeFunc{
	"wav":  WAV,
	"mp3":  MP3,
	"flac": FLAC,
}

// Formats lists the codecs Decode can dispatch to.
func Formats() []string {
	out := make([]string, 0, len(decoders))
	for name := range decoders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Sniff identifies the codec from the leading bytes, falling back to
// the extension of name. Returns "" when neither matches.
func Sniff(data []byte, name string) string {
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE" {
		return "wav"
	}
	if len(data) >= 4 && string(data[0:4]) == "fLaC" {
		return "flac"
	}
	if len(data) >= 3 && string(data[0:3]) == "ID3" {
		return "mp3"
	}
	// MPEG frame sync: 11 set bits across the first two bytes.
	if len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		return "mp3"
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if _, ok := decoders[ext]; ok {
		return ext
	}
	return ""
}

// Decode sniffs data and runs the matching decoder. The name is used
// for extension fallback and recorded as the buffer source.
func Decode(data []byte, name string) (*audio.Buffer, error) {
	codec := Sniff(data, name)
	if codec == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}

	buf, err := decoders[codec](data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s as %s: %w", name, codec, err)
	}
	buf.Source = name
	return buf, nil
}
