// ABOUTME: Monitor protocol message type definitions
// ABOUTME: JSON envelopes plus the binary audio chunk framing
package monitor

import (
	"encoding/binary"
	"fmt"
)

const (
	// ProtocolVersion is bumped on incompatible wire changes.
	ProtocolVersion = 1

	// BinaryHeaderSize is the binary frame header: type byte + timestamp.
	BinaryHeaderSize = 1 + 8

	// AudioChunkMessageType identifies binary audio frames.
	AudioChunkMessageType = 1
)

// Control commands a monitor client may send.
const (
	CommandPlay  = "play"
	CommandPause = "pause"
	CommandStop  = "stop"
	CommandSeek  = "seek"
	CommandRate  = "rate"
	CommandMix   = "mix"
)

// Message is the top-level wrapper for all monitor messages.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by monitor clients to initiate the handshake.
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the deck's response to client/hello.
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// StreamInfo announces the audio feed format before binary frames flow.
type StreamInfo struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
}

// StatusUpdate mirrors the deck transport for remote display.
type StatusUpdate struct {
	State    string  `json:"state"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Rate     float64 `json:"rate"`
	Mix      float64 `json:"mix"`
	Track    string  `json:"track,omitempty"`
}

// Control carries a transport command from a monitor client.
type Control struct {
	Command string  `json:"command"`
	Value   float64 `json:"value,omitempty"`
}

// ErrorInfo reports a rejected command or protocol problem.
type ErrorInfo struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// EncodeAudioChunk builds a binary audio frame.
// Format: [message_type:1][timestamp_us:8][audio_data:N]
func EncodeAudioChunk(timestamp int64, audioData []byte) []byte {
	chunk := make([]byte, BinaryHeaderSize+len(audioData))
	chunk[0] = AudioChunkMessageType
	binary.BigEndian.PutUint64(chunk[1:BinaryHeaderSize], uint64(timestamp))
	copy(chunk[BinaryHeaderSize:], audioData)
	return chunk
}

// DecodeAudioChunk parses a binary audio frame.
func DecodeAudioChunk(data []byte) (int64, []byte, error) {
	if len(data) < BinaryHeaderSize {
		return 0, nil, fmt.Errorf("binary message too short: %d bytes", len(data))
	}
	if data[0] != AudioChunkMessageType {
		return 0, nil, fmt.Errorf("unknown binary message type: %d", data[0])
	}
	timestamp := int64(binary.BigEndian.Uint64(data[1:BinaryHeaderSize]))
	return timestamp, data[BinaryHeaderSize:], nil
}
