// ABOUTME: WebSocket client for the monitor protocol
// ABOUTME: Handles connection, handshake, and message routing
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ClientConfig holds monitor client configuration.
type ClientConfig struct {
	ServerAddr string // host:port
	ClientID   string // generated when empty
	Name       string
}

// AudioChunk is one timestamped encoded audio frame.
type AudioChunk struct {
	Timestamp int64 // microseconds
	Data      []byte
}

// Client connects to a deck's monitor server and receives its status
// and audio feed.
type Client struct {
	config ClientConfig
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Message channels
	Audio  chan AudioChunk
	Status chan StatusUpdate
	Stream chan StreamInfo
	Errors chan ErrorInfo

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a monitor client.
func NewClient(config ClientConfig) *Client {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		Audio:  make(chan AudioChunk, 100),
		Status: make(chan StatusUpdate, 10),
		Stream: make(chan StreamInfo, 1),
		Errors: make(chan ErrorInfo, 10),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect establishes the WebSocket connection and performs the
// handshake.
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: "/monitor"}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()
	return nil
}

func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  ProtocolVersion,
	}
	if err := c.sendJSON(Message{Type: "client/hello", Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if msg.Type != "server/hello" {
		return fmt.Errorf("expected server/hello, got %s", msg.Type)
	}

	log.Printf("Handshake complete with deck")
	return nil
}

// SendControl sends a transport command to the deck.
func (c *Client) SendControl(command string, value float64) error {
	msg := Message{
		Type:    "client/control",
		Payload: Control{Command: command, Value: value},
	}
	return c.sendJSON(msg)
}

func (c *Client) sendJSON(msg Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages.
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("Read error: %v", err)
			return
		}

		if messageType == websocket.BinaryMessage {
			c.handleBinaryMessage(data)
		} else if messageType == websocket.TextMessage {
			c.handleJSONMessage(data)
		} else {
			log.Printf("Unknown WebSocket message type: %d", messageType)
		}
	}
}

func (c *Client) handleBinaryMessage(data []byte) {
	timestamp, payload, err := DecodeAudioChunk(data)
	if err != nil {
		log.Printf("Invalid binary message: %v", err)
		return
	}

	select {
	case c.Audio <- AudioChunk{Timestamp: timestamp, Data: payload}:
	case <-c.ctx.Done():
	}
}

func (c *Client) handleJSONMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	payloadBytes, _ := json.Marshal(msg.Payload)

	switch msg.Type {
	case "server/stream":
		var stream StreamInfo
		if err := json.Unmarshal(payloadBytes, &stream); err != nil {
			log.Printf("Failed to parse server/stream: %v", err)
			return
		}
		select {
		case c.Stream <- stream:
		case <-c.ctx.Done():
		}

	case "server/status":
		var status StatusUpdate
		if err := json.Unmarshal(payloadBytes, &status); err != nil {
			log.Printf("Failed to parse server/status: %v", err)
			return
		}
		select {
		case c.Status <- status:
		case <-time.After(100 * time.Millisecond):
			log.Printf("Status channel full, dropping message")
		}

	case "server/error":
		var info ErrorInfo
		if err := json.Unmarshal(payloadBytes, &info); err != nil {
			log.Printf("Failed to parse server/error: %v", err)
			return
		}
		select {
		case c.Errors <- info:
		case <-time.After(100 * time.Millisecond):
			log.Printf("Error channel full, dropping message")
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// Close closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Monitor connection closed")
	}
}

// IsConnected returns connection status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
