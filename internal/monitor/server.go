// ABOUTME: WebSocket server streaming deck state and audio to monitors
// ABOUTME: Manages client connections, control dispatch, and the audio feed
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Woodshed-Audio/woodshed-go/pkg/audio"
	"github.com/Woodshed-Audio/woodshed-go/pkg/audio/encode"
)

// Transport is the control surface monitor clients drive. The deck
// session satisfies it.
type Transport interface {
	Play() error
	Pause() error
	Stop()
	Seek(position float64) error
	SetRate(rate float64)
	SetMix(amount float64)
}

// Config holds monitor server configuration.
type Config struct {
	Port       int
	Name       string
	Codec      string // "opus" or "pcm"; opus falls back to pcm when unavailable
	SampleRate int
	Channels   int
}

// Server streams deck status and a live audio feed over WebSocket.
type Server struct {
	config   Config
	serverID string

	upgrader   websocket.Upgrader
	httpServer *http.Server
	listener   net.Listener
	mux        *http.ServeMux

	transport Transport

	clients   map[string]*remote
	clientsMu sync.RWMutex

	stream   StreamInfo
	encoder  encode.Encoder
	framer   *encode.Framer
	encodeMu sync.Mutex

	status   StatusUpdate
	statusMu sync.RWMutex

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// remote is one connected monitor client.
type remote struct {
	id       string
	name     string
	conn     *websocket.Conn
	sendChan chan interface{}
}

// NewServer creates a monitor server driving transport. The requested
// codec is negotiated at construction; SetStream renegotiates when a
// track with a different format loads.
func NewServer(config Config, transport Transport) *Server {
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.Channels == 0 {
		config.Channels = 2
	}
	if config.Codec == "" {
		config.Codec = "opus"
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Monitors run on trusted local networks.
				return true
			},
		},
		transport: transport,
		clients:   make(map[string]*remote),
	}
	s.setupEncoderLocked(config.SampleRate, config.Channels)
	s.mux.HandleFunc("/monitor", s.handleWebSocket)
	return s
}

// setupEncoderLocked (re)builds the encoder chain for the given
// format. Caller holds encodeMu once the server is started.
func (s *Server) setupEncoderLocked(sampleRate, channels int) {
	if s.encoder != nil {
		s.encoder.Close()
		s.encoder = nil
	}

	format := audio.Format{
		Codec:      s.config.Codec,
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   16,
	}

	if format.Codec == "opus" {
		enc, err := encode.NewOpus(format)
		if err == nil {
			s.encoder = enc
			s.framer = encode.NewFramer(enc.FrameSamples())
			s.stream = StreamInfo{Codec: "opus", SampleRate: format.SampleRate, Channels: format.Channels, BitDepth: 16}
			return
		}
		log.Printf("Opus encoder unavailable, falling back to PCM: %v", err)
		format.Codec = "pcm"
	}

	enc, err := encode.NewPCM(format)
	if err != nil {
		// Only reachable with a bad codec name in config.
		log.Printf("Failed to create PCM encoder: %v", err)
		return
	}
	s.encoder = enc
	// PCM has no fixed frame; group 20ms blocks to keep packets small.
	s.framer = encode.NewFramer(format.SampleRate / 50 * format.Channels)
	s.stream = StreamInfo{Codec: "pcm", SampleRate: format.SampleRate, Channels: format.Channels, BitDepth: 16}
}

// Start begins listening. It returns once the listener is bound;
// serving continues in the background until Stop.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.mux}

	log.Printf("Monitor server listening on %s (ID: %s)", listener.Addr(), s.serverID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			log.Printf("Monitor server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the bound TCP port, or 0 before Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Stop shuts the server down and disconnects all monitors.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.httpServer.Shutdown(ctx); err != nil {
				log.Printf("Monitor server shutdown error: %v", err)
			}
		}

		s.clientsMu.Lock()
		for _, r := range s.clients {
			r.conn.Close()
		}
		s.clientsMu.Unlock()

		s.wg.Wait()
		s.encodeMu.Lock()
		if s.encoder != nil {
			s.encoder.Close()
			s.encoder = nil
		}
		s.encodeMu.Unlock()
		log.Printf("Monitor server stopped")
	})
}

// ClientCount returns the number of connected monitors.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// PublishStatus broadcasts a transport status update and retains it
// for newly connecting monitors.
func (s *Server) PublishStatus(status StatusUpdate) {
	s.statusMu.Lock()
	s.status = status
	s.statusMu.Unlock()

	s.broadcast(Message{Type: "server/status", Payload: status})
}

// Stream returns the current stream format.
func (s *Server) Stream() StreamInfo {
	s.encodeMu.Lock()
	defer s.encodeMu.Unlock()
	return s.stream
}

// SetStream switches the audio feed to a new sample rate and channel
// count, rebuilding the encoder and announcing the format to connected
// monitors. A load of a track in the same format is a no-op.
func (s *Server) SetStream(sampleRate, channels int) {
	if sampleRate <= 0 || channels <= 0 {
		return
	}

	s.encodeMu.Lock()
	if s.encoder != nil && s.stream.SampleRate == sampleRate && s.stream.Channels == channels {
		s.encodeMu.Unlock()
		return
	}
	s.setupEncoderLocked(sampleRate, channels)
	stream := s.stream
	s.encodeMu.Unlock()

	log.Printf("Monitor stream is now %s %dHz %dch", stream.Codec, stream.SampleRate, stream.Channels)
	s.broadcast(Message{Type: "server/stream", Payload: stream})
}

// PublishAudio feeds interleaved samples from the render tap into the
// encoder and broadcasts the resulting frames. Safe to call from the
// audio callback goroutine.
func (s *Server) PublishAudio(samples []float64) {
	if s.ClientCount() == 0 {
		return
	}

	s.encodeMu.Lock()
	if s.encoder == nil {
		s.encodeMu.Unlock()
		return
	}
	frames := s.framer.Push(samples)
	var chunks [][]byte
	for _, frame := range frames {
		packet, err := s.encoder.Encode(frame)
		if err != nil {
			log.Printf("Monitor encode error: %v", err)
			continue
		}
		chunks = append(chunks, EncodeAudioChunk(time.Now().UnixMicro(), packet))
	}
	s.encodeMu.Unlock()

	for _, chunk := range chunks {
		s.broadcastBinary(chunk)
	}
}

// broadcast queues a JSON message to every connected monitor.
func (s *Server) broadcast(msg Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, r := range s.clients {
		select {
		case r.sendChan <- msg:
		default:
			log.Printf("Monitor %s send buffer full, dropping message", r.name)
		}
	}
}

// broadcastBinary queues a binary frame to every connected monitor.
func (s *Server) broadcastBinary(data []byte) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, r := range s.clients {
		select {
		case r.sendChan <- data:
		default:
			// Don't block the tap when a monitor falls behind
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New monitor connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	// Wait for client/hello
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}
	if msg.Type != "client/hello" {
		log.Printf("Expected client/hello, got %s", msg.Type)
		return
	}

	helloData, err := json.Marshal(msg.Payload)
	if err != nil {
		log.Printf("Error marshaling hello payload: %v", err)
		return
	}
	var hello ClientHello
	if err := json.Unmarshal(helloData, &hello); err != nil {
		log.Printf("Error unmarshaling client hello: %v", err)
		return
	}
	if hello.ClientID == "" {
		log.Printf("Client hello missing ClientID")
		return
	}

	log.Printf("Monitor hello: %s (ID: %s)", hello.Name, hello.ClientID)

	client := &remote{
		id:       hello.ClientID,
		name:     hello.Name,
		conn:     conn,
		sendChan: make(chan interface{}, 100),
	}

	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Monitor ID %s already connected (name: %s), rejecting duplicate", hello.ClientID, existing.name)

		errorMsg := Message{
			Type: "server/error",
			Payload: ErrorInfo{
				Error:   "duplicate_client_id",
				Message: "Client ID already connected",
			},
		}
		if data, err := json.Marshal(errorMsg); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
		return
	}
	s.clients[client.id] = client
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.id)
		s.clientsMu.Unlock()
		close(client.sendChan)
		log.Printf("Monitor disconnected: %s", client.name)
	}()

	// Greet, announce the stream format, and replay the latest status.
	serverHello := ServerHello{ServerID: s.serverID, Name: s.config.Name, Version: ProtocolVersion}
	if err := s.send(client, "server/hello", serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}
	s.encodeMu.Lock()
	stream := s.stream
	s.encodeMu.Unlock()
	if err := s.send(client, "server/stream", stream); err != nil {
		log.Printf("Error sending stream info: %v", err)
		return
	}
	s.statusMu.RLock()
	status := s.status
	s.statusMu.RUnlock()
	if err := s.send(client, "server/status", status); err != nil {
		log.Printf("Error sending status: %v", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		s.handleClientMessage(client, data)
	}
}

// clientWriter drains the send channel to the socket and keeps the
// connection alive with pings.
func (s *Server) clientWriter(client *remote) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				client.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing binary message: %v", err)
					return
				}
			default:
				data, err := json.Marshal(v)
				if err != nil {
					log.Printf("Error marshaling message: %v", err)
					continue
				}
				client.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Printf("Error writing text message: %v", err)
					return
				}
			}

		case <-ticker.C:
			if err := client.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleClientMessage(client *remote, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	switch msg.Type {
	case "client/control":
		s.handleControl(client, msg.Payload)
	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// handleControl applies a transport command from a monitor.
func (s *Server) handleControl(client *remote, payload interface{}) {
	ctlData, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling control payload: %v", err)
		return
	}
	var ctl Control
	if err := json.Unmarshal(ctlData, &ctl); err != nil {
		log.Printf("Error unmarshaling control: %v", err)
		return
	}

	log.Printf("Monitor %s command: %s (%v)", client.name, ctl.Command, ctl.Value)

	var cmdErr error
	switch ctl.Command {
	case CommandPlay:
		cmdErr = s.transport.Play()
	case CommandPause:
		cmdErr = s.transport.Pause()
	case CommandStop:
		s.transport.Stop()
	case CommandSeek:
		cmdErr = s.transport.Seek(ctl.Value)
	case CommandRate:
		s.transport.SetRate(ctl.Value)
	case CommandMix:
		s.transport.SetMix(ctl.Value)
	default:
		log.Printf("Unknown control command: %s", ctl.Command)
		return
	}

	if cmdErr != nil {
		s.send(client, "server/error", ErrorInfo{
			Error:   "command_failed",
			Message: cmdErr.Error(),
		})
	}
}

// send queues a JSON message to one client.
func (s *Server) send(client *remote, msgType string, payload interface{}) error {
	msg := Message{Type: msgType, Payload: payload}
	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}
