package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"
)

const (
	// writeWait is the timeout for writing to a WebSocket.
	writeWait = 10 * time.Second

	// pongWait is the timeout for pong responses.
	pongWait = 60 * time.Second

	// pingPeriod is how often to send ping frames.
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-client outbound queue. A client that cannot
	// keep up is dropped rather than allowed to stall the broadcast.
	sendBuffer = 64
)

// streamHub fans routing decisions out to connected WebSocket clients.
type streamHub struct {
	upgrader websocket.Upgrader

	clients    map[*streamClient]bool
	clientsMu  sync.RWMutex
	register   chan *streamClient
	unregister chan *streamClient
	events     chan []byte
	done       chan struct{}
}

// streamClient represents a single WebSocket connection.
type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newStreamHub() *streamHub {
	return &streamHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The API binds to loopback by default; cross-origin readers
				// are expected for dashboards.
				return true
			},
		},
		clients:    make(map[*streamClient]bool),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		events:     make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
	}
}

// start runs the client manager loop.
func (h *streamHub) start() {
	go h.run()
}

func (h *streamHub) stop() {
	close(h.done)
}

func (h *streamHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.clientsMu.Unlock()
			zlog.Debug().Int("clients", h.clientCount()).Msg("decision stream client connected")

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientsMu.Unlock()

		case payload := <-h.events:
			h.clientsMu.RLock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow consumer; drop the frame for this client.
				}
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			h.clientsMu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.clientsMu.Unlock()
			return
		}
	}
}

func (h *streamHub) clientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// broadcast queues a decision for every connected client.
func (h *streamHub) broadcast(v any) {
	if h.clientCount() == 0 {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		zlog.Warn().Err(err).Msg("failed to marshal stream event")
		return
	}
	select {
	case h.events <- payload:
	default:
	}
}

// handleWebSocket upgrades the connection and attaches it to the hub.
// GET /v1/decisions/stream
func (h *streamHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &streamClient{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

func (h *streamHub) writePump(client *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains control frames; the stream is write-only for clients.
func (h *streamHub) readPump(client *streamClient) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
