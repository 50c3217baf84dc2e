package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sensepath-app/sensepath/internal/monitoring"
	"github.com/sensepath-app/sensepath/internal/telemetry"
)

// identicalResendInterval bounds how often a record identical to the last
// one is rebroadcast. An external producer re-POSTing an unchanged reading
// should not flood the dashboard, but clients still get a periodic refresh.
const identicalResendInterval = time.Second

// Hub manages the websocket connections feeding the live dashboard and
// fans frame records out to every connected client.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex

	sendMu    sync.Mutex
	lastFrame []byte
	lastSent  time.Time
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

// Run owns the client set until the context is canceled. Slow clients are
// disconnected rather than allowed to stall the broadcast path.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			monitoring.Logf("websocket: client %s connected, %d total", client.id, count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				monitoring.Logf("websocket: client %s disconnected, %d total", client.id, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			var dead []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					dead = append(dead, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range dead {
				monitoring.Logf("websocket: dropping slow client %s", client.id)
				h.removeClient(client)
			}
		}
	}
}

// frameMessage is the wire envelope pushed to dashboard clients.
type frameMessage struct {
	Type      string                `json:"type"`
	Timestamp time.Time             `json:"timestamp"`
	Frame     telemetry.FrameRecord `json:"frame"`
}

// Consume broadcasts one frame record to all connected clients. It never
// blocks: if the broadcast queue is full the record is dropped, because the
// dashboard is an observer, not a consumer the pipeline may wait on.
// Records identical to the previous one are rebroadcast at most once per
// identicalResendInterval. Implements pipeline.Sink.
func (h *Hub) Consume(rec telemetry.FrameRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	h.sendMu.Lock()
	if bytes.Equal(payload, h.lastFrame) && time.Since(h.lastSent) < identicalResendInterval {
		h.sendMu.Unlock()
		return nil
	}
	h.lastFrame = payload
	h.lastSent = time.Now()
	h.sendMu.Unlock()

	msg, err := json.Marshal(frameMessage{
		Type:      "frame",
		Timestamp: time.Now(),
		Frame:     rec,
	})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- msg:
	default:
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
