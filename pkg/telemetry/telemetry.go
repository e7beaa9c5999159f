// Package telemetry broadcasts live engine statistics to websocket
// subscribers, one JSON event per search progress update or finished
// self-play game. Consumers are dashboards; nothing in the engine
// reads from the socket.
package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Event is one broadcast unit. Payload is event-specific and already
// JSON-friendly (SearchEvent or GameEvent).
type Event struct {
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	UpdatedAtMs int64           `json:"updated_at_ms"`
}

// SearchEvent mirrors the listener snapshot of a running search.
type SearchEvent struct {
	GameID     string   `json:"game_id,omitempty"`
	Eval       float64  `json:"eval"`
	Depth      int      `json:"depth"`
	Cycles     int      `json:"cycles"`
	Cps        uint32   `json:"cps"`
	Size       uint32   `json:"size"`
	Pv         []string `json:"pv"`
	StopReason string   `json:"stop_reason,omitempty"`
}

// GameEvent summarizes one finished self-play game.
type GameEvent struct {
	GameID string `json:"game_id"`
	Plies  int    `json:"plies"`
	Result string `json:"result"`
	Played int    `json:"played"`
	Total  int    `json:"total"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) sendBytes(data []byte) {
	select {
	case c.send <- data:
	default:
		// Slow consumer, drop the event.
	}
}

// Hub fans events out to every connected client. Publishing never
// blocks the engine: with no consumers or a full queue the event is
// dropped.
type Hub struct {
	mu        sync.Mutex
	clients   map[*client]struct{}
	broadcast chan Event
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*client]struct{}),
		broadcast: make(chan Event, 64),
	}
}

// Run pumps the broadcast queue until done closes.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for c := range h.clients {
				c.sendBytes(data)
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event for broadcast, dropping it when the queue is
// full.
func (h *Hub) Publish(typ string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	ev := Event{Type: typ, Payload: raw, UpdatedAtMs: time.Now().UnixMilli()}
	select {
	case h.broadcast <- ev:
	default:
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.register(c)

	go func() {
		defer conn.Close()
		for data := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.unregister(c)
			return
		}
	}
}

// Router exposes the hub: GET /ws upgrades to the event stream,
// /api/ping is the liveness check.
func (h *Hub) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	r.Get("/ws", h.serveWS)
	return r
}
