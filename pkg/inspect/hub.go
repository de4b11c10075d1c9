package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// EventType represents the type of a streamed event.
type EventType string

const (
	EventFlush  EventType = "flush"
	EventPhase  EventType = "phase"
	EventSignal EventType = "signal"
)

// Event is sent to inspector clients over the WebSocket stream.
type Event struct {
	Type       EventType `json:"type"`
	Time       time.Time `json:"time"`
	DurationMS float64   `json:"duration_ms,omitempty"`
	Trackers   int       `json:"trackers,omitempty"`
	Phase      string    `json:"phase,omitempty"`
	Items      int       `json:"items,omitempty"`
	Signal     string    `json:"signal,omitempty"`
	Error      string    `json:"error,omitempty"`
}

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Hub streams runtime events to connected WebSocket clients. It is a
// reactive.Monitor; events are queued per client and written by the
// client's own goroutine, so a slow client drops events instead of
// stalling the binding loop.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

var _ reactive.Monitor = (*Hub)(nil)

// NewHub creates a hub. A nil logger means slog.Default().
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeHTTP upgrades the request and streams events until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("inspector client connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("inspector read error", "error", err)
			}
			break
		}
	}
	h.remove(c)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Broadcast queues e for every client.
func (h *Hub) Broadcast(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("inspector client too slow, dropping event", "type", e.Type)
		}
	}
}

// ChangeSetFlushed implements reactive.Monitor.
func (h *Hub) ChangeSetFlushed(start time.Time, trackers int, err error) {
	e := Event{
		Type:       EventFlush,
		Time:       start,
		DurationMS: durationMS(start),
		Trackers:   trackers,
	}
	if err != nil {
		e.Error = err.Error()
	}
	h.Broadcast(e)
}

// PhaseDrained implements reactive.Monitor.
func (h *Hub) PhaseDrained(phase reactive.Phase, start time.Time, items int) {
	h.Broadcast(Event{
		Type:       EventPhase,
		Time:       start,
		DurationMS: durationMS(start),
		Phase:      phase.String(),
		Items:      items,
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

func durationMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
