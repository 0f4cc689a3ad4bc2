// Package live pushes display updates and toasts to websocket clients.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
	pingPeriod   = 30 * time.Second
)

const (
	EventState = "state"
	EventToast = "toast"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// Hub keeps every connected client and broadcasts events to all of them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	snapshot func() models.BoardSnapshot
}

// NewHub builds a hub; snapshot supplies the state sent to a client right
// after it connects.
func NewHub(snapshot func() models.BoardSnapshot) *Hub {
	return &Hub{
		clients:  make(map[string]*client),
		snapshot: snapshot,
	}
}

func (h *Hub) add(c *client) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	slog.Info("ws registered", "id", id)
	return id
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
		slog.Info("ws removed", "id", id)
	}
}

func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends ev to every client. Clients that fail the write are dropped.
func (h *Hub) Broadcast(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	h.mu.RLock()
	targets := make(map[string]*client, len(h.clients))
	for id, c := range h.clients {
		targets[id] = c
	}
	h.mu.RUnlock()

	for id, c := range targets {
		if err := c.write(payload); err != nil {
			slog.Warn("ws write failed", "id", id, "error", err.Error())
			h.remove(id)
		}
	}
	return nil
}

// PublishState is a display.Listener.
func (h *Hub) PublishState(snap models.BoardSnapshot) {
	_ = h.Broadcast(Event{Type: EventState, Data: snap})
}

// Notify forwards a toast to every client.
func (h *Hub) Notify(ctx context.Context, n models.Notification) error {
	return h.Broadcast(Event{Type: EventToast, Data: n})
}

// ServeHTTP upgrades the request, sends the current state and keeps the
// connection until the client goes away. Incoming frames are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade", "error", err.Error())
		return
	}
	c := &client{conn: conn}

	if h.snapshot != nil {
		payload, err := json.Marshal(Event{Type: EventState, Data: h.snapshot()})
		if err == nil {
			err = c.write(payload)
		}
		if err != nil {
			_ = conn.Close()
			return
		}
	}

	id := h.add(c)
	defer h.remove(id)

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := c.ping(); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("ws closed unexpectedly", "id", id, "error", err.Error())
			}
			return
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()
	for _, c := range clients {
		_ = c.conn.Close()
	}
}
