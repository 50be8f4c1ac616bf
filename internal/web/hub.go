// Package web serves the trainer's status feed: a WebSocket hub broadcasting
// pipeline events to browser viewers, an embedded single-page viewer, and the
// health and metrics endpoints, all on one listener.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/MrWong99/hexavox/internal/observe"
)

const (
	// sendQueue is the per-client outbound buffer. A viewer that cannot
	// drain it loses messages; the pipeline never waits for a browser.
	sendQueue = 16

	// writeTimeout bounds a single frame write to one client.
	writeTimeout = 5 * time.Second
)

// Hub fans status messages out to all connected viewers. Broadcast never
// blocks: each client has a bounded queue and slow clients skip messages.
type Hub struct {
	logger  *slog.Logger
	metrics *observe.Metrics

	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	send chan []byte
}

// NewHub creates an empty hub. A nil metrics uses the package default
// instruments.
func NewHub(metrics *observe.Metrics) *Hub {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Hub{
		logger:  slog.With(slog.String("component", "web")),
		metrics: metrics,
		done:    make(chan struct{}),
		clients: make(map[*client]struct{}),
	}
}

// Broadcast sends msg to every connected viewer. Clients whose queue is full
// skip this message and stay connected.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encoding status message failed", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("dropping message for slow viewer", slog.String("type", msg.Type))
		}
	}
}

// Clients reports the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all viewers and makes the hub refuse new ones. Called on
// shutdown so websocket handlers return and the HTTP server can drain.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ServeWS upgrades the request and services one viewer until it disconnects
// or the hub closes. The first frame a viewer receives is the LISTENING
// status, so a freshly opened page shows a live state immediately.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket accept failed", slog.Any("error", err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "hub terminated")

	c := &client{send: make(chan []byte, sendQueue)}
	h.register(c)
	defer h.unregister(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.metrics.WebClients.Add(ctx, 1)
	defer h.metrics.WebClients.Add(ctx, -1)
	h.logger.Debug("viewer connected", slog.String("remote", r.RemoteAddr))

	if data, err := json.Marshal(Status(StatusListening)); err == nil {
		if err := writeFrame(ctx, conn, data); err != nil {
			return
		}
	}

	// Viewers send nothing meaningful; the read loop only notices
	// disconnects and keeps control frames flowing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-h.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case <-ctx.Done():
			return
		case data := <-c.send:
			if err := writeFrame(ctx, conn, data); err != nil {
				h.logger.Debug("viewer write failed", slog.Any("error", err))
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
