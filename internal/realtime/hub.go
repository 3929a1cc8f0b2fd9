// Package realtime pushes visit events to connected admin dashboards over
// websockets.
package realtime

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"fieldvisit-backend/internal/events"
	"fieldvisit-backend/internal/metrics"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var ErrHubClosed = errors.New("realtime hub closed")

// Hub tracks websocket clients and fans events out to them. Only the Run
// goroutine writes to connections.
type Hub struct {
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan events.VisitEvent
	done       chan struct{}
	closeOnce  sync.Once
	upgrader   websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan events.VisitEvent, 64),
		done:      make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish queues the event for every connected client. It never waits: when
// the queue is full the event is dropped from the live feed and logged.
func (h *Hub) Publish(_ context.Context, event events.VisitEvent) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.broadcast <- event:
	default:
		metrics.LiveEventsDropped.Inc()
		log.Printf("[Realtime] Feed queue full, dropping %s for visit %d", event.Type, event.VisitID)
	}
	return nil
}

// Run delivers queued events until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case event := <-h.broadcast:
			h.send(event)
		case <-h.done:
			h.clientsMux.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			metrics.LiveClients.Set(0)
			h.clientsMux.Unlock()
			return
		}
	}
}

func (h *Hub) send(event events.VisitEvent) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteJSON(event); err != nil {
			log.Printf("[Realtime] Dropping client %s: %v", client.RemoteAddr(), err)
			client.Close()
			delete(h.clients, client)
		}
	}
	metrics.LiveClients.Set(float64(len(h.clients)))
}

// Close stops Run and disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) ClientCount() int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and keeps the connection registered until
// the client goes away. Messages from the client are ignored.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Realtime] WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.clientsMux.Lock()
	h.clients[conn] = true
	metrics.LiveClients.Set(float64(len(h.clients)))
	h.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.clientsMux.Lock()
			delete(h.clients, conn)
			metrics.LiveClients.Set(float64(len(h.clients)))
			h.clientsMux.Unlock()
			return
		}
	}
}
