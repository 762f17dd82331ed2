// Package ws streams settled exchange events to websocket clients.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cennznet/cennzx-go/internal/core/exchange"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

// feedMessage is the wire envelope for one exchange event.
type feedMessage struct {
	Event string         `json:"event"`
	Data  exchange.Event `json:"data"`
}

// Hub fans exchange events out to websocket connections.
type Hub struct {
	upgrader websocket.Upgrader
	events   *exchange.Bus
	logger   *zap.Logger

	mu    sync.Mutex
	conns map[*connection]struct{}
}

type connection struct {
	ws     *websocket.Conn
	send   chan []byte
	cancel func()
}

// NewHub creates a hub reading from the exchange event bus.
func NewHub(events *exchange.Bus, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		events: events,
		logger: logger,
		conns:  make(map[*connection]struct{}),
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	events, cancel := h.events.Subscribe(sendBuffer)
	conn := &connection{
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		cancel: cancel,
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	go h.forward(conn, events)
	go h.writePump(conn)
	go h.readPump(conn)
}

// forward encodes exchange events onto the connection's send channel. It is
// the only sender on conn.send and closes it on exit.
func (h *Hub) forward(conn *connection, events <-chan exchange.Event) {
	for event := range events {
		payload, err := json.Marshal(feedMessage{Event: event.EventName(), Data: event})
		if err != nil {
			h.logger.Error("failed to encode event", zap.String("event", event.EventName()), zap.Error(err))
			continue
		}
		select {
		case conn.send <- payload:
		default:
			// Client cannot keep up; drop it.
			h.drop(conn)
			return
		}
	}
	h.drop(conn)
	close(conn.send)
}

func (h *Hub) writePump(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-conn.send:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.drop(conn)
				return
			}
		case <-ticker.C:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(conn)
				return
			}
		}
	}
}

// readPump discards client messages; the feed is one-way. It exists to notice
// disconnects and answer pings.
func (h *Hub) readPump(conn *connection) {
	defer h.drop(conn)

	conn.ws.SetReadLimit(maxMessageSize)
	conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ws.ReadMessage(); err != nil {
			return
		}
	}
}

// drop cancels the event subscription and closes the socket. Cancelling ends
// the forward goroutine, which owns conn.send.
func (h *Hub) drop(conn *connection) {
	h.mu.Lock()
	_, open := h.conns[conn]
	if open {
		delete(h.conns, conn)
	}
	h.mu.Unlock()

	if open {
		conn.cancel()
		conn.ws.Close()
	}
}

// Close tears down every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*connection, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		h.drop(conn)
	}
}
