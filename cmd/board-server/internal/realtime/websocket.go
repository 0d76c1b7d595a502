// Package realtime exposes the notification hub to clients over WebSocket
// and Server-Sent Events.
//
// Each connection becomes one board.Observer. Observers are push-only:
// frames sent by clients are read and discarded, and nothing is ever
// acknowledged. A connection that fails a write, stops answering pings or
// closes its side is removed from the hub.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period by default.
	defaultPingPeriod = 54 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Registry is the part of the hub the transports need.
type Registry interface {
	Add(o board.Observer) error
	Remove(id string)
}

// WebSocketObserver delivers hub events as JSON text frames.
type WebSocketObserver struct {
	id   string
	conn *websocket.Conn

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

var _ board.Observer = (*WebSocketObserver)(nil)

func newWebSocketObserver(conn *websocket.Conn) *WebSocketObserver {
	return &WebSocketObserver{
		id:   uuid.New().String(),
		conn: conn,
		done: make(chan struct{}),
	}
}

// ID implements board.Observer.
func (o *WebSocketObserver) ID() string {
	return o.id
}

// Deliver writes event as one text frame. The write deadline follows ctx
// when it has one.
func (o *WebSocketObserver) Deliver(ctx context.Context, event model.Event) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}

	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	if err := o.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return o.conn.WriteJSON(event)
}

// Close sends a close frame and releases the connection. Safe to call more
// than once.
func (o *WebSocketObserver) Close() error {
	var err error
	o.closeOnce.Do(func() {
		close(o.done)
		_ = o.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "observer removed"),
			time.Now().Add(writeWait))
		err = o.conn.Close()
	})
	return err
}

// pingLoop keeps the connection alive until the observer is closed.
func (o *WebSocketObserver) pingLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-o.done:
			return
		case <-ticker.C:
			if err := o.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// WebSocketHandler upgrades requests and registers each connection with
// the hub.
type WebSocketHandler struct {
	hub        Registry
	logger     board.Logger
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
}

// WebSocketOption configures a WebSocketHandler.
type WebSocketOption func(*WebSocketHandler)

// WithPingPeriod sets how often idle connections are pinged. A peer that
// stays silent for 10/9 of the period is dropped.
func WithPingPeriod(d time.Duration) WebSocketOption {
	return func(h *WebSocketHandler) {
		if d > 0 {
			h.pingPeriod = d
		}
	}
}

// NewWebSocketHandler creates a handler. An empty allowedOrigins accepts
// any origin; "*" does the same explicitly.
func NewWebSocketHandler(hub Registry, allowedOrigins []string, logger board.Logger, opts ...WebSocketOption) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		pingPeriod: defaultPingPeriod,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *WebSocketHandler) pongWait() time.Duration {
	return h.pingPeriod * 10 / 9
}

// ServeHTTP handles GET /hubs/comments.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	observer := newWebSocketObserver(conn)
	if err := h.hub.Add(observer); err != nil {
		h.logger.Warnf("Failed to register observer: id=%s, error=%v", observer.ID(), err)
		_ = observer.Close()
		return
	}
	h.logger.Debugf("Observer connected: id=%s, transport=websocket, remote=%s", observer.ID(), r.RemoteAddr)

	go observer.pingLoop(h.pingPeriod)
	h.readPump(observer)
}

// readPump discards client frames and returns once the connection fails.
func (h *WebSocketHandler) readPump(o *WebSocketObserver) {
	defer func() {
		h.hub.Remove(o.ID())
		h.logger.Debugf("Observer disconnected: id=%s, transport=websocket", o.ID())
	}()

	o.conn.SetReadLimit(maxMessageSize)
	pongWait := h.pongWait()
	_ = o.conn.SetReadDeadline(time.Now().Add(pongWait))
	o.conn.SetPongHandler(func(string) error {
		return o.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := o.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Warnf("WebSocket read error: id=%s, error=%v", o.ID(), err)
			}
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
