package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
	"github.com/google/uuid"
)

const (
	heartbeatInterval = 30 * time.Second
	streamWriteWait   = 60 * time.Second
)

var errStreamClosed = errors.New("event stream closed")

// StreamObserver hands hub events to the goroutine serving one SSE request.
type StreamObserver struct {
	id     string
	events chan model.Event

	done      chan struct{}
	closeOnce sync.Once
}

var _ board.Observer = (*StreamObserver)(nil)

func newStreamObserver() *StreamObserver {
	return &StreamObserver{
		id:     uuid.New().String(),
		events: make(chan model.Event),
		done:   make(chan struct{}),
	}
}

// ID implements board.Observer.
func (o *StreamObserver) ID() string {
	return o.id
}

// Deliver blocks until the request goroutine takes event, the stream ends
// or ctx expires.
func (o *StreamObserver) Deliver(ctx context.Context, event model.Event) error {
	select {
	case o.events <- event:
		return nil
	case <-o.done:
		return errStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Safe to call more than once.
func (o *StreamObserver) Close() error {
	o.closeOnce.Do(func() { close(o.done) })
	return nil
}

// StreamHandler serves hub events as Server-Sent Events.
type StreamHandler struct {
	hub       Registry
	logger    board.Logger
	heartbeat time.Duration
}

// NewStreamHandler creates a handler.
func NewStreamHandler(hub Registry, logger board.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, logger: logger, heartbeat: heartbeatInterval}
}

// ServeHTTP handles GET /hubs/comments/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Errorf("Failed to flush stream headers: %v", err)
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	h.extendDeadline(rc)

	observer := newStreamObserver()
	if err := h.hub.Add(observer); err != nil {
		h.logger.Warnf("Failed to register observer: id=%s, error=%v", observer.ID(), err)
		return
	}
	defer h.hub.Remove(observer.ID())
	h.logger.Debugf("Observer connected: id=%s, transport=sse, remote=%s", observer.ID(), r.RemoteAddr)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event := <-observer.events:
			if err := h.sendEvent(w, rc, event); err != nil {
				h.logger.Debugf("Observer disconnected during send: id=%s", observer.ID())
				return
			}

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
			h.extendDeadline(rc)

		case <-observer.done:
			h.logger.Debugf("Observer closed by hub: id=%s", observer.ID())
			return

		case <-r.Context().Done():
			h.logger.Debugf("Observer disconnected: id=%s, transport=sse", observer.ID())
			return
		}
	}
}

// sendEvent writes one frame: "event: <name>", "data: <json>", blank line.
func (h *StreamHandler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Sequence, event.Name, data); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	h.extendDeadline(rc)
	return nil
}

// extendDeadline pushes the write deadline past the next heartbeat so the
// server's WriteTimeout does not end a healthy stream.
func (h *StreamHandler) extendDeadline(rc *http.ResponseController) {
	if err := rc.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Debugf("Failed to set stream write deadline: %v", err)
	}
}
