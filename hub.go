package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coregx/board/model"
)

// Observer is a connected real-time client as seen by the Hub.
//
// Deliver is called from a single goroutine per observer, one event at a
// time, in broadcast order. Returning an error (or exceeding the ctx
// deadline) gets the observer removed. Close is called exactly once, when
// the observer leaves the hub for any reason.
type Observer interface {
	ID() string
	Deliver(ctx context.Context, event model.Event) error
	Close() error
}

// Hub fans events out to every connected Observer.
//
// Each observer owns a bounded FIFO queue drained by a dedicated sender
// goroutine, so a slow or failing observer never delays the broadcaster or
// its peers. Broadcasts are enqueued under the hub lock, which gives every
// observer the same event order. An observer whose queue is full or whose
// delivery fails is removed and closed.
//
// A Hub is created at process start and torn down with Close; it is meant
// to be injected wherever events are broadcast.
//
// Thread safety: Safe for concurrent use.
type Hub struct {
	mu        sync.Mutex
	observers map[string]*observerQueue
	closed    bool
	sequence  uint64

	logger          Logger
	sendBuffer      int
	deliveryTimeout time.Duration
	now             func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Notifier = (*Hub)(nil)

type observerQueue struct {
	observer Observer
	events   chan model.Event
	done     chan struct{}
	stopOnce sync.Once
}

// HubOption is a function that configures a Hub.
type HubOption func(*Hub) error

const (
	defaultSendBuffer      = 64
	defaultDeliveryTimeout = 10 * time.Second
)

// NewHub creates a new Hub with the provided options.
//
// Required options:
//   - WithHubLogger: logger instance
//
// Example:
//
//	hub, err := board.NewHub(
//	    board.WithHubLogger(logger),
//	    board.WithSendBuffer(128), // optional
//	)
//	defer hub.Close(context.Background())
func NewHub(opts ...HubOption) (*Hub, error) {
	h := &Hub{
		observers:       make(map[string]*observerQueue),
		sendBuffer:      defaultSendBuffer,
		deliveryTimeout: defaultDeliveryTimeout,
		now:             time.Now,
	}

	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply hub option", err)
		}
	}

	if h.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required")
	}

	h.ctx, h.cancel = context.WithCancel(context.Background())
	return h, nil
}

// WithHubLogger sets the logger instance.
//
// This is a required option for NewHub.
func WithHubLogger(logger Logger) HubOption {
	return func(h *Hub) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		h.logger = logger
		return nil
	}
}

// WithSendBuffer sets how many undelivered events an observer may have
// queued before it is considered too slow and removed. Default is 64.
func WithSendBuffer(size int) HubOption {
	return func(h *Hub) error {
		if size <= 0 {
			return fmt.Errorf("send buffer must be > 0, got %d", size)
		}
		h.sendBuffer = size
		return nil
	}
}

// WithDeliveryTimeout bounds a single Observer.Deliver call. Default is 10s.
func WithDeliveryTimeout(timeout time.Duration) HubOption {
	return func(h *Hub) error {
		if timeout <= 0 {
			return fmt.Errorf("delivery timeout must be > 0, got %v", timeout)
		}
		h.deliveryTimeout = timeout
		return nil
	}
}

// Add registers an observer. It receives every event broadcast after Add
// returns. Fails on a duplicate ID or once the hub is closed.
func (h *Hub) Add(o Observer) error {
	if o == nil {
		return NewError(ErrCodeValidation, "observer cannot be nil")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	id := o.ID()
	if _, ok := h.observers[id]; ok {
		return NewError(ErrCodeConflict, fmt.Sprintf("observer %s already registered", id))
	}

	q := &observerQueue{
		observer: o,
		events:   make(chan model.Event, h.sendBuffer),
		done:     make(chan struct{}),
	}
	h.observers[id] = q

	h.wg.Add(1)
	go h.run(q)

	h.logger.Debugf("observer connected: id=%s, total=%d", id, len(h.observers))
	return nil
}

// Remove unregisters and closes an observer. No event broadcast after
// Remove returns reaches it. Removing an unknown ID is a no-op.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	q, ok := h.observers[id]
	if ok {
		delete(h.observers, id)
	}
	h.mu.Unlock()

	if ok {
		h.stop(q)
		h.logger.Debugf("observer disconnected: id=%s", id)
	}
}

// Broadcast enqueues an event for every observer connected right now and
// returns immediately. Delivery problems are logged and never returned.
func (h *Hub) Broadcast(eventName string, payload any) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.logger.Debugf("broadcast on closed hub dropped: event=%s", eventName)
		return
	}

	h.sequence++
	event := model.Event{
		Name:      eventName,
		Payload:   payload,
		Sequence:  h.sequence,
		Timestamp: h.now().UTC(),
	}

	var slow []*observerQueue
	for id, q := range h.observers {
		select {
		case q.events <- event:
		default:
			delete(h.observers, id)
			slow = append(slow, q)
		}
	}
	h.mu.Unlock()

	for _, q := range slow {
		h.logger.Warnf("observer queue full, removing: id=%s, event=%s, sequence=%d",
			q.observer.ID(), eventName, event.Sequence)
		// Close may block on the network.
		go h.stop(q)
	}
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Close removes and closes every observer and waits for their senders to
// exit, bounded by ctx. Later broadcasts are dropped and later Adds fail.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	queues := make([]*observerQueue, 0, len(h.observers))
	for _, q := range h.observers {
		queues = append(queues, q)
	}
	h.observers = make(map[string]*observerQueue)
	h.mu.Unlock()

	h.cancel()

	// Observer.Close may block on the network, so stops run concurrently
	// and the wait below stays bounded by ctx.
	var stops sync.WaitGroup
	for _, q := range queues {
		stops.Add(1)
		go func(q *observerQueue) {
			defer stops.Done()
			h.stop(q)
		}(q)
	}

	done := make(chan struct{})
	go func() {
		stops.Wait()
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Infof("notification hub closed: observers=%d", len(queues))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run drains one observer's queue until it is stopped or a delivery fails.
func (h *Hub) run(q *observerQueue) {
	defer h.wg.Done()

	for {
		select {
		case <-q.done:
			return
		case event := <-q.events:
			select {
			case <-q.done:
				return
			default:
			}

			if err := h.deliver(q.observer, event); err != nil {
				h.logger.Warnf("delivery failed, removing observer: id=%s, event=%s, sequence=%d, error=%v",
					q.observer.ID(), event.Name, event.Sequence, err)
				h.reap(q)
				return
			}
		}
	}
}

func (h *Hub) deliver(o Observer, event model.Event) error {
	ctx, cancel := context.WithTimeout(h.ctx, h.deliveryTimeout)
	defer cancel()

	if err := o.Deliver(ctx, event); err != nil {
		return NewErrorWithCause(ErrCodeDelivery, "observer delivery failed", err)
	}
	return nil
}

// reap removes q if it is still the registered queue for its ID.
func (h *Hub) reap(q *observerQueue) {
	id := q.observer.ID()

	h.mu.Lock()
	if cur, ok := h.observers[id]; ok && cur == q {
		delete(h.observers, id)
	}
	h.mu.Unlock()

	h.stop(q)
}

func (h *Hub) stop(q *observerQueue) {
	q.stopOnce.Do(func() {
		close(q.done)
		if err := q.observer.Close(); err != nil {
			h.logger.Debugf("observer close failed: id=%s, error=%v", q.observer.ID(), err)
		}
	})
}
