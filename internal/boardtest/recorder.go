package boardtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coregx/board/model"
)

// Broadcast is one call recorded by RecordingNotifier.
type Broadcast struct {
	Event   string
	Payload any
}

// RecordingNotifier implements board.Notifier by remembering every call.
type RecordingNotifier struct {
	mu    sync.Mutex
	calls []Broadcast
}

// Broadcast records the call.
func (n *RecordingNotifier) Broadcast(eventName string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, Broadcast{Event: eventName, Payload: payload})
}

// Calls returns a copy of the recorded calls.
func (n *RecordingNotifier) Calls() []Broadcast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Broadcast(nil), n.calls...)
}

// ErrObserverFailed is returned by a failing Observer.
var ErrObserverFailed = errors.New("observer failed")

// Observer implements board.Observer and collects delivered events.
type Observer struct {
	id string

	mu     sync.Mutex
	events []model.Event
	closed bool

	fail  bool
	block bool
}

// NewObserver creates an Observer with the given ID.
func NewObserver(id string) *Observer {
	return &Observer{id: id}
}

// SetFail makes Deliver return ErrObserverFailed.
func (o *Observer) SetFail(fail bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail = fail
}

// SetBlock makes Deliver wait until its context is done.
func (o *Observer) SetBlock(block bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.block = block
}

// ID implements board.Observer.
func (o *Observer) ID() string { return o.id }

// Deliver implements board.Observer.
func (o *Observer) Deliver(ctx context.Context, event model.Event) error {
	o.mu.Lock()
	fail, block := o.fail, o.block
	o.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if fail {
		return ErrObserverFailed
	}

	o.mu.Lock()
	o.events = append(o.events, event)
	o.mu.Unlock()
	return nil
}

// Close implements board.Observer.
func (o *Observer) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

// Events returns a copy of the delivered events.
func (o *Observer) Events() []model.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]model.Event(nil), o.events...)
}

// Closed reports whether Close was called.
func (o *Observer) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// WaitForEvents blocks until at least n events arrived or timeout passes.
func (o *Observer) WaitForEvents(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if len(o.Events()) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}
