package board

import (
	"encoding/json"
)

// Notifier pushes named events to every connected observer.
//
// Broadcast is fire-and-forget: it never blocks on observer I/O and never
// reports delivery failures to the caller.
type Notifier interface {
	Broadcast(eventName string, payload any)
}

// NoOpNotifier is a no-op implementation of Notifier.
// Use this when real-time notifications are not needed.
type NoOpNotifier struct{}

// Broadcast does nothing.
func (n *NoOpNotifier) Broadcast(_ string, _ any) {}

// LoggingNotifier logs every broadcast before handing it to the wrapped
// Notifier (if any).
type LoggingNotifier struct {
	next   Notifier
	logger Logger
}

// NewLoggingNotifier creates a new LoggingNotifier. next may be nil.
func NewLoggingNotifier(next Notifier, logger Logger) *LoggingNotifier {
	return &LoggingNotifier{next: next, logger: logger}
}

// Broadcast logs the event and forwards it.
func (n *LoggingNotifier) Broadcast(eventName string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Infof("broadcast: event=%s payload=%v", eventName, payload)
	} else {
		n.logger.Infof("broadcast: event=%s payload=%s", eventName, data)
	}
	if n.next != nil {
		n.next.Broadcast(eventName, payload)
	}
}
