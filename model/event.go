package model

import "time"

// EventNewComment is broadcast after a comment has been stored.
const EventNewComment = "NewCommentNotification"

// Event is a named notification pushed to every connected observer.
// Events are transient: they are never stored and never replayed.
type Event struct {
	Name      string    `json:"event"`
	Payload   any       `json:"data"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// CommentEvent is the payload of EventNewComment.
type CommentEvent struct {
	CommentID int64 `json:"commentId"`
}

// NewCommentEvent creates the payload announcing comment c.
func NewCommentEvent(c Comment) CommentEvent {
	return CommentEvent{CommentID: c.ID}
}
