package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Comment is a short text posted by a user on a topic.
// Comments are append-only: they are inserted once and never updated.
type Comment struct {
	ID        int64     `json:"commentId" db:"id"`
	TopicID   int64     `json:"topicId" db:"topic_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Body      string    `json:"body" db:"body"`
	Timestamp time.Time `json:"timestamp" db:"posted_at"`
}

// TableName returns the database table name for Comment.
func (c Comment) TableName() string {
	return tablePrefix + "comment"
}

// CommentInput is a comment submission as received from a client.
// A zero Timestamp means "now".
type CommentInput struct {
	TopicID   int64     `json:"topicId"`
	UserID    int64     `json:"userId"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the submission. Referenced rows are not looked up here.
func (in CommentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.TopicID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.UserID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.Body, validation.Required, validation.RuneLength(1, maxTextLength)),
	)
}

// NewComment builds an unsaved comment from a submission.
// The timestamp falls back to now when the input carries none.
func NewComment(in CommentInput, now time.Time) Comment {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = now
	}
	return Comment{
		ID:        0,
		TopicID:   in.TopicID,
		UserID:    in.UserID,
		Body:      in.Body,
		Timestamp: ts.UTC(),
	}
}
