package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Topic is a discussion subject. Comments and favorite bookmarks reference
// it and are removed with it.
type Topic struct {
	ID          int64  `json:"topicId" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	TopicTypeID int64  `json:"topicTypeId" db:"topic_type_id"`
}

// TableName returns the database table name for Topic.
func (t Topic) TableName() string {
	return tablePrefix + "topic"
}

// NewTopic creates a new, not yet persisted topic.
func NewTopic(name, description string, topicTypeID int64) Topic {
	return Topic{
		ID:          0,
		Name:        name,
		Description: description,
		TopicTypeID: topicTypeID,
	}
}

// Validate checks the mutable fields of the topic.
func (t Topic) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.RuneLength(1, maxTextLength)),
		validation.Field(&t.Description, validation.Required, validation.RuneLength(1, maxTextLength)),
		validation.Field(&t.TopicTypeID, validation.Required, validation.Min(int64(1))),
	)
}

// TopicUpdate is the full replacement of a topic's mutable fields.
// TopicID names the topic to change and is never written.
type TopicUpdate struct {
	TopicID     int64  `json:"topicId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TopicTypeID int64  `json:"topicTypeId"`
}

// Validate checks the update payload.
func (u TopicUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.TopicID, validation.Required, validation.Min(int64(1))),
		validation.Field(&u.Name, validation.Required, validation.RuneLength(1, maxTextLength)),
		validation.Field(&u.Description, validation.Required, validation.RuneLength(1, maxTextLength)),
		validation.Field(&u.TopicTypeID, validation.Required, validation.Min(int64(1))),
	)
}

// ApplyTo overwrites the mutable fields of t. Applying the same update
// twice leaves t unchanged the second time.
func (u TopicUpdate) ApplyTo(t *Topic) {
	t.Name = u.Name
	t.Description = u.Description
	t.TopicTypeID = u.TopicTypeID
}
