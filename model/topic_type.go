package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TopicType classifies topics. Deleting a type removes its topics.
type TopicType struct {
	ID   int64  `json:"topicTypeId" db:"id"`
	Name string `json:"name" db:"name"`
}

// TableName returns the database table name for TopicType.
func (t TopicType) TableName() string {
	return tablePrefix + "topic_type"
}

// NewTopicType creates a new, not yet persisted topic type.
func NewTopicType(name string) TopicType {
	return TopicType{Name: name}
}

// Validate checks the topic type name.
func (t TopicType) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.RuneLength(1, maxTextLength)),
	)
}
