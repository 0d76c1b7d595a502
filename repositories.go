package board

import (
	"context"

	"github.com/coregx/board/model"
)

// TopicRepository defines the persistence interface for topics.
//
// Implementations must be safe for concurrent use.
type TopicRepository interface {
	// Load retrieves a topic by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.Topic, error)

	// List retrieves every topic ordered by ID.
	// Returns empty slice if none found.
	List(ctx context.Context) ([]model.Topic, error)

	// Save creates a new topic (if ID=0) or overwrites an existing one.
	// Returns the saved topic with populated ID.
	Save(ctx context.Context, m model.Topic) (model.Topic, error)

	// Delete removes a topic together with its comments and bookmarks.
	Delete(ctx context.Context, m model.Topic) error
}

// TopicTypeRepository defines the persistence interface for topic types.
type TopicTypeRepository interface {
	// Load retrieves a topic type by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.TopicType, error)

	// List retrieves every topic type ordered by ID.
	List(ctx context.Context) ([]model.TopicType, error)

	// Save creates a new topic type (if ID=0) or updates an existing one.
	Save(ctx context.Context, m model.TopicType) (model.TopicType, error)
}

// CommentRepository defines the persistence interface for comments.
// Comments are append-only.
type CommentRepository interface {
	// Load retrieves a comment by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.Comment, error)

	// Insert stores a new comment and returns it with its generated ID.
	// A dangling topic or user reference fails with ErrCodeConstraint.
	Insert(ctx context.Context, m model.Comment) (model.Comment, error)

	// FindByTopic retrieves the comments of a topic, oldest first.
	FindByTopic(ctx context.Context, topicID int64) ([]model.Comment, error)
}

// UserRepository defines the persistence interface for users.
type UserRepository interface {
	// Load retrieves a user by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.User, error)

	// Save creates a new user (if ID=0) or updates an existing one.
	Save(ctx context.Context, m model.User) (model.User, error)

	// FindByToken retrieves the user owning a bearer token.
	// Returns ErrNoData if no user holds it.
	FindByToken(ctx context.Context, token string) (model.User, error)
}

// FavTopicRepository defines the persistence interface for favorite bookmarks.
type FavTopicRepository interface {
	// Add bookmarks a topic. Adding an existing bookmark is not an error.
	Add(ctx context.Context, m model.FavTopic) error

	// Remove deletes a bookmark. Removing a missing bookmark is not an error.
	Remove(ctx context.Context, m model.FavTopic) error

	// FindByUser retrieves the bookmarks of a user.
	FindByUser(ctx context.Context, userID int64) ([]model.FavTopic, error)
}
