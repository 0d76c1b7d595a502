package relica

import (
	"database/sql"

	"github.com/coregx/board"
)

// Repositories holds all repository implementations.
type Repositories struct {
	Topic     board.TopicRepository
	TopicType board.TopicTypeRepository
	Comment   board.CommentRepository
	User      board.UserRepository
	FavTopic  board.FavTopicRepository
}

// NewRepositories creates all repository implementations using Relica.
//
// The db parameter should be an *sql.DB connected to MySQL, PostgreSQL, or SQLite.
// The driverName should be "mysql", "postgres", or "sqlite3".
// The table prefix defaults to "board_" but can be customized.
func NewRepositories(db *sql.DB, driverName string) *Repositories {
	return &Repositories{
		Topic:     NewTopicRepository(db, driverName),
		TopicType: NewTopicTypeRepository(db, driverName),
		Comment:   NewCommentRepository(db, driverName),
		User:      NewUserRepository(db, driverName),
		FavTopic:  NewFavTopicRepository(db, driverName),
	}
}

// NewRepositoriesWithPrefix creates all repository implementations with a custom table prefix.
func NewRepositoriesWithPrefix(db *sql.DB, driverName, prefix string) *Repositories {
	return &Repositories{
		Topic:     NewTopicRepositoryWithPrefix(db, driverName, prefix),
		TopicType: NewTopicTypeRepositoryWithPrefix(db, driverName, prefix),
		Comment:   NewCommentRepositoryWithPrefix(db, driverName, prefix),
		User:      NewUserRepositoryWithPrefix(db, driverName, prefix),
		FavTopic:  NewFavTopicRepositoryWithPrefix(db, driverName, prefix),
	}
}
