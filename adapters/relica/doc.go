// Package relica provides repository implementations using Relica query builder.
//
// Relica (github.com/coregx/relica) is a lightweight, type-safe database query builder
// for Go with zero production dependencies.
//
// This package provides implementations of all board repository interfaces:
//   - TopicRepository
//   - TopicTypeRepository
//   - CommentRepository
//   - UserRepository
//   - FavTopicRepository
//
// Driver errors are translated: foreign key rejections become
// board.ErrCodeConstraint, duplicate keys board.ErrCodeConflict.
//
// Example usage:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/board"
//	    "github.com/coregx/board/adapters/relica"
//	    _ "github.com/mattn/go-sqlite3"
//	)
//
//	db, err := sql.Open("sqlite3", "board.db?_foreign_keys=on")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := board.Migrate(ctx, db, "sqlite3"); err != nil {
//	    log.Fatal(err)
//	}
//
//	repos := relica.NewRepositories(db, "sqlite3")
//	service, err := board.NewTopicService(
//	    board.WithTopicServiceRepositories(repos.Topic, repos.Comment),
//	    board.WithTopicServiceLogger(logger),
//	)
package relica
