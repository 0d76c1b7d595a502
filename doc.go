// Package board is the core of a discussion-board backend: topics, comments,
// bookmarks and a notification hub that pushes every new comment to all
// connected clients.
//
// It can be embedded as a library or run as the standalone board-server.
//
// # Quick Start
//
// Apply the embedded schema and create the services:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/board"
//	    "github.com/coregx/board/adapters/relica"
//	    _ "github.com/mattn/go-sqlite3"
//	)
//
//	db, _ := sql.Open("sqlite3", "board.db?_foreign_keys=on")
//	if err := board.Migrate(ctx, db, "sqlite3"); err != nil {
//	    log.Fatal(err)
//	}
//
//	repos := relica.NewRepositories(db, "sqlite3")
//
//	topics, _ := board.NewTopicService(
//	    board.WithTopicServiceRepositories(repos.Topic, repos.Comment),
//	    board.WithTopicServiceLogger(logger),
//	)
//
//	hub, _ := board.NewHub(board.WithHubLogger(logger))
//	defer hub.Close(ctx)
//
// Store a comment, then announce it:
//
//	comment, err := topics.AddComment(ctx, model.CommentInput{
//	    TopicID: 1,
//	    UserID:  2,
//	    Body:    "Hello",
//	})
//	if err != nil {
//	    return err // nothing is broadcast for a comment that was not stored
//	}
//	hub.Broadcast(model.EventNewComment, model.NewCommentEvent(comment))
//
// # Notification Hub
//
// Hub fans events out to registered Observer values. Broadcast never blocks
// on a client: each observer has its own bounded queue and sender
// goroutine. Every observer sees events in the same order, tagged with a
// gapless sequence number. An observer whose queue overflows, or whose
// delivery fails or times out, is removed and closed. Clients never
// acknowledge events and nothing is redelivered.
//
// # Standalone Service
//
//	board-server migrate
//	board-server user add --username admin --role Administrator
//	board-server serve
//
// REST endpoints live under /api; live notifications are served at
// /hubs/comments (WebSocket) and /hubs/comments/stream (Server-Sent Events).
//
// # Database Schema
//
//	board_topic_type  - topic categories
//	board_topic       - topics
//	board_comment     - comments, append-only
//	board_user        - users with their bearer token
//	board_fav_topic   - per-user bookmarks
//
// Supports MySQL, PostgreSQL, and SQLite via Relica adapters.
// Table prefix can be customized (default: "board_").
package board
