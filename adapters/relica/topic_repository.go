// Package relica provides Relica ORM implementations for board repositories.
//
//nolint:dupl // Repository pattern requires similar implementations for different types
package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
	"github.com/coregx/relica"
)

// TopicRepository implements board.TopicRepository using Relica ORM.
type TopicRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewTopicRepository creates a new TopicRepository with default table prefix.
func NewTopicRepository(sqlDB *sql.DB, driverName string) *TopicRepository {
	return &TopicRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: model.TablePrefix()}
}

// NewTopicRepositoryWithPrefix creates a new TopicRepository with custom table prefix.
func NewTopicRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *TopicRepository {
	return &TopicRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *TopicRepository) tableName() string {
	return r.tablePrefix + "topic"
}

// Load retrieves a topic by ID.
func (r *TopicRepository) Load(ctx context.Context, id int64) (model.Topic, error) {
	var topic model.Topic
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&topic)
	if errors.Is(err, sql.ErrNoRows) {
		return topic, board.ErrNoData
	}
	if err != nil {
		return topic, board.NewErrorWithCause(board.ErrCodeDatabase, "failed to load topic", err)
	}
	return topic, nil
}

// List retrieves every topic ordered by ID.
func (r *TopicRepository) List(ctx context.Context) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		OrderBy("id ASC").
		All(&topics)
	if err != nil {
		return nil, board.NewErrorWithCause(board.ErrCodeDatabase, "failed to list topics", err)
	}
	if topics == nil {
		topics = []model.Topic{}
	}
	return topics, nil
}

// Save creates or overwrites a topic.
func (r *TopicRepository) Save(ctx context.Context, m model.Topic) (model.Topic, error) {
	if m.ID == 0 {
		err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert()
		if err != nil {
			return m, translateWriteError(err, "failed to insert topic")
		}
		return m, nil
	}

	err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Update()
	if err != nil {
		return m, translateWriteError(err, "failed to update topic")
	}
	return m, nil
}

// Delete removes a topic. Comments and bookmarks go with it through the
// ON DELETE CASCADE foreign keys.
func (r *TopicRepository) Delete(ctx context.Context, m model.Topic) error {
	err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Delete()
	if err != nil {
		return translateWriteError(err, "failed to delete topic")
	}
	return nil
}
