package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
	"github.com/coregx/relica"
)

// TopicTypeRepository implements board.TopicTypeRepository using Relica ORM.
type TopicTypeRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewTopicTypeRepository creates a new TopicTypeRepository with default table prefix.
func NewTopicTypeRepository(sqlDB *sql.DB, driverName string) *TopicTypeRepository {
	return &TopicTypeRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: model.TablePrefix()}
}

// NewTopicTypeRepositoryWithPrefix creates a new TopicTypeRepository with custom table prefix.
func NewTopicTypeRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *TopicTypeRepository {
	return &TopicTypeRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *TopicTypeRepository) tableName() string {
	return r.tablePrefix + "topic_type"
}

// Load retrieves a topic type by ID.
func (r *TopicTypeRepository) Load(ctx context.Context, id int64) (model.TopicType, error) {
	var tt model.TopicType
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&tt)
	if errors.Is(err, sql.ErrNoRows) {
		return tt, board.ErrNoData
	}
	if err != nil {
		return tt, board.NewErrorWithCause(board.ErrCodeDatabase, "failed to load topic type", err)
	}
	return tt, nil
}

// List retrieves every topic type ordered by ID.
func (r *TopicTypeRepository) List(ctx context.Context) ([]model.TopicType, error) {
	var types []model.TopicType
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).OrderBy("id ASC").All(&types)
	if err != nil {
		return nil, board.NewErrorWithCause(board.ErrCodeDatabase, "failed to list topic types", err)
	}
	if types == nil {
		types = []model.TopicType{}
	}
	return types, nil
}

// Save creates or updates a topic type.
func (r *TopicTypeRepository) Save(ctx context.Context, m model.TopicType) (model.TopicType, error) {
	if m.ID == 0 {
		if err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert(); err != nil {
			return m, translateWriteError(err, "failed to insert topic type")
		}
		return m, nil
	}

	if err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Update(); err != nil {
		return m, translateWriteError(err, "failed to update topic type")
	}
	return m, nil
}
