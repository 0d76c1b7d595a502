package relica

import (
	"context"
	"database/sql"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
	"github.com/coregx/relica"
)

// FavTopicRepository implements board.FavTopicRepository using Relica ORM.
// Rows are keyed by (user_id, topic_id) and have no surrogate ID.
type FavTopicRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewFavTopicRepository creates a new FavTopicRepository with default table prefix.
func NewFavTopicRepository(sqlDB *sql.DB, driverName string) *FavTopicRepository {
	return &FavTopicRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: model.TablePrefix()}
}

// NewFavTopicRepositoryWithPrefix creates a new FavTopicRepository with custom table prefix.
func NewFavTopicRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *FavTopicRepository {
	return &FavTopicRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *FavTopicRepository) tableName() string {
	return r.tablePrefix + "fav_topic"
}

// Add bookmarks a topic. An existing bookmark is left as is.
func (r *FavTopicRepository) Add(ctx context.Context, m model.FavTopic) error {
	err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert()
	if err == nil {
		return nil
	}
	if err = translateWriteError(err, "failed to insert favorite topic"); board.IsConflict(err) {
		return nil
	}
	return err
}

// Remove deletes a bookmark if present.
func (r *FavTopicRepository) Remove(ctx context.Context, m model.FavTopic) error {
	_, err := r.db.WithContext(ctx).Delete(r.tableName()).
		Where("user_id = ? AND topic_id = ?", m.UserID, m.TopicID).
		Execute()
	if err != nil {
		return translateWriteError(err, "failed to delete favorite topic")
	}
	return nil
}

// FindByUser retrieves the bookmarks of a user.
func (r *FavTopicRepository) FindByUser(ctx context.Context, userID int64) ([]model.FavTopic, error) {
	var favs []model.FavTopic
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where("user_id = ?", userID).
		OrderBy("topic_id ASC").
		All(&favs)
	if err != nil {
		return nil, board.NewErrorWithCause(board.ErrCodeDatabase, "failed to find favorite topics", err)
	}
	if favs == nil {
		favs = []model.FavTopic{}
	}
	return favs, nil
}
