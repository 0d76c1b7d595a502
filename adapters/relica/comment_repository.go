package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
	"github.com/coregx/relica"
)

// CommentRepository implements board.CommentRepository using Relica ORM.
type CommentRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewCommentRepository creates a new CommentRepository with default table prefix.
func NewCommentRepository(sqlDB *sql.DB, driverName string) *CommentRepository {
	return &CommentRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: model.TablePrefix()}
}

// NewCommentRepositoryWithPrefix creates a new CommentRepository with custom table prefix.
func NewCommentRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *CommentRepository {
	return &CommentRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *CommentRepository) tableName() string {
	return r.tablePrefix + "comment"
}

// Load retrieves a comment by ID.
func (r *CommentRepository) Load(ctx context.Context, id int64) (model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&comment)
	if errors.Is(err, sql.ErrNoRows) {
		return comment, board.ErrNoData
	}
	if err != nil {
		return comment, board.NewErrorWithCause(board.ErrCodeDatabase, "failed to load comment", err)
	}
	return comment, nil
}

// Insert stores a new comment. The ID of m is ignored.
func (r *CommentRepository) Insert(ctx context.Context, m model.Comment) (model.Comment, error) {
	m.ID = 0
	if err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert(); err != nil {
		return m, translateWriteError(err, "failed to insert comment")
	}
	return m, nil
}

// FindByTopic retrieves the comments of a topic, oldest first.
func (r *CommentRepository) FindByTopic(ctx context.Context, topicID int64) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where("topic_id = ?", topicID).
		OrderBy("posted_at ASC").
		All(&comments)
	if err != nil {
		return nil, board.NewErrorWithCause(board.ErrCodeDatabase, "failed to find comments by topic", err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}
