package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
	"github.com/coregx/relica"
)

// UserRepository implements board.UserRepository using Relica ORM.
type UserRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewUserRepository creates a new UserRepository with default table prefix.
func NewUserRepository(sqlDB *sql.DB, driverName string) *UserRepository {
	return &UserRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: model.TablePrefix()}
}

// NewUserRepositoryWithPrefix creates a new UserRepository with custom table prefix.
func NewUserRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *UserRepository {
	return &UserRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *UserRepository) tableName() string {
	return r.tablePrefix + "user"
}

// Load retrieves a user by ID.
func (r *UserRepository) Load(ctx context.Context, id int64) (model.User, error) {
	return r.findOne(ctx, "id = ?", id, "failed to load user")
}

// FindByToken retrieves the user owning a bearer token.
func (r *UserRepository) FindByToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, board.ErrNoData
	}
	return r.findOne(ctx, "token = ?", token, "failed to find user by token")
}

// Save creates or updates a user.
func (r *UserRepository) Save(ctx context.Context, m model.User) (model.User, error) {
	if m.ID == 0 {
		if err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert(); err != nil {
			return m, translateWriteError(err, "failed to insert user")
		}
		return m, nil
	}

	if err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Update(); err != nil {
		return m, translateWriteError(err, "failed to update user")
	}
	return m, nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}, message string) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where(where, arg).One(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return user, board.ErrNoData
	}
	if err != nil {
		return user, board.NewErrorWithCause(board.ErrCodeDatabase, message, err)
	}
	return user, nil
}
