package relica

import (
	"errors"

	"github.com/coregx/board"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// PostgreSQL SQLSTATE codes.
const (
	postgresForeignKeyCode  = "23503"
	postgresUniqueViolation = "23505"
)

// translateWriteError maps a driver error raised by an insert, update or
// delete onto the board error codes.
func translateWriteError(err error, message string) error {
	switch {
	case isForeignKeyViolation(err):
		return board.NewErrorWithCause(board.ErrCodeConstraint, message, err)
	case isUniqueViolation(err):
		return board.NewErrorWithCause(board.ErrCodeConflict, message, err)
	default:
		return board.NewErrorWithCause(board.ErrCodeDatabase, message, err)
	}
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlNoReferencedRow || mysqlErr.Number == mysqlRowIsReferenced
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == postgresForeignKeyCode
	}
	return false
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == postgresUniqueViolation
	}
	return false
}
