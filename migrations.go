package board

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// MigrationFiles contains the SQL schema for every supported driver,
// under migrations/<driver>/NNNN_name.sql. Users may feed these files to
// their own migration tool instead of calling Migrate.
//
//go:embed migrations
var MigrationFiles embed.FS

const defaultTablePrefix = "board_"

// Migrate applies the embedded schema for driverName ("mysql", "postgres"
// or "sqlite3") using the default table prefix. The statements are
// idempotent, so Migrate can run on every start.
func Migrate(ctx context.Context, db *sql.DB, driverName string) error {
	return MigrateWithPrefix(ctx, db, driverName, defaultTablePrefix)
}

// MigrateWithPrefix is Migrate with a custom table prefix.
func MigrateWithPrefix(ctx context.Context, db *sql.DB, driverName, prefix string) error {
	dir := path.Join("migrations", driverName)
	entries, err := fs.ReadDir(MigrationFiles, dir)
	if err != nil {
		return NewErrorWithCause(ErrCodeConfiguration, fmt.Sprintf("no migrations for driver %q", driverName), err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := MigrationFiles.ReadFile(path.Join(dir, name))
		if err != nil {
			return NewErrorWithCause(ErrCodeDatabase, "failed to read migration "+name, err)
		}
		script := strings.ReplaceAll(string(raw), defaultTablePrefix, prefix)

		for i, stmt := range splitStatements(script) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return NewErrorWithCause(ErrCodeDatabase,
					fmt.Sprintf("migration %s statement %d failed", name, i+1), err)
			}
		}
	}
	return nil
}

// splitStatements drops "--" comment lines and splits on ";".
// The schema files contain no literals with semicolons.
func splitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var stmts []string
	for _, part := range strings.Split(b.String(), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
