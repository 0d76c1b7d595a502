package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coregx/board"
	"github.com/coregx/board/cmd/board-server/internal/config"
	"github.com/coregx/board/cmd/board-server/internal/logging"
	"github.com/coregx/board/retry"
	"github.com/rs/zerolog"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// bootstrap loads configuration and sets up logging.
func bootstrap() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	logger, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, nil)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// openDatabase opens the configured database and waits for it to answer,
// retrying with backoff while it comes up.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	err = retry.Do(ctx, retry.DefaultStrategy(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}, func(attempt int, err error, delay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("database not ready")
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logger.Info().Str("driver", cfg.Driver).Msg("database connection established")
	return db, nil
}

// migrate applies the schema, honoring the configured table prefix.
func migrate(ctx context.Context, db *sql.DB, cfg config.DatabaseConfig) error {
	if cfg.Prefix != "" {
		return board.MigrateWithPrefix(ctx, db, cfg.Driver, cfg.Prefix)
	}
	return board.Migrate(ctx, db, cfg.Driver)
}
