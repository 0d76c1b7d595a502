package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coregx/board"
	"github.com/coregx/board/adapters/relica"
	"github.com/coregx/board/cmd/board-server/internal/api"
	"github.com/coregx/board/cmd/board-server/internal/config"
	"github.com/coregx/board/cmd/board-server/internal/logging"
	"github.com/coregx/board/cmd/board-server/internal/realtime"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and notification hub",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

// serve runs the server until ctx is canceled, then shuts it down.
func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().Str("version", version).Msg("starting board server")

	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close database")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := migrate(ctx, db, cfg.Database); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Msg("database schema up to date")
	}

	boardLogger := logging.NewAdapter(logger)

	var repos *relica.Repositories
	if cfg.Database.Prefix != "" {
		repos = relica.NewRepositoriesWithPrefix(db, cfg.Database.Driver, cfg.Database.Prefix)
	} else {
		repos = relica.NewRepositories(db, cfg.Database.Driver)
	}

	topicOpts := []board.TopicServiceOption{
		board.WithTopicServiceRepositories(repos.Topic, repos.Comment),
		board.WithTopicServiceLogger(boardLogger),
	}
	if cfg.Board.ReferenceCheck {
		topicOpts = append(topicOpts, board.WithReferenceCheck(repos.TopicType, repos.User))
	} else {
		topicOpts = append(topicOpts, board.WithTopicTypeRepository(repos.TopicType))
	}
	topics, err := board.NewTopicService(topicOpts...)
	if err != nil {
		return fmt.Errorf("create topic service: %w", err)
	}

	favorites, err := board.NewFavoriteService(
		board.WithFavoriteRepositories(repos.FavTopic, repos.Topic),
		board.WithFavoriteLogger(boardLogger),
	)
	if err != nil {
		return fmt.Errorf("create favorite service: %w", err)
	}

	hub, err := board.NewHub(
		board.WithHubLogger(boardLogger),
		board.WithSendBuffer(cfg.Hub.SendBuffer),
		board.WithDeliveryTimeout(cfg.Hub.DeliveryTimeout),
	)
	if err != nil {
		return fmt.Errorf("create notification hub: %w", err)
	}

	var notifier board.Notifier = hub
	if cfg.Hub.LogBroadcasts {
		notifier = board.NewLoggingNotifier(hub, boardLogger)
	}

	handlerOpts := []api.HandlerOption{api.WithVersion(version)}
	if cfg.Board.CommentRate > 0 {
		handlerOpts = append(handlerOpts, api.WithRateLimiter(api.NewRateLimiter(cfg.Board.CommentRate, cfg.Board.CommentBurst)))
	}

	router := api.NewRouter(api.RouterConfig{
		Handler: api.NewHandler(topics, favorites, notifier, boardLogger, handlerOpts...),
		Auth:    api.NewAuthenticator(repos.User, nil, boardLogger),
		WebSocket: realtime.NewWebSocketHandler(hub, cfg.Server.AllowedOrigins, boardLogger,
			realtime.WithPingPeriod(cfg.Hub.PingInterval)),
		EventStream:    realtime.NewStreamHandler(hub, boardLogger),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         boardLogger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			_ = hub.Close(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown; closing
	// the hub first sends them a close frame.
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("notification hub did not drain in time")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped gracefully")
	return nil
}
