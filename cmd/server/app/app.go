// Package app contains the main entrypoint for the server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starquake/quizai/cmd/server/health"
	"github.com/starquake/quizai/internal/config"
	"github.com/starquake/quizai/internal/database"
	"github.com/starquake/quizai/internal/logging"
	"github.com/starquake/quizai/internal/mock"
	"github.com/starquake/quizai/internal/quiz"
	"github.com/starquake/quizai/internal/server"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Run starts the quiz API server and blocks until ctx is canceled or an interrupt arrives.
// If ln is nil the server listens on the configured host and port.
func Run(
	ctx context.Context,
	getenv func(string) string,
	stdout io.Writer,
	ln net.Listener,
) error {
	var err error
	mainCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var cfg *config.Config
	if cfg, err = config.Parse(getenv); err != nil {
		msg := "error parsing config"
		logging.NewLogger(stdout).ErrorContext(ctx, msg, logging.ErrAttr(err))

		return fmt.Errorf("%s: %w", msg, err)
	}

	format := logging.FormatText
	if cfg.IsProduction() {
		format = logging.FormatJSON
	}
	logger := logging.NewLoggerWithLevel(stdout, cfg.LogLevel, format)

	svc, pinger, closeStorage, err := openStorage(mainCtx, cfg, logger)
	if err != nil {
		msg := "error opening storage"
		logger.ErrorContext(ctx, msg, slog.String("storage", cfg.Storage), logging.ErrAttr(err))

		return fmt.Errorf("%s: %w", msg, err)
	}
	defer closeStorage()

	if ln == nil {
		listenConfig := &net.ListenConfig{}
		if ln, err = listenConfig.Listen(mainCtx, "tcp", cfg.Addr()); err != nil {
			return fmt.Errorf("error listening on %s: %w", cfg.Addr(), err)
		}
	}

	httpServer := &http.Server{
		ReadHeaderTimeout: readHeaderTimeout,
		Handler: server.NewServer(
			logger,
			cfg.IsProduction(),
			svc,
			health.HandleHealthz(logger, pinger),
		),
	}

	g, gCtx := errgroup.WithContext(mainCtx)
	g.Go(func() error {
		logger.InfoContext(ctx, "listening on "+ln.Addr().String(),
			slog.String("addr", ln.Addr().String()),
			slog.String("storage", cfg.Storage),
		)
		if httpErr := httpServer.Serve(ln); httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
			return fmt.Errorf("error listening and serving: %w", httpErr)
		}

		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		// make a new context for the Shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer shutdownCancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("error shutting down server: %w", shutdownErr)
		}
		logger.InfoContext(shutdownCtx, "server stopped")

		return nil
	})

	if err = g.Wait(); err != nil {
		logger.ErrorContext(ctx, "server failed", logging.ErrAttr(err))

		return err
	}

	return nil
}

// openStorage returns the quiz.Service selected by cfg.Storage, its health check and a function that releases it.
func openStorage(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (quiz.Service, health.Pinger, func(), error) {
	switch cfg.Storage {
	case config.StorageMock:
		svc, err := mock.Open(cfg.MockFixture, cfg.MockLatency, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("error loading mock fixture: %w", err)
		}

		return svc, health.Always, func() {}, nil
	case config.StorageSQLite:
		conn, err := database.Open(
			ctx, cfg.DBDriver, cfg.DBURI, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("error opening database connection: %w", err)
		}
		closeConn := func() {
			if conErr := conn.Close(); conErr != nil {
				logger.ErrorContext(ctx, "error closing database connection", logging.ErrAttr(conErr))
			}
		}

		database.SetupGoose()
		if err = database.Migrate(ctx, conn); err != nil {
			closeConn()

			return nil, nil, nil, fmt.Errorf("error migrating database: %w", err)
		}

		store := quiz.NewSQLiteStore(conn, logger)

		return store, store, closeConn, nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownStorage, cfg.Storage)
	}
}
