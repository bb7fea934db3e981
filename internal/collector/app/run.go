// Package app wires the development collector: database, migrations and the
// HTTP server.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"cloudpico-node/internal/collector/db"
	"cloudpico-node/internal/collector/httpapi"
	"cloudpico-node/internal/collector/migrate"
	"cloudpico-node/internal/collector/repository"
	"cloudpico-node/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Migrate applies pending migrations and returns.
func Migrate(ctx context.Context, cfg config.CollectorConfig) error {
	logger := slog.Default()
	conn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	n, err := migrate.Run(ctx, conn, logger)
	if err != nil {
		return err
	}
	logger.Info("migrations complete", "applied", n)
	return nil
}

func Run(ctx context.Context, cfg config.CollectorConfig) error {
	logger := slog.Default()
	logger.Info("config loaded",
		"app_env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"sqlite_path", cfg.SQLitePath,
	)

	conn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("db close", "error", err)
		}
	}()

	n, err := migrate.Run(ctx, conn, logger)
	if err != nil {
		return err
	}
	logger.Info("database ready", "migrations_applied", n)

	h := httpapi.NewHandler(repository.NewRepository(conn), conn, logger)
	srv := httpapi.NewServer(cfg.HTTPAddr, h.Routes())

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("http shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
