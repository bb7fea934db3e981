package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cloudpico-node/internal/app"
	"cloudpico-node/internal/config"
	"cloudpico-node/internal/console"
	"cloudpico-node/internal/logging"
)

var version = "dev"
var appName = "cloudpico-node"

func main() {
	os.Exit(run())
}

func run() int {
	// Variables already set in the environment take precedence over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		return 1
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	cons, err := console.Open(cfg.ConsolePort, cfg.ConsoleBaud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "console error: %v\n", err)
		return 1
	}
	defer cons.Close()

	var logOut io.Writer = os.Stdout
	if cfg.ConsolePort != "" {
		logOut = io.MultiWriter(os.Stdout, cons)
	}
	logger := logging.NewWithWriter(logOut, cfg.Base, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, cons); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		return 1
	}

	slog.Info("shutting down")
	return 0
}
