package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"butler/cli/internal/apiclient"
	"butler/cli/internal/command"
	"butler/cli/internal/config"
	"butler/cli/internal/logging"
)

var version = "dev"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Primes the cache command.loadConfig reads through config.GetConfig.
	cfg := config.LoadConfig()
	logger := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Writer: os.Stderr, Component: "butler"}).With("version", version)

	app := command.BuildApp(command.Deps{
		Logger: logger,
		Out:    os.Stdout,
	})
	app.Version = version

	if err := app.RunContext(rootCtx, os.Args); err != nil {
		logger.Error("butler failed", failureAttrs(err)...)
		os.Exit(1)
	}
}

func failureAttrs(err error) []any {
	attrs := []any{"err", err}
	if apiErr, ok := apiclient.AsError(err); ok {
		attrs = append(attrs, "kind", string(apiErr.Kind))
		if apiErr.HasStatus() {
			attrs = append(attrs, "status", apiErr.Status)
		}
		if apiErr.ContextLogID != "" {
			attrs = append(attrs, "context_log_id", apiErr.ContextLogID)
		}
	}
	return attrs
}
