package application

import (
	"log/slog"
	"net/http"

	"butler/cli/internal/config"
)

// StartOptions defines what StartApplication wires together.
type StartOptions struct {
	Config     config.Config
	Logger     *slog.Logger
	HTTPClient *http.Client
	// DBPath overrides Config.DBPath.
	DBPath string
	// Restore rebuilds the session from the stored token before returning.
	Restore bool
}
