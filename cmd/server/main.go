package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nfrund/studybuddy/internal/app"
	"github.com/nfrund/studybuddy/internal/config"
	"github.com/nfrund/studybuddy/internal/logging"
)

func main() {
	cfg, err := config.New()
	logging.New()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := app.Run(context.Background(), cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
