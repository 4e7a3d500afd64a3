package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/studybuddy/internal/config"
	"github.com/spf13/afero"
)

const shutdownTimeout = 10 * time.Second

// Run boots the application, serves HTTP until ctx is canceled or the
// process is signaled, then shuts everything down.
func Run(ctx context.Context, cfg config.Provider) error {
	a := New(cfg, afero.NewOsFs())
	if err := a.Boot(ctx); err != nil {
		return errors.Join(err, a.Shutdown(context.Background()))
	}
	srv, err := a.Server()
	if err != nil {
		return err
	}

	runErr := srv.Start(ctx)
	if runErr != nil {
		slog.Error("Server stopped unexpectedly", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown: %w", err))
	}
	slog.Info("Server exited gracefully")
	return runErr
}
