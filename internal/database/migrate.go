package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nfrund/studybuddy/internal/database/migrations"
	"github.com/pressly/goose/v3"
)

// gooseUp is a seam for tests that need to fail the migration step.
var gooseUp = func(ctx context.Context, p *goose.Provider) ([]*goose.MigrationResult, error) {
	return p.Up(ctx)
}

// Migrate applies the embedded schema to db. Running it against an already
// migrated database is a no-op.
func Migrate(ctx context.Context, db *sql.DB) (int, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := gooseUp(ctx, provider)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		slog.DebugContext(ctx, "Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return len(results), nil
}
