// Package testutils holds fixtures shared by tests across packages.
package testutils

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/nfrund/studybuddy/internal/config"
	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/pubsub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// ConfigForTests loads .env.test from the project root into the test's
// environment, points the store and session directory at a temp dir and
// returns the resulting config. Commands that read the environment
// themselves see the same values.
func ConfigForTests(t *testing.T) *config.Config {
	t.Helper()

	env, err := godotenv.Read(filepath.Join(projectRoot(t), ".env.test"))
	require.NoError(t, err, "failed to load .env.test")
	for key, value := range env {
		t.Setenv(key, value)
	}

	dir := t.TempDir()
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "studybuddy.db"))
	t.Setenv("SESSION_DIR", filepath.Join(dir, "sessions"))

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	return cfg
}

func projectRoot(t *testing.T) string {
	t.Helper()
	path, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			return path
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}
}

// NewStore opens a migrated sqlite store in a temp dir, closed on cleanup.
func NewStore(t *testing.T) *database.SQLiteStore {
	t.Helper()
	store, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"), afero.NewOsFs())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewBus creates an in-memory bus that logs nowhere, closed on cleanup.
func NewBus(t *testing.T) *pubsub.ChannelBus {
	t.Helper()
	bus := pubsub.NewChannelBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

// MustUser builds a valid user from a comma-separated subject list.
func MustUser(t *testing.T, name, email, subjects string) domain.User {
	t.Helper()
	u, err := domain.NewUser(name, email, domain.ParseSubjects(subjects))
	require.NoError(t, err)
	return u
}

// SaveUsers inserts users into store.
func SaveUsers(t *testing.T, store database.Store, users ...domain.User) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Do(ctx, func(gw domain.Gateway) error {
		for _, u := range users {
			if err := gw.SaveUser(ctx, u); err != nil {
				return err
			}
		}
		return nil
	}))
}
