package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestOpenSQLite_MigrationFailure(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })
	gooseUp = func(ctx context.Context, p *goose.Provider) ([]*goose.MigrationResult, error) {
		return nil, errors.New("migration exploded")
	}

	path := filepath.Join(t.TempDir(), "broken.db")
	_, err := OpenSQLite(context.Background(), path, afero.NewOsFs())
	assert.ErrorContains(t, err, "failed to apply migrations")
	assert.ErrorContains(t, err, "migration exploded")
}
