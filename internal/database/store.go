package database

import (
	"context"
	"fmt"

	"github.com/nfrund/studybuddy/internal/config"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/spf13/afero"
)

// Store hands out persistence gateways scoped to a unit of work.
type Store interface {
	// Do acquires a gateway, runs fn and releases the gateway on every exit
	// path. The gateway must not be retained after fn returns.
	Do(ctx context.Context, fn func(domain.Gateway) error) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*SurrealStore)(nil)
)

// Open selects and opens the store named by the configured driver.
func Open(ctx context.Context, cfg config.Provider, fs afero.Fs) (Store, error) {
	switch cfg.GetStoreDriver() {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.GetSQLitePath(), fs)
	case config.DriverSurreal:
		return OpenSurreal(ctx, SurrealOptions{
			URL:       cfg.GetDBURL(),
			Namespace: cfg.GetDBNs(),
			Database:  cfg.GetDBDb(),
			User:      cfg.GetDBUser(),
			Password:  cfg.GetDBPass(),
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.GetStoreDriver())
	}
}

// View runs fn and returns its result, for read paths that produce a value.
func View[T any](ctx context.Context, s Store, fn func(domain.Gateway) (T, error)) (T, error) {
	var out T
	err := s.Do(ctx, func(gw domain.Gateway) error {
		var err error
		out, err = fn(gw)
		return err
	})
	return out, err
}
