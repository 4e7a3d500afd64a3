// Package app assembles the application: it owns the dependency container,
// boots the feature modules and tears everything down in order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/config"
	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/module"
	"github.com/nfrund/studybuddy/internal/presence"
	"github.com/nfrund/studybuddy/internal/pubsub"
	"github.com/nfrund/studybuddy/internal/rendering"
	"github.com/nfrund/studybuddy/internal/server"
	"github.com/nfrund/studybuddy/internal/session"
	ws "github.com/nfrund/studybuddy/internal/websocket"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
)

// App is a configured application. Services are built lazily on Boot.
type App struct {
	injector *do.RootScope
	modules  []module.Module
	cancel   context.CancelFunc
}

// New registers every core service provider and the feature modules.
func New(cfg config.Provider, fs afero.Fs) *App {
	i := do.New()

	do.ProvideValue(i, cfg)
	do.ProvideValue(i, fs)
	do.ProvideValue(i, slog.Default())

	do.Provide(i, provideStore)
	do.Provide(i, provideBus)
	do.MustAs[*bus, pubsub.Publisher](i)
	do.MustAs[*bus, pubsub.Subscriber](i)
	do.Provide(i, provideSessions)
	do.Provide(i, provideAuthenticator)
	do.Provide(i, provideBridge)
	do.Provide(i, providePresence)
	do.Provide(i, provideRenderer)
	do.Provide(i, provideServer)

	return &App{injector: i, modules: NewModules()}
}

// Injector exposes the container, mainly for commands that only need a
// single service such as the store.
func (a *App) Injector() do.Injector {
	return a.injector
}

// Server returns the HTTP server, building it and its dependencies on first use.
func (a *App) Server() (*server.Server, error) {
	return do.Invoke[*server.Server](a.injector)
}

// Boot starts the bus subscriptions and mounts every module on the server.
// The subscriptions live until Shutdown.
func (a *App) Boot(ctx context.Context) error {
	srv, err := a.Server()
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}
	sub := do.MustInvoke[pubsub.Subscriber](a.injector)
	bridge := do.MustInvoke[*ws.Bridge](a.injector)
	pres := do.MustInvoke[*presence.Service](a.injector)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel

	if err := bridge.Start(runCtx, sub); err != nil {
		return fmt.Errorf("failed to start websocket bridge: %w", err)
	}
	if err := pres.Start(runCtx, sub); err != nil {
		return fmt.Errorf("failed to start presence service: %w", err)
	}
	bridge.On(presence.EventJoin, pres.HandleJoin)

	for _, m := range a.modules {
		slog.Debug("Registering module", "module", m.Name())
		if err := m.Register(a.injector); err != nil {
			return fmt.Errorf("failed to register module %s: %w", m.Name(), err)
		}
	}
	for _, m := range a.modules {
		slog.Info("Booting module", "module", m.Name())
		if err := m.Boot(ctx, srv.Routes(), a.injector); err != nil {
			return fmt.Errorf("failed to boot module %s: %w", m.Name(), err)
		}
	}
	return nil
}

// Shutdown stops the modules, then every built service in reverse
// dependency order.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(a.modules) - 1; i >= 0; i-- {
		if err := a.modules[i].Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("module %s: %w", a.modules[i].Name(), err))
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	if report := a.injector.ShutdownWithContext(ctx); report != nil && !report.Succeed {
		errs = append(errs, errors.New(report.Error()))
	}
	return errors.Join(errs...)
}

// managedStore lets the container close and health-check the store.
type managedStore struct {
	database.Store
}

func (s *managedStore) Shutdown() error                       { return s.Close() }
func (s *managedStore) HealthCheck(ctx context.Context) error { return s.Ping(ctx) }

// bus is the in-memory message bus, registered once and aliased as both
// Publisher and Subscriber.
type bus struct {
	*pubsub.ChannelBus
}

func (b *bus) Shutdown() error { return b.Close() }

// containerHealth reports the health of every service built so far.
type containerHealth struct {
	scope *do.RootScope
}

func (h containerHealth) Ping(ctx context.Context) error {
	var errs []error
	for name, err := range h.scope.HealthCheckWithContext(ctx) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func provideStore(i do.Injector) (database.Store, error) {
	cfg := do.MustInvoke[config.Provider](i)
	store, err := database.Open(context.Background(), cfg, do.MustInvoke[afero.Fs](i))
	if err != nil {
		return nil, err
	}
	return &managedStore{Store: store}, nil
}

func provideBus(i do.Injector) (*bus, error) {
	return &bus{pubsub.NewChannelBus(do.MustInvoke[*slog.Logger](i))}, nil
}

func provideSessions(i do.Injector) (*session.Manager, error) {
	store, err := session.NewStore(do.MustInvoke[config.Provider](i), do.MustInvoke[afero.Fs](i))
	if err != nil {
		return nil, err
	}
	return session.NewManager(store), nil
}

func provideAuthenticator(i do.Injector) (session.Authenticator, error) {
	return session.NewLookupAuthenticator(do.MustInvoke[database.Store](i)), nil
}

func provideBridge(i do.Injector) (*ws.Bridge, error) {
	mgr := do.MustInvoke[*session.Manager](i)
	opts := []ws.Option{ws.WithIdentity(func(c echo.Context) string {
		id, _ := mgr.Identity(c)
		return id
	})}
	if u, err := url.Parse(do.MustInvoke[config.Provider](i).GetAppBaseURL()); err == nil && u.Host != "" {
		opts = append(opts, ws.WithOriginPatterns(u.Host))
	}
	return ws.NewBridge(do.MustInvoke[pubsub.Publisher](i), opts...), nil
}

func providePresence(i do.Injector) (*presence.Service, error) {
	cfg := do.MustInvoke[config.Provider](i)
	return presence.NewService(
		do.MustInvoke[pubsub.Publisher](i),
		presence.WithOfflineDebounce(cfg.GetPresenceOfflineDebounce()),
		presence.WithLogger(do.MustInvoke[*slog.Logger](i).With("component", "presence")),
	), nil
}

func provideRenderer(i do.Injector) (rendering.Renderer, error) {
	return rendering.NewUniversalRenderer(), nil
}

func provideServer(i do.Injector) (*server.Server, error) {
	return server.New(server.Deps{
		Config:        do.MustInvoke[config.Provider](i),
		Store:         do.MustInvoke[database.Store](i),
		Sessions:      do.MustInvoke[*session.Manager](i),
		Authenticator: do.MustInvoke[session.Authenticator](i),
		Bridge:        do.MustInvoke[*ws.Bridge](i),
		Presence:      do.MustInvoke[*presence.Service](i),
		Renderer:      do.MustInvoke[rendering.Renderer](i),
		Health:        containerHealth{scope: i.RootScope()},
	})
}
