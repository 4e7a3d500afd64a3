// Package module defines how a feature plugs into the application.
package module

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
)

// Routes are the groups a module mounts its handlers on.
type Routes struct {
	// Public is reachable without a session.
	Public *echo.Group
	// App requires a signed-in user.
	App *echo.Group
}

// Module defines the contract for a self-contained application feature.
type Module interface {
	// Name returns a unique identifier for the module.
	Name() string

	// Register provides the module's services to the container.
	Register(i do.Injector) error

	// Boot is called after every module has registered. Routes and
	// websocket handlers are wired here.
	Boot(ctx context.Context, r Routes, i do.Injector) error

	// Shutdown is called during graceful application shutdown.
	Shutdown(ctx context.Context) error
}

// BaseModule provides no-op implementations for modules to embed.
type BaseModule struct{}

func (m *BaseModule) Register(i do.Injector) error { return nil }
func (m *BaseModule) Boot(ctx context.Context, r Routes, i do.Injector) error {
	return nil
}
func (m *BaseModule) Shutdown(ctx context.Context) error {
	return nil
}
