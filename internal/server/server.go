package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/studybuddy/internal/config"
	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/handlers"
	"github.com/nfrund/studybuddy/internal/middleware"
	"github.com/nfrund/studybuddy/internal/module"
	"github.com/nfrund/studybuddy/internal/presence"
	"github.com/nfrund/studybuddy/internal/rendering"
	"github.com/nfrund/studybuddy/internal/session"
	ws "github.com/nfrund/studybuddy/internal/websocket"
	"github.com/nfrund/studybuddy/web"
)

// Deps are the services the HTTP server is built from.
type Deps struct {
	Config        config.Provider
	Store         database.Store
	Sessions      *session.Manager
	Authenticator session.Authenticator
	Bridge        *ws.Bridge
	Presence      *presence.Service
	Renderer      rendering.Renderer
	// Health is pinged by GET /health. Defaults to Store.
	Health handlers.Pinger
}

// Server holds the echo instance and the route groups modules mount on.
type Server struct {
	E      *echo.Echo
	Cfg    config.Provider
	deps   Deps
	routes module.Routes
}

// New creates the echo instance, installs the middleware stack and
// registers the core routes.
func New(deps Deps) (*Server, error) {
	if deps.Renderer == nil {
		deps.Renderer = rendering.NewUniversalRenderer()
	}
	if deps.Health == nil {
		deps.Health = deps.Store
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = deps.Renderer
	e.Validator = handlers.NewValidator()
	setupErrorHandling(e)

	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(echomw.Recover())
	e.Use(deps.Sessions.Middleware())
	e.Use(middleware.RateLimiter(deps.Config.GetRateLimitPerMinute()))

	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded static files: %w", err)
	}
	e.StaticFS("/static", static)

	s := &Server{E: e, Cfg: deps.Config, deps: deps}
	s.RegisterRoutes()
	return s, nil
}

// Routes returns the groups feature modules register their handlers on.
func (s *Server) Routes() module.Routes {
	return s.routes
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.E.Shutdown(ctx)
}

// setupErrorHandling logs unhandled errors with a stack trace before
// delegating to echo's default error handler. HTTP errors below 500 are
// not logged.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			middleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				"error", err.Error(),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
		} else if he.Code >= http.StatusInternalServerError {
			slog.Warn("Request failed", "status", he.Code, "error", he.Message, "path", c.Request().URL.Path)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
