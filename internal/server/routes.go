package server

import (
	"github.com/nfrund/studybuddy/internal/handlers"
	"github.com/nfrund/studybuddy/internal/middleware"
	"github.com/nfrund/studybuddy/internal/module"
)

// RegisterRoutes sets up the core application routes and the groups that
// modules extend.
func (s *Server) RegisterRoutes() {
	d := s.deps

	homeHandler := handlers.NewHomeHandler()
	authHandler := handlers.NewAuthHandler(d.Store, d.Sessions, d.Authenticator)
	dashboardHandler := handlers.NewDashboardHandler(d.Store, d.Presence)
	presenceHandler := handlers.NewPresenceHandler(d.Presence, nil)
	healthHandler := handlers.NewHealthHandler(d.Health, d.Bridge)

	public := s.E.Group("", middleware.LoadUser(d.Sessions, d.Authenticator))
	public.GET("/", homeHandler.HomeGet)
	public.GET("/signup", authHandler.SignupGet)
	public.POST("/signup", authHandler.SignupPost)
	public.GET("/login", authHandler.LoginGet)
	public.POST("/login", authHandler.LoginPost)
	public.GET("/logout", authHandler.Logout)
	public.GET("/buddies/:email", dashboardHandler.BuddiesGet)
	public.GET("/api/presence", presenceHandler.GetPresence)
	public.GET("/presence", presenceHandler.GetPresenceHTML)

	app := s.E.Group("", middleware.Auth(d.Sessions, d.Authenticator))
	app.GET("/dashboard", dashboardHandler.DashboardGet)
	app.GET("/lobby", dashboardHandler.LobbyGet)

	s.E.GET("/ws", d.Bridge.Handler())
	s.E.GET("/health", healthHandler.HealthGet)

	s.routes = module.Routes{Public: public, App: app}
}
