package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/middleware"
)

// Pinger is anything whose reachability the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientCounter reports how many websockets are open.
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	store   Pinger
	clients ClientCounter
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store Pinger, clients ClientCounter) *HealthHandler {
	return &HealthHandler{store: store, clients: clients}
}

// HealthGet pings the store.
func (h *HealthHandler) HealthGet(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Clients: h.clients.ClientCount()}
	if err := h.store.Ping(ctx); err != nil {
		middleware.FromContext(ctx).Warn("Health check failed", "error", err)
		resp.Status = "store unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
