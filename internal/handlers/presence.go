package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/presence"
)

// Roster is the read side of the presence service.
type Roster interface {
	Roster() []string
}

// PresenceHandler serves the online roster.
type PresenceHandler struct {
	roster   Roster
	renderer presence.RosterRenderer
}

// NewPresenceHandler creates a presence handler. A nil renderer falls back
// to presence.RosterList.
func NewPresenceHandler(roster Roster, renderer presence.RosterRenderer) *PresenceHandler {
	if renderer == nil {
		renderer = presence.RosterList
	}
	return &PresenceHandler{roster: roster, renderer: renderer}
}

// GetPresence returns the current online users as JSON.
func (h *PresenceHandler) GetPresence(c echo.Context) error {
	users := h.roster.Roster()
	return c.JSON(http.StatusOK, PresenceResponse{Users: users, Count: len(users)})
}

// GetPresenceHTML returns the roster as an HTML fragment for htmx.
func (h *PresenceHandler) GetPresenceHTML(c echo.Context) error {
	return c.Render(http.StatusOK, "", h.renderer(h.roster.Roster()))
}
