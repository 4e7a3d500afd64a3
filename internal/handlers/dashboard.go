package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/matcher"
	"github.com/nfrund/studybuddy/internal/middleware"
	"github.com/nfrund/studybuddy/internal/view"
)

// OnlineChecker reports whether a user has an open connection.
type OnlineChecker interface {
	IsOnline(identifier string) bool
}

// DashboardHandler serves the pages built from the user list: the
// dashboard, the lobby and the public buddies page.
type DashboardHandler struct {
	store    database.Store
	presence OnlineChecker
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store database.Store, presence OnlineChecker) *DashboardHandler {
	return &DashboardHandler{store: store, presence: presence}
}

func (h *DashboardHandler) allUsers(c echo.Context) ([]domain.User, error) {
	ctx := c.Request().Context()
	return database.View(ctx, h.store, func(gw domain.Gateway) ([]domain.User, error) {
		return gw.GetAllUsers(ctx)
	})
}

// DashboardGet shows the signed-in user and their matches.
func (h *DashboardHandler) DashboardGet(c echo.Context) error {
	me, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	all, err := h.allUsers(c)
	if err != nil {
		return storeError(c, err)
	}
	return c.Render(http.StatusOK, "", view.Dashboard(pageData(c, "Dashboard"), matcher.Matches(me, all)))
}

// LobbyGet lists every user with whether they are online right now.
func (h *DashboardHandler) LobbyGet(c echo.Context) error {
	all, err := h.allUsers(c)
	if err != nil {
		return storeError(c, err)
	}
	entries := make([]view.LobbyEntry, 0, len(all))
	for _, u := range all {
		entries = append(entries, view.LobbyEntry{User: u, Online: h.presence.IsOnline(u.Email)})
	}
	return c.Render(http.StatusOK, "", view.Lobby(pageData(c, "Lobby"), entries))
}

// BuddiesGet is the public match list for :email.
func (h *DashboardHandler) BuddiesGet(c echo.Context) error {
	ctx := c.Request().Context()
	email := domain.NormalizeEmail(c.Param("email"))

	var (
		user domain.User
		all  []domain.User
	)
	err := h.store.Do(ctx, func(gw domain.Gateway) error {
		var err error
		if user, err = gw.GetUserByEmail(ctx, email); err != nil {
			return err
		}
		all, err = gw.GetAllUsers(ctx)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no such user")
	}
	if err != nil {
		return storeError(c, err)
	}
	return c.Render(http.StatusOK, "", view.Buddies(pageData(c, "Study buddies"), user, matcher.Matches(user, all)))
}

func storeError(c echo.Context, err error) error {
	middleware.FromContext(c.Request().Context()).Error("store request failed", "path", c.Path(), "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "store unavailable")
}
