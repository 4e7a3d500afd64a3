package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/middleware"
	"github.com/nfrund/studybuddy/internal/view"
)

// HomeHandler handles requests for the home page.
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// HomeGet handles the GET request for the home page.
func (h *HomeHandler) HomeGet(c echo.Context) error {
	return c.Render(http.StatusOK, "", view.Home(pageData(c, "")))
}

// pageData fills in the parts of every page that come from the request.
func pageData(c echo.Context, title string) view.PageData {
	p := view.PageData{Title: title, Flash: view.TakeFlash(c)}
	if user, ok := middleware.CurrentUser(c); ok {
		p.User = &user
	}
	return p
}
