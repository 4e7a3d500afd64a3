package chat

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/middleware"
	"github.com/nfrund/studybuddy/internal/view"
)

// SendRequest is the body of POST /api/messages/:other.
type SendRequest struct {
	Content string `json:"content" form:"content" validate:"required,max=4000"`
}

// Handler serves the chat pages and the message API.
type Handler struct {
	relay *Relay
}

// NewHandler creates a chat handler.
func NewHandler(relay *Relay) *Handler {
	return &Handler{relay: relay}
}

// ChatGet renders the conversation with :other.
func (h *Handler) ChatGet(c echo.Context) error {
	me, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	other := domain.NormalizeEmail(c.Param("other"))

	history, err := h.relay.History(c.Request().Context(), me.Email, other)
	if err != nil {
		return httpError(c, err)
	}

	page := view.Chat(view.PageData{Title: "Chat", User: &me, Flash: view.TakeFlash(c)}, other, history)
	return c.Render(http.StatusOK, "", page)
}

// MessagesGet returns the conversation with :other as JSON.
func (h *Handler) MessagesGet(c echo.Context) error {
	me, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	history, err := h.relay.History(c.Request().Context(), me.Email, c.Param("other"))
	if err != nil {
		return httpError(c, err)
	}
	if history == nil {
		history = []domain.Message{}
	}
	return c.JSON(http.StatusOK, history)
}

// MessagesPost sends a message to :other without a websocket.
func (h *Handler) MessagesPost(c echo.Context) error {
	me, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg, err := h.relay.Send(c.Request().Context(), me.Email, c.Param("other"), req.Content)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func httpError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrInvalidInput) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	middleware.FromContext(c.Request().Context()).Error("chat request failed", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "store unavailable")
}
