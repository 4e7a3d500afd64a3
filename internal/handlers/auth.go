package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/middleware"
	"github.com/nfrund/studybuddy/internal/session"
	"github.com/nfrund/studybuddy/internal/view"
)

// AuthHandler handles signup, login and logout. Identity is the email
// address alone; there are no credentials.
type AuthHandler struct {
	store    database.Store
	sessions *session.Manager
	auth     session.Authenticator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store database.Store, sessions *session.Manager, auth session.Authenticator) *AuthHandler {
	return &AuthHandler{store: store, sessions: sessions, auth: auth}
}

// SignupGet renders the signup form.
func (h *AuthHandler) SignupGet(c echo.Context) error {
	return c.Render(http.StatusOK, "", view.Signup(pageData(c, "Sign up"), view.SignupForm{}))
}

// SignupPost registers the user unless the email is taken, then signs in
// as that email either way. An existing user keeps their name and subjects.
func (h *AuthHandler) SignupPost(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	form := view.SignupForm{Name: req.Name, Email: req.Email, Subjects: req.Subjects}

	if err := c.Validate(&req); err != nil {
		p := pageData(c, "Sign up")
		p.Flash.Error = append(p.Flash.Error, "Please enter your name and a valid email address.")
		return c.Render(http.StatusBadRequest, "", view.Signup(p, form))
	}

	user, err := domain.NewUser(req.Name, req.Email, domain.ParseSubjects(req.Subjects))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.store.Do(ctx, func(gw domain.Gateway) error {
		return gw.SaveUser(ctx, user)
	}); err != nil {
		middleware.FromContext(ctx).Error("Error saving user", "email", user.Email, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create your account")
	}

	if err := h.sessions.SetIdentity(c, user.Email); err != nil {
		return err
	}
	view.AddFlash(c, view.FlashSuccess, "Welcome to StudyBuddy!")
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// LoginGet renders the login form.
func (h *AuthHandler) LoginGet(c echo.Context) error {
	return c.Render(http.StatusOK, "", view.Login(pageData(c, "Log in"), ""))
}

// LoginPost signs in by email. An unknown email re-renders the form
// without a message.
func (h *AuthHandler) LoginPost(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(&req); err != nil {
		return c.Render(http.StatusOK, "", view.Login(pageData(c, "Log in"), req.Email))
	}

	ctx := c.Request().Context()
	user, err := h.auth.Authenticate(ctx, domain.NormalizeEmail(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		middleware.FromContext(ctx).Info("Login for unknown email", "email", req.Email)
		return c.Render(http.StatusOK, "", view.Login(pageData(c, "Log in"), req.Email))
	}
	if err != nil {
		middleware.FromContext(ctx).Error("Login lookup failed", "email", req.Email, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "store unavailable")
	}

	if err := h.sessions.SetIdentity(c, user.Email); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Logout clears the identity. Open websockets, and so presence, are left alone.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.Clear(c); err != nil {
		return err
	}
	view.AddFlash(c, view.FlashSuccess, "You have been logged out.")
	return c.Redirect(http.StatusSeeOther, "/")
}
