package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/session"
	"github.com/nfrund/studybuddy/internal/view"
)

// UserContextKey holds the signed-in domain.User on the echo context.
const UserContextKey = "user"

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// Auth creates a middleware that protects routes that require a signed-in user.
func Auth(m *session.Manager, auth session.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identifier, err := m.Identity(c)
			if err != nil {
				view.AddFlash(c, view.FlashError, "Please log in to continue.")
				return c.Redirect(http.StatusSeeOther, LoginPath)
			}

			user, err := auth.Authenticate(c.Request().Context(), identifier)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					FromContext(c.Request().Context()).Error("failed to authenticate session",
						"identifier", identifier, "error", err)
					return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
				}
				// The user behind this session no longer exists.
				_ = m.Clear(c)
				return c.Redirect(http.StatusSeeOther, LoginPath)
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user placed on the context by Auth.
func CurrentUser(c echo.Context) (domain.User, bool) {
	user, ok := c.Get(UserContextKey).(domain.User)
	return user, ok
}

// LoadUser places the signed-in user on the context when there is one, for
// public pages that change with identity. It never redirects.
func LoadUser(m *session.Manager, auth session.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if identifier, err := m.Identity(c); err == nil {
				if user, err := auth.Authenticate(c.Request().Context(), identifier); err == nil {
					c.Set(UserContextKey, user)
				}
			}
			return next(c)
		}
	}
}
