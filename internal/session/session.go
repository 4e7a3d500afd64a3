// Package session maps HTTP requests to user identity through a
// server-side session store.
package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/config"
	"github.com/spf13/afero"
)

const (
	// Name is the cookie name carrying the session token.
	Name = "studybuddy"

	identityKey = "identity"
	maxAge      = 86400 * 7
)

// ErrNoIdentity is returned when the request carries no signed-in identity.
var ErrNoIdentity = errors.New("no identity in session")

// NewStore builds the gorilla session store selected by configuration. The
// filesystem store keeps session values on disk and only the token in the
// cookie.
func NewStore(cfg config.Provider, fs afero.Fs) (sessions.Store, error) {
	secret := []byte(cfg.GetSessionSecret())
	opts := &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	switch cfg.GetSessionStore() {
	case config.SessionCookie:
		store := sessions.NewCookieStore(secret)
		store.Options = opts
		return store, nil
	case config.SessionFilesystem:
		dir := cfg.GetSessionDir()
		if err := fs.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory %s: %w", dir, err)
		}
		store := sessions.NewFilesystemStore(dir, secret)
		store.Options = opts
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.GetSessionStore())
	}
}

// Manager reads and writes the signed-in identity. Handlers use it instead
// of touching session values directly.
type Manager struct {
	store sessions.Store
}

// NewManager wraps store.
func NewManager(store sessions.Store) *Manager {
	return &Manager{store: store}
}

// Middleware installs the session store on each request so Identity and
// the flash helpers can reach it.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return session.Middleware(m.store)
}

// Store returns the underlying session store.
func (m *Manager) Store() sessions.Store {
	return m.store
}

// Identity returns the identifier stored in the request's session.
func (m *Manager) Identity(c echo.Context) (string, error) {
	sess, err := m.session(c)
	if err != nil {
		return "", err
	}
	id, _ := sess.Values[identityKey].(string)
	if id == "" {
		return "", ErrNoIdentity
	}
	return id, nil
}

// SetIdentity records identifier in the session and saves it.
func (m *Manager) SetIdentity(c echo.Context, identifier string) error {
	sess, err := m.session(c)
	if err != nil {
		return err
	}
	sess.Values[identityKey] = identifier
	return sess.Save(c.Request(), c.Response())
}

// Clear removes the identity and expires the session.
func (m *Manager) Clear(c echo.Context) error {
	sess, err := m.session(c)
	if err != nil {
		return err
	}
	delete(sess.Values, identityKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

func (m *Manager) session(c echo.Context) (*sessions.Session, error) {
	// A tampered or expired cookie yields a fresh session and an error;
	// the fresh session is still usable.
	sess, err := m.store.Get(c.Request(), Name)
	if sess == nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}
