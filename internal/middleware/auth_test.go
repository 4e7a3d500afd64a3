package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	users map[string]domain.User
	err   error
}

func (s stubAuthenticator) Authenticate(_ context.Context, identifier string) (domain.User, error) {
	if s.err != nil {
		return domain.User{}, s.err
	}
	u, ok := s.users[identifier]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func newAuthServer(t *testing.T, auth session.Authenticator) (*echo.Echo, *session.Manager) {
	t.Helper()
	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	m := session.NewManager(store)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/dashboard", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		return c.String(http.StatusOK, "Welcome "+user.Email)
	}, Auth(m, auth))
	e.GET("/signin/:id", func(c echo.Context) error {
		return m.SetIdentity(c, c.Param("id"))
	})
	return e, m
}

func signIn(t *testing.T, e *echo.Echo, id string) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/signin/"+id, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Result().Cookies()
}

func TestAuthMiddleware(t *testing.T) {
	ana, err := domain.NewUser("Ana", "ana@x.com", domain.ParseSubjects("Math"))
	require.NoError(t, err)
	e, _ := newAuthServer(t, stubAuthenticator{users: map[string]domain.User{ana.Email: ana}})

	t.Run("unauthenticated user is redirected to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	})

	t.Run("signed-in user reaches the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		for _, c := range signIn(t, e, ana.Email) {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Welcome ana@x.com", rec.Body.String())
	})

	t.Run("session for a deleted user is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		for _, c := range signIn(t, e, "ghost@x.com") {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		cookies := rec.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, session.Name, cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}

func TestAuthMiddleware_StoreUnavailable(t *testing.T) {
	e, _ := newAuthServer(t, stubAuthenticator{err: errors.Join(domain.ErrStoreUnavailable, errors.New("disk gone"))})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range signIn(t, e, "ana@x.com") {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLoadUser(t *testing.T) {
	ana, err := domain.NewUser("Ana", "ana@x.com", domain.ParseSubjects("Math"))
	require.NoError(t, err)
	e, m := newAuthServer(t, stubAuthenticator{users: map[string]domain.User{ana.Email: ana}})
	e.GET("/", func(c echo.Context) error {
		if user, ok := CurrentUser(c); ok {
			return c.String(http.StatusOK, user.Name)
		}
		return c.String(http.StatusOK, "anonymous")
	}, LoadUser(m, stubAuthenticator{users: map[string]domain.User{ana.Email: ana}}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "anonymous", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range signIn(t, e, ana.Email) {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "Ana", rec.Body.String())
}
