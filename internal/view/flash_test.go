package view_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/view"
	"github.com/stretchr/testify/assert"
)

// sessionContext returns a context that has been through the session
// middleware, as a handler would see it.
func sessionContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	store := sessions.NewCookieStore([]byte("flash-test-secret-0123456789abcd"))

	var got echo.Context
	capture := session.Middleware(store)(func(c echo.Context) error {
		got = c
		return nil
	})
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.NoError(t, capture(ctx))
	return got
}

func TestFlash_ReadOnce(t *testing.T) {
	c := sessionContext(t)
	view.AddFlash(c, view.FlashSuccess, "Welcome to StudyBuddy!")
	view.AddFlash(c, view.FlashError, "Please log in to continue.")

	f := view.TakeFlash(c)
	assert.Equal(t, []string{"Welcome to StudyBuddy!"}, f.Success)
	assert.Equal(t, []string{"Please log in to continue."}, f.Error)
	assert.True(t, view.TakeFlash(c).Empty())
}

func TestFlash_NothingQueued(t *testing.T) {
	assert.True(t, view.TakeFlash(sessionContext(t)).Empty())
}

func TestFlash_WithoutSessionMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	view.AddFlash(c, view.FlashSuccess, "dropped")
	assert.True(t, view.TakeFlash(c).Empty())
}
