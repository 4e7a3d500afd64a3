package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/handlers"
	"github.com/nfrund/studybuddy/internal/middleware"
	"github.com/nfrund/studybuddy/internal/presence"
	"github.com/nfrund/studybuddy/internal/rendering"
	"github.com/nfrund/studybuddy/internal/session"
	"github.com/nfrund/studybuddy/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type app struct {
	t        *testing.T
	e        *echo.Echo
	store    database.Store
	presence *presence.Service
	cookies  map[string]*http.Cookie
}

func newApp(t *testing.T) *app {
	t.Helper()
	store := testutils.NewStore(t)

	mgr := session.NewManager(sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!")))
	auth := session.NewLookupAuthenticator(store)
	pres := presence.NewService(nil)

	e := echo.New()
	e.Renderer = rendering.NewUniversalRenderer()
	e.Validator = handlers.NewValidator()
	e.Use(mgr.Middleware())

	public := e.Group("", middleware.LoadUser(mgr, auth))
	protected := e.Group("", middleware.Auth(mgr, auth))

	authH := handlers.NewAuthHandler(store, mgr, auth)
	dash := handlers.NewDashboardHandler(store, pres)
	presH := handlers.NewPresenceHandler(pres, nil)

	public.GET("/", handlers.NewHomeHandler().HomeGet)
	public.GET("/signup", authH.SignupGet)
	public.POST("/signup", authH.SignupPost)
	public.GET("/login", authH.LoginGet)
	public.POST("/login", authH.LoginPost)
	public.GET("/logout", authH.Logout)
	public.GET("/buddies/:email", dash.BuddiesGet)
	public.GET("/api/presence", presH.GetPresence)
	public.GET("/presence", presH.GetPresenceHTML)
	protected.GET("/dashboard", dash.DashboardGet)
	protected.GET("/lobby", dash.LobbyGet)

	return &app{t: t, e: e, store: store, presence: pres, cookies: map[string]*http.Cookie{}}
}

// request sends a request carrying the cookies collected so far and keeps
// the ones the response sets.
func (a *app) request(method, path string, form url.Values) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(a.cookies, c.Name)
			continue
		}
		a.cookies[c.Name] = c
	}
	return rec
}

func (a *app) signup(name, email, subjects string) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.request(http.MethodPost, "/signup", url.Values{
		"name": {name}, "email": {email}, "subjects": {subjects},
	})
}

func TestSignup_InsertOrIgnore(t *testing.T) {
	a := newApp(t)

	rec := a.signup("Ana", "ANA@X.com", "Math,Bio")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))

	rec = a.signup("Ana2", "ana@x.com", "Chem")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	users, err := database.View(context.Background(), a.store, func(gw domain.Gateway) ([]domain.User, error) {
		return gw.GetAllUsers(context.Background())
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].Name)
	assert.Equal(t, "Math,Bio", users[0].Subjects.String())
}

func TestSignup_InvalidForm(t *testing.T) {
	a := newApp(t)

	rec := a.signup("", "not-an-email", "Math")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "valid email")
	assert.Contains(t, rec.Body.String(), `value="not-an-email"`)
}

func TestDashboard_ShowsMatches(t *testing.T) {
	a := newApp(t)
	a.signup("Ben", "ben@x.com", "Bio,Art")
	a.signup("Cal", "cal@x.com", "Art")
	a.cookies = map[string]*http.Cookie{}

	a.signup("Ana", "ana@x.com", "Math,Bio")
	rec := a.request(http.MethodGet, "/dashboard", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Welcome, Ana")
	assert.Contains(t, body, "Welcome to StudyBuddy!")
	assert.Contains(t, body, "ben@x.com")
	assert.NotContains(t, body, "cal@x.com")
}

func TestDashboard_RequiresIdentity(t *testing.T) {
	a := newApp(t)

	rec := a.request(http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, middleware.LoginPath, rec.Header().Get(echo.HeaderLocation))
}

func TestLogin(t *testing.T) {
	a := newApp(t)
	a.signup("Ana", "ana@x.com", "Math")
	a.request(http.MethodGet, "/logout", nil)

	rec := a.request(http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code, "logout clears the identity")

	rec = a.request(http.MethodGet, "/", nil)
	assert.Contains(t, rec.Body.String(), "You have been logged out.")

	rec = a.request(http.MethodPost, "/login", url.Values{"email": {"nobody@x.com"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)
	assert.NotContains(t, rec.Body.String(), "flash")

	rec = a.request(http.MethodPost, "/login", url.Values{"email": {"Ana@X.com"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))

	rec = a.request(http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLobby_OnlineFlags(t *testing.T) {
	a := newApp(t)
	a.signup("Ben", "ben@x.com", "Art")
	a.signup("Ana", "ana@x.com", "Math")
	a.presence.Join("ben@x.com", "client-1")

	rec := a.request(http.MethodGet, "/lobby", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<tr data-email="ben@x.com"><td>Ben</td><td>Art</td><td class="status">online</td>`)
	assert.Contains(t, body, `<tr data-email="ana@x.com"><td>Ana</td><td>Math</td><td class="status">offline</td>`)
}

func TestBuddies(t *testing.T) {
	a := newApp(t)
	a.signup("Ana", "ana@x.com", "Math,Bio")
	a.signup("Ben", "ben@x.com", "Bio,Art")
	a.signup("Cal", "cal@x.com", "Art")
	a.cookies = map[string]*http.Cookie{}

	rec := a.request(http.MethodGet, "/buddies/CAL@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Study buddies for Cal")
	assert.Contains(t, rec.Body.String(), `<span class="overlap">Art</span>`)
	assert.NotContains(t, rec.Body.String(), "/chat/", "anonymous visitors get no chat links")

	rec = a.request(http.MethodGet, "/buddies/ghost@x.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresenceEndpoints(t *testing.T) {
	a := newApp(t)
	a.presence.Join("b@x.com", "c2")
	a.presence.Join("a@x.com", "c1")

	rec := a.request(http.MethodGet, "/api/presence", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.PresenceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, resp.Users)
	assert.Equal(t, 2, resp.Count)

	rec = a.request(http.MethodGet, "/presence", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Online now (2)")
	assert.Contains(t, rec.Body.String(), `<li class="online">a@x.com</li>`)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type counter int

func (c counter) ClientCount() int { return int(c) }

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/ok", handlers.NewHealthHandler(pinger{}, counter(3)).HealthGet)
	e.GET("/down", handlers.NewHealthHandler(pinger{err: errors.New("gone")}, counter(0)).HealthGet)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","clients":3}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
