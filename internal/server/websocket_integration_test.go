package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nfrund/studybuddy/internal/app"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/presence"
	"github.com/nfrund/studybuddy/internal/testutils"
	ws "github.com/nfrund/studybuddy/internal/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	t   *testing.T
	srv *httptest.Server
}

func setupIntegrationTest(t *testing.T) *testEnv {
	t.Helper()
	cfg := testutils.ConfigForTests(t)

	a := app.New(cfg, afero.NewOsFs())
	require.NoError(t, a.Boot(context.Background()))
	srv, err := a.Server()
	require.NoError(t, err)

	ts := httptest.NewServer(srv.E)
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, a.Shutdown(ctx))
	})
	return &testEnv{t: t, srv: ts}
}

// user is a browser: an HTTP client with its own cookie jar.
type user struct {
	env    *testEnv
	email  string
	client *http.Client
}

func (e *testEnv) signup(name, email, subjects string) *user {
	e.t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	u := &user{env: e, email: email, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}

	res, err := u.client.PostForm(e.srv.URL+"/signup", url.Values{
		"name": {name}, "email": {email}, "subjects": {subjects},
	})
	require.NoError(e.t, err)
	res.Body.Close()
	require.Equal(e.t, http.StatusSeeOther, res.StatusCode)
	require.Equal(e.t, "/dashboard", res.Header.Get("Location"))
	return u
}

func (u *user) dial() *websocket.Conn {
	t := u.env.t
	t.Helper()
	base, err := url.Parse(u.env.srv.URL)
	require.NoError(t, err)

	header := http.Header{}
	for _, c := range u.client.Jar.Cookies(base) {
		header.Add("Cookie", c.String())
	}
	wsURL := "ws" + strings.TrimPrefix(u.env.srv.URL, "http") + "/ws"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	res.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ws.Envelope{Event: event, Data: raw}))
}

// next reads frames until one carries event, skipping the rest.
func next(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var env ws.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		if env.Event == event {
			return env.Data
		}
	}
}

func nextRoster(t *testing.T, conn *websocket.Conn, want ...string) {
	t.Helper()
	for {
		var roster presence.RosterUpdate
		require.NoError(t, json.Unmarshal(next(t, conn, presence.EventPresenceUpdate), &roster))
		if assert.ObjectsAreEqual(want, roster.Users) {
			return
		}
	}
}

func nextMessage(t *testing.T, conn *websocket.Conn) domain.Message {
	t.Helper()
	var msg domain.Message
	require.NoError(t, json.Unmarshal(next(t, conn, "message"), &msg))
	return msg
}

func TestWebSocket_PresenceFollowsConnections(t *testing.T) {
	env := setupIntegrationTest(t)
	alice := env.signup("Alice", "alice@example.com", "math, physics")
	bob := env.signup("Bob", "bob@example.com", "math")

	a := alice.dial()
	send(t, a, "join", map[string]string{"email": alice.email})
	nextRoster(t, a, "alice@example.com")

	// No email in the payload: the session identity is used.
	b := bob.dial()
	send(t, b, "join", map[string]string{})
	nextRoster(t, a, "alice@example.com", "bob@example.com")
	nextRoster(t, b, "alice@example.com", "bob@example.com")

	res, err := alice.client.Get(env.srv.URL + "/api/presence")
	require.NoError(t, err)
	defer res.Body.Close()
	var body struct {
		Users []string `json:"users"`
		Count int      `json:"count"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)

	require.NoError(t, b.Close())
	nextRoster(t, a, "alice@example.com")
}

func TestWebSocket_ChatRoom(t *testing.T) {
	env := setupIntegrationTest(t)
	alice := env.signup("Alice", "alice@example.com", "math")
	bob := env.signup("Bob", "bob@example.com", "math")

	a := alice.dial()
	b := bob.dial()

	// Frames from one connection are handled in order, so seeing our own
	// message proves the room join went through first.
	send(t, a, "join", map[string]string{"user": alice.email, "other": bob.email})
	send(t, a, "send_message", map[string]string{"receiver": bob.email, "content": "ping"})
	assert.Equal(t, "ping", nextMessage(t, a).Content)

	send(t, b, "join", map[string]string{"other": alice.email})
	send(t, b, "send_message", map[string]string{"receiver": alice.email, "content": "pong"})
	assert.Equal(t, "pong", nextMessage(t, b).Content)
	got := nextMessage(t, a)
	assert.Equal(t, "pong", got.Content)
	assert.Equal(t, bob.email, got.Sender)

	// The HTTP API reaches the same room.
	res, err := alice.client.PostForm(env.srv.URL+"/api/messages/"+bob.email, url.Values{"content": {"over http"}})
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "over http", nextMessage(t, b).Content)

	res, err = bob.client.Get(env.srv.URL + "/api/messages/" + alice.email)
	require.NoError(t, err)
	defer res.Body.Close()
	var history []domain.Message
	require.NoError(t, json.NewDecoder(res.Body).Decode(&history))
	require.Len(t, history, 3)
	assert.Equal(t, []string{"ping", "pong", "over http"},
		[]string{history[0].Content, history[1].Content, history[2].Content})
}

func TestWebSocket_BadFrameGetsErrorEvent(t *testing.T) {
	env := setupIntegrationTest(t)
	alice := env.signup("Alice", "alice@example.com", "math")

	a := alice.dial()
	send(t, a, "send_message", map[string]string{"receiver": "", "content": "hello"})

	var e ws.ErrorData
	require.NoError(t, json.Unmarshal(next(t, a, ws.EventError), &e))
	assert.NotEmpty(t, e.Message)
}
