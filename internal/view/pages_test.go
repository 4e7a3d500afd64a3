package view

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func user(t *testing.T, name, email, subjects string) domain.User {
	t.Helper()
	u, err := domain.NewUser(name, email, domain.ParseSubjects(subjects))
	require.NoError(t, err)
	return u
}

func TestPage_AnonymousLayout(t *testing.T) {
	out := render(t, Home(PageData{Title: "Home", Flash: Flash{Error: []string{"boom"}}}))

	assert.Contains(t, out, "<title>Home - StudyBuddy</title>")
	assert.Contains(t, out, `href="/signup"`)
	assert.Contains(t, out, `class="flash error"`)
	assert.NotContains(t, out, "/static/app.js")
}

func TestDashboard(t *testing.T) {
	ana := user(t, "Ana", "ana@x.com", "Math,Bio")
	ben := user(t, "Ben", "ben@x.com", "Bio,Art")

	out := render(t, Dashboard(PageData{User: &ana}, matcher.Matches(ana, []domain.User{ana, ben})))

	assert.Contains(t, out, "Welcome, Ana")
	assert.Contains(t, out, `data-me="ana@x.com"`)
	assert.Contains(t, out, "/static/app.js")
	assert.Contains(t, out, `<span class="overlap">Bio</span>`)
	assert.Contains(t, out, `href="/chat/ben@x.com"`)
	assert.Contains(t, out, `hx-get="/presence"`)
}

func TestBuddies_NoMatches(t *testing.T) {
	cal := user(t, "Cal", "cal@x.com", "Art")
	out := render(t, Buddies(PageData{}, cal, nil))

	assert.Contains(t, out, "Study buddies for Cal")
	assert.Contains(t, out, "No matches yet.")
}

func TestLobby_OnlineFlags(t *testing.T) {
	ana := user(t, "Ana", "ana@x.com", "Math")
	ben := user(t, "Ben", "ben@x.com", "Art")

	out := render(t, Lobby(PageData{User: &ana}, []LobbyEntry{
		{User: ana, Online: true},
		{User: ben, Online: false},
	}))

	assert.Contains(t, out, `data-email="ana@x.com"`)
	assert.Contains(t, out, `<td class="status">online</td>`)
	assert.Contains(t, out, `<td class="status">offline</td>`)
	assert.Contains(t, out, `href="/chat/ben@x.com"`)
	assert.NotContains(t, out, `href="/chat/ana@x.com"`)
}

func TestChat_History(t *testing.T) {
	ana := user(t, "Ana", "ana@x.com", "Math")
	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	out := render(t, Chat(PageData{User: &ana}, "ben@x.com", []domain.Message{
		{Sender: "ana@x.com", Receiver: "ben@x.com", Content: "hi", Timestamp: ts},
		{Sender: "ben@x.com", Receiver: "ana@x.com", Content: "<b>hey</b>", Timestamp: ts.Add(time.Minute)},
	}))

	assert.Contains(t, out, `data-other="ben@x.com"`)
	assert.Contains(t, out, "2024-05-01 09:30")
	assert.Contains(t, out, ": hi")
	assert.Contains(t, out, "&lt;b&gt;hey&lt;/b&gt;")
	assert.Contains(t, out, `id="chat-form"`)
}
