package view

import (
	"github.com/a-h/templ"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/matcher"
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"
)

// SignupForm carries the submitted values back into the signup page.
type SignupForm struct {
	Name     string
	Email    string
	Subjects string
}

// LobbyEntry is one row of the lobby.
type LobbyEntry struct {
	User   domain.User
	Online bool
}

// Home is the landing page.
func Home(p PageData) templ.Component {
	return page(p,
		h.H1(g.Text("Find your study buddies")),
		h.P(g.Text("List the subjects you study and meet the students who share them.")),
		g.If(p.User == nil, h.P(
			h.A(h.Href("/signup"), h.Class("button"), g.Text("Get started")),
			g.Text(" or "),
			h.A(h.Href("/login"), g.Text("log in")),
		)),
		g.If(p.User != nil, h.P(
			h.A(h.Href("/dashboard"), h.Class("button"), g.Text("Go to your dashboard")),
		)),
	)
}

// Signup renders the registration form.
func Signup(p PageData, form SignupForm) templ.Component {
	return page(p,
		h.H1(g.Text("Sign up")),
		h.Form(h.Method("post"), h.Action("/signup"),
			field("name", "Name", "text", form.Name),
			field("email", "Email", "email", form.Email),
			field("subjects", "Subjects (comma separated)", "text", form.Subjects),
			h.Button(h.Type("submit"), g.Text("Sign up")),
		),
	)
}

// Login renders the login form.
func Login(p PageData, email string) templ.Component {
	return page(p,
		h.H1(g.Text("Log in")),
		h.Form(h.Method("post"), h.Action("/login"),
			field("email", "Email", "email", email),
			h.Button(h.Type("submit"), g.Text("Log in")),
		),
	)
}

func field(name, label, typ, value string) g.Node {
	return h.Div(h.Class("field"),
		h.Label(h.For(name), g.Text(label)),
		h.Input(h.ID(name), h.Name(name), h.Type(typ), h.Value(value)),
	)
}

// Dashboard shows the signed-in user and their matches.
func Dashboard(p PageData, matches []matcher.Match) templ.Component {
	me := p.User
	return page(p,
		h.H1(g.Textf("Welcome, %s", me.Name)),
		h.P(g.Text("Your subjects: "), h.Strong(g.Text(me.Subjects.Join(", ")))),
		h.H2(g.Text("Your study buddies")),
		matchList(matches, true),
		onlineUsers(),
	)
}

// Buddies is the public match list for one user.
func Buddies(p PageData, user domain.User, matches []matcher.Match) templ.Component {
	return page(p,
		h.H1(g.Textf("Study buddies for %s", user.Name)),
		matchList(matches, p.User != nil),
	)
}

func matchList(matches []matcher.Match, chat bool) g.Node {
	if len(matches) == 0 {
		return h.P(h.Class("empty"), g.Text("No matches yet."))
	}
	return h.Ul(h.Class("matches"),
		g.Map(matches, func(m matcher.Match) g.Node {
			return h.Li(
				h.Strong(g.Text(m.Name)),
				g.Textf(" (%s) shares ", m.Email),
				h.Span(h.Class("overlap"), g.Text(m.OverlapText())),
				g.If(chat, g.Group{
					g.Text(" "),
					h.A(h.Href("/chat/"+m.Email), g.Text("Chat")),
				}),
			)
		}),
	)
}

// Lobby lists every user with a live online flag.
func Lobby(p PageData, entries []LobbyEntry) templ.Component {
	return page(p,
		h.H1(g.Text("Lobby")),
		h.Table(h.ID("lobby"),
			h.THead(h.Tr(h.Th(g.Text("Name")), h.Th(g.Text("Subjects")), h.Th(g.Text("Status")), h.Th())),
			h.TBody(
				g.Map(entries, func(e LobbyEntry) g.Node {
					return h.Tr(h.Data("email", e.User.Email),
						h.Td(g.Text(e.User.Name)),
						h.Td(g.Text(e.User.Subjects.Join(", "))),
						h.Td(h.Class("status"), g.Text(status(e.Online))),
						h.Td(g.If(p.User != nil && p.User.Email != e.User.Email,
							h.A(h.Href("/chat/"+e.User.Email), g.Text("Chat")))),
					)
				}),
			),
		),
		onlineUsers(),
	)
}

func status(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}

// onlineUsers is a placeholder the roster fragment replaces on load and on
// every presence_update.
func onlineUsers() g.Node {
	return h.Div(h.ID("online-users"),
		hx.Get("/presence"), hx.Trigger("load"), hx.Swap("outerHTML"),
	)
}

// Chat shows the conversation with other and the live message form.
func Chat(p PageData, other string, history []domain.Message) templ.Component {
	return page(p,
		h.H1(g.Textf("Chat with %s", other)),
		h.Div(h.ID("chat"), h.Data("other", other),
			h.Ul(h.ID("messages"),
				g.Map(history, func(m domain.Message) g.Node {
					return messageItem(m)
				}),
			),
			h.Form(h.ID("chat-form"), h.AutoComplete("off"),
				h.Input(h.Name("content"), h.Type("text"), h.Placeholder("Say hi"), h.Required()),
				h.Button(h.Type("submit"), g.Text("Send")),
			),
		),
	)
}

func messageItem(m domain.Message) g.Node {
	return h.Li(h.Class("message"),
		h.Span(h.Class("time"), g.Text(m.Timestamp.Format("2006-01-02 15:04"))),
		g.Text(" "),
		h.Strong(g.Text(m.Sender)),
		g.Text(": "+m.Content),
	)
}
