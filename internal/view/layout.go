// Package view renders the HTML pages with gomponents.
package view

import (
	"github.com/a-h/templ"
	"github.com/nfrund/studybuddy/internal/domain"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

// PageData is what every page needs from the handler besides its own content.
type PageData struct {
	Title string
	User  *domain.User
	Flash Flash
}

// Title builds the document title.
func Title(title string) string {
	if title != "" {
		return title + " - StudyBuddy"
	}
	return "StudyBuddy"
}

func page(p PageData, body ...g.Node) templ.Component {
	return Component(h.Doctype(
		h.HTML(h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				h.TitleEl(g.Text(Title(p.Title))),
				h.Link(h.Rel("stylesheet"), h.Href("/static/app.css")),
				h.Script(h.Src(htmxSrc), h.Defer()),
			),
			h.Body(
				g.If(p.User != nil, g.Group{
					h.Div(h.ID("session"), h.Data("me", identity(p.User))),
					h.Script(h.Src("/static/app.js"), h.Defer()),
				}),
				navbar(p.User),
				flashes(p.Flash),
				h.Main(h.Class("container"), g.Group(body)),
			),
		),
	))
}

func identity(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}

func navbar(u *domain.User) g.Node {
	if u == nil {
		return h.Nav(
			h.A(h.Href("/"), g.Text("StudyBuddy")),
			h.A(h.Href("/signup"), g.Text("Sign up")),
			h.A(h.Href("/login"), g.Text("Log in")),
		)
	}
	return h.Nav(
		h.A(h.Href("/"), g.Text("StudyBuddy")),
		h.A(h.Href("/dashboard"), g.Text("Dashboard")),
		h.A(h.Href("/lobby"), g.Text("Lobby")),
		h.Span(h.Class("who"), g.Text(u.Name)),
		h.A(h.Href("/logout"), g.Text("Log out")),
	)
}

func flashes(f Flash) g.Node {
	if f.Empty() {
		return nil
	}
	return h.Div(h.Class("flashes"),
		g.Map(f.Success, func(msg string) g.Node {
			return h.P(h.Class("flash success"), g.Text(msg))
		}),
		g.Map(f.Error, func(msg string) g.Node {
			return h.P(h.Class("flash error"), g.Text(msg))
		}),
	)
}
