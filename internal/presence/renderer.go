package presence

import (
	"context"
	"io"

	"github.com/a-h/templ"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// RosterRenderer turns the sorted roster into the fragment served at
// /presence. The fragment replaces #online-users, so it must carry that id.
type RosterRenderer func(users []string) templ.Component

// RosterList is the stock RosterRenderer.
func RosterList(users []string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return rosterNode(users).Render(w)
	})
}

func rosterNode(users []string) g.Node {
	if len(users) == 0 {
		return html.Div(html.ID("online-users"),
			html.H3(g.Text("Online now (0)")),
			html.P(html.Class("empty"), g.Text("Nobody is studying right now")),
		)
	}
	return html.Div(html.ID("online-users"),
		html.H3(g.Textf("Online now (%d)", len(users))),
		html.Ul(g.Map(users, func(email string) g.Node {
			return html.Li(html.Class("online"), g.Text(email))
		})),
	)
}
