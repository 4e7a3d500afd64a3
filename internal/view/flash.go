package view

import (
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// FlashKind selects the style a flash message is shown with.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

const flashCookie = "sb-flash"

// Flash holds the one-shot messages shown at the top of the next page.
type Flash struct {
	Success []string
	Error   []string
}

// Empty reports whether there is nothing to show.
func (f Flash) Empty() bool {
	return len(f.Success) == 0 && len(f.Error) == 0
}

// AddFlash queues message for the next rendered page. Without the session
// middleware it does nothing.
func AddFlash(c echo.Context, kind FlashKind, message string) {
	sess, err := session.Get(flashCookie, c)
	if err != nil {
		return
	}
	sess.AddFlash(message, string(kind))
	_ = sess.Save(c.Request(), c.Response())
}

// TakeFlash returns the queued messages and clears them.
func TakeFlash(c echo.Context) Flash {
	sess, err := session.Get(flashCookie, c)
	if err != nil {
		return Flash{}
	}
	f := Flash{
		Success: flashStrings(sess.Flashes(string(FlashSuccess))),
		Error:   flashStrings(sess.Flashes(string(FlashError))),
	}
	if !f.Empty() {
		_ = sess.Save(c.Request(), c.Response())
	}
	return f
}

func flashStrings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
