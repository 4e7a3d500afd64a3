package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

type requestLoggerKey struct{}

// Logger gives every request its own slog.Logger tagged with the request ID
// and logs one line when the request completes. Place it after RequestID.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		log := slog.Default().With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
		c.SetRequest(req.WithContext(context.WithValue(req.Context(), requestLoggerKey{}, log)))

		began := time.Now()
		if err := next(c); err != nil {
			// Commit the response now so the status below is the real one.
			c.Error(err)
		}

		attrs := []any{
			"method", req.Method,
			"route", c.Path(),
			"status", c.Response().Status,
			"took", time.Since(began),
		}
		if user, ok := CurrentUser(c); ok {
			attrs = append(attrs, "user", user.Email)
		}
		log.Debug("request served", attrs...)
		return nil
	}
}

// FromContext returns the logger Logger stored in ctx. Outside a request it
// is slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(requestLoggerKey{}).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}
