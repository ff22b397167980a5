// Package middleware provides Echo middleware for logging, request IDs,
// security headers and metrics.
package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"install-proxy/internal/model"
)

// ContextKeyRequestID is the echo.Context key holding the request ID.
// The script handler replaces the whole response header set, so the ID
// cannot be read back from X-Request-Id when the access log is written.
const ContextKeyRequestID = "request_id"

// RequestID returns Echo's request ID middleware generating UUIDv4 IDs and
// recording them on the context for RequestLogger.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(ContextKeyRequestID, id)
		},
	})
}

// RequestLogger returns an Echo middleware that logs each request with slog.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			attrs := []any{
				"method", req.Method,
				"path", req.URL.EscapedPath(),
				"status", res.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", c.RealIP(),
				"bytes_out", res.Size,
			}
			if id, ok := c.Get(ContextKeyRequestID).(string); ok {
				attrs = append(attrs, "request_id", id)
			}
			if target, ok := c.Get(model.ContextKeyTarget).(string); ok {
				attrs = append(attrs, "target", target)
			}
			if err != nil {
				attrs = append(attrs, "err", err)
			}

			logger.Info("request", attrs...)

			return err
		}
	}
}
