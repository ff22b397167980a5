package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"install-proxy/internal/metrics"
	"install-proxy/internal/model"
)

// targetNone labels requests that never reached the script handler, such as
// those rejected by the rate limiter or body limit.
const targetNone = "none"

// MetricsMiddleware records request count and latency per script target.
// Duration covers the full script stream.
func MetricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)
			elapsed := time.Since(start).Seconds()

			labels := []string{
				metrics.NormalizeMethod(c.Request().Method),
				strconv.Itoa(responseStatus(c, err)),
				metrics.NormalizePath(c.Request().URL.EscapedPath()),
				requestTarget(c),
			}
			m.RequestsTotal.WithLabelValues(labels...).Inc()
			m.RequestDuration.WithLabelValues(labels...).Observe(elapsed)

			return err
		}
	}
}

// responseStatus prefers the code of a returned *echo.HTTPError, which the
// central error handler has not written yet.
func responseStatus(c echo.Context, err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return c.Response().Status
}

func requestTarget(c echo.Context) string {
	if t, ok := c.Get(model.ContextKeyTarget).(string); ok && t != "" {
		return t
	}
	return targetNone
}
