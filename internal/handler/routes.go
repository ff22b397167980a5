package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"install-proxy/internal/config"
	"install-proxy/internal/metrics"
)

// RegisterRoutes wires the script handler onto the public Echo instance.
// Every path and method is served a script, so nothing else may be mounted here.
func RegisterRoutes(e *echo.Echo, scripts *ScriptHandler) {
	e.Any("/", scripts.Handle)
	e.Any("/*", scripts.Handle)
}

// RegisterAdminRoutes wires health, status and (optionally) Prometheus
// exposition onto the admin Echo instance.
func RegisterAdminRoutes(e *echo.Echo, health *HealthHandler, m *metrics.Metrics, cfg *config.Config) {
	e.GET("/healthz", health.Healthz)
	e.GET("/status", health.Status)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
