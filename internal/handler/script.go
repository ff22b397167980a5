package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"install-proxy/internal/model"
	"install-proxy/internal/service"
)

// scriptHeaders is the complete header set sent with every proxied script.
// Upstream headers and anything set earlier in the middleware chain are dropped.
var scriptHeaders = map[string]string{
	echo.HeaderContentType:              "text/plain; charset=utf-8",
	"Cache-Control":                     "public, max-age=300",
	echo.HeaderAccessControlAllowOrigin: "*",
	echo.HeaderXContentTypeOptions:      "nosniff",
}

// ScriptHandler serves installer scripts fetched from upstream.
type ScriptHandler struct {
	service *service.ScriptService
	logger  *slog.Logger
}

// NewScriptHandler creates a ScriptHandler.
func NewScriptHandler(svc *service.ScriptService, logger *slog.Logger) *ScriptHandler {
	return &ScriptHandler{
		service: svc,
		logger:  logger.With("component", "script_handler"),
	}
}

// Handle fetches the script selected by the request path and streams it back
// with the upstream status code and the fixed script header set. The inbound
// method, query, headers and body play no part in the upstream request.
func (h *ScriptHandler) Handle(c echo.Context) error {
	req := c.Request()
	// Match on the still-escaped path so "/install%2Eps1" is not the
	// PowerShell alias; only dot segments are resolved.
	path := service.Pathname(req.URL.EscapedPath())
	c.Set(model.ContextKeyTarget, string(service.SelectTarget(path)))

	resp, err := h.service.Fetch(req.Context(), path)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	header := c.Response().Header()
	clear(header)
	for key, val := range scriptHeaders {
		header.Set(key, val)
	}

	c.Response().WriteHeader(resp.StatusCode)

	// The status line is already out, so a copy failure (client disconnect,
	// upstream reset) leaves the client with a truncated body. Log it.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming script body",
			"err", err,
			"path", path,
			"target", resp.Target,
		)
	}

	return nil
}

func (h *ScriptHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("script fetch failed",
		"err", err,
		"path", c.Request().URL.EscapedPath(),
	)

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error": "upstream request timed out",
		})
	}

	if errors.Is(err, context.Canceled) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "client disconnected",
		})
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream host unreachable",
		})
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "upstream connection failed",
		})
	}

	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": "upstream request failed",
	})
}
