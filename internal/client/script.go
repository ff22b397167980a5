// Package client provides the upstream HTTP client for installer scripts.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"install-proxy/internal/config"
	"install-proxy/internal/metrics"
	"install-proxy/internal/model"
)

const userAgent = "install-proxy/1.0"

// ScriptClient fetches installer scripts from the upstream file host.
type ScriptClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewScriptClient creates a ScriptClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewScriptClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *ScriptClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}

	return &ScriptClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "script_client"),
		metrics: m,
	}
}

// Get issues a GET for url and returns the raw upstream response.
// Non-2xx statuses are not errors. The caller is responsible for closing the
// response body. ctx controls the lifetime of the upstream request: when it
// is canceled (e.g. client disconnects), the fetch is canceled too.
func (c *ScriptClient) Get(ctx context.Context, target model.Target, url string) (*model.ScriptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("upstream request",
		"target", target,
		"url", url,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via ScriptResponse
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(string(target)).Observe(duration)
	}

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamErrors.WithLabelValues(string(target)).Inc()
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(string(target), strconv.Itoa(resp.StatusCode)).Inc()
	}

	return &model.ScriptResponse{
		Target:     target,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}
