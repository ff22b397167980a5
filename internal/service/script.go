// Package service implements installer script selection and fetching.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"install-proxy/internal/client"
	"install-proxy/internal/config"
	"install-proxy/internal/model"
)

// powerShellPaths are the request paths served the PowerShell installer.
// Matching is exact: no case folding and no trailing-slash normalization.
var powerShellPaths = map[string]bool{
	"/windows.ps1": true,
	"/install.ps1": true,
}

// SelectTarget returns the installer script for a request path.
func SelectTarget(path string) model.Target {
	if powerShellPaths[path] {
		return model.TargetPowerShell
	}
	return model.TargetShell
}

// ScriptService resolves request paths to upstream scripts and fetches them.
type ScriptService struct {
	client *client.ScriptClient
	urls   map[model.Target]string
	logger *slog.Logger
}

// NewScriptService creates a ScriptService using the script URLs from cfg.
func NewScriptService(c *client.ScriptClient, cfg *config.Config, logger *slog.Logger) *ScriptService {
	return &ScriptService{
		client: c,
		urls: map[model.Target]string{
			model.TargetShell:      cfg.Scripts.ShellURL,
			model.TargetPowerShell: cfg.Scripts.PowerShellURL,
		},
		logger: logger.With("component", "script_service"),
	}
}

// TargetURL returns the upstream URL configured for t.
func (s *ScriptService) TargetURL(t model.Target) string {
	return s.urls[t]
}

// Fetch selects the script for path and fetches it from upstream.
// Upstream non-2xx statuses are returned as responses, not errors.
// The caller is responsible for closing the response body.
func (s *ScriptService) Fetch(ctx context.Context, path string) (*model.ScriptResponse, error) {
	target := SelectTarget(path)
	url := s.TargetURL(target)

	s.logger.Debug("fetching script",
		"path", path,
		"target", target,
	)

	resp, err := s.client.Get(ctx, target, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s script: %w", target, err)
	}
	return resp, nil
}
