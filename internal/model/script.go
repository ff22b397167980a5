// Package model defines shared types for the proxy.
package model

import (
	"io"
	"net/http"
)

// Target identifies which installer script a request resolves to.
type Target string

const (
	// TargetShell is the POSIX shell installer, served for every path
	// that is not an explicit PowerShell alias.
	TargetShell Target = "shell"
	// TargetPowerShell is the Windows PowerShell installer.
	TargetPowerShell Target = "powershell"
)

// ScriptResponse is an upstream script response to be streamed back.
type ScriptResponse struct {
	Target     Target
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// ContextKeyTarget is the echo.Context key under which the script handler
// records the selected Target for access logging.
const ContextKeyTarget = "target"
