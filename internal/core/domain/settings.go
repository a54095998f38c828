package domain

import (
	"fmt"
	"strings"
	"time"
)

// Default viewer and client values.
const (
	// DefaultHighlightColor is the yellow used when no colour is chosen.
	DefaultHighlightColor = "#fde047"

	// MemoColor is the tone drawn under anchors that carry notes only.
	MemoColor = "#60a5fa"

	// DefaultServerAddr is where the HTTP API listens by default.
	DefaultServerAddr = "127.0.0.1:7340"
)

// HighlightPalette returns the colours offered by the toolbar, in order.
func HighlightPalette() []string {
	return []string{
		DefaultHighlightColor, // yellow
		"#86efac",             // green
		"#93c5fd",             // blue
		"#f9a8d4",             // pink
		"#fdba74",             // orange
	}
}

// RemoteSettings configures the HTTP client for a remote annotation server.
type RemoteSettings struct {
	// BaseURL is the server root, e.g. http://127.0.0.1:7340.
	// Empty means annotations are stored locally.
	BaseURL string

	// Token is sent as a bearer token.
	Token string

	// Timeout bounds each request.
	Timeout time.Duration

	// RequestsPerSecond and Burst throttle outgoing requests.
	RequestsPerSecond float64
	Burst             int
}

// IsConfigured returns true if a remote server is set.
func (r RemoteSettings) IsConfigured() bool {
	return strings.TrimSpace(r.BaseURL) != ""
}

// ViewerSettings holds selection and rendering configuration.
type ViewerSettings struct {
	// DefaultColor is preselected in the highlight toolbar.
	DefaultColor string

	// RenderWidth is the page width in pixels used by CLI projections.
	RenderWidth int

	// ToolbarWidth and ToolbarMargin position the selection toolbar.
	ToolbarWidth  float64
	ToolbarMargin float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Author is recorded as CreatedBy on new highlights and memos.
	Author string

	// DataDir holds the annotation database. Empty means ~/.marginalia/data.
	DataDir string

	// ServerAddr is the listen address for the HTTP API.
	ServerAddr string

	Remote RemoteSettings

	Viewer ViewerSettings
}

// Validate checks settings that would otherwise fail at use time.
func (s *AppSettings) Validate() error {
	if s.Remote.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: remote.requests_per_second must not be negative", ErrValidation)
	}
	if s.Remote.Burst < 0 {
		return fmt.Errorf("%w: remote.burst must not be negative", ErrValidation)
	}
	if s.Remote.Timeout < 0 {
		return fmt.Errorf("%w: remote.timeout must not be negative", ErrValidation)
	}
	if s.Viewer.RenderWidth <= 0 {
		return fmt.Errorf("%w: viewer.render_width must be positive", ErrValidation)
	}
	if s.Viewer.ToolbarWidth < 0 || s.Viewer.ToolbarMargin < 0 {
		return fmt.Errorf("%w: toolbar geometry must not be negative", ErrValidation)
	}
	return nil
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Author:     "",
		ServerAddr: DefaultServerAddr,
		Remote: RemoteSettings{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Viewer: ViewerSettings{
			DefaultColor:  DefaultHighlightColor,
			RenderWidth:   800,
			ToolbarWidth:  220,
			ToolbarMargin: 8,
		},
	}
}
