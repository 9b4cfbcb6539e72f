package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Inference defaults
const (
	// DefaultModel is used whenever settings carry no model identifier
	DefaultModel = "google/gemini-2.5-flash"
	// DefaultEndpoint is the chat-completion endpoint
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	// DefaultHTTPClientTimeout is the timeout for HTTP client requests
	DefaultHTTPClientTimeout = 60 * time.Second
)

// Capture constants
const (
	// MinRegionSize is the exclusive lower bound, in CSS pixels, for both sides
	// of a selection
	MinRegionSize = 10
	// CaptureQuality is the JPEG quality used when rasterizing the viewport
	CaptureQuality = 80
	// CropQuality is the JPEG quality used when re-encoding a cropped region
	CropQuality = 90
	// DefaultViewportWidth and DefaultViewportHeight size the browser viewport
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
)

// History constants
const (
	// MaxHistoryItems caps the history list; older entries are dropped first
	MaxHistoryItems = 50
)

// Panel constants
const (
	// CopiedAckDuration is how long the "copied" acknowledgement stays visible
	CopiedAckDuration = 2 * time.Second
	// DefaultSettingsPollInterval is how often remote panels and file watchers
	// look for settings changes
	DefaultSettingsPollInterval = 2 * time.Second
	// DefaultListenAddr is where the privileged process listens
	DefaultListenAddr = "127.0.0.1:7797"
)
