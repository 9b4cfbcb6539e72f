// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The application packages (background, panel) depend
// only on these abstractions; the infrastructure layer provides the file stores,
// the browser, the HTTP transport and the terminal.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Messenger, SettingsStore)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/doeshing/snapask/internal/domain"
)

// SettingsStore is the durable key-value home of the settings object. Each
// Save replaces the whole object, so readers never observe a partial update.
type SettingsStore interface {
	Load(context.Context) (domain.Settings, error)
	Save(context.Context, domain.Settings) error
	// Subscribe registers fn for change notifications and returns a function
	// that removes the subscription.
	Subscribe(fn func(domain.Settings)) (unsubscribe func())
}

// HistoryRepository persists past analysis results, capped at
// domain.MaxHistoryItems, newest last.
type HistoryRepository interface {
	Append(context.Context, domain.HistoryItem) error
	List(context.Context) ([]domain.HistoryItem, error)
	Clear(context.Context) error
	ExportJSON(ctx context.Context, dest string) error
	Path() string
}

// CaptureBridge rasterizes the visible viewport of a window. Only the
// privileged process holds one.
type CaptureBridge interface {
	Open(ctx context.Context, url string) (domain.TabInfo, error)
	Capture(ctx context.Context, windowID string) ([]byte, error)
}

// InferenceRequest is everything the inference client needs for one call.
type InferenceRequest struct {
	APIKey       string
	Model        string
	Endpoint     string
	SystemPrompt string
	ImageData    string
	Text         string
}

// InferenceClient performs one stateless chat-completion call.
type InferenceClient interface {
	Complete(context.Context, InferenceRequest) (domain.AnalyzeResult, error)
}

// Messenger carries a request across the process boundary and returns
// exactly one reply.
type Messenger interface {
	Send(context.Context, domain.Request) (domain.Response, error)
}

// SettingsWatcher delivers credential-free settings snapshots to the panel,
// once immediately and then on every change.
type SettingsWatcher interface {
	WatchSettings(ctx context.Context, fn func(domain.SettingsView)) error
}

// ImageCropper cuts a region out of a captured viewport image.
type ImageCropper interface {
	Crop(dataURI string, region domain.Region, pixelRatio float64) (string, error)
}

// OptionsOpener surfaces the settings UI (the "popup").
type OptionsOpener interface {
	OpenOptions(context.Context) error
}

// Clipboard provides cross-platform clipboard integration for copying results.
type Clipboard interface {
	Copy(text string) error
	Enabled() bool
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
