package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/doeshing/snapask/internal/application/background"
	"github.com/doeshing/snapask/internal/infrastructure/ai"
	"github.com/doeshing/snapask/internal/infrastructure/clipboard"
	"github.com/doeshing/snapask/internal/infrastructure/config"
	"github.com/doeshing/snapask/internal/infrastructure/desktop"
	"github.com/doeshing/snapask/internal/infrastructure/history"
	"github.com/doeshing/snapask/internal/infrastructure/imaging"
	"github.com/doeshing/snapask/internal/pkg/logger"
	"github.com/doeshing/snapask/internal/ports"
)

// History backends selectable through SNAPASK_HISTORY.
const (
	HistoryBackendSQLite = "sqlite"
	HistoryBackendJSON   = "json"
)

// Options tunes BuildContainer.
type Options struct {
	Verbose bool
	// HistoryBackend overrides SNAPASK_HISTORY.
	HistoryBackend string
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Settings  *config.FileStore
	History   ports.HistoryRepository
	Inference ports.InferenceClient
	Options   ports.OptionsOpener
	Cropper   *imaging.Cropper
	Clipboard *clipboard.System
	Logger    ports.Logger
	Verbose   bool

	closers []io.Closer
}

// BuildContainer constructs the dependency graph. Settings are loaded once so
// a missing file is created with defaults before anything else runs.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	settings := config.NewFileStore("")
	if _, err := settings.Load(ctx); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	c := &Container{
		Settings:  settings,
		Inference: ai.NewClient(nil),
		Options:   desktop.NewSettingsOpener(settings.Path),
		Cropper:   imaging.NewCropper(),
		Clipboard: clipboard.New(),
		Logger:    logger.NewStd(opts.Verbose),
		Verbose:   opts.Verbose,
	}

	backend := opts.HistoryBackend
	if backend == "" {
		backend = os.Getenv("SNAPASK_HISTORY")
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", HistoryBackendSQLite:
		store, err := history.NewSQLiteStore("")
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		c.History = store
		c.closers = append(c.closers, store)
	case HistoryBackendJSON:
		c.History = history.NewJSONStore("")
	default:
		return nil, fmt.Errorf("unknown history backend %q (want sqlite or json)", backend)
	}
	return c, nil
}

// NewBackground builds the privileged process around a capture bridge. log
// overrides the container logger when non-nil.
func (c *Container) NewBackground(capture ports.CaptureBridge, log ports.Logger) *background.Service {
	if log == nil {
		log = c.Logger
	}
	return &background.Service{
		Settings:  c.Settings,
		History:   c.History,
		Capture:   capture,
		Inference: c.Inference,
		Options:   c.Options,
		Logger:    log,
	}
}

// Close releases held resources.
func (c *Container) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
