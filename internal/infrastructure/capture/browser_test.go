package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/doeshing/snapask/internal/domain"
)

func TestNewBrowserDefaults(t *testing.T) {
	b := NewBrowser(Options{})
	if b.opts.Width != domain.DefaultViewportWidth || b.opts.Height != domain.DefaultViewportHeight {
		t.Errorf("viewport = %dx%d", b.opts.Width, b.opts.Height)
	}
	if b.opts.PixelRatio != 1 {
		t.Errorf("pixel ratio = %v, want 1", b.opts.PixelRatio)
	}
}

func TestCaptureUnknownWindow(t *testing.T) {
	b := NewBrowser(Options{Headless: true})
	_, err := b.Capture(context.Background(), "w42")
	if !errors.Is(err, domain.ErrNoWindow) {
		t.Errorf("Capture() error = %v, want ErrNoWindow", err)
	}
}

func TestOpenRejectsInvalidURL(t *testing.T) {
	b := NewBrowser(Options{Headless: true})
	if _, err := b.Open(context.Background(), "not a url"); err == nil {
		t.Error("expected error for url without host")
	}
}

func TestCloseWithoutStart(t *testing.T) {
	if err := NewBrowser(Options{}).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
