// Package capture owns the browser the privileged process captures from.
package capture

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/ports"
)

// Options configures the browser.
type Options struct {
	Headless   bool
	Width      int
	Height     int
	PixelRatio float64
}

// Browser implements ports.CaptureBridge on a playwright Chromium instance.
// Every opened page is addressed by a window id.
type Browser struct {
	opts Options

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	pages   map[string]playwright.Page
	nextID  int
}

// NewBrowser creates a lazily started browser.
func NewBrowser(opts Options) *Browser {
	if opts.Width <= 0 {
		opts.Width = domain.DefaultViewportWidth
	}
	if opts.Height <= 0 {
		opts.Height = domain.DefaultViewportHeight
	}
	if opts.PixelRatio <= 0 {
		opts.PixelRatio = 1
	}
	return &Browser{opts: opts, pages: make(map[string]playwright.Page)}
}

// Open navigates a new page to rawURL and returns its window id.
func (b *Browser) Open(ctx context.Context, rawURL string) (domain.TabInfo, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return domain.TabInfo{}, fmt.Errorf("invalid page url %q", rawURL)
	}
	if err := ctx.Err(); err != nil {
		return domain.TabInfo{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.startLocked(); err != nil {
		return domain.TabInfo{}, err
	}
	page, err := b.bctx.NewPage()
	if err != nil {
		return domain.TabInfo{}, fmt.Errorf("failed to create page: %w", err)
	}
	if _, err := page.Goto(rawURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		page.Close()
		return domain.TabInfo{}, fmt.Errorf("failed to open %s: %w", rawURL, err)
	}

	b.nextID++
	id := "w" + strconv.Itoa(b.nextID)
	b.pages[id] = page
	return domain.TabInfo{WindowID: id, Hostname: parsed.Hostname(), URL: page.URL()}, nil
}

// Capture rasterizes the visible viewport of windowID as a JPEG.
func (b *Browser) Capture(ctx context.Context, windowID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	page, ok := b.pages[windowID]
	b.mu.Unlock()
	if !ok {
		return nil, domain.ErrNoWindow
	}

	data, err := page.Screenshot(playwright.PageScreenshotOptions{
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(domain.CaptureQuality),
		FullPage: playwright.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close shuts the browser and the playwright driver down.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for id, page := range b.pages {
		if err := page.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(b.pages, id)
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		b.browser = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		b.pw = nil
	}
	return firstErr
}

func (b *Browser) startLocked() error {
	if b.bctx != nil {
		return nil
	}

	// Driver output would corrupt the terminal panel.
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  b.opts.Width,
			Height: b.opts.Height,
		},
		DeviceScaleFactor: playwright.Float(b.opts.PixelRatio),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return fmt.Errorf("failed to create context: %w", err)
	}

	b.pw = pw
	b.browser = browser
	b.bctx = bctx
	return nil
}

var _ ports.CaptureBridge = (*Browser)(nil)
