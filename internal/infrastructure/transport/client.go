package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/ports"
)

// Client is a ports.Messenger talking to a Server.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// PollInterval controls WatchSettings.
	PollInterval time.Duration
}

// NewClient returns a client for the daemon at addr (host:port or URL). A nil
// httpClient selects one without a global timeout; per-call deadlines come
// from the request context.
func NewClient(addr string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	base := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:      base,
		httpClient:   httpClient,
		PollInterval: domain.DefaultSettingsPollInterval,
	}
}

// Send implements ports.Messenger.
func (c *Client) Send(ctx context.Context, req domain.Request) (domain.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.Response{}, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message", bytes.NewReader(body))
	if err != nil {
		return domain.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Response{}, fmt.Errorf("send %s: %w", req.Action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Response{}, fmt.Errorf("read response: %w", err)
	}
	var out domain.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Response{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return out, nil
}

// Health reports whether the daemon answers.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: HTTP %d", resp.StatusCode)
	}
	return nil
}

// WatchSettings implements ports.SettingsWatcher by polling GET_SETTINGS. fn
// runs once with the first snapshot and again whenever the view changes.
// Transient poll failures keep the last view.
func (c *Client) WatchSettings(ctx context.Context, fn func(domain.SettingsView)) error {
	last, err := c.fetchSettings(ctx)
	if err != nil {
		return err
	}
	fn(last)

	interval := c.PollInterval
	if interval <= 0 {
		interval = domain.DefaultSettingsPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			view, err := c.fetchSettings(ctx)
			if err != nil {
				continue
			}
			if !cmp.Equal(view, last, cmpopts.EquateEmpty()) {
				last = view
				fn(view)
			}
		}
	}
}

func (c *Client) fetchSettings(ctx context.Context) (domain.SettingsView, error) {
	resp, err := c.Send(ctx, domain.Request{Action: domain.ActionGetSettings})
	if err != nil {
		return domain.SettingsView{}, err
	}
	var view domain.SettingsView
	if err := resp.Decode(&view); err != nil {
		return domain.SettingsView{}, err
	}
	return view, nil
}

var (
	_ ports.Messenger       = (*Client)(nil)
	_ ports.SettingsWatcher = (*Client)(nil)
)
