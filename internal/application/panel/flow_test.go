package panel_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/snapask/internal/application/background"
	"github.com/doeshing/snapask/internal/application/panel"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/infrastructure/ai"
	"github.com/doeshing/snapask/internal/infrastructure/bus"
	"github.com/doeshing/snapask/internal/infrastructure/config"
	"github.com/doeshing/snapask/internal/infrastructure/history"
	"github.com/doeshing/snapask/internal/infrastructure/imaging"
	"github.com/doeshing/snapask/internal/pkg/logger"
)

type harness struct {
	panel    *panel.Orchestrator
	history  *history.JSONStore
	settings *config.FileStore
	calls    *atomic.Int32
}

func newHarness(t *testing.T, apiKey string, inference http.HandlerFunc) *harness {
	t.Helper()
	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		inference(w, r)
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	settings := config.NewFileStore(filepath.Join(dir, "settings.yaml"))
	require.NoError(t, settings.Save(context.Background(), domain.Settings{
		APIKey:             apiKey,
		Endpoint:           server.URL,
		WhitelistedDomains: []string{"example.com"},
	}))
	store := history.NewJSONStore(filepath.Join(dir, "history.json"))

	svc := &background.Service{
		Settings:  settings,
		History:   store,
		Capture:   viewportBridge{width: 1280 * 2, height: 800 * 2},
		Inference: ai.NewClient(server.Client()),
		Logger:    logger.Discard(),
	}
	orch := panel.NewOrchestrator(panel.Config{
		Messenger:  bus.NewLocal(svc),
		Cropper:    imaging.NewCropper(),
		WindowID:   "w1",
		Hostname:   "docs.example.com",
		PixelRatio: 2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ready := make(chan struct{})
	go func() {
		first := true
		_ = bus.SettingsFeed{Store: settings}.WatchSettings(ctx, func(v domain.SettingsView) {
			orch.ApplySettings(v)
			if first {
				first = false
				close(ready)
			}
		})
	}()
	<-ready

	return &harness{panel: orch, history: store, settings: settings, calls: calls}
}

func (h *harness) dragAndCapture(t *testing.T) panel.View {
	t.Helper()
	require.Equal(t, panel.PhaseSelecting, h.panel.Start().Phase)
	h.panel.PointerDown(domain.Point{X: 100, Y: 100})
	h.panel.PointerMove(domain.Point{X: 300, Y: 250})
	region, ok := h.panel.PointerUp()
	require.True(t, ok)
	return h.panel.Select(context.Background(), region)
}

func TestCaptureAnalyzeShowsResultAndRecordsHistory(t *testing.T) {
	h := newHarness(t, "sk-test", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"B. Paris"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})

	v := h.dragAndCapture(t)
	require.Equal(t, panel.PhasePreviewing, v.Phase, "error: %s", v.Error)

	raw, err := imaging.DecodeDataURI(v.ImageData)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width, "200 CSS px at ratio 2")
	assert.Equal(t, 300, cfg.Height)

	v = h.panel.Analyze(context.Background())
	require.Equal(t, panel.PhaseResult, v.Phase, "error: %s", v.Error)
	assert.Equal(t, "B. Paris", v.Result)
	require.NotNil(t, v.Usage)
	assert.Equal(t, domain.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, *v.Usage)

	items, err := h.history.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B. Paris", items[0].Result)
	assert.Equal(t, domain.QuestionMultipleChoice, items[0].QuestionType)
}

func TestMissingKeyBlocksCapture(t *testing.T) {
	h := newHarness(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("inference endpoint must not be called")
	})

	v := h.panel.Start()
	assert.Equal(t, panel.PhaseIdle, v.Phase)
	assert.Equal(t, panel.NoticeMissingKey, v.Notice)
	assert.False(t, v.HasKey)
	assert.Zero(t, h.calls.Load())
}

func TestUnauthorizedSurfacesErrorWithoutHistory(t *testing.T) {
	h := newHarness(t, "sk-bad", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	})

	v := h.dragAndCapture(t)
	require.Equal(t, panel.PhasePreviewing, v.Phase, "error: %s", v.Error)

	v = h.panel.Analyze(context.Background())
	require.Equal(t, panel.PhaseError, v.Phase)
	assert.Contains(t, v.Error, "401")
	assert.Contains(t, v.Error, "invalid key")
	assert.True(t, v.CanAnalyze(), "preview must survive the failure")

	items, err := h.history.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSettingsChangeHidesPanel(t *testing.T) {
	h := newHarness(t, "sk-test", func(w http.ResponseWriter, r *http.Request) {})
	require.True(t, h.panel.View().Visible())

	// The feed subscribes right after the first snapshot; keep saving until
	// the change lands.
	require.Eventually(t, func() bool {
		err := h.settings.Save(context.Background(), domain.Settings{
			APIKey:             "sk-test",
			WhitelistedDomains: []string{"other.org"},
		})
		return err == nil && !h.panel.View().Visible()
	}, time.Second, 10*time.Millisecond)
}

// viewportBridge renders a solid viewport of the configured device size.
type viewportBridge struct {
	width, height int
}

func (b viewportBridge) Open(context.Context, string) (domain.TabInfo, error) {
	return domain.TabInfo{WindowID: "w1", Hostname: "docs.example.com"}, nil
}

func (b viewportBridge) Capture(context.Context, string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 200, G: 40, B: 40, A: 255}}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: domain.CaptureQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
