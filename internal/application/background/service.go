// Package background is the privileged process: the only place that reads the
// API key, talks to the inference endpoint, captures the browser and writes
// history.
package background

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/ports"
)

// Service handles requests sent over the messaging bus.
type Service struct {
	Settings  ports.SettingsStore
	History   ports.HistoryRepository
	Capture   ports.CaptureBridge
	Inference ports.InferenceClient
	Options   ports.OptionsOpener
	Logger    ports.Logger

	// Now is swappable in tests.
	Now func() time.Time
}

// Handle dispatches one request and always produces exactly one response.
func (s *Service) Handle(ctx context.Context, req domain.Request) domain.Response {
	switch req.Action {
	case domain.ActionCaptureVisibleTab:
		data, err := s.CaptureVisibleTab(ctx, req.WindowID)
		if err != nil {
			return domain.Fail(err)
		}
		return domain.OK(data)

	case domain.ActionAnalyzeImage:
		var payload domain.AnalyzePayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return domain.Fail(fmt.Errorf("invalid analyze payload: %w", err))
		}
		result, err := s.Analyze(ctx, payload)
		if err != nil {
			return domain.Fail(err)
		}
		return domain.OK(result)

	case domain.ActionOpenOptions:
		s.OpenOptions(ctx)
		return domain.OK(nil)

	case domain.ActionGetSettings:
		view, err := s.SettingsView(ctx)
		if err != nil {
			return domain.Fail(err)
		}
		return domain.OK(view)

	case domain.ActionOpenTab:
		var payload domain.OpenTabPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return domain.Fail(fmt.Errorf("invalid open tab payload: %w", err))
		}
		tab, err := s.OpenTab(ctx, payload.URL)
		if err != nil {
			return domain.Fail(err)
		}
		return domain.OK(tab)

	default:
		return domain.Fail(fmt.Errorf("unknown action %q", req.Action))
	}
}

// CaptureVisibleTab rasterizes the visible viewport of windowID and returns it
// as a JPEG data URI. Missing window, bridge error and empty output share one
// failure path.
func (s *Service) CaptureVisibleTab(ctx context.Context, windowID string) (string, error) {
	if windowID == "" || s.Capture == nil {
		return "", domain.ErrNoWindow
	}
	data, err := s.Capture.Capture(ctx, windowID)
	if err != nil {
		s.logError("capture failed", err, map[string]interface{}{"window": windowID})
		if errors.Is(err, domain.ErrNoWindow) {
			return "", domain.ErrNoWindow
		}
		return "", domain.CaptureError(err)
	}
	if len(data) == 0 {
		return "", domain.CaptureError(nil)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Analyze validates settings, calls the inference client and records the
// result in history. Configuration problems fail before any network call.
func (s *Service) Analyze(ctx context.Context, payload domain.AnalyzePayload) (domain.AnalyzeResult, error) {
	settings, err := s.Settings.Load(ctx)
	if err != nil {
		return domain.AnalyzeResult{}, fmt.Errorf("load settings: %w", err)
	}
	if !settings.Enabled() {
		return domain.AnalyzeResult{}, domain.ErrDisabled
	}
	if !settings.HasKey() {
		return domain.AnalyzeResult{}, domain.ErrMissingAPIKey
	}
	if payload.ImageData == "" {
		return domain.AnalyzeResult{}, errors.New("no image to analyze")
	}

	questionType := payload.QuestionType
	if questionType == "" {
		questionType = domain.DefaultQuestionType
	}
	additional := strings.TrimSpace(payload.AdditionalPrompt)

	s.logInfo("calling inference endpoint", map[string]interface{}{
		"model":         settings.Model,
		"question_type": questionType,
	})

	result, err := s.Inference.Complete(ctx, ports.InferenceRequest{
		APIKey:       settings.APIKey,
		Model:        settings.Model,
		Endpoint:     settings.Endpoint,
		SystemPrompt: questionType.SystemPrompt(),
		ImageData:    payload.ImageData,
		Text:         additional,
	})
	if err != nil {
		s.logError("inference failed", err, map[string]interface{}{"model": settings.Model})
		return domain.AnalyzeResult{}, err
	}

	now := s.now()
	item := domain.HistoryItem{
		ID:               newHistoryID(),
		Timestamp:        now.UnixMilli(),
		Result:           result.Result,
		Usage:            result.Usage,
		ImageData:        payload.ImageData,
		QuestionType:     questionType,
		AdditionalPrompt: additional,
	}
	if s.History != nil {
		// The answer already exists; losing the history entry must not hide it.
		if err := s.History.Append(context.WithoutCancel(ctx), item); err != nil {
			s.logError("history append failed", err, map[string]interface{}{"id": item.ID})
		}
	}
	return result, nil
}

// OpenOptions surfaces the settings UI. It never fails the request.
func (s *Service) OpenOptions(ctx context.Context) {
	if s.Options == nil {
		return
	}
	if err := s.Options.OpenOptions(ctx); err != nil {
		s.logWarn("open options failed", map[string]interface{}{"error": err.Error()})
	}
}

// SettingsView returns the credential-free settings projection.
func (s *Service) SettingsView(ctx context.Context) (domain.SettingsView, error) {
	settings, err := s.Settings.Load(ctx)
	if err != nil {
		return domain.SettingsView{}, fmt.Errorf("load settings: %w", err)
	}
	return settings.View(), nil
}

// OpenTab opens rawURL in the capture browser.
func (s *Service) OpenTab(ctx context.Context, rawURL string) (domain.TabInfo, error) {
	if s.Capture == nil {
		return domain.TabInfo{}, errors.New("no browser available")
	}
	return s.Capture.Open(ctx, rawURL)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// newHistoryID returns a time-ordered unique id.
func newHistoryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Service) logInfo(msg string, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Info(msg, fields)
	}
}

func (s *Service) logWarn(msg string, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Warn(msg, fields)
	}
}

func (s *Service) logError(msg string, err error, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Error(msg, err, fields)
	}
}
