package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Action names a request kind understood by the privileged process.
type Action string

const (
	ActionCaptureVisibleTab Action = "CAPTURE_VISIBLE_TAB"
	ActionAnalyzeImage      Action = "ANALYZE_IMAGE"
	ActionOpenOptions       Action = "OPEN_OPTIONS"
	ActionGetSettings       Action = "GET_SETTINGS"
	ActionOpenTab           Action = "OPEN_TAB"
)

// Request is the single message shape crossing the process boundary.
type Request struct {
	Action   Action          `json:"action"`
	WindowID string          `json:"windowId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Response is the reply to exactly one Request.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// AnalyzePayload is the unit of work sent from the panel to the privileged
// process.
type AnalyzePayload struct {
	ImageData        string       `json:"imageData"`
	QuestionType     QuestionType `json:"questionType"`
	AdditionalPrompt string       `json:"additionalPrompt,omitempty"`
}

// AnalyzeResult is returned by a successful analysis.
type AnalyzeResult struct {
	Result string      `json:"result"`
	Usage  *TokenUsage `json:"usage,omitempty"`
}

// OpenTabPayload asks the privileged process to open a page.
type OpenTabPayload struct {
	URL string `json:"url"`
}

// TabInfo identifies an opened page.
type TabInfo struct {
	WindowID string `json:"windowId"`
	Hostname string `json:"hostname"`
	URL      string `json:"url"`
}

// NewRequest builds a request, marshalling payload when non-nil.
func NewRequest(action Action, windowID string, payload any) (Request, error) {
	req := Request{Action: action, WindowID: windowID}
	if payload == nil {
		return req, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("encode %s payload: %w", action, err)
	}
	req.Payload = raw
	return req, nil
}

// OK builds a successful response carrying data (may be nil).
func OK(data any) Response {
	if data == nil {
		return Response{Success: true}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Fail(fmt.Errorf("encode response: %w", err))
	}
	return Response{Success: true, Data: raw}
}

// Fail builds a failed response from err.
func Fail(err error) Response {
	msg := "Unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Response{Success: false, Error: msg}
}

// Err converts a failed response into an error, nil on success.
func (r Response) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == "" {
		return errors.New("Unknown error")
	}
	return errors.New(r.Error)
}

// Decode unmarshals the response data into v.
func (r Response) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(r.Data) == 0 {
		return errors.New("empty response data")
	}
	return json.Unmarshal(r.Data, v)
}
