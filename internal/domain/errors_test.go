package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/doeshing/snapask/internal/domain"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"config sentinel", domain.ErrMissingAPIKey, domain.ErrorKindConfig},
		{"wrapped capture", fmt.Errorf("capture: %w", domain.CaptureError(errors.New("boom"))), domain.ErrorKindCapture},
		{"decode", domain.DecodeError("decode image: %w", errors.New("bad jpeg")), domain.ErrorKindDecode},
		{"api", domain.APIError(401, "invalid key"), domain.ErrorKindAPI},
		{"plain", errors.New("connection refused"), domain.ErrorKindAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	err := domain.APIError(401, "invalid key")
	if err.Error() != "API Error: 401 invalid key" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCaptureError_FallbackMessage(t *testing.T) {
	if got := domain.CaptureError(nil).Error(); got != "Failed to capture tab" {
		t.Errorf("CaptureError(nil) = %q", got)
	}
}

func TestResponse_Decode(t *testing.T) {
	resp := domain.OK(domain.AnalyzeResult{Result: "B. Paris"})
	var got domain.AnalyzeResult
	if err := resp.Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Result != "B. Paris" {
		t.Errorf("Result = %q", got.Result)
	}

	failed := domain.Fail(errors.New("nope"))
	if err := failed.Decode(&got); err == nil || err.Error() != "nope" {
		t.Errorf("Decode() on failure = %v, want nope", err)
	}
}
