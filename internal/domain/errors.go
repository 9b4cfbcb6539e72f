package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures the panel reports to the user. Every kind is
// terminal for the current attempt; the user is the retry mechanism.
type ErrorKind string

const (
	ErrorKindConfig  ErrorKind = "config"
	ErrorKindCapture ErrorKind = "capture"
	ErrorKindDecode  ErrorKind = "decode"
	ErrorKindAPI     ErrorKind = "api"
)

// Error carries a kind and a user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Sentinel configuration errors raised before any network call is made.
var (
	ErrDisabled      = &Error{Kind: ErrorKindConfig, Message: "Extension is disabled"}
	ErrMissingAPIKey = &Error{Kind: ErrorKindConfig, Message: "API Key is missing. Please set it in the extension popup."}
	ErrNoWindow      = &Error{Kind: ErrorKindCapture, Message: "No active window found"}
	ErrNoContent     = &Error{Kind: ErrorKindAPI, Message: "No content returned from AI"}
)

// CaptureError wraps a tab capture failure.
func CaptureError(err error) error {
	return &Error{Kind: ErrorKindCapture, Message: messageOr(err, "Failed to capture tab"), Err: err}
}

// DecodeError wraps an image decode or crop failure.
func DecodeError(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	return &Error{Kind: ErrorKindDecode, Message: err.Error(), Err: errors.Unwrap(err)}
}

// APIError reports a non-2xx inference response.
func APIError(status int, detail string) error {
	return &Error{Kind: ErrorKindAPI, Message: fmt.Sprintf("API Error: %d %s", status, detail)}
}

// KindOf returns the kind of err, or ErrorKindAPI for unclassified errors
// (transport failures reach the user the same way API errors do).
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKindAPI
}

func messageOr(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
