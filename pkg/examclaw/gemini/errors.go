// Package gemini – errors.go classifies generateContent failures for the
// model fallback loop.
package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoModels is returned when Invoke is called with an empty candidate list.
	ErrNoModels = errors.New("no model candidates configured")

	// ErrMissingCredential is returned when Invoke is called without an API key.
	// Callers are expected to validate the key before invoking.
	ErrMissingCredential = errors.New("API key is empty")

	// ErrMalformedResponse marks a 2xx body without a usable candidate text.
	ErrMalformedResponse = errors.New("unexpected response format from API")
)

// ErrorKind tells the caller why an invocation failed.
type ErrorKind int

const (
	// KindFatal is a non-retryable failure; remaining candidates were skipped.
	KindFatal ErrorKind = iota
	// KindExhausted means every candidate failed with a retryable error.
	KindExhausted
)

// String returns a human-readable label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// retryMarkers is the fixed vocabulary that marks a capacity/availability
// failure. Matched case-insensitively against the error message.
var retryMarkers = []string{"overloaded", "quota", "not found"}

// retryStatusCodes are the HTTP statuses that always trigger a fallback.
var retryStatusCodes = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusServiceUnavailable: true,
	http.StatusNotFound:           true,
}

// APIError is a non-2xx reply from the generation endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Model      string
}

func (e *APIError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s: %s", e.Model, e.Message)
	}
	return e.Message
}

// Retryable reports whether the failure should move the loop to the next model.
func (e *APIError) Retryable() bool {
	return retryStatusCodes[e.StatusCode] || hasRetryMarker(e.Message)
}

// InvocationError is the failure side of an invocation. Last is the error that
// ended the loop: the fatal one, or the last retryable one on exhaustion.
type InvocationError struct {
	Kind     ErrorKind
	Last     error
	Attempts []string
}

func (e *InvocationError) Error() string {
	if e.Last == nil {
		return "all models overloaded"
	}
	if e.Kind == KindExhausted {
		return fmt.Sprintf("all models failed: %v", e.Last)
	}
	return e.Last.Error()
}

func (e *InvocationError) Unwrap() error {
	return e.Last
}

// Message returns the user-facing failure text: the underlying API message
// when there is one, otherwise the error text itself.
func (e *InvocationError) Message() string {
	var apiErr *APIError
	if errors.As(e.Last, &apiErr) {
		return apiErr.Message
	}
	if e.Last == nil {
		return "all models overloaded"
	}
	return e.Last.Error()
}

// IsExhausted reports whether err is an invocation that ran out of candidates.
func IsExhausted(err error) bool {
	var invErr *InvocationError
	return errors.As(err, &invErr) && invErr.Kind == KindExhausted
}

// IsFatal reports whether err is an invocation aborted by a non-retryable failure.
func IsFatal(err error) bool {
	var invErr *InvocationError
	return errors.As(err, &invErr) && invErr.Kind == KindFatal
}

// classifyTransportError decides whether a request that never produced an
// HTTP status is worth a fallback. Same vocabulary as API errors plus a
// literal "503" for proxies that fail with it in the message.
func classifyTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errContextDone) {
		return false
	}
	msg := err.Error()
	return hasRetryMarker(msg) || strings.Contains(msg, "503")
}

func hasRetryMarker(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range retryMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// errContextDone wraps context cancellation so that a cancelled invocation is
// never mistaken for a transient failure.
var errContextDone = errors.New("invocation cancelled")
