package stt

import (
	"errors"
	"fmt"
)

// FailureKind classifies a provider failure.
type FailureKind int

const (
	// KindUnavailable - network or service error. Retryable.
	KindUnavailable FailureKind = iota + 1
	// KindRejected - the provider refused the input. Never retried.
	KindRejected
	// KindTimeout - the call exceeded its deadline. Retryable.
	KindTimeout
)

// String returns the string representation of the kind.
func (k FailureKind) String() string {
	switch k {
	case KindUnavailable:
		return "provider_unavailable"
	case KindRejected:
		return "provider_rejected"
	case KindTimeout:
		return "provider_timeout"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Retryable reports whether the caller may retry after this kind of failure.
func (k FailureKind) Retryable() bool {
	return k == KindUnavailable || k == KindTimeout
}

// Input errors raised by adapters before any provider call.
var (
	ErrEmptyPayload         = errors.New("audio payload is empty")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("audio payload too large")
)

// Failure is a typed transcription failure.
type Failure struct {
	Kind     FailureKind
	Provider string
	Err      error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Provider, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Provider, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Unavailable wraps err as a retryable provider failure.
func Unavailable(provider string, err error) *Failure {
	return &Failure{Kind: KindUnavailable, Provider: provider, Err: err}
}

// Rejected wraps err as a permanent provider failure.
func Rejected(provider string, err error) *Failure {
	return &Failure{Kind: KindRejected, Provider: provider, Err: err}
}

// Timeout wraps err as a timed-out provider call.
func Timeout(provider string, err error) *Failure {
	return &Failure{Kind: KindTimeout, Provider: provider, Err: err}
}

// KindOf extracts the failure kind from err.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

// IsRetryable reports whether err is a retryable *Failure.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind.Retryable()
}

// StatusKind maps an HTTP status code from a REST provider to a failure kind.
func StatusKind(status int) FailureKind {
	switch {
	case status == 408 || status == 504:
		return KindTimeout
	case status == 429 || status >= 500:
		return KindUnavailable
	case status >= 400:
		return KindRejected
	default:
		return KindUnavailable
	}
}
