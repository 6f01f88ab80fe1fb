// Package publish defines the boundary to the external document store.
package publish

import (
	"context"
	"errors"
	"fmt"

	"voice-notes-service/internal/models"
)

// Publisher creates one document per call. There is no partial document:
// either the store accepts the whole payload or the call fails.
//
// Publishers do not retry. A caller retrying after an ambiguous failure may
// create a duplicate document.
type Publisher interface {
	Publish(ctx context.Context, payload models.DocumentPayload) error
	Name() string
}

// FailureKind classifies a publish failure.
type FailureKind int

const (
	// KindAuth - credentials missing or refused. Never retried.
	KindAuth FailureKind = iota + 1
	// KindUnavailable - network or store error. Retryable by the caller.
	KindUnavailable
	// KindRejected - the store refused the payload. Never retried.
	KindRejected
)

// String returns the string representation of the kind.
func (k FailureKind) String() string {
	switch k {
	case KindAuth:
		return "auth_failure"
	case KindUnavailable:
		return "destination_unavailable"
	case KindRejected:
		return "rejected_payload"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Failure is a typed publish failure.
type Failure struct {
	Kind        FailureKind
	Destination string
	Err         error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("publish to %s: %s", f.Destination, f.Kind)
	}
	return fmt.Sprintf("publish to %s: %s: %v", f.Destination, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AuthFailure wraps err as an authentication failure.
func AuthFailure(destination string, err error) *Failure {
	return &Failure{Kind: KindAuth, Destination: destination, Err: err}
}

// Unavailable wraps err as a transient destination failure.
func Unavailable(destination string, err error) *Failure {
	return &Failure{Kind: KindUnavailable, Destination: destination, Err: err}
}

// Rejected wraps err as a refused payload.
func Rejected(destination string, err error) *Failure {
	return &Failure{Kind: KindRejected, Destination: destination, Err: err}
}

// KindOf extracts the failure kind from err.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

// StatusKind maps an HTTP status from a document store to a failure kind.
func StatusKind(status int) FailureKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 400 || status == 404 || status == 409 || status == 422:
		return KindRejected
	default:
		return KindUnavailable
	}
}
