package stt

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailure_Classification(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name      string
		err       error
		kind      FailureKind
		retryable bool
	}{
		{"unavailable", Unavailable("google", cause), KindUnavailable, true},
		{"timeout", Timeout("google", cause), KindTimeout, true},
		{"rejected", Rejected("google", cause), KindRejected, false},
		{"wrapped", fmt.Errorf("segment 3: %w", Timeout("openai", cause)), KindTimeout, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := KindOf(tt.err)
			if !ok {
				t.Fatal("expected a *Failure")
			}
			if kind != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, kind)
			}
			if IsRetryable(tt.err) != tt.retryable {
				t.Errorf("expected retryable=%v", tt.retryable)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("expected failure to unwrap to its cause")
			}
		})
	}
}

func TestIsRetryable_PlainError(t *testing.T) {
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors must not be retryable")
	}
	if _, ok := KindOf(nil); ok {
		t.Error("nil error has no kind")
	}
}

func TestFailure_Error(t *testing.T) {
	f := Rejected("mock", ErrUnsupportedMediaType)
	want := "mock: provider_rejected: unsupported media type"
	if f.Error() != want {
		t.Errorf("Error() = %q, want %q", f.Error(), want)
	}

	bare := &Failure{Kind: KindTimeout, Provider: "mock"}
	if bare.Error() != "mock: provider_timeout" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}

func TestStatusKind(t *testing.T) {
	tests := []struct {
		status   int
		expected FailureKind
	}{
		{400, KindRejected},
		{401, KindRejected},
		{413, KindRejected},
		{408, KindTimeout},
		{504, KindTimeout},
		{429, KindUnavailable},
		{500, KindUnavailable},
		{503, KindUnavailable},
		{0, KindUnavailable},
	}

	for _, tt := range tests {
		if got := StatusKind(tt.status); got != tt.expected {
			t.Errorf("StatusKind(%d) = %v, want %v", tt.status, got, tt.expected)
		}
	}
}

func TestBaseMediaType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"audio/webm", "audio/webm"},
		{"audio/webm;codecs=opus", "audio/webm"},
		{"Audio/OGG; codecs=opus", "audio/ogg"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := BaseMediaType(tt.input); got != tt.expected {
			t.Errorf("BaseMediaType(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLanguageBase(t *testing.T) {
	if got := LanguageBase("my-MM"); got != "my" {
		t.Errorf("expected 'my', got %q", got)
	}
	if got := LanguageBase("en"); got != "en" {
		t.Errorf("expected 'en', got %q", got)
	}
}
