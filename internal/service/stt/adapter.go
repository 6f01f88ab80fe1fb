// Package stt defines the interface for Speech-to-Text adapters.
package stt

import (
	"context"

	"voice-notes-service/internal/models"
)

// Client transcribes one audio segment per call (Google, OpenAI, mock, ...).
//
// Implementations must not retry, and must not retain or mutate the segment
// payload after returning. Failures are reported as *Failure.
type Client interface {
	// Transcribe returns the recognized text for the segment. Empty text
	// is a valid result.
	Transcribe(ctx context.Context, seg models.AudioSegment) (string, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
