// Package openai provides an OpenAI Whisper speech-to-text adapter.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/service/stt"
)

const providerName = "openai"

// Config holds OpenAI transcription configuration.
type Config struct {
	APIKey   string
	BaseURL  string // OpenAI-compatible endpoint; empty uses api.openai.com
	Model    string
	Language string // ISO-639-1; BCP-47 codes are reduced to their base
}

// transcriber is the subset of *goopenai.Client the adapter calls.
type transcriber interface {
	CreateTranscription(ctx context.Context, request goopenai.AudioRequest) (goopenai.AudioResponse, error)
}

// Adapter implements stt.Client with the audio transcriptions endpoint.
type Adapter struct {
	client   transcriber
	model    string
	language string
}

// New creates a new OpenAI adapter.
func New(cfg Config) *Adapter {
	c := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = goopenai.Whisper1
	}
	return &Adapter{
		client:   goopenai.NewClientWithConfig(c),
		model:    model,
		language: stt.LanguageBase(cfg.Language),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return providerName
}

// Transcribe uploads the segment as a named file part.
func (a *Adapter) Transcribe(ctx context.Context, seg models.AudioSegment) (string, error) {
	if len(seg.Payload) == 0 {
		return "", stt.Rejected(providerName, stt.ErrEmptyPayload)
	}
	ext, ok := fileExtension(seg.MediaType)
	if !ok {
		return "", stt.Rejected(providerName, fmt.Errorf("%w: %q", stt.ErrUnsupportedMediaType, seg.MediaType))
	}

	resp, err := a.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    a.model,
		FilePath: fmt.Sprintf("segment-%d.%s", seg.Ordinal, ext),
		Reader:   bytes.NewReader(seg.Payload),
		Language: a.language,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", classify(err)
	}
	return resp.Text, nil
}

// fileExtension picks the upload file name extension; the API infers the
// container from it.
func fileExtension(mediaType string) (string, bool) {
	switch stt.BaseMediaType(mediaType) {
	case "audio/webm":
		return "webm", true
	case "audio/ogg", "audio/opus":
		return "ogg", true
	case "audio/flac", "audio/x-flac":
		return "flac", true
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav", true
	case "audio/mpeg", "audio/mp3":
		return "mp3", true
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "m4a", true
	default:
		return "", false
	}
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return stt.Timeout(providerName, err)
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &stt.Failure{Kind: stt.StatusKind(apiErr.HTTPStatusCode), Provider: providerName, Err: err}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &stt.Failure{Kind: stt.StatusKind(reqErr.HTTPStatusCode), Provider: providerName, Err: err}
	}
	return stt.Unavailable(providerName, err)
}
