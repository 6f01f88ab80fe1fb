// Package gemini provides a Gemini speech-to-text adapter. Each segment is
// sent as inline audio together with a transcription instruction.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"google.golang.org/genai"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/service/stt"
)

const (
	providerName = "gemini"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"

	// maxInlineBytes is the request size limit for inline data.
	maxInlineBytes = 20 * 1024 * 1024
)

// Config holds Gemini transcription configuration.
type Config struct {
	APIKey       string
	Model        string
	LanguageCode string // BCP-47, named in the instruction
}

// generator is the subset of *genai.Models the adapter calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Adapter implements stt.Client with generateContent.
type Adapter struct {
	models      generator
	model       string
	instruction string
}

// New creates a new Gemini adapter.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return newAdapter(client.Models, cfg), nil
}

func newAdapter(models generator, cfg Config) *Adapter {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Adapter{
		models:      models,
		model:       model,
		instruction: Instruction(cfg.LanguageCode),
	}
}

// Instruction builds the prompt sent alongside the audio, e.g. for "my-MM":
// "Transcribe this audio in Burmese (language code: my). Provide a verbatim transcription."
func Instruction(languageCode string) string {
	base := stt.LanguageBase(languageCode)
	if base == "" {
		return "Transcribe this audio. Provide a verbatim transcription."
	}

	name := base
	if tag, err := language.Parse(base); err == nil {
		if n := display.English.Languages().Name(tag); n != "" {
			name = n
		}
	}
	return fmt.Sprintf("Transcribe this audio in %s (language code: %s). Provide a verbatim transcription.", name, base)
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return providerName
}

// Transcribe sends the segment inline and returns the response text.
func (a *Adapter) Transcribe(ctx context.Context, seg models.AudioSegment) (string, error) {
	if len(seg.Payload) == 0 {
		return "", stt.Rejected(providerName, stt.ErrEmptyPayload)
	}
	if len(seg.Payload) > maxInlineBytes {
		return "", stt.Rejected(providerName, fmt.Errorf("segment of %d bytes exceeds inline limit", len(seg.Payload)))
	}

	mediaType := stt.BaseMediaType(seg.MediaType)
	if mediaType == "" {
		mediaType = models.DefaultMediaType
	}
	if !strings.HasPrefix(mediaType, "audio/") {
		return "", stt.Rejected(providerName, fmt.Errorf("%w: %q", stt.ErrUnsupportedMediaType, seg.MediaType))
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(seg.Payload, mediaType),
			genai.NewPartFromText(a.instruction),
		}, genai.RoleUser),
	}

	resp, err := a.models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", classify(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", stt.Rejected(providerName, fmt.Errorf("request blocked: %s", resp.PromptFeedback.BlockReason))
	}
	return strings.TrimSpace(resp.Text()), nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return stt.Timeout(providerName, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &stt.Failure{Kind: stt.StatusKind(apiErr.Code), Provider: providerName, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &stt.Failure{Kind: stt.StatusKind(apiErrPtr.Code), Provider: providerName, Err: err}
	}
	return stt.Unavailable(providerName, err)
}
