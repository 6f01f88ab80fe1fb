// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/service/stt"
)

const providerName = "google"

// maxRequestBytes is the inline-content limit of synchronous Recognize.
const maxRequestBytes = 10 * 1024 * 1024

// Config holds Google STT configuration.
type Config struct {
	LanguageCode string // BCP-47, sent with every request
	SampleRateHz int32  // 0 lets the service read it from the container header
	Model        string // empty selects the service default
	Punctuation  bool
}

// DefaultConfig returns the configuration used for Burmese voice notes
// recorded in the browser.
func DefaultConfig() Config {
	return Config{
		LanguageCode: "my-MM",
		SampleRateHz: 48000,
		Punctuation:  true,
	}
}

// recognizer is the subset of *speech.Client the adapter calls.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// Adapter implements stt.Client using Google Cloud Speech-to-Text.
type Adapter struct {
	client recognizer
	cfg    Config
}

// New creates a new Google STT adapter.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return providerName
}

// Transcribe sends one segment to the synchronous Recognize endpoint and
// joins the top alternative of every result.
func (a *Adapter) Transcribe(ctx context.Context, seg models.AudioSegment) (string, error) {
	if len(seg.Payload) == 0 {
		return "", stt.Rejected(providerName, stt.ErrEmptyPayload)
	}

	encoding, ok := parseMediaType(seg.MediaType)
	if !ok {
		return "", stt.Rejected(providerName, fmt.Errorf("%w: %q", stt.ErrUnsupportedMediaType, seg.MediaType))
	}

	req := a.buildRequest(encoding, seg.Payload)
	if size := proto.Size(req); size > maxRequestBytes {
		return "", stt.Rejected(providerName, fmt.Errorf("%w: %d bytes", stt.ErrPayloadTooLarge, size))
	}

	resp, err := a.client.Recognize(ctx, req)
	if err != nil {
		return "", classify(err)
	}

	var parts []string
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		if text := strings.TrimSpace(r.GetAlternatives()[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying gRPC connection.
func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) buildRequest(encoding speechpb.RecognitionConfig_AudioEncoding, audio []byte) *speechpb.RecognizeRequest {
	cfg := &speechpb.RecognitionConfig{
		Encoding:                   encoding,
		LanguageCode:               a.cfg.LanguageCode,
		Model:                      a.cfg.Model,
		EnableAutomaticPunctuation: a.cfg.Punctuation,
	}
	// FLAC and WAV carry their sample rate in the header.
	if encoding != speechpb.RecognitionConfig_FLAC && encoding != speechpb.RecognitionConfig_ENCODING_UNSPECIFIED {
		cfg.SampleRateHertz = a.cfg.SampleRateHz
	}

	return &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}
}

// parseMediaType maps a segment media type to a Google audio encoding.
func parseMediaType(mediaType string) (speechpb.RecognitionConfig_AudioEncoding, bool) {
	switch stt.BaseMediaType(mediaType) {
	case "audio/webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, true
	case "audio/ogg", "audio/opus":
		return speechpb.RecognitionConfig_OGG_OPUS, true
	case "audio/flac", "audio/x-flac":
		return speechpb.RecognitionConfig_FLAC, true
	case "audio/wav", "audio/x-wav", "audio/wave":
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, true
	case "audio/l16", "audio/pcm":
		return speechpb.RecognitionConfig_LINEAR16, true
	case "audio/basic", "audio/mulaw":
		return speechpb.RecognitionConfig_MULAW, true
	case "audio/amr":
		return speechpb.RecognitionConfig_AMR, true
	case "audio/amr-wb":
		return speechpb.RecognitionConfig_AMR_WB, true
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, false
	}
}

// classify maps a Recognize error to a typed failure. Cancellation by the
// caller is passed through unchanged.
func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return stt.Timeout(providerName, err)
	}

	switch status.Code(err) {
	case codes.Canceled:
		return err
	case codes.DeadlineExceeded:
		return stt.Timeout(providerName, err)
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.Aborted, codes.Unknown:
		return stt.Unavailable(providerName, err)
	default:
		return stt.Rejected(providerName, err)
	}
}
