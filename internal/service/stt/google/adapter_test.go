package google

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/service/stt"
)

// fakeRecognizer implements recognizer for testing
type fakeRecognizer struct {
	resp  *speechpb.RecognizeResponse
	err   error
	calls int
	last  *speechpb.RecognizeRequest
}

func (f *fakeRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

func (f *fakeRecognizer) Close() error { return nil }

func result(texts ...string) *speechpb.SpeechRecognitionResult {
	r := &speechpb.SpeechRecognitionResult{}
	for _, t := range texts {
		r.Alternatives = append(r.Alternatives, &speechpb.SpeechRecognitionAlternative{Transcript: t})
	}
	return r
}

func newTestAdapter(f *fakeRecognizer) *Adapter {
	return &Adapter{client: f, cfg: DefaultConfig()}
}

func webm(payload string) models.AudioSegment {
	return models.AudioSegment{Ordinal: 0, Payload: []byte(payload), MediaType: "audio/webm;codecs=opus"}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LanguageCode != "my-MM" {
		t.Errorf("expected default language 'my-MM', got %s", cfg.LanguageCode)
	}
	if cfg.SampleRateHz != 48000 {
		t.Errorf("expected default sample rate 48000, got %d", cfg.SampleRateHz)
	}
}

func TestParseMediaType(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
		ok       bool
	}{
		{"audio/webm", speechpb.RecognitionConfig_WEBM_OPUS, true},
		{"audio/webm;codecs=opus", speechpb.RecognitionConfig_WEBM_OPUS, true},
		{"audio/ogg", speechpb.RecognitionConfig_OGG_OPUS, true},
		{"audio/flac", speechpb.RecognitionConfig_FLAC, true},
		{"audio/wav", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, true},
		{"audio/l16", speechpb.RecognitionConfig_LINEAR16, true},
		{"audio/basic", speechpb.RecognitionConfig_MULAW, true},
		{"audio/amr-wb", speechpb.RecognitionConfig_AMR_WB, true},
		{"video/mp4", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, false},
		{"", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseMediaType(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("parseMediaType(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestTranscribe_JoinsResults(t *testing.T) {
	f := &fakeRecognizer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			result(" hello ", "alt"),
			{},
			result("world"),
		},
	}}
	a := newTestAdapter(f)

	text, err := a.Transcribe(context.Background(), webm("audio"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("expected 'hello world', got %q", text)
	}

	cfg := f.last.GetConfig()
	if cfg.GetLanguageCode() != "my-MM" {
		t.Errorf("expected language hint on request, got %q", cfg.GetLanguageCode())
	}
	if cfg.GetEncoding() != speechpb.RecognitionConfig_WEBM_OPUS {
		t.Errorf("expected WEBM_OPUS, got %v", cfg.GetEncoding())
	}
	if cfg.GetSampleRateHertz() != 48000 {
		t.Errorf("expected sample rate 48000, got %d", cfg.GetSampleRateHertz())
	}
	if string(f.last.GetAudio().GetContent()) != "audio" {
		t.Error("expected payload as inline content")
	}
}

func TestTranscribe_NoResultsIsEmptyText(t *testing.T) {
	a := newTestAdapter(&fakeRecognizer{resp: &speechpb.RecognizeResponse{}})

	text, err := a.Transcribe(context.Background(), webm("silence"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestTranscribe_FlacOmitsSampleRate(t *testing.T) {
	f := &fakeRecognizer{resp: &speechpb.RecognizeResponse{}}
	a := newTestAdapter(f)

	seg := models.AudioSegment{Payload: []byte("x"), MediaType: "audio/flac"}
	if _, err := a.Transcribe(context.Background(), seg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.last.GetConfig().GetSampleRateHertz() != 0 {
		t.Error("expected FLAC request to leave the sample rate unset")
	}
}

func TestTranscribe_RejectedLocally(t *testing.T) {
	tests := []struct {
		name  string
		seg   models.AudioSegment
		cause error
	}{
		{"empty payload", models.AudioSegment{MediaType: "audio/webm"}, stt.ErrEmptyPayload},
		{"unsupported media type", models.AudioSegment{Payload: []byte("x"), MediaType: "text/plain"}, stt.ErrUnsupportedMediaType},
		{"too large", models.AudioSegment{Payload: make([]byte, maxRequestBytes+1), MediaType: "audio/webm"}, stt.ErrPayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRecognizer{}
			a := newTestAdapter(f)

			_, err := a.Transcribe(context.Background(), tt.seg)
			if kind, _ := stt.KindOf(err); kind != stt.KindRejected {
				t.Errorf("expected KindRejected, got %v (%v)", kind, err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("expected cause %v, got %v", tt.cause, err)
			}
			if f.calls != 0 {
				t.Errorf("expected no provider call, got %d", f.calls)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected stt.FailureKind
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), stt.KindUnavailable},
		{"resource exhausted", status.Error(codes.ResourceExhausted, "quota"), stt.KindUnavailable},
		{"internal", status.Error(codes.Internal, "oops"), stt.KindUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), stt.KindTimeout},
		{"context deadline", context.DeadlineExceeded, stt.KindTimeout},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad audio"), stt.KindRejected},
		{"permission denied", status.Error(codes.PermissionDenied, "no"), stt.KindRejected},
		{"plain error", errors.New("connection reset"), stt.KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := stt.KindOf(classify(tt.err))
			if !ok || kind != tt.expected {
				t.Errorf("classify(%v) kind = %v, want %v", tt.err, kind, tt.expected)
			}
		})
	}
}

func TestClassify_CancellationPassesThrough(t *testing.T) {
	if _, ok := stt.KindOf(classify(context.Canceled)); ok {
		t.Error("expected context.Canceled to stay untyped")
	}
	if _, ok := stt.KindOf(classify(status.Error(codes.Canceled, "bye"))); ok {
		t.Error("expected codes.Canceled to stay untyped")
	}
}
