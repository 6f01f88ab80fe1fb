package openai

import (
	"context"
	"errors"
	"io"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/service/stt"
)

// fakeTranscriber implements transcriber for testing
type fakeTranscriber struct {
	text    string
	err     error
	calls   int
	request goopenai.AudioRequest
	body    []byte
}

func (f *fakeTranscriber) CreateTranscription(ctx context.Context, req goopenai.AudioRequest) (goopenai.AudioResponse, error) {
	f.calls++
	f.request = req
	if req.Reader != nil {
		f.body, _ = io.ReadAll(req.Reader)
	}
	if f.err != nil {
		return goopenai.AudioResponse{}, f.err
	}
	return goopenai.AudioResponse{Text: f.text}, nil
}

func newTestAdapter(f *fakeTranscriber) *Adapter {
	return &Adapter{client: f, model: goopenai.Whisper1, language: "my"}
}

func TestNew_Defaults(t *testing.T) {
	a := New(Config{APIKey: "sk-test", Language: "my-MM"})

	if a.model != goopenai.Whisper1 {
		t.Errorf("expected default model %s, got %s", goopenai.Whisper1, a.model)
	}
	if a.language != "my" {
		t.Errorf("expected language base 'my', got %s", a.language)
	}
	if a.Name() != "openai" {
		t.Errorf("expected provider name 'openai', got %s", a.Name())
	}
}

func TestTranscribe_Success(t *testing.T) {
	f := &fakeTranscriber{text: "မင်္ဂလာပါ"}
	a := newTestAdapter(f)

	seg := models.AudioSegment{Ordinal: 3, Payload: []byte("opus"), MediaType: "audio/webm"}
	text, err := a.Transcribe(context.Background(), seg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "မင်္ဂလာပါ" {
		t.Errorf("unexpected text %q", text)
	}
	if f.request.FilePath != "segment-3.webm" {
		t.Errorf("expected file name segment-3.webm, got %s", f.request.FilePath)
	}
	if f.request.Language != "my" {
		t.Errorf("expected language hint 'my', got %s", f.request.Language)
	}
	if string(f.body) != "opus" {
		t.Errorf("expected payload to be uploaded, got %q", f.body)
	}
}

func TestTranscribe_RejectedLocally(t *testing.T) {
	tests := []struct {
		name string
		seg  models.AudioSegment
	}{
		{"empty payload", models.AudioSegment{MediaType: "audio/webm"}},
		{"unsupported media type", models.AudioSegment{Payload: []byte("x"), MediaType: "application/json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeTranscriber{}
			_, err := newTestAdapter(f).Transcribe(context.Background(), tt.seg)

			if kind, _ := stt.KindOf(err); kind != stt.KindRejected {
				t.Errorf("expected KindRejected, got %v", err)
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
		{"bad request", &goopenai.APIError{HTTPStatusCode: 400, Message: "invalid file format"}, stt.KindRejected},
		{"too large", &goopenai.APIError{HTTPStatusCode: 413}, stt.KindRejected},
		{"rate limited", &goopenai.APIError{HTTPStatusCode: 429}, stt.KindUnavailable},
		{"server error", &goopenai.APIError{HTTPStatusCode: 503}, stt.KindUnavailable},
		{"gateway timeout", &goopenai.RequestError{HTTPStatusCode: 504, Err: errors.New("timeout")}, stt.KindTimeout},
		{"deadline", context.DeadlineExceeded, stt.KindTimeout},
		{"transport", errors.New("dial tcp: connection refused"), stt.KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := stt.KindOf(classify(tt.err))
			if !ok || kind != tt.expected {
				t.Errorf("classify(%v) = %v, want %v", tt.err, kind, tt.expected)
			}
		})
	}
}

func TestTranscribe_PropagatesCancellation(t *testing.T) {
	f := &fakeTranscriber{err: context.Canceled}

	_, err := newTestAdapter(f).Transcribe(context.Background(), models.AudioSegment{Payload: []byte("x"), MediaType: "audio/ogg"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, ok := stt.KindOf(err); ok {
		t.Error("cancellation must not be reported as a provider failure")
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		input string
		ext   string
		ok    bool
	}{
		{"audio/webm;codecs=opus", "webm", true},
		{"audio/ogg", "ogg", true},
		{"audio/mpeg", "mp3", true},
		{"audio/x-m4a", "m4a", true},
		{"audio/wav", "wav", true},
		{"image/png", "", false},
	}

	for _, tt := range tests {
		ext, ok := fileExtension(tt.input)
		if ext != tt.ext || ok != tt.ok {
			t.Errorf("fileExtension(%q) = (%q, %v), want (%q, %v)", tt.input, ext, ok, tt.ext, tt.ok)
		}
	}
}
