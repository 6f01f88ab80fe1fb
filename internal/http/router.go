package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"voice-notes-service/internal/observability"
	"voice-notes-service/internal/observability/metrics"
	"voice-notes-service/internal/schema"
	"voice-notes-service/internal/service/notes"
)

// NotesService is the caller-facing API the router exposes.
type NotesService interface {
	StartSession(ctx context.Context) (string, error)
	AppendSegment(ctx context.Context, sessionID string, payload []byte, mediaType string) (int, error)
	FinalizeAndTranscribe(ctx context.Context, sessionID string) (*notes.TranscriptOutcome, error)
	TranscribeBatch(ctx context.Context, uploads []notes.Upload) (*notes.TranscriptOutcome, error)
	CompileAndPublish(ctx context.Context, transcript, templateID string) (*notes.PublishOutcome, error)
	ExportAudio(ctx context.Context, sessionID string) (*notes.AudioExport, error)
	RestartSession(ctx context.Context, sessionID string) error
	DiscardSession(ctx context.Context, sessionID string) error
}

// Options configures the router.
type Options struct {
	Logger          zerolog.Logger
	MaxSegmentBytes int64                       // request body limit for one segment
	MaxBatchBytes   int64                       // request body limit for a multipart batch
	RequestTimeout  time.Duration               // 0 disables the timeout
	Ready           observability.ReadinessCheck // nil means always ready
}

// DefaultOptions returns sensible default router options.
func DefaultOptions() Options {
	return Options{
		MaxSegmentBytes: 10 * 1024 * 1024,
		MaxBatchBytes:   200 * 1024 * 1024,
		RequestTimeout:  5 * time.Minute,
	}
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(svc NotesService, opts Options) http.Handler {
	def := DefaultOptions()
	if opts.MaxSegmentBytes <= 0 {
		opts.MaxSegmentBytes = def.MaxSegmentBytes
	}
	if opts.MaxBatchBytes <= 0 {
		opts.MaxBatchBytes = def.MaxBatchBytes
	}

	h := &handlers{
		svc:       svc,
		validator: schema.New(),
		opts:      opts,
	}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(opts.Logger))
	r.Use(observability.Metrics(metrics.DefaultMetrics))
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/templates", h.listTemplates)

		r.Post("/sessions", h.startSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Post("/segments", h.appendSegment)
			r.Post("/transcribe", h.transcribe)
			r.Get("/audio", h.exportAudio)
			r.Post("/reset", h.restartSession)
			r.Delete("/", h.discardSession)
		})

		r.Post("/transcriptions", h.transcribeBatch)
		r.Post("/documents", h.publishDocument)
	})

	return r
}
