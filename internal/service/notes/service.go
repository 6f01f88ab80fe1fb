// Package notes is the caller-facing voice notes service. It coordinates
// recording sessions, the transcription pipeline, the document compiler and
// the publisher, and emits lifecycle events.
package notes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/observability/logging"
	"voice-notes-service/internal/observability/metrics"
	"voice-notes-service/internal/service/document"
	"voice-notes-service/internal/service/pipeline"
	"voice-notes-service/internal/service/publish"
	"voice-notes-service/internal/service/session"
	"voice-notes-service/internal/service/stt"
)

// ErrNoAudio is returned when exporting a session that holds no audio.
var ErrNoAudio = errors.New("session holds no audio")

// Limits defines safety guardrails for recording sessions.
type Limits struct {
	MaxSegmentBytes int64         // largest accepted segment
	MaxSegments     int           // segments per session
	MaxDuration     time.Duration // appends are refused after this long
	RetainAudio     bool          // keep audio for export after transcription
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxSegmentBytes: 10 * 1024 * 1024, // Google inline recognition limit
		MaxSegments:     360,              // one hour of 10 second chunks
		MaxDuration:     2 * time.Hour,
	}
}

// EventPublisher emits note lifecycle events.
type EventPublisher interface {
	PublishTranscriptReady(ctx context.Context, event models.TranscriptReady) error
	PublishDocumentPublished(ctx context.Context, event models.DocumentPublished) error
}

// SegmentWarning reports a segment left out of a transcript.
type SegmentWarning struct {
	Ordinal int    `json:"ordinal"`
	Reason  string `json:"reason"`
	Error   string `json:"error"`
}

// TranscriptOutcome is the result of transcribing a session.
type TranscriptOutcome struct {
	SessionID    string           `json:"sessionId"`
	Transcript   string           `json:"transcript"`
	SegmentCount int              `json:"segmentCount"`
	Warnings     []SegmentWarning `json:"warnings"`
}

// PublishOutcome is the result of a successful publish.
type PublishOutcome struct {
	RequestID  string `json:"requestId"`
	TemplateID string `json:"templateId"`
	Title      string `json:"title"`
	BlockCount int    `json:"blockCount"`
}

// AudioExport is a session's recorded audio.
type AudioExport struct {
	MediaType string
	Data      []byte
}

// Upload is one segment of a one-shot batch.
type Upload struct {
	Payload   []byte
	MediaType string
}

// Service implements the caller-facing operations.
type Service struct {
	registry  *session.Registry
	pipeline  *pipeline.Pipeline
	publisher publish.Publisher
	events    EventPublisher
	limits    Limits
	metrics   *metrics.Metrics
	newID     func() string
}

// New creates a service with default limits.
func New(p *pipeline.Pipeline, publisher publish.Publisher, events EventPublisher) *Service {
	return NewWithLimits(p, publisher, events, DefaultLimits())
}

// NewWithLimits creates a service with custom session limits.
func NewWithLimits(p *pipeline.Pipeline, publisher publish.Publisher, events EventPublisher, limits Limits) *Service {
	return &Service{
		registry: session.NewRegistryWithLimits(session.Limits{
			MaxSegmentBytes: limits.MaxSegmentBytes,
			MaxSegments:     limits.MaxSegments,
		}),
		pipeline:  p,
		publisher: publisher,
		events:    events,
		limits:    limits,
		metrics:   metrics.DefaultMetrics,
		newID:     uuid.NewString,
	}
}

// ActiveSessions returns the number of sessions holding audio.
func (s *Service) ActiveSessions() int {
	return s.registry.Len()
}

// StartSession opens a new recording session and returns its ID.
// Sessions abandoned for twice the maximum duration are released first.
func (s *Service) StartSession(ctx context.Context) (string, error) {
	if s.limits.MaxDuration > 0 {
		for _, id := range s.registry.RemoveOlderThan(2 * s.limits.MaxDuration) {
			s.metrics.RecordSessionDiscarded()
			logger := logging.WithSession(id)
			logger.Info().Msg("Released abandoned session")
		}
	}

	sess := s.registry.Create()
	s.metrics.RecordSessionStart()

	zerolog.Ctx(ctx).Info().Str("sessionId", sess.ID).Msg("Session started")
	return sess.ID, nil
}

// AppendSegment stores the next chunk of a session and returns its ordinal.
func (s *Service) AppendSegment(ctx context.Context, sessionID string, payload []byte, mediaType string) (int, error) {
	logger := zerolog.Ctx(ctx).With().Str("sessionId", sessionID).Logger()

	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return 0, err
	}
	if s.limits.MaxDuration > 0 && sess.Age() > s.limits.MaxDuration {
		s.metrics.RecordSegmentRejected("expired")
		return 0, fmt.Errorf("%w: started %v ago", session.ErrSessionExpired, sess.Age().Round(time.Second))
	}

	ordinal, err := sess.Store.AppendNext(payload, mediaType)
	if err != nil {
		s.metrics.RecordSegmentRejected(rejectReason(err))
		logger.Warn().Err(err).Int("bytes", len(payload)).Msg("Segment rejected")
		return 0, err
	}

	s.metrics.RecordSegmentAppended(len(payload))
	logger.Debug().Int("ordinal", ordinal).Int("bytes", len(payload)).Str("mediaType", mediaType).Msg("Segment appended")
	return ordinal, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionClosed):
		return "closed"
	case errors.Is(err, session.ErrEmptySegment):
		return "empty"
	case errors.Is(err, session.ErrSegmentTooLarge):
		return "too_large"
	case errors.Is(err, session.ErrTooManySegments):
		return "too_many"
	case errors.Is(err, session.ErrInvalidOrdinal):
		return "invalid_ordinal"
	default:
		return "other"
	}
}

// FinalizeAndTranscribe closes a session and transcribes its segments.
//
// The session's audio is released afterwards whatever the outcome, unless
// audio is retained for export or the run was cancelled. A retained or
// cancelled session can be transcribed again.
func (s *Service) FinalizeAndTranscribe(ctx context.Context, sessionID string) (*TranscriptOutcome, error) {
	logger := zerolog.Ctx(ctx).With().Str("sessionId", sessionID).Logger()
	ctx = logger.WithContext(ctx)

	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	segments, err := sess.Store.Finalize()
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSessionFinalized()

	outcome, err := s.pipeline.Run(ctx, segments)

	if ctx.Err() == nil && !s.limits.RetainAudio {
		s.release(sessionID)
	}
	if err != nil {
		return nil, err
	}

	result := &TranscriptOutcome{
		SessionID:    sessionID,
		Transcript:   outcome.Transcript,
		SegmentCount: len(segments),
		Warnings:     warnings(outcome.Warnings),
	}

	ev := models.TranscriptReady{
		EventType:      models.EventTranscriptReady,
		SessionID:      sessionID,
		Timestamp:      time.Now().UnixMilli(),
		SegmentCount:   len(segments),
		FailedOrdinals: outcome.FailedOrdinals(),
		Text:           outcome.Transcript,
	}
	if err := s.events.PublishTranscriptReady(ctx, ev); err != nil {
		logger.Error().Err(err).Msg("Failed to publish transcript event")
	}

	return result, nil
}

// TranscribeBatch transcribes uploads as a one-shot session. The session
// never outlives the call.
func (s *Service) TranscribeBatch(ctx context.Context, uploads []Upload) (*TranscriptOutcome, error) {
	if len(uploads) == 0 {
		return nil, pipeline.ErrEmptyInput
	}

	id, err := s.StartSession(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(id)

	for _, u := range uploads {
		if _, err := s.AppendSegment(ctx, id, u.Payload, u.MediaType); err != nil {
			return nil, err
		}
	}
	return s.FinalizeAndTranscribe(ctx, id)
}

func warnings(failed []pipeline.Result) []SegmentWarning {
	out := make([]SegmentWarning, 0, len(failed))
	for _, r := range failed {
		w := SegmentWarning{Ordinal: r.Ordinal, Reason: "provider_error"}
		if kind, ok := stt.KindOf(r.Err); ok {
			w.Reason = kind.String()
		}
		if r.Err != nil {
			w.Error = r.Err.Error()
		}
		out = append(out, w)
	}
	return out
}

// CompileAndPublish builds the document for a transcript and publishes it.
func (s *Service) CompileAndPublish(ctx context.Context, transcript, templateID string) (*PublishOutcome, error) {
	requestID := s.newID()
	logger := zerolog.Ctx(ctx).With().
		Str("requestId", requestID).
		Str("templateId", templateID).
		Str("destination", s.publisher.Name()).
		Logger()
	ctx = logger.WithContext(ctx)

	payload, err := document.Compile(transcript, templateID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = s.publisher.Publish(ctx, payload)
	outcome := "success"
	if err != nil {
		outcome = "error"
		if kind, ok := publish.KindOf(err); ok {
			outcome = kind.String()
		}
	}
	s.metrics.RecordPublish(s.publisher.Name(), outcome, time.Since(start).Seconds())

	if err != nil {
		logger.Error().Err(err).Str("outcome", outcome).Msg("Document publish failed")
		return nil, err
	}

	logger.Info().Str("title", payload.Title).Int("blocks", len(payload.Blocks)).Msg("Document published")

	ev := models.DocumentPublished{
		EventType:  models.EventDocumentPublished,
		RequestID:  requestID,
		TemplateID: templateID,
		Title:      payload.Title,
		BlockCount: len(payload.Blocks),
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := s.events.PublishDocumentPublished(ctx, ev); err != nil {
		logger.Error().Err(err).Msg("Failed to publish document event")
	}

	return &PublishOutcome{
		RequestID:  requestID,
		TemplateID: templateID,
		Title:      payload.Title,
		BlockCount: len(payload.Blocks),
	}, nil
}

// ExportAudio returns the session's segments concatenated in ordinal order,
// tagged with the first segment's media type.
func (s *Service) ExportAudio(ctx context.Context, sessionID string) (*AudioExport, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	segments := sess.Store.Segments()
	if len(segments) == 0 {
		return nil, ErrNoAudio
	}

	var buf bytes.Buffer
	buf.Grow(int(sess.Store.Bytes()))
	for _, seg := range segments {
		buf.Write(seg.Payload)
	}

	zerolog.Ctx(ctx).Debug().
		Str("sessionId", sessionID).
		Int("segments", len(segments)).
		Int("bytes", buf.Len()).
		Msg("Audio exported")

	return &AudioExport{MediaType: segments[0].MediaType, Data: buf.Bytes()}, nil
}

// RestartSession drops a session's audio and reopens it for recording
// under the same ID.
func (s *Service) RestartSession(ctx context.Context, sessionID string) error {
	if _, err := s.registry.Restart(sessionID); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("sessionId", sessionID).Msg("Session restarted")
	return nil
}

// DiscardSession drops a session and its audio.
func (s *Service) DiscardSession(ctx context.Context, sessionID string) error {
	if !s.release(sessionID) {
		return session.ErrSessionNotFound
	}
	zerolog.Ctx(ctx).Info().Str("sessionId", sessionID).Msg("Session discarded")
	return nil
}

func (s *Service) release(sessionID string) bool {
	if !s.registry.Remove(sessionID) {
		return false
	}
	s.metrics.RecordSessionDiscarded()
	return true
}
