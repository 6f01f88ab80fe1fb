package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"voice-notes-service/internal/schema"
	"voice-notes-service/internal/service/document"
	"voice-notes-service/internal/service/notes"
	"voice-notes-service/internal/service/pipeline"
	"voice-notes-service/internal/service/publish"
	"voice-notes-service/internal/service/session"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type segmentFailure struct {
	Ordinal int    `json:"ordinal"`
	Error   string `json:"error"`
}

// statusFor maps service errors to an HTTP status and a stable error code.
func statusFor(err error) (int, string, any) {
	var (
		verr    *schema.Error
		total   *pipeline.TotalFailure
		tooBig  *http.MaxBytesError
		pubFail *publish.Failure
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "invalid_request", verr.Fields
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found", nil
	case errors.Is(err, notes.ErrNoAudio):
		return http.StatusNotFound, "no_audio", nil
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusConflict, "session_closed", nil
	case errors.Is(err, session.ErrSessionExpired):
		return http.StatusConflict, "session_expired", nil
	case errors.Is(err, session.ErrInvalidOrdinal):
		return http.StatusConflict, "invalid_ordinal", nil
	case errors.Is(err, session.ErrTooManySegments):
		return http.StatusConflict, "too_many_segments", nil
	case errors.Is(err, session.ErrSegmentTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge, "segment_too_large", nil
	case errors.Is(err, session.ErrEmptySegment):
		return http.StatusBadRequest, "empty_segment", nil
	case errors.Is(err, pipeline.ErrEmptyInput):
		return http.StatusBadRequest, "empty_input", nil
	case errors.Is(err, document.ErrEmptyTranscript):
		return http.StatusBadRequest, "empty_transcript", nil
	case errors.As(err, &total):
		details := make([]segmentFailure, 0, len(total.Failures))
		for _, f := range total.Failures {
			details = append(details, segmentFailure{Ordinal: f.Ordinal, Error: f.Err.Error()})
		}
		return http.StatusBadGateway, "transcription_failed", details
	case errors.As(err, &pubFail):
		switch pubFail.Kind {
		case publish.KindAuth:
			return http.StatusBadGateway, pubFail.Kind.String(), nil
		case publish.KindRejected:
			return http.StatusUnprocessableEntity, pubFail.Kind.String(), nil
		default:
			return http.StatusServiceUnavailable, pubFail.Kind.String(), nil
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request_cancelled", nil
	default:
		return http.StatusInternalServerError, "internal_error", nil
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, details := statusFor(err)

	event := zerolog.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("code", code).Msg("Request failed")

	writeJSON(w, status, errorResponse{Error: code, Message: err.Error(), Details: details})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
