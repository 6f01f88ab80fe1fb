package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"voice-notes-service/internal/schema"
	"voice-notes-service/internal/service/notes"
	"voice-notes-service/internal/service/template"
)

// multipartMemory is how much of a batch upload is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type handlers struct {
	svc       NotesService
	validator *schema.Validator
	opts      Options
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}

type segmentRequest struct {
	MediaType string `json:"mediaType" validate:"omitempty,audiotype"`
}

type segmentResponse struct {
	SessionID string `json:"sessionId"`
	Ordinal   int    `json:"ordinal"`
}

type documentRequest struct {
	Transcription string `json:"transcription" validate:"required"`
	Template      string `json:"template" validate:"required,max=64"`
}

type documentResponse struct {
	Success bool `json:"success"`
	*notes.PublishOutcome
}

type batchResponse struct {
	Transcription string                 `json:"transcription"`
	SegmentCount  int                    `json:"segmentCount"`
	Warnings      []notes.SegmentWarning `json:"warnings"`
}

type templateInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (h *handlers) startSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.StartSession(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id})
}

// appendSegment takes the raw request body as one audio segment; the
// Content-Type header carries its media type.
func (h *handlers) appendSegment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req := segmentRequest{MediaType: audioMediaType(r.Header.Get("Content-Type"))}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxSegmentBytes))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ordinal, err := h.svc.AppendSegment(r.Context(), id, payload, req.MediaType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, segmentResponse{SessionID: id, Ordinal: ordinal})
}

func (h *handlers) transcribe(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.FinalizeAndTranscribe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) exportAudio(w http.ResponseWriter, r *http.Request) {
	export, err := h.svc.ExportAudio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": "recording." + fileExtension(export.MediaType),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

func (h *handlers) restartSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RestartSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) discardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DiscardSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// transcribeBatch accepts a multipart form whose file parts are named
// audio0, audio1, ... and transcribes them in suffix order.
func (h *handlers) transcribeBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBatchBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, r, badRequest(fmt.Errorf("parse multipart form: %w", err)))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uploads, err := readUploads(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.svc.TranscribeBatch(r.Context(), uploads)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Transcription: out.Transcript,
		SegmentCount:  out.SegmentCount,
		Warnings:      out.Warnings,
	})
}

func readUploads(r *http.Request) ([]notes.Upload, error) {
	var keys []string
	for key := range r.MultipartForm.File {
		if strings.HasPrefix(key, "audio") {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return partLess(keys[i], keys[j])
	})

	var uploads []notes.Upload
	for _, key := range keys {
		for _, fh := range r.MultipartForm.File[key] {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, notes.Upload{
				Payload:   data,
				MediaType: audioMediaType(fh.Header.Get("Content-Type")),
			})
		}
	}
	return uploads, nil
}

// partLess orders audio2 before audio10. Names without a numeric suffix
// sort after numbered ones, by name.
func partLess(a, b string) bool {
	na, errA := strconv.Atoi(strings.TrimPrefix(a, "audio"))
	nb, errB := strconv.Atoi(strings.TrimPrefix(b, "audio"))
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

func (h *handlers) publishDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, badRequest(fmt.Errorf("decode request: %w", err)))
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.svc.CompileAndPublish(r.Context(), req.Transcription, req.Template)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Success: true, PublishOutcome: out})
}

func (h *handlers) listTemplates(w http.ResponseWriter, _ *http.Request) {
	ids := template.IDs()
	out := make([]templateInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, templateInfo{ID: string(id), Title: template.Title(string(id))})
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": out})
}

// audioMediaType drops generic binary types so the store records its default.
func audioMediaType(contentType string) string {
	ct := strings.TrimSpace(contentType)
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || mt == "application/octet-stream" {
		return ""
	}
	return ct
}

func fileExtension(mediaType string) string {
	mt, _, _ := mime.ParseMediaType(mediaType)
	switch mt {
	case "audio/ogg":
		return "ogg"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	case "audio/flac", "audio/x-flac":
		return "flac"
	case "audio/mpeg":
		return "mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "m4a"
	default:
		return "webm"
	}
}

// badRequest marks a malformed request body.
func badRequest(err error) error {
	return &schema.Error{Fields: []schema.FieldError{{Field: "body", Rule: err.Error()}}}
}
