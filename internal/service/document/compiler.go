// Package document compiles a transcript into a publishable payload.
package document

import (
	"errors"
	"strings"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/service/template"
)

// ErrEmptyTranscript is returned when there is nothing to publish.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Compile builds the document payload for a transcript using the named
// template. A transcript of only whitespace counts as empty. Unknown
// template ids use the default layout.
func Compile(transcript, templateID string) (models.DocumentPayload, error) {
	if strings.TrimSpace(transcript) == "" {
		return models.DocumentPayload{}, ErrEmptyTranscript
	}
	title, blocks := template.Render(templateID, transcript)
	return models.DocumentPayload{Title: title, Blocks: blocks}, nil
}
