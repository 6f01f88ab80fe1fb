// Package template maps a template identifier to the title and block layout
// of a published note.
//
// The catalog is closed: identifiers outside the known set render with the
// default layout rather than failing.
package template

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"voice-notes-service/internal/models"
)

// ID identifies a note template.
type ID string

// Known template identifiers.
const (
	General            ID = "general"
	MeetingNotes       ID = "meeting_notes"
	BrainstormingIdeas ID = "brainstorming_ideas"
	QuickNotes         ID = "quick_notes"
	Summary            ID = "summary"
)

// builder lays out the transcript as document blocks.
type builder func(transcript string) []models.ContentBlock

func paragraphOnly(transcript string) []models.ContentBlock {
	return []models.ContentBlock{models.Paragraph(transcript)}
}

func headed(heading string, body func(string) models.ContentBlock) builder {
	return func(transcript string) []models.ContentBlock {
		return []models.ContentBlock{models.Heading(heading), body(transcript)}
	}
}

// catalog is the closed set. Adding a template is one entry here.
var catalog = map[ID]builder{
	General:            paragraphOnly,
	MeetingNotes:       headed("Meeting Notes", models.Paragraph),
	BrainstormingIdeas: headed("Brainstorming Ideas", models.BulletItem),
	QuickNotes:         headed("Quick Notes", models.Paragraph),
	Summary:            headed("Summary", models.Paragraph),
}

// order is the listing order for IDs.
var order = []ID{General, MeetingNotes, BrainstormingIdeas, QuickNotes, Summary}

// Render returns the title and ordered blocks for a transcript.
// The transcript is placed verbatim in a single block.
func Render(id string, transcript string) (string, []models.ContentBlock) {
	build, ok := catalog[ID(id)]
	if !ok {
		build = paragraphOnly
	}
	return Title(id), build(transcript)
}

// Title derives a note title from the raw identifier: the first character
// is upper-cased, the rest is kept as-is (underscores included), and
// " Note" is appended. "meeting_notes" becomes "Meeting_notes Note".
func Title(id string) string {
	r, size := utf8.DecodeRuneInString(id)
	if size == 0 {
		return " Note"
	}
	var b strings.Builder
	b.Grow(len(id) + len(" Note"))
	b.WriteRune(unicode.ToUpper(r))
	b.WriteString(id[size:])
	b.WriteString(" Note")
	return b.String()
}

// Known reports whether id is in the catalog.
func Known(id string) bool {
	_, ok := catalog[ID(id)]
	return ok
}

// IDs lists the known templates in a stable order.
func IDs() []ID {
	return append([]ID(nil), order...)
}
