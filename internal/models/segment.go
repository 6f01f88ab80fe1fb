// Package models defines the data structures shared across the service.
package models

// DefaultMediaType is recorded for segments uploaded without a media type.
// Browser recorders emit Opus in a WebM container.
const DefaultMediaType = "audio/webm"

// AudioSegment is one bounded chunk of a recording.
// Ordinals start at 0 and are gap-free within a session.
type AudioSegment struct {
	Ordinal   int
	Payload   []byte
	MediaType string
}

// Size returns the payload length in bytes.
func (s AudioSegment) Size() int {
	return len(s.Payload)
}
