package stt

import (
	"mime"
	"strings"
)

// BaseMediaType strips parameters from a media type and lower-cases it,
// e.g. "audio/webm;codecs=opus" becomes "audio/webm".
func BaseMediaType(mediaType string) string {
	if mediaType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		mt, _, _ = strings.Cut(mediaType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// LanguageBase returns the primary language subtag of a BCP-47 code,
// e.g. "my-MM" becomes "my".
func LanguageBase(code string) string {
	base, _, _ := strings.Cut(code, "-")
	return strings.ToLower(base)
}
