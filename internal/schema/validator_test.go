package schema

import (
	"errors"
	"testing"
)

type publishRequest struct {
	Transcript string `json:"transcript" validate:"required"`
	Template   string `json:"template" validate:"required,max=64"`
}

type segmentRequest struct {
	MediaType string `json:"mediaType" validate:"omitempty,audiotype"`
}

func TestValidate_Valid(t *testing.T) {
	v := New()

	if err := v.Validate(publishRequest{Transcript: "hi", Template: "summary"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.Validate(segmentRequest{MediaType: "audio/webm;codecs=opus"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.Validate(segmentRequest{}); err != nil {
		t.Errorf("expected empty media type to be allowed, got %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	v := New()

	err := v.Validate(publishRequest{})

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", verr.Fields)
	}
	if verr.Fields[0].Field != "transcript" || verr.Fields[0].Rule != "required" {
		t.Errorf("unexpected first field error %+v", verr.Fields[0])
	}
	if verr.Error() != "invalid request: transcript is required, template is required" {
		t.Errorf("unexpected message %q", verr.Error())
	}
}

func TestValidate_AudioType(t *testing.T) {
	v := New()

	tests := []struct {
		mediaType string
		valid     bool
	}{
		{"audio/webm", true},
		{"audio/ogg; codecs=opus", true},
		{"video/webm", false},
		{"not a media type", false},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			err := v.Validate(segmentRequest{MediaType: tt.mediaType})
			if (err == nil) != tt.valid {
				t.Errorf("expected valid=%v, got %v", tt.valid, err)
			}
		})
	}
}

func TestValidate_MaxLength(t *testing.T) {
	v := New()

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	err := v.Validate(publishRequest{Transcript: "x", Template: string(long)})

	var verr *Error
	if !errors.As(err, &verr) || verr.Fields[0].Rule != "max" {
		t.Errorf("expected max violation, got %v", err)
	}
}
