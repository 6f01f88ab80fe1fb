package template

import (
	"reflect"
	"testing"

	"voice-notes-service/internal/models"
)

func TestRender_KnownTemplates(t *testing.T) {
	const transcript = "Discussed roadmap."

	tests := []struct {
		id        string
		wantTitle string
		want      []models.ContentBlock
	}{
		{
			id:        "general",
			wantTitle: "General Note",
			want:      []models.ContentBlock{models.Paragraph(transcript)},
		},
		{
			id:        "meeting_notes",
			wantTitle: "Meeting_notes Note",
			want:      []models.ContentBlock{models.Heading("Meeting Notes"), models.Paragraph(transcript)},
		},
		{
			id:        "brainstorming_ideas",
			wantTitle: "Brainstorming_ideas Note",
			want:      []models.ContentBlock{models.Heading("Brainstorming Ideas"), models.BulletItem(transcript)},
		},
		{
			id:        "quick_notes",
			wantTitle: "Quick_notes Note",
			want:      []models.ContentBlock{models.Heading("Quick Notes"), models.Paragraph(transcript)},
		},
		{
			id:        "summary",
			wantTitle: "Summary Note",
			want:      []models.ContentBlock{models.Heading("Summary"), models.Paragraph(transcript)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			title, blocks := Render(tt.id, transcript)
			if title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, title)
			}
			if !reflect.DeepEqual(blocks, tt.want) {
				t.Errorf("expected blocks %+v, got %+v", tt.want, blocks)
			}
		})
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	tests := []struct {
		id        string
		wantTitle string
	}{
		{"foo_bar", "Foo_bar Note"},
		{"Retro", "Retro Note"},
		{"ümlaut", "Ümlaut Note"},
		{"", " Note"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			title, blocks := Render(tt.id, "body")
			if title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, title)
			}
			want := []models.ContentBlock{models.Paragraph("body")}
			if !reflect.DeepEqual(blocks, want) {
				t.Errorf("expected default layout, got %+v", blocks)
			}
		})
	}
}

func TestRender_TranscriptIsNeverSplit(t *testing.T) {
	long := ""
	for i := 0; i < 500; i++ {
		long += "line of speech\n"
	}

	_, blocks := Render("summary", long)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[1].Text != long {
		t.Error("expected transcript placed verbatim in one block")
	}
}

func TestRender_Idempotent(t *testing.T) {
	for _, id := range append(IDs(), "unknown_id") {
		title1, blocks1 := Render(string(id), "same input")
		title2, blocks2 := Render(string(id), "same input")
		if title1 != title2 || !reflect.DeepEqual(blocks1, blocks2) {
			t.Errorf("%s: render is not deterministic", id)
		}
	}
}

func TestKnownAndIDs(t *testing.T) {
	ids := IDs()
	if len(ids) != 5 {
		t.Fatalf("expected 5 templates, got %d", len(ids))
	}
	for _, id := range ids {
		if !Known(string(id)) {
			t.Errorf("expected %s to be known", id)
		}
	}
	if Known("foo_bar") {
		t.Error("expected foo_bar to be unknown")
	}

	ids[0] = "mutated"
	if IDs()[0] != General {
		t.Error("IDs must return a copy")
	}
}
