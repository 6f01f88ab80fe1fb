package events

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/observability/metrics"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.Enabled() {
				t.Error("expected publisher to be disabled")
			}
			if p.transcripts.writer != nil {
				t.Error("expected nil transcripts writer when disabled")
			}
			if p.documents.writer != nil {
				t.Error("expected nil documents writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:          false,
		Brokers:          []string{"localhost:9092"},
		TopicTranscripts: "test.transcripts",
		TopicDocuments:   "test.documents",
		Principal:        "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.transcripts.topic != "test.transcripts" {
		t.Errorf("expected transcripts topic 'test.transcripts', got %s", p.transcripts.topic)
	}
	if p.documents.topic != "test.documents" {
		t.Errorf("expected documents topic 'test.documents', got %s", p.documents.topic)
	}
}

func TestNew_EnabledCreatesWriters(t *testing.T) {
	p := New(&Config{
		Enabled:          true,
		Brokers:          []string{"localhost:9092"},
		TopicTranscripts: "notes.transcripts",
		TopicDocuments:   "notes.documents",
	})
	defer p.Close()

	if !p.Enabled() {
		t.Fatal("expected publisher to be enabled")
	}
	if _, ok := p.transcripts.writer.Balancer.(*kafka.Hash); !ok {
		t.Errorf("expected key-hash balancer, got %T", p.transcripts.writer.Balancer)
	}
	if p.transcripts.writer.Transport != p.documents.writer.Transport {
		t.Error("expected writers to share a transport")
	}
	if p.transcripts.writer.Topic != "notes.transcripts" {
		t.Errorf("unexpected transcripts writer topic %s", p.transcripts.writer.Topic)
	}
	if p.documents.writer.Topic != "notes.documents" {
		t.Errorf("unexpected documents writer topic %s", p.documents.writer.Topic)
	}
}

func TestPublisher_PublishTranscriptReady_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false, TopicTranscripts: "test.transcripts.ready", Principal: "test-svc"})

	before := testutil.ToFloat64(metrics.DefaultMetrics.KafkaPublishTotal.WithLabelValues("test.transcripts.ready", models.EventTranscriptReady))

	err := p.PublishTranscriptReady(context.Background(), models.TranscriptReady{
		SessionID:      "sess-123",
		SegmentCount:   3,
		FailedOrdinals: []int{1},
		Text:           "A\nC",
	})
	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}

	after := testutil.ToFloat64(metrics.DefaultMetrics.KafkaPublishTotal.WithLabelValues("test.transcripts.ready", models.EventTranscriptReady))
	if after-before != 1 {
		t.Errorf("expected publish counter to increase by 1, got %v", after-before)
	}
}

func TestPublisher_PublishDocumentPublished_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false, TopicDocuments: "test.documents", Principal: "test-svc"})

	err := p.PublishDocumentPublished(context.Background(), models.DocumentPublished{
		RequestID:  "req-1",
		TemplateID: "summary",
		Title:      "Summary Note",
		BlockCount: 2,
	})
	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Channels cannot be marshalled
	err := p.send(context.Background(), stream{topic: "topic"}, envelope{eventType: "type", key: "key", body: make(chan int)})
	if err == nil {
		t.Error("expected error for unmarshalable event")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilPublisher(t *testing.T) {
	p := &Publisher{}

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}

func TestEnvelope_Message(t *testing.T) {
	env := envelope{eventType: models.EventTranscriptReady, key: "sess-9", body: map[string]int{"segmentCount": 2}}

	msg, err := env.message("svc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg.Key) != "sess-9" || string(msg.Value) != `{"segmentCount":2}` {
		t.Errorf("unexpected message %q=%q", msg.Key, msg.Value)
	}
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["eventType"] != models.EventTranscriptReady || headers["principal"] != "svc" {
		t.Errorf("unexpected headers %v", headers)
	}
}
