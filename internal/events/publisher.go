// Package events emits note lifecycle events. Transcripts and published
// documents go to their own Kafka topics; without brokers every event is
// logged instead.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/observability/metrics"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	batchTimeout = 10 * time.Millisecond
)

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers          []string
	TopicTranscripts string
	TopicDocuments   string
	Principal        string
	Enabled          bool
}

func (c *Config) usable() bool {
	return c != nil && c.Enabled && len(c.Brokers) > 0
}

// stream is one destination topic. A nil writer means log-only.
type stream struct {
	topic  string
	writer *kafka.Writer
}

func (s stream) close() error {
	if s.writer == nil {
		return nil
	}
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("close %s writer: %w", s.topic, err)
	}
	return nil
}

// Publisher publishes note lifecycle events.
type Publisher struct {
	transcripts stream
	documents   stream
	principal   string
	metrics     *metrics.Metrics
}

// New creates a publisher. A nil or disabled config, or one without
// brokers, yields a log-only publisher.
func New(cfg *Config) *Publisher {
	p := &Publisher{metrics: metrics.DefaultMetrics}
	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return p
	}

	p.principal = cfg.Principal
	p.transcripts.topic = cfg.TopicTranscripts
	p.documents.topic = cfg.TopicDocuments

	if !cfg.usable() {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return p
	}

	// Both writers share one transport so they share broker connections.
	// The dial timeout leaves room for cluster DNS to resolve.
	transport := &kafka.Transport{
		Dial: (&kafka.Dialer{Timeout: dialTimeout, DualStack: true}).DialFunc,
	}
	addr := kafka.TCP(cfg.Brokers...)
	p.transcripts.writer = writerFor(addr, cfg.TopicTranscripts, transport)
	p.documents.writer = writerFor(addr, cfg.TopicDocuments, transport)

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicTranscripts", cfg.TopicTranscripts).
		Str("topicDocuments", cfg.TopicDocuments).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")
	return p
}

// writerFor hashes on the event key so one session's events stay in order.
func writerFor(addr net.Addr, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         addr,
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// Enabled reports whether events are written to Kafka.
func (p *Publisher) Enabled() bool {
	return p.transcripts.writer != nil || p.documents.writer != nil
}

// PublishTranscriptReady publishes a transcript event keyed by session.
func (p *Publisher) PublishTranscriptReady(ctx context.Context, event models.TranscriptReady) error {
	if event.EventType == "" {
		event.EventType = models.EventTranscriptReady
	}
	return p.send(ctx, p.transcripts, envelope{eventType: event.EventType, key: event.SessionID, body: event})
}

// PublishDocumentPublished publishes a document event keyed by request.
func (p *Publisher) PublishDocumentPublished(ctx context.Context, event models.DocumentPublished) error {
	if event.EventType == "" {
		event.EventType = models.EventDocumentPublished
	}
	return p.send(ctx, p.documents, envelope{eventType: event.EventType, key: event.RequestID, body: event})
}

// envelope is an event before encoding.
type envelope struct {
	eventType string
	key       string
	body      any
}

func (e envelope) message(principal string) (kafka.Message, error) {
	value, err := json.Marshal(e.body)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s event: %w", e.eventType, err)
	}
	return kafka.Message{
		Key:   []byte(e.key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(e.eventType)},
			{Key: "principal", Value: []byte(principal)},
		},
	}, nil
}

func (p *Publisher) send(ctx context.Context, s stream, env envelope) (err error) {
	start := time.Now()
	logger := log.With().Str("topic", s.topic).Str("key", env.key).Logger()

	msg, err := env.message(p.principal)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal event")
		return err
	}
	logger.Debug().Str("principal", p.principal).RawJSON("payload", msg.Value).Msg("Publishing event")

	defer func() {
		p.metrics.RecordKafkaPublish(s.topic, env.eventType, err, time.Since(start).Seconds())
	}()

	if s.writer == nil {
		return nil
	}
	if err = s.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Msg("Failed to write to Kafka")
	}
	return err
}

// Close flushes and closes both writers.
func (p *Publisher) Close() error {
	err := errors.Join(p.transcripts.close(), p.documents.close())
	if err != nil {
		log.Error().Err(err).Msg("Error closing Kafka writers")
	}
	return err
}
