// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_notes"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionsActive    prometheus.Gauge
	SessionsFinalized prometheus.Counter
	SessionsDiscarded prometheus.Counter

	// Segment metrics
	SegmentsAppended   prometheus.Counter
	SegmentsRejected   *prometheus.CounterVec
	AudioBytesReceived prometheus.Counter

	// Pipeline metrics
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	SegmentsFailed   *prometheus.CounterVec

	// STT metrics
	STTCalls   *prometheus.CounterVec
	STTLatency *prometheus.HistogramVec
	STTRetries *prometheus.CounterVec

	// Document publish metrics
	PublishTotal   *prometheus.CounterVec
	PublishLatency *prometheus.HistogramVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Session metrics
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of recording sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently holding audio",
		}),
		SessionsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finalized_total",
			Help:      "Total number of sessions finalized for transcription",
		}),
		SessionsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_discarded_total",
			Help:      "Total number of sessions whose audio was discarded",
		}),

		// Segment metrics
		SegmentsAppended: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_appended_total",
			Help:      "Total number of audio segments appended",
		}),
		SegmentsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_rejected_total",
			Help:      "Total number of audio segments rejected on append",
		}, []string{"reason"}),
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),

		// Pipeline metrics
		PipelineRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of transcription pipeline runs by outcome",
		}, []string{"outcome"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of transcription pipeline runs in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		SegmentsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_failed_total",
			Help:      "Total number of segments left out of a transcript",
		}, []string{"provider", "kind"}),

		// STT metrics
		STTCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_calls_total",
			Help:      "Total number of speech-to-text provider calls by outcome",
		}, []string{"provider", "outcome"}),
		STTLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Speech-to-text call latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),
		STTRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_retries_total",
			Help:      "Total number of retried speech-to-text calls",
		}, []string{"provider"}),

		// Document publish metrics
		PublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_publish_total",
			Help:      "Total number of document publish attempts by outcome",
		}, []string{"destination", "outcome"}),
		PublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_publish_latency_seconds",
			Help:      "Document publish latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"destination"}),

		// Kafka publish metrics
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP API requests",
		}, []string{"method", "route", "status"}),
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordSessionStart records a new session.
func (m *Metrics) RecordSessionStart() {
	m.SessionsStarted.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionFinalized records a session handed to the pipeline.
func (m *Metrics) RecordSessionFinalized() {
	m.SessionsFinalized.Inc()
}

// RecordSessionDiscarded records a session whose audio was released.
func (m *Metrics) RecordSessionDiscarded() {
	m.SessionsDiscarded.Inc()
	m.SessionsActive.Dec()
}

// RecordSegmentAppended records an accepted segment.
func (m *Metrics) RecordSegmentAppended(bytes int) {
	m.SegmentsAppended.Inc()
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordSegmentRejected records a segment refused on append.
func (m *Metrics) RecordSegmentRejected(reason string) {
	m.SegmentsRejected.WithLabelValues(reason).Inc()
}

// RecordPipelineRun records a finished pipeline run.
// Outcome is one of success, partial, total_failure, cancelled, empty_input.
func (m *Metrics) RecordPipelineRun(outcome string, durationSeconds float64) {
	m.PipelineRuns.WithLabelValues(outcome).Inc()
	m.PipelineDuration.Observe(durationSeconds)
}

// RecordSegmentFailed records a segment that did not contribute text.
func (m *Metrics) RecordSegmentFailed(provider, kind string) {
	m.SegmentsFailed.WithLabelValues(provider, kind).Inc()
}

// RecordSTTCall records one provider call.
func (m *Metrics) RecordSTTCall(provider, outcome string, latencySeconds float64) {
	m.STTCalls.WithLabelValues(provider, outcome).Inc()
	m.STTLatency.WithLabelValues(provider).Observe(latencySeconds)
}

// RecordSTTRetry records a retried provider call.
func (m *Metrics) RecordSTTRetry(provider string) {
	m.STTRetries.WithLabelValues(provider).Inc()
}

// RecordPublish records a document publish attempt.
func (m *Metrics) RecordPublish(destination, outcome string, latencySeconds float64) {
	m.PublishTotal.WithLabelValues(destination, outcome).Inc()
	m.PublishLatency.WithLabelValues(destination).Observe(latencySeconds)
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHTTPRequest records a served API request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(durationSeconds)
}
