// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration.
type Config struct {
	Service       ServiceConfig
	STT           STTConfig
	Pipeline      PipelineConfig
	SessionLimits SessionLimits
	Publish       PublishConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds service identity and listener settings.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	MetricsPort string
	Env         string
}

// STTConfig holds speech-to-text provider settings.
type STTConfig struct {
	Provider      string // google, gemini, openai, mock
	LanguageCode  string
	SampleRateHz  int
	Model         string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
}

// PipelineConfig bounds a transcription run.
type PipelineConfig struct {
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
	CallTimeout  time.Duration
}

// SessionLimits bounds how much audio one recording session may hold.
type SessionLimits struct {
	MaxSegmentBytes int64
	MaxSegments     int
	MaxDuration     time.Duration
	RetainAudio     bool // keep audio for download after transcription
}

// PublishConfig holds document store settings.
type PublishConfig struct {
	Provider            string // notion, mock
	NotionToken         string
	NotionDatabaseID    string
	NotionTitleProperty string
	Timeout             time.Duration
}

// KafkaConfig holds event publisher settings.
type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	TopicTranscripts string
	TopicDocuments   string
	Principal        string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables.
// Unset or unparsable values fall back to defaults.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-voice-notes")

	return &Config{
		Service: ServiceConfig{
			Principal:   principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
			Env:         envOrDefault("ENV", "prod"),
		},
		STT: STTConfig{
			Provider:      envOrDefault("STT_PROVIDER", "mock"),
			LanguageCode:  envOrDefault("STT_LANGUAGE_CODE", "my-MM"),
			SampleRateHz:  envOrDefaultInt("STT_SAMPLE_RATE_HZ", 48000),
			Model:         envOrDefault("STT_MODEL", ""),
			OpenAIAPIKey:  envOrDefault("OPENAI_API_KEY", ""),
			OpenAIBaseURL: envOrDefault("OPENAI_BASE_URL", ""),
			GeminiAPIKey:  envOrDefault("GEMINI_API_KEY", ""),
		},
		Pipeline: PipelineConfig{
			Concurrency:  envOrDefaultInt("PIPELINE_CONCURRENCY", 4),
			MaxRetries:   envOrDefaultInt("PIPELINE_MAX_RETRIES", 2),
			RetryBackoff: envOrDefaultDuration("PIPELINE_RETRY_BACKOFF", 250*time.Millisecond),
			CallTimeout:  envOrDefaultDuration("PIPELINE_CALL_TIMEOUT", 30*time.Second),
		},
		SessionLimits: SessionLimits{
			MaxSegmentBytes: envOrDefaultInt64("SESSION_MAX_SEGMENT_BYTES", 10*1024*1024),
			MaxSegments:     envOrDefaultInt("SESSION_MAX_SEGMENTS", 360),
			MaxDuration:     envOrDefaultDuration("SESSION_MAX_DURATION", 2*time.Hour),
			RetainAudio:     envOrDefaultBool("SESSION_RETAIN_AUDIO", false),
		},
		Publish: PublishConfig{
			Provider:            envOrDefault("PUBLISH_PROVIDER", "mock"),
			NotionToken:         envOrDefault("NOTION_TOKEN", ""),
			NotionDatabaseID:    envOrDefault("NOTION_DATABASE_ID", ""),
			NotionTitleProperty: envOrDefault("NOTION_TITLE_PROPERTY", "Name"),
			Timeout:             envOrDefaultDuration("PUBLISH_TIMEOUT", 15*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:          envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:          envOrDefaultSlice("KAFKA_BROKERS", nil),
			TopicTranscripts: envOrDefault("KAFKA_TOPIC_TRANSCRIPTS", "notes.transcript.ready"),
			TopicDocuments:   envOrDefault("KAFKA_TOPIC_DOCUMENTS", "notes.document.published"),
			Principal:        envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

// Validate rejects configurations that must not serve traffic. Mock
// providers are only allowed outside production.
func (c *Config) Validate() error {
	if c.Service.Env != "prod" {
		return nil
	}
	var errs []error
	if c.STT.Provider == "mock" || c.STT.Provider == "" {
		errs = append(errs, errors.New("STT_PROVIDER must name a real provider when ENV=prod"))
	}
	if c.Publish.Provider == "mock" || c.Publish.Provider == "" {
		errs = append(errs, errors.New("PUBLISH_PROVIDER must name a real destination when ENV=prod"))
	}
	return errors.Join(errs...)
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding the environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envOrDefaultSlice splits a comma-separated value, dropping empty items.
func envOrDefaultSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
