package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"voice-notes-service/internal/app"
	"voice-notes-service/internal/config"
	"voice-notes-service/internal/events"
	httpapi "voice-notes-service/internal/http"
	"voice-notes-service/internal/observability"
	"voice-notes-service/internal/observability/logging"
	"voice-notes-service/internal/service/notes"
	"voice-notes-service/internal/service/pipeline"
	"voice-notes-service/internal/service/publish"
	publishmock "voice-notes-service/internal/service/publish/mock"
	"voice-notes-service/internal/service/publish/notion"
	"voice-notes-service/internal/service/stt"
	"voice-notes-service/internal/service/stt/gemini"
	"voice-notes-service/internal/service/stt/google"
	sttmock "voice-notes-service/internal/service/stt/mock"
	"voice-notes-service/internal/service/stt/openai"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	application := app.New(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Str("environment", cfg.Service.Env).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, closeClient, err := newSTTClient(ctx, cfg.STT)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.STT.Provider).Msg("Failed to create STT client")
	}
	defer closeClient()

	publisher, err := newPublisher(cfg.Publish)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Publish.Provider).Msg("Failed to create document publisher")
	}

	// Kafka publisher for transcript and document events
	eventPublisher := events.New(&events.Config{
		Enabled:          cfg.Kafka.Enabled,
		Brokers:          cfg.Kafka.Brokers,
		TopicTranscripts: cfg.Kafka.TopicTranscripts,
		TopicDocuments:   cfg.Kafka.TopicDocuments,
		Principal:        cfg.Kafka.Principal,
	})
	defer eventPublisher.Close()

	p := pipeline.New(client, pipeline.Config{
		Concurrency:  cfg.Pipeline.Concurrency,
		MaxRetries:   cfg.Pipeline.MaxRetries,
		RetryBackoff: cfg.Pipeline.RetryBackoff,
		CallTimeout:  cfg.Pipeline.CallTimeout,
	})

	svc := notes.NewWithLimits(p, publisher, eventPublisher, notes.Limits{
		MaxSegmentBytes: cfg.SessionLimits.MaxSegmentBytes,
		MaxSegments:     cfg.SessionLimits.MaxSegments,
		MaxDuration:     cfg.SessionLimits.MaxDuration,
		RetainAudio:     cfg.SessionLimits.RetainAudio,
	})

	routerOpts := httpapi.DefaultOptions()
	routerOpts.Logger = logging.WithComponent("http")
	routerOpts.MaxSegmentBytes = cfg.SessionLimits.MaxSegmentBytes
	routerOpts.Ready = application.Ready

	server := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(svc, routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	obs := observability.NewServer(":"+cfg.Service.MetricsPort, application.Ready)
	obs.Start()

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Voice notes HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	application.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown failed")
	}
	log.Info().Int("activeSessions", svc.ActiveSessions()).Msg("Shutdown complete")
}

// newSTTClient builds the configured speech provider. The returned func
// releases its connections.
func newSTTClient(ctx context.Context, cfg config.STTConfig) (stt.Client, func(), error) {
	switch cfg.Provider {
	case "google":
		gcfg := google.DefaultConfig()
		gcfg.LanguageCode = cfg.LanguageCode
		gcfg.SampleRateHz = int32(cfg.SampleRateHz)
		gcfg.Model = cfg.Model
		client, err := google.New(ctx, gcfg)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	case "gemini":
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:       cfg.GeminiAPIKey,
			Model:        cfg.Model,
			LanguageCode: cfg.LanguageCode,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil, errors.New("OPENAI_API_KEY is required for the openai provider")
		}
		return openai.New(openai.Config{
			APIKey:   cfg.OpenAIAPIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    cfg.Model,
			Language: cfg.LanguageCode,
		}), func() {}, nil
	case "mock", "":
		log.Warn().Msg("Using mock STT provider")
		return sttmock.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STT provider %q", cfg.Provider)
	}
}

func newPublisher(cfg config.PublishConfig) (publish.Publisher, error) {
	switch cfg.Provider {
	case "notion":
		pub, err := notion.New(notion.Config{
			Token:         cfg.NotionToken,
			DatabaseID:    cfg.NotionDatabaseID,
			TitleProperty: cfg.NotionTitleProperty,
			Timeout:       cfg.Timeout,
		}, nil)
		if err != nil {
			return nil, err
		}
		return pub, nil
	case "mock", "":
		log.Warn().Msg("Using mock document publisher")
		return publishmock.New(), nil
	default:
		return nil, fmt.Errorf("unknown publish provider %q", cfg.Provider)
	}
}
