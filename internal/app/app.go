package app

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"voice-notes-service/internal/config"
	"voice-notes-service/internal/observability/logging"
)

// ErrDraining is reported by Ready once shutdown has begun.
var ErrDraining = errors.New("service is shutting down")

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	started  atomic.Bool
	draining atomic.Bool
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	appLogger.Info().Msg("Voice notes service application created")
	return a
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger() {
	logCfg := logging.DefaultConfig()
	logCfg.Level = a.Cfg.Observability.LogLevel
	logCfg.Format = a.Cfg.Observability.LogFormat
	if a.Cfg.Service.Env == "dev" {
		logCfg.Format = "console"
	}
	logging.Init(logCfg)

	a.Logger = logging.WithComponent("application")

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", a.Cfg.Service.Env).
		Msg("Logger setup completed")
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	a.started.Store(true)
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Str("sttProvider", a.Cfg.STT.Provider).
		Str("publishProvider", a.Cfg.Publish.Provider).
		Msg("Voice notes service starting")

	return nil
}

// Ready reports whether the service should receive traffic.
func (a *Application) Ready() error {
	if a.draining.Load() {
		return ErrDraining
	}
	if !a.started.Load() {
		return errors.New("service is starting")
	}
	return nil
}

// Uptime returns how long the service has been running.
func (a *Application) Uptime() time.Duration {
	if !a.started.Load() {
		return 0
	}
	return time.Since(a.StartupTime)
}

// Shutdown marks the service as draining so readiness checks fail while
// in-flight requests complete.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	a.draining.Store(true)
	shutdownLogger.Info().
		Dur("uptime", a.Uptime()).
		Msg("Voice notes service shutting down")
}
