// Package cli holds the bootstrap shared by the costeapp subcommands:
// environment and config loading, logger setup, service wiring and
// signal-driven shutdown.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"costeapp/internal/amqp"
	"costeapp/internal/backend"
	"costeapp/internal/config"
	"costeapp/internal/log"
	"costeapp/internal/services"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads configuration from the optional TOML file (falling back
// to COSTEAPP_CONFIG) and the environment, then validates it.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(config.ConfigFileEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogFormat picks the handler: explicit LOG_FORMAT wins, otherwise tint in
// development and JSON everywhere else.
func LogFormat(cfg *config.Config) string {
	switch {
	case cfg.LogFormat != "":
		return cfg.LogFormat
	case cfg.Env == "development":
		return "tint"
	default:
		return "json"
	}
}

// SetupLogger builds the process logger and installs it as slog's default.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    LogFormat(cfg),
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// App is the wired service. Publisher is nil when events are disabled.
type App struct {
	Service   *services.FixedCostService
	Publisher *amqp.Client
}

// Close releases the publisher and the storage backend.
func (a *App) Close() error {
	if a.Service == nil {
		return nil
	}
	return a.Service.Close()
}

// OpenApp opens the configured backend and, when AMQP_URL is set, the event
// publisher. A broker that cannot be reached disables events; storage that
// cannot be opened is fatal.
func OpenApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", backendCfg.Type, err)
	}

	var publisher services.EventPublisher
	var client *amqp.Client
	if cfg.AMQPURL != "" {
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled",
				log.FieldOperation, log.OpStartup,
				log.FieldErrorType, log.ErrorTypeNetwork,
				log.FieldError, err)
			client = nil
		} else {
			publisher = client
		}
	}

	svc := services.NewFixedCostService(result.Repository, publisher, logger)
	return &App{Service: svc, Publisher: client}, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ShutdownTimeout bounds how long in-flight work may take after a signal.
const ShutdownTimeout = 30 * time.Second

// Shutdown runs stop with a fresh deadline and logs the outcome.
func Shutdown(logger *log.Logger, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
	if err := stop(ctx); err != nil {
		logger.Error("Shutdown failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		return
	}
	logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
}
