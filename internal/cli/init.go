// Package cli provides the initialization shared by cmd/bilancio and
// cmd/bilancio-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/backend"
	"bilancio/internal/config"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads the configuration file and environment and
// validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// App wires the configured store to the ledger and report services.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Store   ledger.Store
	Ledger  *services.LedgerService
	Reports *services.ReportService
}

// NewApp opens the configured backend. events may be nil.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger, events services.EventPublisher) (*App, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	reports := services.NewReportService(result.Store, cfg.ForecastMonths, cfg.ReportCacheTTL, logger)
	ledgerSvc := services.NewLedgerService(result.Store, events, logger)
	ledgerSvc.OnChange(reports.Invalidate)

	logger.Info("Ledger ready",
		log.FieldBackend, cfg.DataBackend,
		log.FieldHorizon, reports.Horizon())

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   result.Store,
		Ledger:  ledgerSvc,
		Reports: reports,
	}, nil
}

// Pinger returns the store as a readiness probe when it supports one.
func (a *App) Pinger() backend.Pinger {
	if p, ok := a.Store.(backend.Pinger); ok {
		return p
	}
	return nil
}

// Close releases the store and the event publisher.
func (a *App) Close() error {
	return a.Ledger.Close()
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
