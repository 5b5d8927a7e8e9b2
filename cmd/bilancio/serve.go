package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	apphttp "bilancio/internal/http"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "Listen port (overrides PORT)")
	serveCmd.Flags().Int("rate-limit", 60, "Mutating requests allowed per client and minute")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Serve the ledger and its reports over HTTP. When AMQP_URL is set every
ledger change is announced on the exchange for bilancio-worker.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	port := cfg.Port
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	rateLimit, _ := cmd.Flags().GetInt("rate-limit")

	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPAlertQueue, logger)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		events = client
	} else {
		logger.Info("AMQP disabled - ledger changes are not announced")
	}

	app, err := openApp(cmd.Context(), events)
	if err != nil {
		return err
	}

	opts := apphttp.Options{RateLimit: rateLimit, Logger: logger}
	if p := app.Pinger(); p != nil {
		opts.Ready = p
	}
	srv := apphttp.NewServer(":"+port, app.Ledger, app.Reports, opts)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := app.Close(); err != nil {
			logger.Error("Ledger close error", log.FieldError, err)
		}
	})

	logger.Info("Starting bilancio server", "port", port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_ = app.Close()
		return fmt.Errorf("server on port %s: %w", port, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}
