// Command bilancio-worker watches the ledger for budget overruns and keeps
// the spreadsheet export current.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/log"
	"bilancio/internal/sheets"
	gsheet "bilancio/internal/sheets/google"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg)
	logger.Info("Starting bilancio-worker", "interval", cfg.WorkerInterval.String())

	app, err := cli.NewApp(context.Background(), cfg, logger, nil)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err)
		os.Exit(1)
	}

	var exporter sheets.Exporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var (
		alerts     worker.AlertPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPAlertQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		alerts = amqpClient
	} else {
		logger.Info("AMQP disabled - budget alerts are only logged")
	}

	w := worker.NewAlertWorker(app.Reports, alerts, exporter, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err)
			}
		}
		if err := app.Close(); err != nil {
			logger.Error("Ledger close error", log.FieldError, err)
		}
	})

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeLedgerChanges(ctx, w.HandleLedgerChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	}

	go w.Start(ctx, cfg.WorkerInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
