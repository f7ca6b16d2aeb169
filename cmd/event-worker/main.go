package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/amandhiraj/financetracker/internal/amqp"
	"github.com/amandhiraj/financetracker/internal/cli"
	"github.com/amandhiraj/financetracker/internal/log"
	"github.com/amandhiraj/financetracker/internal/worker"
)

// event-worker consumes transaction events published by the web server and
// writes them to the structured log as an audit trail.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the event worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	events := worker.NewEventLogger(logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		_ = client.Close()
		logger.Info("Worker shutdown complete", log.FieldCount, events.Handled())
	})

	logger.Info("Starting event worker", "queue", cfg.AMQPQueue)
	if err := client.ConsumeTransactionEvents(ctx, events.HandleTransactionEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
