package main

import (
	"os"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the audit worker")
		return 1
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backend := cli.OpenStore(ctx, logger, cfg)
	defer backend.Cleanup()

	client := cli.ConnectAMQP(logger, cfg)
	if client == nil {
		return 1
	}
	defer client.Close()

	auditWorker := worker.NewAuditWorker(backend.Store, logger)
	if err := auditWorker.Run(ctx, client); err != nil {
		logger.Error("Audit worker failed", applog.FieldError, err)
		return 1
	}
	logger.Info("Worker stopped gracefully")
	return 0
}
