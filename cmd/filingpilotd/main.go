package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicgate/filingpilot/internal/config"
	"github.com/civicgate/filingpilot/internal/documents"
	"github.com/civicgate/filingpilot/internal/logging"
	"github.com/civicgate/filingpilot/internal/monitoring"
	"github.com/civicgate/filingpilot/internal/server"
	"github.com/civicgate/filingpilot/internal/taxonomy"
	"github.com/civicgate/filingpilot/internal/workflow"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadOrDefault()

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	metrics := monitoring.New(nil)
	finalizer := documents.New(cfg.Documents)

	var validator workflow.Validator
	if cfg.Taxonomy.Enabled && cfg.Taxonomy.Address != "" {
		validator = taxonomy.New(cfg.Taxonomy)
	}

	orchestrator := workflow.New(cfg, logger, metrics, finalizer, validator)
	srv := server.New(cfg.Server, orchestrator, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errChan:
		if err != nil {
			logger.Fatal("server", zap.Error(err))
		}
	}
}
