package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerport/internal/api"
	"ledgerport/internal/commerce"
	"ledgerport/internal/config"
	"ledgerport/internal/core"
	"ledgerport/internal/delivery"
	"ledgerport/internal/logging"
	"ledgerport/internal/regime"
	"ledgerport/internal/store"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	baseCtx := context.Background()
	storeInst, err := store.Open(baseCtx, cfg.StateDir)
	if err != nil {
		logger.Error("open store", "err", err)
		os.Exit(1)
	}
	defer storeInst.DB.Close()

	location := time.Local
	if cfg.UseUTC {
		location = time.UTC
	}

	provider := commerce.NewRESTProvider(cfg.Commerce.BaseURL, cfg.Commerce.Token, cfg.Commerce.Timeout)
	registry := regime.NewRegistry()
	orch := core.NewOrchestrator(storeInst, provider, registry, logger)
	channels := delivery.NewFactory(delivery.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
	worker := core.NewWorker(storeInst, orch, channels, logger, location, cfg.Worker.PollInterval, cfg.Worker.Concurrency)

	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	server := api.NewServer(cfg.Server.Addr, cfg.Server.AuthToken, storeInst, orch, worker, channels, logger, location)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info("received signal", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "err", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "err", err)
	}

	cancel()
	select {
	case <-workerDone:
	case <-time.After(cfg.ShutdownGrace):
		logger.Warn("worker stop timed out")
	}
	logger.Info("shutdown complete")
}
