package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"github.com/loupe-search/loupe/internal/config"
	"github.com/loupe-search/loupe/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		hclog.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "loupe-reindexer",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	worker, err := server.BuildWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build worker", "error", err)
		os.Exit(1)
	}

	logger.Info("starting loupe-reindexer",
		"brokers", cfg.Kafka.GetBrokers(),
		"topic", cfg.Kafka.GetTopic(),
		"group", cfg.Kafka.GetConsumerGroup())

	if err := worker.Run(ctx); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}

	logger.Info("loupe-reindexer stopped gracefully")
}
