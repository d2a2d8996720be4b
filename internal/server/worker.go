package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/loupe-search/loupe/internal/config"
	"github.com/loupe-search/loupe/internal/db"
	"github.com/loupe-search/loupe/pkg/kafka"
	"github.com/loupe-search/loupe/pkg/reindex"
	bleveadapter "github.com/loupe-search/loupe/pkg/search/adapters/bleve"
	"github.com/loupe-search/loupe/pkg/suggest"
)

// Worker is the background reindex process: a Kafka consumer feeding the
// orchestrator.
type Worker struct {
	Orchestrator *reindex.Orchestrator
	Consumer     *kafka.Consumer

	fulltext *bleveadapter.Adapter
	logger   hclog.Logger
}

// BuildWorker wires the reindex orchestrator and its event consumer for the
// worker binary.
func BuildWorker(ctx context.Context, cfg *config.Config, logger hclog.Logger) (*Worker, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	gormDB, err := db.NewDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	embeddings, err := buildEmbeddings(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building embedding client: %w", err)
	}

	suggestions := suggest.NewService(buildSuggestStore(cfg), logger)

	orchestratorCfg := reindex.Config{
		DB:          gormDB,
		Embeddings:  embeddings,
		Suggestions: suggestions,
		Logger:      logger,
	}

	var fulltext *bleveadapter.Adapter
	if cfg.Fulltext.Enabled {
		fulltext, err = bleveadapter.NewAdapter(&bleveadapter.Config{
			IndexPath: cfg.Fulltext.IndexPath,
		})
		if err != nil {
			return nil, fmt.Errorf("opening full-text index: %w", err)
		}
		orchestratorCfg.Fulltext = fulltext
	}

	orchestrator, err := reindex.NewOrchestrator(orchestratorCfg)
	if err != nil {
		return nil, fmt.Errorf("creating reindex orchestrator: %w", err)
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Kafka:   &cfg.Kafka,
		Handler: orchestrator,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka consumer: %w", err)
	}

	return &Worker{
		Orchestrator: orchestrator,
		Consumer:     consumer,
		fulltext:     fulltext,
		logger:       logger,
	}, nil
}

// Run consumes events until the context is cancelled, then drains in-flight
// reindex tasks.
func (w *Worker) Run(ctx context.Context) error {
	err := w.Consumer.Start(ctx)
	w.logger.Info("draining in-flight reindex tasks")
	w.Orchestrator.Wait()
	if w.fulltext != nil {
		if closeErr := w.fulltext.Close(); closeErr != nil {
			w.logger.Warn("closing full-text index", "error", closeErr)
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
