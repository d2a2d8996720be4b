// Package server wires the configured backends into the running services
// shared by the API handlers.
package server

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/loupe-search/loupe/internal/config"
	"github.com/loupe-search/loupe/internal/db"
	"github.com/loupe-search/loupe/pkg/ai"
	"github.com/loupe-search/loupe/pkg/ai/bedrock"
	"github.com/loupe-search/loupe/pkg/ai/mock"
	"github.com/loupe-search/loupe/pkg/ai/ollama"
	"github.com/loupe-search/loupe/pkg/blob"
	"github.com/loupe-search/loupe/pkg/ingest"
	"github.com/loupe-search/loupe/pkg/kafka"
	"github.com/loupe-search/loupe/pkg/reindex"
	"github.com/loupe-search/loupe/pkg/search"
	bleveadapter "github.com/loupe-search/loupe/pkg/search/adapters/bleve"
	"github.com/loupe-search/loupe/pkg/suggest"
	"github.com/loupe-search/loupe/pkg/vision"
)

// Server holds the wired services the API handlers depend on.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// DB is the document store connection.
	DB *gorm.DB

	// Blobs stores raw uploaded bytes.
	Blobs blob.Store

	// Suggestions maintains the per-tenant suggestion index.
	Suggestions *suggest.Service

	// Ingest runs the ingestion pipeline.
	Ingest *ingest.Service

	// Search executes queries.
	Search *search.Service

	// Events publishes reindex events. Either the in-process orchestrator
	// or a Kafka producer, depending on configuration.
	Events reindex.Publisher

	// Orchestrator is the in-process reindex worker. Nil when Kafka is
	// enabled and a separate worker process consumes events.
	Orchestrator *reindex.Orchestrator

	// Fulltext is the embedded secondary full-text index. Nil when
	// disabled.
	Fulltext *bleveadapter.Adapter

	// Logger is the logger for the server.
	Logger hclog.Logger

	kafkaPublisher *kafka.Publisher
}

// Build connects to the configured backends and wires the services.
func Build(ctx context.Context, cfg *config.Config, logger hclog.Logger) (*Server, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	gormDB, err := db.NewDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	blobs, err := buildBlobStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building blob store: %w", err)
	}

	embeddings, err := buildEmbeddings(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building embedding client: %w", err)
	}

	suggestions := suggest.NewService(buildSuggestStore(cfg), logger)

	var fulltext *bleveadapter.Adapter
	if cfg.Fulltext.Enabled {
		fulltext, err = bleveadapter.NewAdapter(&bleveadapter.Config{
			IndexPath: cfg.Fulltext.IndexPath,
		})
		if err != nil {
			return nil, fmt.Errorf("opening full-text index: %w", err)
		}
	}

	srv := &Server{
		Config:      cfg,
		DB:          gormDB,
		Blobs:       blobs,
		Suggestions: suggestions,
		Fulltext:    fulltext,
		Logger:      logger,
	}

	if cfg.Kafka.Enabled {
		publisher, err := kafka.NewPublisher(&cfg.Kafka, logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		srv.kafkaPublisher = publisher
		srv.Events = publisher
	} else {
		orchestratorCfg := reindex.Config{
			DB:          gormDB,
			Embeddings:  embeddings,
			Suggestions: suggestions,
			Logger:      logger,
		}
		if fulltext != nil {
			orchestratorCfg.Fulltext = fulltext
		}
		orchestrator, err := reindex.NewOrchestrator(orchestratorCfg)
		if err != nil {
			return nil, fmt.Errorf("creating reindex orchestrator: %w", err)
		}
		srv.Orchestrator = orchestrator
		srv.Events = orchestrator.Publisher()
	}

	ingestCfg := ingest.Config{
		DB:          gormDB,
		Blobs:       blobs,
		Suggestions: suggestions,
		Embeddings:  embeddings,
		Vision:      buildVision(cfg, embeddings, logger),
		Events:      srv.Events,
		Logger:      logger,
	}
	if fulltext != nil {
		ingestCfg.Fulltext = fulltext
	}
	ingestSvc, err := ingest.NewService(ingestCfg)
	if err != nil {
		return nil, fmt.Errorf("creating ingest service: %w", err)
	}
	srv.Ingest = ingestSvc

	srv.Search = search.NewService(
		search.NewGormSource(gormDB), embeddings, buildSearchConfig(cfg), logger)

	return srv, nil
}

// Close releases the long-lived resources: waits for in-flight reindex
// tasks, then closes the Kafka producer and the full-text index.
func (s *Server) Close() {
	if s.Orchestrator != nil {
		s.Orchestrator.Wait()
	}
	if s.kafkaPublisher != nil {
		s.kafkaPublisher.Close()
	}
	if s.Fulltext != nil {
		if err := s.Fulltext.Close(); err != nil {
			s.Logger.Warn("closing full-text index", "error", err)
		}
	}
}

func buildBlobStore(ctx context.Context, cfg *config.Config, logger hclog.Logger) (blob.Store, error) {
	switch cfg.Blob.Backend {
	case "local":
		return blob.NewLocalStore(cfg.Blob.Dir)
	case "s3":
		return blob.NewS3Store(ctx, cfg.Blob.S3, logger)
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", cfg.Blob.Backend)
	}
}

// buildEmbeddings selects the embedding provider. An unset provider yields
// a client with no provider, which disables the semantic search path.
func buildEmbeddings(ctx context.Context, cfg *config.Config, logger hclog.Logger) (*ai.Client, error) {
	var provider ai.EmbeddingProvider

	switch cfg.Embeddings.Provider {
	case "":
		// Semantic path disabled.

	case "ollama":
		p, err := ollama.NewProvider(&ollama.Config{
			BaseURL:        cfg.Embeddings.BaseURL,
			EmbeddingModel: cfg.Embeddings.Model,
			Dimensions:     cfg.Embeddings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		provider = p

	case "bedrock":
		p, err := bedrock.NewProvider(ctx, &bedrock.Config{
			Region:         cfg.Embeddings.Region,
			EmbeddingModel: cfg.Embeddings.Model,
			Dimensions:     cfg.Embeddings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		provider = p

	case "mock":
		p := mock.NewProvider()
		if cfg.Embeddings.Dimensions > 0 {
			p = p.WithDimensions(cfg.Embeddings.Dimensions)
		}
		provider = p

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embeddings.Provider)
	}

	return ai.NewClient(provider, logger), nil
}

func buildSuggestStore(cfg *config.Config) suggest.Store {
	if cfg.Redis.Addr == "" {
		return suggest.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return suggest.NewRedisStore(client, "")
}

func buildVision(cfg *config.Config, embeddings *ai.Client, logger hclog.Logger) *vision.Processor {
	if !cfg.Vision.Enabled {
		return nil
	}
	provider, err := vision.NewOllamaProvider(&vision.OllamaConfig{
		BaseURL: cfg.Vision.BaseURL,
		Model:   cfg.Vision.Model,
	})
	if err != nil {
		logger.Warn("vision provider unavailable, image enrichment disabled", "error", err)
		return nil
	}
	return vision.NewProcessor(provider, nil, embeddings, logger)
}

func buildSearchConfig(cfg *config.Config) search.Config {
	sc := search.DefaultConfig()
	if cfg.Search.SemanticDocumentThreshold > 0 {
		sc.SemanticDocumentThreshold = cfg.Search.SemanticDocumentThreshold
	}
	if cfg.Search.SemanticChunkThreshold > 0 {
		sc.SemanticChunkThreshold = cfg.Search.SemanticChunkThreshold
	}
	if cfg.Search.HybridSemanticWeight > 0 {
		sc.HybridSemanticWeight = cfg.Search.HybridSemanticWeight
	}
	if cfg.Search.HybridKeywordWeight > 0 {
		sc.HybridKeywordWeight = cfg.Search.HybridKeywordWeight
	}
	return sc
}
