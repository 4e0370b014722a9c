package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"webrag/config"
	"webrag/ingest"
	"webrag/pkg/embedding"
	"webrag/pkg/kafka"
	"webrag/pkg/postgres"
	qdrantClient "webrag/pkg/qdrantdb"
	"webrag/scrape"

	"go.uber.org/zap"
)

func main() {
	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// Postgres document store
	// =========
	db, err := postgres.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize Postgres: %v", err)
	}
	defer db.Close()

	// =========
	// Embedding Client
	// =========
	embeddingClient := embedding.NewAllMinilmL6V2(cfg.EmbeddingURL)
	dimension, err := embeddingClient.Dimension(context.Background())
	if err != nil {
		log.Fatalf("Failed to resolve embedding dimension: %v", err)
	}

	// =========
	// Qdrant vector
	// =========
	qdb, err := qdrantClient.NewClient(cfg.QdrantHost, cfg.QdrantPort)
	if err != nil {
		log.Fatalf("Failed to initialize Qdrant: %v", err)
	}
	if err := qdb.EnsureCollection(context.Background(), dimension); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}

	// =========
	// Ingestion Pipeline
	// =========
	scraper := scrape.NewScraper(logger)
	pipeline, err := ingest.NewPipeline(db, qdb, scraper, embeddingClient,
		ingest.DefaultChunkSize, ingest.DefaultChunkOverlap, logger)
	if err != nil {
		log.Fatalf("Failed to create ingestion pipeline: %v", err)
	}

	// =========
	// Kafka consumer
	// =========
	consumer := kafka.NewConsumer(cfg.KafkaURL, cfg.KafkaTopic, cfg.KafkaGroupID, logger)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started",
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group_id", cfg.KafkaGroupID))

	err = consumer.Run(ctx, func(ctx context.Context, job ingest.Job) error {
		return pipeline.Run(ctx, job.DocumentID, job.URL)
	})
	if err != nil {
		logger.Fatal("consumer stopped", zap.Error(err))
	}
	logger.Info("worker shut down")
}
