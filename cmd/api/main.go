package main

import (
	"context"
	"log"

	"webrag/api"
	"webrag/config"
	"webrag/pkg/embedding"
	"webrag/pkg/kafka"
	"webrag/pkg/postgres"
	qdrantClient "webrag/pkg/qdrantdb"
	"webrag/query"

	"github.com/tmc/langchaingo/llms/openai"
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
	// Kafka dispatcher
	// =========
	dispatcher, err := kafka.NewPublisher(cfg.KafkaURL, cfg.KafkaTopic)
	if err != nil {
		log.Fatalf("Failed to initialize Kafka publisher: %v", err)
	}
	defer dispatcher.Close()

	// =========
	// Groq generative model
	// =========
	model, err := openai.New(
		openai.WithBaseURL(cfg.GroqBaseURL),
		openai.WithToken(cfg.GroqAPIKey),
		openai.WithModel(cfg.GroqModel),
	)
	if err != nil {
		log.Fatalf("Failed to initialize generative model client: %v", err)
	}

	// =========
	// Query Service
	// =========
	querySvc := query.NewService(embeddingClient, qdb, model, logger)

	// =========
	// API server
	// =========
	server := api.NewServer(db, dispatcher, querySvc, logger, cfg.AppPort)
	if err := server.Start(); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
}
