package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort int

	DatabaseURL string

	KafkaURL     string
	KafkaTopic   string
	KafkaGroupID string

	QdrantHost string
	QdrantPort int

	EmbeddingURL string

	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string
}

func Load() (*Config, error) {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	appPort, err := strconv.Atoi(getEnv("APP_PORT"))
	if err != nil {
		return nil, err
	}
	qdrantPort, err := strconv.Atoi(getEnv("QDRANT_PORT"))
	if err != nil {
		return nil, err
	}

	return &Config{
		AppPort:      appPort,
		DatabaseURL:  getEnv("DATABASE_URL"),
		KafkaURL:     getEnv("KAFKA_URL"),
		KafkaTopic:   getEnvDefault("KAFKA_TOPIC", "ingestion-jobs"),
		KafkaGroupID: getEnvDefault("KAFKA_GROUP_ID", "webrag-workers"),
		QdrantHost:   getEnv("QDRANT_HOST"),
		QdrantPort:   qdrantPort,
		EmbeddingURL: getEnv("EMBEDDING_URL"),
		GroqAPIKey:   getEnv("GROQ_API_KEY"),
		GroqBaseURL:  getEnvDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:    getEnvDefault("GROQ_MODEL", "openai/gpt-oss-20b"),
	}, nil
}

func getEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required but not set", key)
	}
	return value
}

func getEnvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
