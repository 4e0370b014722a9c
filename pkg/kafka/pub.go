package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"webrag/ingest"

	"github.com/segmentio/kafka-go"
)

type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher creates a Kafka-backed ingest.Dispatcher writing to topic.
func NewPublisher(url, topic string) (*Publisher, error) {
	if url == "" {
		return nil, fmt.Errorf("kafka URL cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(url),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		Compression:  kafka.Snappy,
		Async:        false,
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}
	conn.Close()

	return &Publisher{
		writer: writer,
		topic:  topic,
	}, nil
}

// Enqueue publishes the job keyed by document id, so redeliveries and
// retries for one document land on the same partition.
func (p *Publisher) Enqueue(ctx context.Context, documentID, url string) error {
	job := ingest.Job{
		DocumentID: documentID,
		URL:        url,
	}
	msg, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(documentID),
		Value: msg,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish job to topic %s: %w", p.topic, err)
	}
	return nil
}

// Close gracefully closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
