package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"webrag/ingest"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// JobHandler processes one delivered ingestion job.
type JobHandler func(ctx context.Context, job ingest.Job) error

type Consumer struct {
	reader *kafka.Reader
	logger *zap.Logger
}

func NewConsumer(url, topic, groupID string, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{url},
		Topic:   topic,
		GroupID: groupID,
	})
	return &Consumer{
		reader: reader,
		logger: logger,
	}
}

// Run fetches jobs until ctx is cancelled. Messages are committed only after
// the handler returns, so delivery is at-least-once: a crash mid-handling
// redelivers the job to another consumer.
func (c *Consumer) Run(ctx context.Context, handle JobHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		var job ingest.Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			// A malformed message can never succeed; log and commit so it
			// does not wedge the partition.
			c.logger.Error("dropping malformed job message",
				zap.ByteString("value", msg.Value),
				zap.Error(err))
		} else if err := handle(ctx, job); err != nil {
			// A handler error means the document row itself could not be
			// loaded or written; redelivering the same job cannot repair
			// that, so log and commit rather than wedge the partition.
			c.logger.Error("job handler failed",
				zap.String("document_id", job.DocumentID),
				zap.String("url", job.URL),
				zap.Error(err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit message: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
