package ingest

import (
	"context"
	"fmt"

	"webrag/pkg/embedding"
	"webrag/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const embedBatchSize = 32

// Pipeline drives one ingestion job through
// scrape -> chunk -> embed -> index and persists the document lifecycle
// PENDING -> PROCESSING -> COMPLETED|FAILED around it.
type Pipeline struct {
	docs         repository.DocumentRepo
	vectors      repository.ChunkVectorRepo
	scraper      Scraper
	embedder     embedding.Client
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

func NewPipeline(docs repository.DocumentRepo, vectors repository.ChunkVectorRepo,
	scraper Scraper, embedder embedding.Client, chunkSize, chunkOverlap int,
	logger *zap.Logger) (*Pipeline, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("invalid chunking config: size=%d overlap=%d", chunkSize, chunkOverlap)
	}
	return &Pipeline{
		docs:         docs,
		vectors:      vectors,
		scraper:      scraper,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}, nil
}

// Run executes the pipeline for one job. It returns an error only when the
// document cannot be loaded: the caller created the row before dispatching,
// so a missing row is a precondition violation with nothing to update and is
// left to the queue runtime's failure policy. Every failure after the load is
// recorded on the document as FAILED and swallowed, because the run is
// detached from any request and an escaped error would strand the row in
// PROCESSING.
func (p *Pipeline) Run(ctx context.Context, documentID, url string) error {
	logger := p.logger.With(zap.String("document_id", documentID), zap.String("url", url))

	doc, err := p.docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	// Queue delivery is at-least-once. A document already in a terminal
	// state was fully handled by an earlier delivery; re-running it would
	// revisit PROCESSING and double-index its chunks.
	if doc.Status == repository.StatusCompleted || doc.Status == repository.StatusFailed {
		logger.Info("skipping redelivered job for terminal document",
			zap.String("status", string(doc.Status)))
		return nil
	}

	// Persist PROCESSING before any network I/O so status polls see the job
	// as in flight.
	if err := p.docs.UpdateStatus(ctx, doc.ID, repository.StatusProcessing); err != nil {
		p.markFailed(ctx, doc.ID, fmt.Sprintf("status update to PROCESSING failed: %v", err), logger)
		return fmt.Errorf("mark document %s processing: %w", doc.ID, err)
	}

	if err := p.process(ctx, doc.ID, url, logger); err != nil {
		logger.Error("ingestion failed", zap.Error(err))
		p.markFailed(ctx, doc.ID, err.Error(), logger)
		return nil
	}

	if err := p.docs.UpdateStatus(ctx, doc.ID, repository.StatusCompleted); err != nil {
		p.markFailed(ctx, doc.ID, fmt.Sprintf("status update to COMPLETED failed: %v", err), logger)
		return fmt.Errorf("mark document %s completed: %w", doc.ID, err)
	}
	logger.Info("ingestion completed")
	return nil
}

// markFailed records the failure best effort. A row left without a FAILED
// marker is stuck in a non-terminal state with no operator-visible cause, so
// this is attempted even when the store just failed another write.
func (p *Pipeline) markFailed(ctx context.Context, id, message string, logger *zap.Logger) {
	if err := p.docs.MarkFailed(ctx, id, message); err != nil {
		logger.Error("failed to record failure", zap.Error(err))
	}
}

func (p *Pipeline) process(ctx context.Context, documentID, url string, logger *zap.Logger) error {
	content, err := p.scraper.FetchAndExtract(ctx, url)
	if err != nil {
		return fmt.Errorf("content extraction: %w", err)
	}

	chunks, err := Chunk(content, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("content extraction: no usable content at %s", url)
	}
	logger.Info("text chunked", zap.Int("chunks", len(chunks)))

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}

	points := make([]repository.ChunkPoint, len(chunks))
	for i, chunk := range chunks {
		points[i] = repository.ChunkPoint{
			ID:         uuid.NewString(),
			Vector:     vectors[i],
			Text:       chunk,
			DocumentID: documentID,
			URL:        url,
		}
	}
	if err := p.vectors.Upsert(ctx, points); err != nil {
		return fmt.Errorf("vector upsert: %w", err)
	}
	logger.Info("points upserted", zap.Int("points", len(points)))
	return nil
}

// embedChunks embeds in fixed-size batches. Output must stay positionally
// aligned with the input: payload text and vector are joined by index.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]
		embeddings, err := p.embedder.GetEmbeddings(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch [%d:%d]: %w", i, end, err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("batch [%d:%d]: got %d embeddings for %d inputs", i, end, len(embeddings), len(batch))
		}
		vectors = append(vectors, embeddings...)
	}
	return vectors, nil
}
