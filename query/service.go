package query

import (
	"context"
	"fmt"
	"strings"

	"webrag/pkg/embedding"
	"webrag/repository"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const (
	DefaultTopK = 3

	// FallbackAnswer is returned without calling the model when the index
	// has nothing relevant.
	FallbackAnswer = "I could not find any relevant information in the knowledge base."

	systemPrompt = "You are a helpful AI assistant. Answer the user's question based ONLY " +
		"on the context provided. If the context does not contain the answer, state that " +
		"you cannot answer the question with the given information."

	contextDelimiter = "\n---\n"
)

// Result carries the model's answer plus the retrieved chunks it was
// grounded in, in descending score order, so callers can show provenance.
type Result struct {
	Answer  string                  `json:"answer"`
	Context []repository.ChunkMatch `json:"context"`
}

// Service answers questions from indexed content. Each call is stateless.
type Service struct {
	embedder embedding.Client
	vectors  repository.ChunkVectorRepo
	model    llms.Model
	logger   *zap.Logger
}

func NewService(embedder embedding.Client, vectors repository.ChunkVectorRepo,
	model llms.Model, logger *zap.Logger) *Service {
	return &Service{
		embedder: embedder,
		vectors:  vectors,
		model:    model,
		logger:   logger,
	}
}

func (s *Service) Answer(ctx context.Context, question string, topK uint64) (*Result, error) {
	if topK == 0 {
		topK = DefaultTopK
	}

	vectors, err := s.embedder.GetEmbeddings(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding for question, got %d", len(vectors))
	}

	matches, err := s.vectors.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	if len(matches) == 0 {
		return &Result{
			Answer:  FallbackAnswer,
			Context: []repository.ChunkMatch{},
		}, nil
	}

	answer, err := s.generate(ctx, question, matches)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &Result{
		Answer:  answer,
		Context: matches,
	}, nil
}

func (s *Service) generate(ctx context.Context, question string, matches []repository.ChunkMatch) (string, error) {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	contextBlock := strings.Join(texts, contextDelimiter)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION:\n%s", contextBlock, question)),
			},
		},
	}

	response, err := s.model.GenerateContent(ctx, content)
	if err != nil {
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", fmt.Errorf("model returned no choices")
	}

	s.logger.Info("grounded answer generated",
		zap.Int("context_chunks", len(matches)),
		zap.Int("answer_length", len(response.Choices[0].Content)))

	return response.Choices[0].Content, nil
}
