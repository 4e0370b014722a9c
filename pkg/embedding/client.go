package embedding

import "context"

type EmbeddingRequest struct {
	Inputs []string `json:"inputs"`
}

type EmbeddingResponse [][]float32

type Client interface {
	// GetEmbeddings returns one vector per input text. Output length and
	// order match the input.
	GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension reports the fixed vector size the model produces. It must
	// match the vector collection's configured size.
	Dimension(ctx context.Context) (uint64, error)
}
