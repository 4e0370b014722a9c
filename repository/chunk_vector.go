package repository

import "context"

// ChunkPoint is one (vector, payload) entry written to the vector index.
// The id is freshly generated per chunk and carries no chunk ordering.
type ChunkPoint struct {
	ID         string
	Vector     []float32
	Text       string
	DocumentID string
	URL        string
}

// ChunkMatch is a search hit, payload plus similarity score.
type ChunkMatch struct {
	Text  string  `json:"text"`
	URL   string  `json:"url"`
	Score float32 `json:"score"`
}

type ChunkVectorRepo interface {
	// EnsureCollection creates the collection sized to dimension with cosine
	// distance if it does not exist yet. An existing collection is left
	// untouched regardless of its configured size.
	EnsureCollection(ctx context.Context, dimension uint64) error
	// Upsert writes the batch; either all points become retrievable or the
	// call fails as a whole.
	Upsert(ctx context.Context, points []ChunkPoint) error
	// Search returns up to limit matches ordered by descending similarity.
	Search(ctx context.Context, vector []float32, limit uint64) ([]ChunkMatch, error)
}
