package qdrantdb

import (
	"context"
	"fmt"

	"webrag/repository"

	"github.com/qdrant/go-client/qdrant"
)

const (
	ChunkCollectionName = "web_content"
)

func (c *ChunkClient) EnsureCollection(ctx context.Context, dimension uint64) error {
	exists, err := c.Client.CollectionExists(ctx, ChunkCollectionName)
	if err != nil {
		return err
	}
	if exists {
		// An existing collection is reused as-is; its size is not checked
		// against dimension.
		return nil
	}
	err = c.Client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: ChunkCollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("err create chunk collection: %w", err)
	}
	return nil
}

func (c *ChunkClient) Upsert(ctx context.Context, points []repository.ChunkPoint) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		md := map[string]any{
			"text":        p.Text,
			"document_id": p.DocumentID,
			"url":         p.URL,
		}
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectorsDense(p.Vector),
			Payload: qdrant.NewValueMap(md),
		}
	}

	_, err := c.Client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: ChunkCollectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("err upsert %d points: %w", len(points), err)
	}
	return nil
}

func (c *ChunkClient) Search(ctx context.Context, vector []float32, limit uint64) ([]repository.ChunkMatch, error) {
	resp, err := c.Client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: ChunkCollectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("err query chunk collection: %w", err)
	}

	matches := make([]repository.ChunkMatch, 0, len(resp))
	for _, point := range resp {
		payload := point.GetPayload()
		matches = append(matches, repository.ChunkMatch{
			Text:  payload["text"].GetStringValue(),
			URL:   payload["url"].GetStringValue(),
			Score: point.GetScore(),
		})
	}
	return matches, nil
}
