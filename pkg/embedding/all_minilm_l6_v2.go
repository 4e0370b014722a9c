package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// AllMinilmL6V2 talks to a text-embeddings-inference server running
// sentence-transformers/all-MiniLM-L6-v2.
type AllMinilmL6V2 struct {
	BaseURL    string
	HTTPClient *http.Client

	dimMu sync.Mutex
	dim   uint64
}

func NewAllMinilmL6V2(baseURL string) *AllMinilmL6V2 {
	return &AllMinilmL6V2{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *AllMinilmL6V2) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := EmbeddingRequest{
		Inputs: texts,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/embed", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("service returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var embeddings EmbeddingResponse
	if err := json.Unmarshal(body, &embeddings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return embeddings, nil
}

// Dimension probes the service with a single input and caches the resulting
// vector size on success.
func (c *AllMinilmL6V2) Dimension(ctx context.Context) (uint64, error) {
	c.dimMu.Lock()
	defer c.dimMu.Unlock()

	if c.dim != 0 {
		return c.dim, nil
	}

	vectors, err := c.GetEmbeddings(ctx, []string{"dimension probe"})
	if err != nil {
		return 0, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 0, fmt.Errorf("embedding service returned an empty vector")
	}
	c.dim = uint64(len(vectors[0]))
	return c.dim, nil
}
