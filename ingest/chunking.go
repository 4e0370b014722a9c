package ingest

import "fmt"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// Chunk splits text into overlapping fixed-size character windows. The
// window advances by size-overlap each step and the final partial window is
// kept, so every offset of the input is covered by at least one chunk.
// Offsets are rune-based so multibyte text never splits mid-character.
func Chunk(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, size), size %d", overlap, size)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}
