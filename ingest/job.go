package ingest

import "context"

// Job is the immutable descriptor handed across the queue boundary. The
// worker reports results only through the document row, never back to the
// submitter.
type Job struct {
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
}

// Dispatcher enqueues a job for asynchronous execution. Delivery is
// at-least-once; a redelivered job re-runs the pipeline against the same
// document.
type Dispatcher interface {
	Enqueue(ctx context.Context, documentID, url string) error
}

// Scraper fetches a page and extracts its main textual content.
type Scraper interface {
	FetchAndExtract(ctx context.Context, url string) (string, error)
}
