package repository

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateURL = errors.New("source url already submitted")
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Document is the durable record of one ingestion job. ErrorMessage is
// populated only while Status is FAILED.
type Document struct {
	ID           string    `json:"id"`
	SourceURL    string    `json:"source_url"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type DocumentRepo interface {
	// Create inserts a PENDING document for url. Returns ErrDuplicateURL
	// when a document with the same source url already exists.
	Create(ctx context.Context, url string) (*Document, error)
	// GetByID returns ErrNotFound when no document has the given id.
	GetByID(ctx context.Context, id string) (*Document, error)
	// UpdateStatus moves the document to status and clears any error message.
	UpdateStatus(ctx context.Context, id string, status Status) error
	// MarkFailed moves the document to FAILED and records the cause.
	MarkFailed(ctx context.Context, id string, message string) error
}
