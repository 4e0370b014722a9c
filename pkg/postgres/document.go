package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"webrag/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

func (c *PostgresClient) Create(ctx context.Context, url string) (*repository.Document, error) {
	query := `
		INSERT INTO documents (id, source_url, status)
		VALUES ($1, $2, $3)
		RETURNING id, source_url, status, error_message, created_at, updated_at
	`

	id := uuid.NewString()
	doc, err := scanDocument(c.pool.QueryRow(ctx, query, id, url, repository.StatusPending))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, repository.ErrDuplicateURL
		}
		return nil, fmt.Errorf("unable to insert document: %w", err)
	}
	return doc, nil
}

func (c *PostgresClient) GetByID(ctx context.Context, id string) (*repository.Document, error) {
	query := `
		SELECT id, source_url, status, error_message, created_at, updated_at
		FROM documents
		WHERE id = $1
	`

	doc, err := scanDocument(c.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("unable to get document: %w", err)
	}
	return doc, nil
}

func (c *PostgresClient) UpdateStatus(ctx context.Context, id string, status repository.Status) error {
	query := `
		UPDATE documents
		SET status = $1, error_message = NULL, updated_at = now()
		WHERE id = $2
	`

	tag, err := c.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("unable to update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (c *PostgresClient) MarkFailed(ctx context.Context, id string, message string) error {
	query := `
		UPDATE documents
		SET status = $1, error_message = $2, updated_at = now()
		WHERE id = $3
	`

	tag, err := c.pool.Exec(ctx, query, repository.StatusFailed, message, id)
	if err != nil {
		return fmt.Errorf("unable to mark document failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*repository.Document, error) {
	var doc repository.Document
	var errMsg sql.NullString
	err := row.Scan(&doc.ID, &doc.SourceURL, &doc.Status, &errMsg, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.ErrorMessage = errMsg.String
	return &doc, nil
}
