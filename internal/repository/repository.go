// Package repository persists metadata of generated documents.
package repository

import (
	"context"
	"errors"
	"time"

	"proposal-generator/internal/models"
)

var ErrNotFound = errors.New("document not found")

// ListOptions pages through documents, newest first.
type ListOptions struct {
	ProposalType string
	Limit        int
	Offset       int
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]models.Document, int64, error)
	ListCreatedBefore(ctx context.Context, before time.Time) ([]models.Document, error)
}
