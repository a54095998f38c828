package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// DocumentStore records documents that have been opened.
// Backed by SQLite alongside the annotations.
type DocumentStore interface {
	// SaveDocument stores or updates a document, keyed by hash.
	SaveDocument(ctx context.Context, doc *domain.DocumentInfo) error

	// GetDocument retrieves a document by hash.
	// Returns domain.ErrNotFound if it has never been opened.
	GetDocument(ctx context.Context, hash string) (*domain.DocumentInfo, error)

	// ListDocuments returns all recorded documents.
	ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error)
}
