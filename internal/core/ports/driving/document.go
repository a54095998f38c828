package driving

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// DocumentService opens documents and lays out their pages.
type DocumentService interface {
	// Open reads a document from disk and records it.
	Open(ctx context.Context, path string) (*domain.DocumentInfo, error)

	// Get returns a previously opened document by hash.
	Get(ctx context.Context, hash string) (*domain.DocumentInfo, error)

	// List returns all previously opened documents.
	List(ctx context.Context) ([]domain.DocumentInfo, error)

	// Render lays out a page at the given pixel width.
	// Documents recorded without a renderer get a text-less page box.
	Render(ctx context.Context, key domain.PageKey, widthPx float64) (*domain.RenderedPage, error)

	// Watch re-opens the document each time the file changes and calls
	// onChange with the fresh info, until ctx is done.
	Watch(ctx context.Context, path string, onChange func(*domain.DocumentInfo)) error
}
