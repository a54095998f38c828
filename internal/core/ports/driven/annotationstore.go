package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// PageSignature is the signature stored for page-level anchors.
// There is at most one page-level anchor per (document, page).
const PageSignature = "page"

// AnnotationStore persists anchors, highlights and memos.
// Implementations must be safe for concurrent use.
type AnnotationStore interface {
	// SaveAnchor stores a new anchor together with the highlights and memos
	// in the bundle, all or nothing. They are attached to the bundle's anchor.
	// Returns domain.ErrAlreadyExists if an ID is taken, the page already has
	// a page-level anchor, or the bundle carries more than one highlight.
	SaveAnchor(ctx context.Context, bundle *domain.AnnotationBundle) error

	// GetAnchor retrieves an anchor by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetAnchor(ctx context.Context, id string) (*domain.Anchor, error)

	// FindPageAnchor returns the page-level anchor for a page.
	// Returns domain.ErrNotFound if none has been created yet.
	FindPageAnchor(ctx context.Context, key domain.PageKey) (*domain.Anchor, error)

	// DeleteHighlight removes a highlight. The anchor and its memos remain.
	// Returns domain.ErrNotFound if it does not exist.
	DeleteHighlight(ctx context.Context, id string) error

	// SaveMemo stores a new memo on an existing anchor.
	// Returns domain.ErrNotFound if the anchor does not exist.
	SaveMemo(ctx context.Context, memo *domain.Memo) error

	// GetMemo retrieves a memo by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetMemo(ctx context.Context, id string) (*domain.Memo, error)

	// UpdateMemo replaces a memo's body and UpdatedAt.
	// Returns domain.ErrNotFound if it does not exist.
	UpdateMemo(ctx context.Context, memo *domain.Memo) error

	// DeleteMemo removes a memo.
	// Returns domain.ErrNotFound if it does not exist.
	DeleteMemo(ctx context.Context, id string) error

	// ListPage returns every anchor on a page with its highlight and memos.
	// Bundles are in anchor creation order, memos in creation order.
	ListPage(ctx context.Context, key domain.PageKey) ([]domain.AnnotationBundle, error)
}
