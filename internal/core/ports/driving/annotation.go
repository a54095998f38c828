package driving

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// AnnotationService creates, edits and fetches annotations.
// Implementations never retry; a failed call has no effect.
type AnnotationService interface {
	// CreateHighlight creates an anchor with a highlight.
	// Returns domain.ErrValidation for empty rects, an invalid key or colour.
	CreateHighlight(ctx context.Context, target domain.AnchorTarget, color string) (*domain.HighlightCreated, error)

	// CreateMemo creates an anchor with a memo. Empty rects target the page.
	CreateMemo(ctx context.Context, target domain.AnchorTarget, body string) (*domain.MemoCreated, error)

	// CreateMemoOnAnchor adds a memo to an existing anchor.
	// Returns domain.ErrNotFound if the anchor is gone.
	CreateMemoOnAnchor(ctx context.Context, anchorID, body string) (*domain.MemoCreated, error)

	// EditMemo replaces a memo body. Last write wins.
	EditMemo(ctx context.Context, memoID, body string) error

	// DeleteMemo removes a memo.
	DeleteMemo(ctx context.Context, memoID string) error

	// DeleteHighlight removes a highlight, keeping its anchor and memos.
	DeleteHighlight(ctx context.Context, highlightID string) error

	// FetchPage returns everything annotated on a page.
	FetchPage(ctx context.Context, key domain.PageKey) (*domain.PageAnnotationSet, error)
}
