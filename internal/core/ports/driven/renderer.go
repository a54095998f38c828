package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// PageRenderer lays out document pages.
type PageRenderer interface {
	// Open reads a document and returns its hash and page sizes.
	Open(ctx context.Context, path string) (*domain.DocumentInfo, error)

	// Render lays out one page at the given pixel width.
	Render(ctx context.Context, info *domain.DocumentInfo, page int, widthPx float64) (*domain.RenderedPage, error)
}

// DocumentWatcher reports changes to a document file.
type DocumentWatcher interface {
	// Watch calls onChange each time the file is rewritten, until ctx is done.
	Watch(ctx context.Context, path string, onChange func()) error
}

// Sanitiser cleans user-supplied memo text.
type Sanitiser interface {
	// Sanitise returns s with markup removed.
	Sanitise(s string) string
}

// OverlayRasteriser draws overlay regions as an image.
type OverlayRasteriser interface {
	// WritePNG draws the regions over a blank page of the given size.
	WritePNG(w io.Writer, page domain.Box, regions []domain.Region) error
}
