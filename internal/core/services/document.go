package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService opens documents and lays out their pages.
type DocumentService struct {
	docStore driven.DocumentStore
	renderer driven.PageRenderer
	watcher  driven.DocumentWatcher
}

// NewDocumentService creates a new document service.
// renderer and watcher may be nil.
func NewDocumentService(
	docStore driven.DocumentStore,
	renderer driven.PageRenderer,
	watcher driven.DocumentWatcher,
) *DocumentService {
	return &DocumentService{
		docStore: docStore,
		renderer: renderer,
		watcher:  watcher,
	}
}

// Open reads a document from disk and records it.
func (s *DocumentService) Open(ctx context.Context, path string) (*domain.DocumentInfo, error) {
	if s.renderer == nil || s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}

	info, err := s.renderer.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := s.docStore.SaveDocument(ctx, info); err != nil {
		return nil, fmt.Errorf("record %s: %w", path, err)
	}

	logger.Debug("Opened %s: hash=%s pages=%d", path, info.Hash, info.PageCount)
	return info, nil
}

// Get returns a previously opened document.
func (s *DocumentService) Get(ctx context.Context, hash string) (*domain.DocumentInfo, error) {
	if s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.docStore.GetDocument(ctx, hash)
}

// List returns all previously opened documents.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentInfo, error) {
	if s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.docStore.ListDocuments(ctx)
}

// Render lays out a page at the given width. Without a renderer the
// recorded page sizes are used and the page has no text layer.
func (s *DocumentService) Render(ctx context.Context, key domain.PageKey, widthPx float64) (*domain.RenderedPage, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	info, err := s.Get(ctx, key.DocumentHash)
	if err != nil {
		return nil, err
	}

	if s.renderer == nil {
		return info.Layout(key.Page, widthPx)
	}
	page, err := s.renderer.Render(ctx, info, key.Page, widthPx)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", key, err)
	}
	return page, nil
}

// Watch re-opens the document on every change until ctx is done.
// A change that leaves the file unreadable is logged and skipped.
func (s *DocumentService) Watch(ctx context.Context, path string, onChange func(*domain.DocumentInfo)) error {
	if s.watcher == nil {
		return domain.ErrNotImplemented
	}
	return s.watcher.Watch(ctx, path, func() {
		info, err := s.Open(ctx, path)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Warn("Reopen %s after change: %v", path, err)
			}
			return
		}
		onChange(info)
	})
}
