package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.DocumentInfo
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.DocumentInfo),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.DocumentInfo) error {
	if doc.Hash == "" {
		return fmt.Errorf("%w: document hash is required", domain.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	cp.Pages = append([]domain.PageSize(nil), doc.Pages...)
	s.documents[doc.Hash] = cp
	return nil
}

// GetDocument retrieves a document by hash.
func (s *DocumentStore) GetDocument(_ context.Context, hash string) (*domain.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[hash]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", hash, domain.ErrNotFound)
	}
	doc.Pages = append([]domain.PageSize(nil), doc.Pages...)
	return &doc, nil
}

// ListDocuments returns all documents ordered by path.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.DocumentInfo, 0, len(s.documents))
	for _, doc := range s.documents {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}
