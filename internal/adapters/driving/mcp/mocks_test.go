package mcp

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// mockAnnotationService is a mock implementation of driving.AnnotationService.
type mockAnnotationService struct {
	set       *domain.PageAnnotationSet
	highlight *domain.HighlightCreated
	memo      *domain.MemoCreated
	err       error

	// Recorded arguments.
	target   domain.AnchorTarget
	color    string
	anchorID string
	id       string
	body     string
	key      domain.PageKey
}

func (m *mockAnnotationService) CreateHighlight(
	_ context.Context,
	target domain.AnchorTarget,
	color string,
) (*domain.HighlightCreated, error) {
	m.target, m.color = target, color
	return m.highlight, m.err
}

func (m *mockAnnotationService) CreateMemo(
	_ context.Context,
	target domain.AnchorTarget,
	body string,
) (*domain.MemoCreated, error) {
	m.target, m.body = target, body
	return m.memo, m.err
}

func (m *mockAnnotationService) CreateMemoOnAnchor(_ context.Context, anchorID, body string) (*domain.MemoCreated, error) {
	m.anchorID, m.body = anchorID, body
	return m.memo, m.err
}

func (m *mockAnnotationService) EditMemo(_ context.Context, memoID, body string) error {
	m.id, m.body = memoID, body
	return m.err
}

func (m *mockAnnotationService) DeleteMemo(_ context.Context, memoID string) error {
	m.id = memoID
	return m.err
}

func (m *mockAnnotationService) DeleteHighlight(_ context.Context, highlightID string) error {
	m.id = highlightID
	return m.err
}

func (m *mockAnnotationService) FetchPage(_ context.Context, key domain.PageKey) (*domain.PageAnnotationSet, error) {
	m.key = key
	if m.err != nil {
		return nil, m.err
	}
	if m.set == nil {
		return domain.NewPageAnnotationSet(key, nil), nil
	}
	return m.set, nil
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.DocumentInfo
	page      *domain.RenderedPage
	err       error

	width float64
}

func (m *mockDocumentService) Open(_ context.Context, _ string) (*domain.DocumentInfo, error) {
	return nil, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.DocumentInfo, error) {
	return nil, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Render(_ context.Context, _ domain.PageKey, widthPx float64) (*domain.RenderedPage, error) {
	m.width = widthPx
	return m.page, m.err
}

func (m *mockDocumentService) Watch(_ context.Context, _ string, _ func(*domain.DocumentInfo)) error {
	return m.err
}
