package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// mockRenderer implements driven.PageRenderer for testing.
type mockRenderer struct {
	OpenFunc   func(ctx context.Context, path string) (*domain.DocumentInfo, error)
	RenderFunc func(ctx context.Context, info *domain.DocumentInfo, page int, widthPx float64) (*domain.RenderedPage, error)
}

func (m *mockRenderer) Open(ctx context.Context, path string) (*domain.DocumentInfo, error) {
	return m.OpenFunc(ctx, path)
}

func (m *mockRenderer) Render(ctx context.Context, info *domain.DocumentInfo, page int, widthPx float64) (*domain.RenderedPage, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, info, page, widthPx)
	}
	return info.Layout(page, widthPx)
}

// mockWatcher implements driven.DocumentWatcher by firing a fixed number of changes.
type mockWatcher struct {
	changes int
}

func (m *mockWatcher) Watch(ctx context.Context, _ string, onChange func()) error {
	for i := 0; i < m.changes; i++ {
		onChange()
	}
	return ctx.Err()
}

func letterDoc(hash string) *domain.DocumentInfo {
	return &domain.DocumentInfo{
		Hash:      hash,
		Path:      "/papers/" + hash + ".pdf",
		PageCount: 2,
		Pages:     []domain.PageSize{{Width: 612, Height: 792}, {Width: 612, Height: 792}},
	}
}

func TestDocumentService_OpenRecords(t *testing.T) {
	docStore := memory.NewDocumentStore()
	renderer := &mockRenderer{OpenFunc: func(_ context.Context, _ string) (*domain.DocumentInfo, error) {
		return letterDoc("h1"), nil
	}}
	svc := NewDocumentService(docStore, renderer, nil)
	ctx := context.Background()

	info, err := svc.Open(ctx, "/papers/h1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "h1", info.Hash)

	got, err := svc.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.PageCount)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDocumentService_OpenError(t *testing.T) {
	renderer := &mockRenderer{OpenFunc: func(_ context.Context, _ string) (*domain.DocumentInfo, error) {
		return nil, errors.New("not a pdf")
	}}
	svc := NewDocumentService(memory.NewDocumentStore(), renderer, nil)

	_, err := svc.Open(context.Background(), "/tmp/x.txt")
	assert.ErrorContains(t, err, "not a pdf")
}

func TestDocumentService_RenderWithoutRenderer(t *testing.T) {
	docStore := memory.NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, docStore.SaveDocument(ctx, letterDoc("h1")))
	svc := NewDocumentService(docStore, nil, nil)

	page, err := svc.Render(ctx, domain.PageKey{DocumentHash: "h1", Page: 2}, 1224)
	require.NoError(t, err)
	assert.InDelta(t, 1584.0, page.Box.Height, 1e-9)
	assert.Equal(t, 2, page.Key.Page)

	_, err = svc.Render(ctx, domain.PageKey{DocumentHash: "h1", Page: 5}, 800)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Render(ctx, domain.PageKey{DocumentHash: "unknown", Page: 1}, 800)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Open(ctx, "/any.pdf")
	assert.True(t, errors.Is(err, domain.ErrNotImplemented))
}

func TestDocumentService_RenderUsesRenderer(t *testing.T) {
	docStore := memory.NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, docStore.SaveDocument(ctx, letterDoc("h1")))

	var gotWidth float64
	renderer := &mockRenderer{RenderFunc: func(_ context.Context, info *domain.DocumentInfo, page int, w float64) (*domain.RenderedPage, error) {
		gotWidth = w
		return info.Layout(page, w)
	}}
	svc := NewDocumentService(docStore, renderer, nil)

	_, err := svc.Render(ctx, domain.PageKey{DocumentHash: "h1", Page: 1}, 640)
	require.NoError(t, err)
	assert.InDelta(t, 640.0, gotWidth, 1e-9)
}

func TestDocumentService_Watch(t *testing.T) {
	opens := 0
	renderer := &mockRenderer{OpenFunc: func(_ context.Context, _ string) (*domain.DocumentInfo, error) {
		opens++
		if opens == 2 {
			return nil, errors.New("half-written file")
		}
		return letterDoc("h1"), nil
	}}
	svc := NewDocumentService(memory.NewDocumentStore(), renderer, &mockWatcher{changes: 3})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var seen []*domain.DocumentInfo
	_ = svc.Watch(ctx, "/papers/h1.pdf", func(info *domain.DocumentInfo) {
		seen = append(seen, info)
	})

	assert.Equal(t, 3, opens)
	assert.Len(t, seen, 2, "the unreadable change is skipped")
}

func TestDocumentService_WatchWithoutWatcher(t *testing.T) {
	svc := NewDocumentService(memory.NewDocumentStore(), nil, nil)

	err := svc.Watch(context.Background(), "/x.pdf", func(*domain.DocumentInfo) {})
	assert.True(t, errors.Is(err, domain.ErrNotImplemented))
}
