package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.DocumentInfo{
		Hash:      "abc",
		Path:      "/tmp/paper.pdf",
		PageCount: 2,
		Pages:     []domain.PageSize{{Width: 612, Height: 792}, {Width: 612, Height: 792}},
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	// Update replaces the record
	doc.Path = "/tmp/moved.pdf"
	require.NoError(t, store.SaveDocument(ctx, doc))
	got, err = store.GetDocument(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/moved.pdf", got.Path)
}

func TestDocumentStore_Errors(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	_, err := store.GetDocument(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = store.SaveDocument(ctx, &domain.DocumentInfo{Path: "x.pdf"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestDocumentStore_List(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.DocumentInfo{Hash: "2", Path: "/b.pdf"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.DocumentInfo{Hash: "1", Path: "/a.pdf"}))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "/a.pdf", docs[0].Path)
}
