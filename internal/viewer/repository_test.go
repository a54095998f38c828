package viewer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func keyOf(page int) domain.PageKey {
	return domain.PageKey{DocumentHash: "abc", Page: page}
}

func setWith(key domain.PageKey, anchorIDs ...string) *domain.PageAnnotationSet {
	items := make([]domain.AnnotationBundle, 0, len(anchorIDs))
	for _, id := range anchorIDs {
		items = append(items, domain.AnnotationBundle{Anchor: domain.Anchor{ID: id, DocumentHash: key.DocumentHash, Page: key.Page}})
	}
	return domain.NewPageAnnotationSet(key, items)
}

func TestRepository_StalePageDropped(t *testing.T) {
	r := NewRepository()
	r.SetActivePage(keyOf(2))
	t2, err := r.BeginFetch()
	require.NoError(t, err)

	r.SetActivePage(keyOf(3))
	t3, err := r.BeginFetch()
	require.NoError(t, err)
	require.NoError(t, r.Complete(t3, setWith(keyOf(3), "p3"), nil))

	err = r.Complete(t2, setWith(keyOf(2), "p2"), nil)

	assert.ErrorIs(t, err, domain.ErrConcurrencyDrift)
	assert.Nil(t, r.Page(keyOf(2)))
	assert.Equal(t, "p3", r.Current().Items[0].Anchor.ID)
}

func TestRepository_NewerFetchWins(t *testing.T) {
	r := NewRepository()
	r.SetActivePage(keyOf(1))
	older, _ := r.BeginFetch()
	newer, _ := r.BeginFetch()

	require.NoError(t, r.Complete(newer, setWith(keyOf(1), "a", "b"), nil))
	err := r.Complete(older, setWith(keyOf(1), "a"), nil)

	assert.ErrorIs(t, err, domain.ErrConcurrencyDrift)
	assert.Equal(t, 2, r.Current().Count)
}

func TestRepository_CompleteReplacesWholesale(t *testing.T) {
	r := NewRepository()
	r.SetActivePage(keyOf(1))

	t1, _ := r.BeginFetch()
	require.NoError(t, r.Complete(t1, setWith(keyOf(1), "a", "b"), nil))
	t2, _ := r.BeginFetch()
	require.NoError(t, r.Complete(t2, setWith(keyOf(1), "c"), nil))

	require.Len(t, r.Current().Items, 1)
	assert.Equal(t, "c", r.Current().Items[0].Anchor.ID)
}

func TestRepository_FailedFetchKeepsCache(t *testing.T) {
	r := NewRepository()
	r.SetActivePage(keyOf(1))
	t1, _ := r.BeginFetch()
	require.NoError(t, r.Complete(t1, setWith(keyOf(1), "a"), nil))

	t2, _ := r.BeginFetch()
	err := r.Complete(t2, nil, domain.ErrTransport)

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, 1, r.Current().Count)
}

func TestRepository_BeginFetchNeedsPage(t *testing.T) {
	_, err := NewRepository().BeginFetch()
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRepository_Selection(t *testing.T) {
	r := NewRepository()
	r.SetActivePage(keyOf(1))

	assert.True(t, r.Select("a"))
	assert.False(t, r.Select("a"), "reselect is a no-op")
	assert.Equal(t, "a", r.Selected())

	assert.False(t, r.SetActivePage(keyOf(1)))
	assert.Equal(t, "a", r.Selected())

	assert.True(t, r.SetActivePage(keyOf(2)))
	assert.Empty(t, r.Selected())

	assert.False(t, r.ClearSelection())
}

func TestRepository_RefreshClearsMissingSelection(t *testing.T) {
	svc := newSpyService()
	ctx := context.Background()
	created, err := svc.CreateHighlight(ctx, domain.AnchorTarget{
		Key:   keyOf(1),
		Rects: []domain.NormalizedRect{{X: 0.1, Y: 0.1, W: 0.2, H: 0.02}},
	}, "#fde047")
	require.NoError(t, err)

	r := NewRepository()
	r.SetActivePage(keyOf(1))
	require.NoError(t, r.Refresh(ctx, svc))
	r.Select(created.AnchorID)

	// The anchor has nothing left and drops out of the page
	require.NoError(t, svc.DeleteHighlight(ctx, created.HighlightID))
	require.NoError(t, r.Refresh(ctx, svc))

	assert.Empty(t, r.Selected())
	assert.Zero(t, r.Current().Count)
}
