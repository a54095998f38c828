package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var testKey = domain.PageKey{DocumentHash: "9f2c", Page: 3}

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

// createTestAnchor stores an anchor with one rect on testKey.
func createTestAnchor(t *testing.T, store *Store, id string) *domain.Anchor {
	t.Helper()
	a := &domain.Anchor{
		ID:           id,
		DocumentHash: testKey.DocumentHash,
		Page:         testKey.Page,
		Rects: []domain.NormalizedRect{
			{X: 0.1, Y: 0.2, W: 0.5, H: 0.02},
			{X: 0.1, Y: 0.23, W: 0.3, H: 0.02},
		},
		Quote:     domain.TextQuote{Exact: "exact " + id, Prefix: "pre", Suffix: "post"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.AnnotationStore().SaveAnchor(context.Background(), &domain.AnnotationBundle{Anchor: *a}))
	return a
}

// ==================== Store Creation Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	store := setupTestStore(t)

	assert.FileExists(t, store.Path())

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	createTestAnchor(t, first, "a1")
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	_, err = second.AnnotationStore().GetAnchor(context.Background(), "a1")
	assert.NoError(t, err)
}

// ==================== Anchor Tests ====================

func TestAnnotationStore_AnchorRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	want := createTestAnchor(t, store, "a1")

	got, err := store.AnnotationStore().GetAnchor(context.Background(), "a1")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Key(), got.Key())
	assert.Equal(t, want.Rects, got.Rects)
	assert.Equal(t, want.Quote, got.Quote)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestAnnotationStore_GetAnchor_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.AnnotationStore().GetAnchor(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAnnotationStore_PageAnchorIsUnique(t *testing.T) {
	store := setupTestStore(t)
	annotations := store.AnnotationStore()
	ctx := context.Background()

	_, err := annotations.FindPageAnchor(ctx, testKey)
	require.True(t, errors.Is(err, domain.ErrNotFound))

	page := &domain.Anchor{ID: "p1", DocumentHash: testKey.DocumentHash, Page: testKey.Page, CreatedAt: time.Now()}
	require.NoError(t, annotations.SaveAnchor(ctx, &domain.AnnotationBundle{Anchor: *page}))

	found, err := annotations.FindPageAnchor(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, "p1", found.ID)
	assert.True(t, found.IsPageLevel())

	dup := &domain.Anchor{ID: "p2", DocumentHash: testKey.DocumentHash, Page: testKey.Page, CreatedAt: time.Now()}
	assert.True(t, errors.Is(annotations.SaveAnchor(ctx, &domain.AnnotationBundle{Anchor: *dup}), domain.ErrAlreadyExists))
}

// ==================== Highlight Tests ====================

// highlightedBundle returns an anchor on testKey carrying one highlight.
func highlightedBundle(anchorID, highlightID string) *domain.AnnotationBundle {
	return &domain.AnnotationBundle{
		Anchor: domain.Anchor{
			ID:           anchorID,
			DocumentHash: testKey.DocumentHash,
			Page:         testKey.Page,
			Rects:        []domain.NormalizedRect{{X: 0.1, Y: 0.5, W: 0.4, H: 0.02}},
			CreatedAt:    time.Now(),
		},
		Highlights: []domain.Highlight{{ID: highlightID, Color: "#fde047", CreatedBy: "ada", CreatedAt: time.Now()}},
	}
}

func TestAnnotationStore_SaveAnchorWithHighlight(t *testing.T) {
	store := setupTestStore(t)
	annotations := store.AnnotationStore()
	ctx := context.Background()

	require.NoError(t, annotations.SaveAnchor(ctx, highlightedBundle("a1", "h1")))

	bundles, err := annotations.ListPage(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	require.Len(t, bundles[0].Highlights, 1)
	assert.Equal(t, "a1", bundles[0].Highlights[0].AnchorID)
	assert.Equal(t, "ada", bundles[0].Highlights[0].CreatedBy)
}

func TestAnnotationStore_SaveAnchorRollsBack(t *testing.T) {
	store := setupTestStore(t)
	annotations := store.AnnotationStore()
	ctx := context.Background()
	require.NoError(t, annotations.SaveAnchor(ctx, highlightedBundle("a1", "h1")))

	tests := []struct {
		name   string
		bundle *domain.AnnotationBundle
	}{
		{name: "highlight id taken", bundle: highlightedBundle("a2", "h1")},
		{
			name: "two highlights",
			bundle: func() *domain.AnnotationBundle {
				b := highlightedBundle("a2", "h2")
				b.Highlights = append(b.Highlights, domain.Highlight{ID: "h3", Color: "#86efac", CreatedAt: time.Now()})
				return b
			}(),
		},
		{
			name: "duplicate memo ids",
			bundle: func() *domain.AnnotationBundle {
				b := highlightedBundle("a2", "h2")
				b.Memos = []domain.Memo{
					{ID: "m1", Body: "one", CreatedAt: time.Now()},
					{ID: "m1", Body: "two", CreatedAt: time.Now()},
				}
				return b
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := annotations.SaveAnchor(ctx, tt.bundle)
			assert.True(t, errors.Is(err, domain.ErrAlreadyExists))

			_, err = annotations.GetAnchor(ctx, "a2")
			assert.True(t, errors.Is(err, domain.ErrNotFound))
		})
	}

	bundles, err := annotations.ListPage(ctx, testKey)
	require.NoError(t, err)
	assert.Len(t, bundles, 1)
}

func TestAnnotationStore_SaveMemo_UnknownAnchor(t *testing.T) {
	store := setupTestStore(t)

	err := store.AnnotationStore().SaveMemo(context.Background(),
		&domain.Memo{ID: "m1", AnchorID: "nope", Body: "x", CreatedAt: time.Now()})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAnnotationStore_DeleteHighlightKeepsAnchorAndMemos(t *testing.T) {
	store := setupTestStore(t)
	annotations := store.AnnotationStore()
	ctx := context.Background()

	require.NoError(t, annotations.SaveAnchor(ctx, highlightedBundle("a1", "h1")))
	require.NoError(t, annotations.SaveMemo(ctx, &domain.Memo{ID: "m1", AnchorID: "a1", Body: "note", CreatedAt: time.Now()}))

	require.NoError(t, annotations.DeleteHighlight(ctx, "h1"))
	assert.True(t, errors.Is(annotations.DeleteHighlight(ctx, "h1"), domain.ErrNotFound))

	bundles, err := annotations.ListPage(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Empty(t, bundles[0].Highlights)
	require.Len(t, bundles[0].Memos, 1)
	assert.Equal(t, domain.BundleMemo, bundles[0].Kind())
}

// ==================== Memo Tests ====================

func TestAnnotationStore_MemoLifecycle(t *testing.T) {
	store := setupTestStore(t)
	annotations := store.AnnotationStore()
	ctx := context.Background()
	createTestAnchor(t, store, "a1")

	created := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, annotations.SaveMemo(ctx, &domain.Memo{
		ID: "m1", AnchorID: "a1", Body: "first", CreatedBy: "ada", CreatedAt: created,
	}))
	require.NoError(t, annotations.SaveMemo(ctx, &domain.Memo{
		ID: "m2", AnchorID: "a1", Body: "reply", ParentID: "m1", CreatedAt: created,
	}))

	edited := created.Add(time.Hour)
	require.NoError(t, annotations.UpdateMemo(ctx, &domain.Memo{ID: "m1", Body: "edited", UpdatedAt: edited}))

	m1, err := annotations.GetMemo(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "edited", m1.Body)
	assert.True(t, m1.UpdatedAt.Equal(edited))
	assert.True(t, m1.CreatedAt.Equal(created))
	assert.Empty(t, m1.ParentID)

	m2, err := annotations.GetMemo(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, "m1", m2.ParentID)

	require.NoError(t, annotations.DeleteMemo(ctx, "m1"))
	assert.True(t, errors.Is(annotations.DeleteMemo(ctx, "m1"), domain.ErrNotFound))
	assert.True(t, errors.Is(annotations.UpdateMemo(ctx, &domain.Memo{ID: "m1", Body: "x"}), domain.ErrNotFound))
	_, err = annotations.GetMemo(ctx, "m1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ==================== ListPage Tests ====================

func TestAnnotationStore_ListPage_ArrivalOrder(t *testing.T) {
	store := setupTestStore(t)
	annotations := store.AnnotationStore()
	ctx := context.Background()

	createTestAnchor(t, store, "zz")
	aa := highlightedBundle("aa", "h1")
	aa.Anchor.Rects = append(aa.Anchor.Rects, domain.NormalizedRect{X: 0.1, Y: 0.53, W: 0.2, H: 0.02})
	require.NoError(t, annotations.SaveAnchor(ctx, aa))
	createTestAnchor(t, store, "mm")
	for _, id := range []string{"m3", "m1", "m2"} {
		require.NoError(t, annotations.SaveMemo(ctx, &domain.Memo{ID: id, AnchorID: "aa", Body: id, CreatedAt: time.Now()}))
	}

	// Anchors on another page are excluded
	other := &domain.Anchor{ID: "elsewhere", DocumentHash: testKey.DocumentHash, Page: 4,
		Rects: []domain.NormalizedRect{{X: 0, Y: 0, W: 0.1, H: 0.1}}, CreatedAt: time.Now()}
	require.NoError(t, annotations.SaveAnchor(ctx, &domain.AnnotationBundle{Anchor: *other}))

	bundles, err := annotations.ListPage(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, bundles, 3)

	assert.Equal(t, []string{"zz", "aa", "mm"}, []string{bundles[0].Anchor.ID, bundles[1].Anchor.ID, bundles[2].Anchor.ID})
	require.Len(t, bundles[1].Highlights, 1)
	require.Len(t, bundles[1].Memos, 3)
	assert.Equal(t, "m3", bundles[1].Memos[0].ID)
	assert.Equal(t, "m2", bundles[1].Memos[2].ID)
	assert.Len(t, bundles[1].Anchor.Rects, 2)
}

func TestAnnotationStore_ListPage_Empty(t *testing.T) {
	store := setupTestStore(t)

	bundles, err := store.AnnotationStore().ListPage(context.Background(), testKey)
	require.NoError(t, err)
	assert.Empty(t, bundles)
}

// ==================== Document Store Tests ====================

func TestDocumentStore_SaveGetList(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc := &domain.DocumentInfo{
		Hash:      "9f2c",
		Path:      "/papers/attention.pdf",
		PageCount: 2,
		Pages:     []domain.PageSize{{Width: 612, Height: 792}, {Width: 595, Height: 842}},
	}
	require.NoError(t, docs.SaveDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, "9f2c")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	doc.Path = "/papers/renamed.pdf"
	require.NoError(t, docs.SaveDocument(ctx, doc))

	all, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "/papers/renamed.pdf", all[0].Path)

	_, err = docs.GetDocument(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
