package viewer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func overlaySet() *domain.PageAnnotationSet {
	key := domain.PageKey{DocumentHash: "abc", Page: 1}
	return domain.NewPageAnnotationSet(key, []domain.AnnotationBundle{
		{
			Anchor: domain.Anchor{ID: "hl", Rects: []domain.NormalizedRect{
				{X: 0.1, Y: 0.1, W: 0.5, H: 0.02},
				{X: 0.1, Y: 0.12, W: 0.3, H: 0.02},
			}},
			Highlights: []domain.Highlight{{ID: "h1", AnchorID: "hl", Color: "#86efac"}},
		},
		{
			Anchor: domain.Anchor{ID: "memo", Rects: []domain.NormalizedRect{{X: 0.2, Y: 0.1, W: 0.2, H: 0.02}}},
			Memos:  []domain.Memo{{ID: "m1", AnchorID: "memo", Body: "note"}},
		},
		{
			Anchor: domain.Anchor{ID: "page"},
			Memos:  []domain.Memo{{ID: "m2", AnchorID: "page", Body: "page note"}},
		},
		{
			Anchor: domain.Anchor{ID: "orphan", Rects: []domain.NormalizedRect{{X: 0, Y: 0, W: 1, H: 1}}},
		},
	})
}

func TestProject(t *testing.T) {
	page := domain.Box{Left: 0, Top: 0, Width: 1000, Height: 2000}

	regions := Project(overlaySet(), page, "")

	want := []domain.Region{
		{AnchorID: "hl", Kind: domain.RegionHighlight, Box: domain.Box{Left: 100, Top: 200, Width: 500, Height: 40}, Color: "#86efac", Alpha: HighlightAlpha, Z: 0},
		{AnchorID: "hl", Kind: domain.RegionHighlight, Box: domain.Box{Left: 100, Top: 240, Width: 300, Height: 40}, Color: "#86efac", Alpha: HighlightAlpha, Z: 1},
		{AnchorID: "memo", Kind: domain.RegionMemo, Box: domain.Box{Left: 200, Top: 200, Width: 200, Height: 40}, Color: domain.MemoColor, Alpha: MemoAlpha, Bordered: true, Z: 2},
	}
	if diff := cmp.Diff(want, regions, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Project mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_SelectedEmphasis(t *testing.T) {
	page := domain.Box{Width: 100, Height: 100}

	regions := Project(overlaySet(), page, "hl")

	require.Len(t, regions, 3)
	for _, r := range regions[:2] {
		assert.True(t, r.Selected)
		assert.InDelta(t, SelectedAlpha, r.Alpha, 1e-9)
	}
	assert.False(t, regions[2].Selected)
	assert.InDelta(t, MemoAlpha, regions[2].Alpha, 1e-9)
}

func TestProject_ResolutionIndependent(t *testing.T) {
	small := Project(overlaySet(), domain.Box{Width: 500, Height: 700}, "")
	large := Project(overlaySet(), domain.Box{Width: 1000, Height: 1400}, "")

	require.Len(t, large, len(small))
	for i := range small {
		assert.InDelta(t, small[i].Box.Left*2, large[i].Box.Left, 1e-9)
		assert.InDelta(t, small[i].Box.Top*2, large[i].Box.Top, 1e-9)
		assert.InDelta(t, small[i].Box.Width*2, large[i].Box.Width, 1e-9)
		assert.InDelta(t, small[i].Box.Height*2, large[i].Box.Height, 1e-9)
	}
}

func TestProject_Empty(t *testing.T) {
	assert.Empty(t, Project(nil, pageBox, ""))
	assert.Empty(t, Project(overlaySet(), domain.Box{}, ""))
}

func TestProject_SkipsInvalidRects(t *testing.T) {
	key := domain.PageKey{DocumentHash: "abc", Page: 1}
	set := domain.NewPageAnnotationSet(key, []domain.AnnotationBundle{{
		Anchor: domain.Anchor{ID: "remote", Rects: []domain.NormalizedRect{
			{X: 0.25, Y: 0.25, W: 0, H: 0.5},
			{X: 0.9, Y: 0.1, W: 0.5, H: 0.1},
			{X: -0.1, Y: 0.1, W: 0.2, H: 0.1},
			{X: 0.5, Y: 0.5, W: 0.1, H: 0.1},
		}},
		Highlights: []domain.Highlight{{ID: "h1", AnchorID: "remote", Color: "#fde047"}},
	}})
	page := domain.Box{Width: 100, Height: 100}

	regions := Project(set, page, "")

	require.Len(t, regions, 1)
	assert.Equal(t, domain.Box{Left: 50, Top: 50, Width: 10, Height: 10}, regions[0].Box)
	assert.Equal(t, 0, regions[0].Z)

	_, ok := HitTest(regions, domain.Point{X: 25, Y: 50})
	assert.False(t, ok)
}

func TestHitTest(t *testing.T) {
	page := domain.Box{Width: 1000, Height: 2000}
	regions := Project(overlaySet(), page, "")

	t.Run("overlap picks later anchor", func(t *testing.T) {
		r, ok := HitTest(regions, domain.Point{X: 250, Y: 220})
		require.True(t, ok)
		assert.Equal(t, "memo", r.AnchorID)
	})

	t.Run("second line of highlight", func(t *testing.T) {
		r, ok := HitTest(regions, domain.Point{X: 120, Y: 260})
		require.True(t, ok)
		assert.Equal(t, "hl", r.AnchorID)
	})

	t.Run("miss", func(t *testing.T) {
		_, ok := HitTest(regions, domain.Point{X: 900, Y: 1900})
		assert.False(t, ok)
	})

	t.Run("z beats slice order", func(t *testing.T) {
		box := domain.Box{Width: 10, Height: 10}
		r, ok := HitTest([]domain.Region{{AnchorID: "top", Box: box, Z: 5}, {AnchorID: "under", Box: box, Z: 1}}, domain.Point{X: 5, Y: 5})
		require.True(t, ok)
		assert.Equal(t, "top", r.AnchorID)
	})
}

func TestProjectDraft(t *testing.T) {
	draft := &domain.SelectionDraft{
		Rects:   []domain.NormalizedRect{{X: 0.1, Y: 0.1, W: 0.5, H: 0.02}},
		Toolbar: domain.Point{X: 60, Y: 72},
	}

	regions, toolbar := ProjectDraft(draft, pageBox)

	require.Len(t, regions, 1)
	assert.Equal(t, domain.RegionDraft, regions[0].Kind)
	assert.Equal(t, domain.DefaultHighlightColor, regions[0].Color)
	assert.InDelta(t, HighlightAlpha, regions[0].Alpha, 1e-9)
	assert.Equal(t, DraftZ, regions[0].Z)
	assert.InDelta(t, 160.0, regions[0].Box.Left, 1e-9)
	assert.Equal(t, domain.Point{X: 160, Y: 122}, toolbar)

	none, _ := ProjectDraft(nil, pageBox)
	assert.Empty(t, none)
}
