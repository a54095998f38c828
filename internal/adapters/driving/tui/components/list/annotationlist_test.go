package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func sampleItems() []domain.AnnotationBundle {
	rect := []domain.NormalizedRect{{X: 0.1, Y: 0.1, W: 0.5, H: 0.02}}
	return []domain.AnnotationBundle{
		{
			Anchor:     domain.Anchor{ID: "a1", Rects: rect, Quote: domain.TextQuote{Exact: "first quote"}},
			Highlights: []domain.Highlight{{ID: "h1", AnchorID: "a1", Color: "#fde047"}},
			Memos:      []domain.Memo{{ID: "m1", AnchorID: "a1", Body: "nice", CreatedBy: "ana"}},
		},
		{
			Anchor: domain.Anchor{ID: "a2", Rects: rect, Quote: domain.TextQuote{Exact: "second"}},
			Memos:  []domain.Memo{{ID: "m2", AnchorID: "a2", Body: "why?"}, {ID: "m3", AnchorID: "a2", Body: "because"}},
		},
		{
			Anchor: domain.Anchor{ID: "a3"},
			Memos:  []domain.Memo{{ID: "m4", AnchorID: "a3", Body: "page note"}},
		},
	}
}

func TestNewAnnotationList(t *testing.T) {
	list := NewAnnotationList(styles.DefaultStyles())

	require.NotNil(t, list)
	assert.Equal(t, 0, list.Selected())
	assert.True(t, list.IsEmpty())
}

func TestNewAnnotationList_NilStyles(t *testing.T) {
	list := NewAnnotationList(nil)

	require.NotNil(t, list)
	assert.NotNil(t, list.styles)
	assert.Nil(t, list.Init())
}

func TestAnnotationList_SetItems_Collapsed(t *testing.T) {
	list := NewAnnotationList(nil)

	list.SetItems(sampleItems(), "")

	want := []Row{
		{Kind: RowBundle, AnchorID: "a1"},
		{Kind: RowBundle, AnchorID: "a2"},
		{Kind: RowBundle, AnchorID: "a3"},
	}
	if diff := cmp.Diff(want, list.Rows()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, list.Count())
}

func TestAnnotationList_SetItems_Expanded(t *testing.T) {
	list := NewAnnotationList(nil)

	list.SetItems(sampleItems(), "a1")

	want := []Row{
		{Kind: RowBundle, AnchorID: "a1"},
		{Kind: RowHighlight, AnchorID: "a1", ID: "h1"},
		{Kind: RowMemo, AnchorID: "a1", ID: "m1"},
		{Kind: RowBundle, AnchorID: "a2"},
		{Kind: RowBundle, AnchorID: "a3"},
	}
	if diff := cmp.Diff(want, list.Rows()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotationList_SetItems_KeepsCursorRow(t *testing.T) {
	list := NewAnnotationList(nil)
	list.SetItems(sampleItems(), "")
	list.SetSelected(1) // a2

	list.SetItems(sampleItems(), "a1")

	row, ok := list.SelectedRow()
	require.True(t, ok)
	assert.Equal(t, Row{Kind: RowBundle, AnchorID: "a2"}, row)
}

func TestAnnotationList_SetItems_FallsBackToHeading(t *testing.T) {
	list := NewAnnotationList(nil)
	list.SetItems(sampleItems(), "a2")
	list.SetSelected(3) // m3
	row, _ := list.SelectedRow()
	require.Equal(t, "m3", row.ID)

	items := sampleItems()
	items[1].Memos = items[1].Memos[:1]
	list.SetItems(items, "a2")

	row, ok := list.SelectedRow()
	require.True(t, ok)
	assert.Equal(t, Row{Kind: RowBundle, AnchorID: "a2"}, row)
}

func TestAnnotationList_SetItems_ClampsWhenGone(t *testing.T) {
	list := NewAnnotationList(nil)
	list.SetItems(sampleItems(), "")
	list.SetSelected(2)

	list.SetItems(sampleItems()[:1], "")

	assert.Equal(t, 0, list.Selected())

	list.SetItems(nil, "")
	_, ok := list.SelectedRow()
	assert.False(t, ok)
}

func TestAnnotationList_Navigation(t *testing.T) {
	list := NewAnnotationList(nil)
	list.SetItems(sampleItems(), "")

	list.MoveUp()
	assert.Equal(t, 0, list.Selected())

	list.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, list.Selected())

	list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, list.Selected())

	list.MoveDown()
	assert.Equal(t, 2, list.Selected())

	list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, list.Selected())
}

func TestAnnotationList_SetSelected_Invalid(t *testing.T) {
	list := NewAnnotationList(nil)
	list.SetItems(sampleItems(), "")

	list.SetSelected(10)
	assert.Equal(t, 0, list.Selected())

	list.SetSelected(-1)
	assert.Equal(t, 0, list.Selected())
}

func TestAnnotationList_SelectAnchor(t *testing.T) {
	list := NewAnnotationList(nil)
	list.SetItems(sampleItems(), "a1")

	assert.True(t, list.SelectAnchor("a2"))
	assert.Equal(t, 3, list.Selected())

	assert.False(t, list.SelectAnchor("missing"))
	assert.Equal(t, 3, list.Selected())
}

func TestAnnotationList_View_Empty(t *testing.T) {
	list := NewAnnotationList(nil)

	assert.Contains(t, list.View(), "No annotations")
}

func TestAnnotationList_View(t *testing.T) {
	list := NewAnnotationList(nil)
	list.SetDimensions(60, 20)
	list.SetItems(sampleItems(), "a1")

	view := list.View()

	assert.Contains(t, view, "Annotations (3)")
	assert.Contains(t, view, "[highlight]")
	assert.Contains(t, view, `"first quote"`)
	assert.Contains(t, view, "#fde047")
	assert.Contains(t, view, "ana: nice")
	assert.Contains(t, view, "[memo]")
	assert.Contains(t, view, "[page]")
	assert.Contains(t, view, "1 memo(s)")
}

func TestAnnotationList_View_Scrolls(t *testing.T) {
	list := NewAnnotationList(nil)
	list.SetDimensions(60, 3)
	list.SetItems(sampleItems(), "")
	list.SetSelected(2)

	view := list.View()

	assert.NotContains(t, view, `"first quote"`)
	assert.Contains(t, view, "[page]")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))
	assert.Equal(t, "line one line two", truncate("line one\nline two", 40))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 3))
}

func TestAnnotationList_Dimensions(t *testing.T) {
	list := NewAnnotationList(nil)

	list.SetDimensions(50, 12)

	assert.Equal(t, 50, list.Width())
	assert.Equal(t, 12, list.Height())
}
