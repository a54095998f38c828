// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// RowKind identifies what a panel row shows.
type RowKind int

const (
	// RowBundle is the heading row of an anchor.
	RowBundle RowKind = iota
	// RowHighlight is the highlight of the expanded anchor.
	RowHighlight
	// RowMemo is one memo of the expanded anchor.
	RowMemo
)

// Row is one line of the annotation list.
type Row struct {
	Kind     RowKind
	AnchorID string

	// ID is the highlight or memo ID; empty for bundle rows.
	ID string
}

// AnnotationList displays a page's annotations in a navigable list. The
// expanded anchor shows its highlight and memos beneath its heading.
type AnnotationList struct {
	items    []domain.AnnotationBundle
	expanded string
	rows     []Row
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewAnnotationList creates a new annotation list component.
func NewAnnotationList(s *styles.Styles) *AnnotationList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &AnnotationList{
		styles: s,
		width:  40,
		height: 10,
	}
}

// Init initialises the annotation list.
func (l *AnnotationList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *AnnotationList) Update(msg tea.Msg) (*AnnotationList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// SetItems replaces the bundles and the expanded anchor. The cursor stays
// on the same row when that row still exists.
func (l *AnnotationList) SetItems(items []domain.AnnotationBundle, expanded string) {
	var current Row
	hadRow := false
	if r, ok := l.SelectedRow(); ok {
		current, hadRow = r, true
	}

	l.items = items
	l.expanded = expanded
	l.rows = l.rows[:0]
	for i := range items {
		b := &items[i]
		l.rows = append(l.rows, Row{Kind: RowBundle, AnchorID: b.Anchor.ID})
		if b.Anchor.ID != expanded {
			continue
		}
		if h := b.Highlight(); h != nil {
			l.rows = append(l.rows, Row{Kind: RowHighlight, AnchorID: b.Anchor.ID, ID: h.ID})
		}
		for _, m := range b.Memos {
			l.rows = append(l.rows, Row{Kind: RowMemo, AnchorID: b.Anchor.ID, ID: m.ID})
		}
	}

	if hadRow {
		for i, r := range l.rows {
			if r == current {
				l.selected = i
				return
			}
		}
		// Fall back to the anchor heading, then clamp.
		for i, r := range l.rows {
			if r.Kind == RowBundle && r.AnchorID == current.AnchorID {
				l.selected = i
				return
			}
		}
	}
	l.clamp()
}

// View renders the annotation list.
func (l *AnnotationList) View() string {
	if len(l.items) == 0 {
		return l.styles.Muted.Render("No annotations on this page")
	}

	lines := make([]string, 0, len(l.rows)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Annotations (%d)", len(l.items))), "")

	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.rows) {
		end = len(l.rows)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(i, l.rows[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *AnnotationList) renderRow(index int, row Row) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	b := l.bundle(row.AnchorID)
	if b == nil {
		return ""
	}

	var text string
	switch row.Kind {
	case RowBundle:
		marker := "+"
		if row.AnchorID == l.expanded {
			marker = "-"
		}
		text = fmt.Sprintf("%s %s %s", marker, kindLabel(b), l.summary(b))
	case RowHighlight:
		h := b.Highlight()
		text = "    " + l.styles.Swatch(h.Color) + " " + h.Color
	case RowMemo:
		m := b.Memo(row.ID)
		if m == nil {
			return ""
		}
		by := ""
		if m.CreatedBy != "" {
			by = m.CreatedBy + ": "
		}
		text = "    " + truncate(by+m.Body, l.width-8)
	}

	if index == l.selected {
		return l.styles.Selected.Render(indicator + text)
	}
	return l.styles.Normal.Render(indicator) + text
}

func (l *AnnotationList) summary(b *domain.AnnotationBundle) string {
	quote := b.Anchor.Quote.Exact
	if quote == "" {
		quote = fmt.Sprintf("%d memo(s)", len(b.Memos))
	} else {
		quote = fmt.Sprintf("%q", quote)
	}
	return truncate(quote, l.width-14)
}

func kindLabel(b *domain.AnnotationBundle) string {
	return "[" + b.Kind().String() + "]"
}

func truncate(s string, n int) string {
	if n < 10 {
		n = 10
	}
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (l *AnnotationList) bundle(anchorID string) *domain.AnnotationBundle {
	for i := range l.items {
		if l.items[i].Anchor.ID == anchorID {
			return &l.items[i]
		}
	}
	return nil
}

func (l *AnnotationList) clamp() {
	if l.selected >= len(l.rows) {
		l.selected = len(l.rows) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// Rows returns the current rows.
func (l *AnnotationList) Rows() []Row {
	return l.rows
}

// Selected returns the index of the selected row.
func (l *AnnotationList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *AnnotationList) SetSelected(index int) {
	if index >= 0 && index < len(l.rows) {
		l.selected = index
	}
}

// SelectedRow returns the row under the cursor.
func (l *AnnotationList) SelectedRow() (Row, bool) {
	if len(l.rows) == 0 || l.selected < 0 || l.selected >= len(l.rows) {
		return Row{}, false
	}
	return l.rows[l.selected], true
}

// SelectAnchor moves the cursor to an anchor's heading row.
func (l *AnnotationList) SelectAnchor(anchorID string) bool {
	for i, r := range l.rows {
		if r.Kind == RowBundle && r.AnchorID == anchorID {
			l.selected = i
			return true
		}
	}
	return false
}

// MoveUp moves selection up.
func (l *AnnotationList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *AnnotationList) MoveDown() {
	if l.selected < len(l.rows)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *AnnotationList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Width returns the current width.
func (l *AnnotationList) Width() int {
	return l.width
}

// Height returns the current height.
func (l *AnnotationList) Height() int {
	return l.height
}

// Count returns the number of bundles.
func (l *AnnotationList) Count() int {
	return len(l.items)
}

// IsEmpty returns whether the list is empty.
func (l *AnnotationList) IsEmpty() bool {
	return len(l.items) == 0
}
