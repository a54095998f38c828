package page

import (
	"math"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/viewer"
)

// textSelection is a keyboard selection over a page's text layer: a
// cursor on one span and, while marking, an anchor span. The selection is
// every span between the two.
type textSelection struct {
	spans  []domain.TextSpan
	cursor int
	mark   int
}

var _ viewer.SelectionSource = (*textSelection)(nil)

func newTextSelection() *textSelection {
	return &textSelection{mark: -1}
}

// SetSpans replaces the text layer. Cursor and mark are kept when keep is
// set and they are still in range.
func (s *textSelection) SetSpans(spans []domain.TextSpan, keep bool) {
	s.spans = spans
	if !keep || s.cursor >= len(spans) {
		s.cursor = 0
	}
	if !keep || s.mark >= len(spans) {
		s.mark = -1
	}
}

// Empty reports whether the page has no text to select.
func (s *textSelection) Empty() bool {
	return len(s.spans) == 0
}

// Move shifts the cursor by delta spans and reports whether it moved.
func (s *textSelection) Move(delta int) bool {
	if len(s.spans) == 0 {
		return false
	}
	next := s.cursor + delta
	if next < 0 {
		next = 0
	}
	if next >= len(s.spans) {
		next = len(s.spans) - 1
	}
	moved := next != s.cursor
	s.cursor = next
	return moved
}

// Cursor returns the span under the cursor.
func (s *textSelection) Cursor() (domain.TextSpan, bool) {
	if len(s.spans) == 0 {
		return domain.TextSpan{}, false
	}
	return s.spans[s.cursor], true
}

// CursorPoint returns the centre of the cursor span.
func (s *textSelection) CursorPoint() (domain.Point, bool) {
	span, ok := s.Cursor()
	if !ok {
		return domain.Point{}, false
	}
	return domain.Point{
		X: span.Box.Left + span.Box.Width/2,
		Y: span.Box.Top + span.Box.Height/2,
	}, true
}

// Mark anchors the selection at the cursor.
func (s *textSelection) Mark() bool {
	if len(s.spans) == 0 {
		return false
	}
	s.mark = s.cursor
	return true
}

// Marking reports whether a selection is being extended.
func (s *textSelection) Marking() bool {
	return s.mark >= 0
}

// Current returns the spans between the mark and the cursor.
func (s *textSelection) Current() (domain.RawSelection, bool) {
	if s.mark < 0 || len(s.spans) == 0 {
		return domain.RawSelection{}, false
	}
	lo, hi := s.mark, s.cursor
	if lo > hi {
		lo, hi = hi, lo
	}

	sel := domain.RawSelection{}
	texts := make([]string, 0, hi-lo+1)
	left, top := math.Inf(1), math.Inf(1)
	right, bottom := math.Inf(-1), math.Inf(-1)
	for _, span := range s.spans[lo : hi+1] {
		sel.Rects = append(sel.Rects, span.Box)
		texts = append(texts, strings.TrimSpace(span.Text))
		left = math.Min(left, span.Box.Left)
		top = math.Min(top, span.Box.Top)
		right = math.Max(right, span.Box.Right())
		bottom = math.Max(bottom, span.Box.Bottom())
	}
	sel.Bounds = domain.Box{Left: left, Top: top, Width: right - left, Height: bottom - top}
	sel.Text = strings.Join(texts, " ")
	sel.Collapsed = sel.Bounds.Empty()
	return sel, true
}

// Clear drops the mark.
func (s *textSelection) Clear() {
	s.mark = -1
}
