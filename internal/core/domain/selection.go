package domain

// RawSelection is what the platform reports for the current text selection,
// in viewport pixels.
type RawSelection struct {
	// Collapsed is true when the selection is a caret with no extent.
	Collapsed bool

	// Bounds is the bounding box of the whole selection.
	Bounds Box

	// Rects are the per-line client rectangles.
	Rects []Box

	// Text is the selected text.
	Text string
}

// SelectionDraft is an in-progress selection awaiting a highlight or memo
// decision. It is never persisted.
type SelectionDraft struct {
	Rects []NormalizedRect

	Text string

	// Toolbar is the toolbar's top-left corner, relative to the page container.
	Toolbar Point
}
