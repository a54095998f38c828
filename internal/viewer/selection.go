package viewer

import (
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Toolbar defaults, in pixels.
const (
	DefaultToolbarWidth  = 220
	DefaultToolbarMargin = 8
)

// boundsSlack is how far a selection may overhang the page container and
// still count as inside it.
const boundsSlack = 1.0

// SelectionSource is the platform's text selection.
type SelectionSource interface {
	// Current returns the live selection, or false if there is none.
	Current() (domain.RawSelection, bool)

	// Clear removes the visible selection.
	Clear()
}

// State is the selection lifecycle state.
type State int

const (
	StateIdle State = iota
	StateDrafting
	StateCommitting
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrafting:
		return "drafting"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	ToolbarWidth  float64
	ToolbarMargin float64
	DefaultColor  string
}

// Controller owns the selection draft: Idle, Drafting, Committing.
type Controller struct {
	source SelectionSource
	opts   ControllerOptions

	key   domain.PageKey
	state State
	draft *domain.SelectionDraft

	composing bool
	memoBody  string

	err error
}

// NewController creates a controller reading from source. Zero options
// take the defaults.
func NewController(source SelectionSource, opts ControllerOptions) *Controller {
	if opts.ToolbarWidth <= 0 {
		opts.ToolbarWidth = DefaultToolbarWidth
	}
	if opts.ToolbarMargin <= 0 {
		opts.ToolbarMargin = DefaultToolbarMargin
	}
	if opts.DefaultColor == "" {
		opts.DefaultColor = domain.DefaultHighlightColor
	}
	return &Controller{source: source, opts: opts}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Draft returns the current draft, or nil.
func (c *Controller) Draft() *domain.SelectionDraft { return c.draft }

// Composing reports whether the memo compose box is open.
func (c *Controller) Composing() bool { return c.composing }

// MemoBody returns the memo being composed.
func (c *Controller) MemoBody() string { return c.memoBody }

// Err returns the last commit failure.
func (c *Controller) Err() error { return c.err }

// Notice returns the user-facing text of the last commit failure.
func (c *Controller) Notice() string { return domain.UserMessage(c.err) }

// SetPage sets the page new anchors are created on. Moving to another
// page discards the draft.
func (c *Controller) SetPage(key domain.PageKey) {
	if key == c.key {
		return
	}
	c.key = key
	if c.state == StateDrafting {
		c.Cancel()
	}
}

// OnSelectionChange reads the source and recomputes the draft against the
// page container. A missing, collapsed, empty or out-of-page selection
// cancels. Ignored while committing.
func (c *Controller) OnSelectionChange(container domain.Box) {
	if c.state == StateCommitting {
		return
	}

	raw, ok := c.source.Current()
	if !ok || raw.Collapsed || len(raw.Rects) == 0 || !container.ContainsBox(raw.Bounds, boundsSlack) {
		c.cancelIfDrafting()
		return
	}

	rects := domain.Normalize(container, raw.Rects)
	if len(rects) == 0 {
		c.cancelIfDrafting()
		return
	}

	c.draft = &domain.SelectionDraft{
		Rects:   rects,
		Text:    strings.TrimSpace(raw.Text),
		Toolbar: c.toolbarAt(rects[0], container),
	}
	c.state = StateDrafting
	c.composing = false
	c.memoBody = ""
	c.err = nil
}

// toolbarAt places the toolbar above the first rect, kept inside the
// container horizontally and below its top edge.
func (c *Controller) toolbarAt(first domain.NormalizedRect, container domain.Box) domain.Point {
	left := first.X * container.Width
	top := first.Y * container.Height
	x := math.Min(left, container.Width-c.opts.ToolbarWidth)
	return domain.Point{
		X: math.Max(0, x),
		Y: math.Max(0, top-c.opts.ToolbarMargin),
	}
}

func (c *Controller) cancelIfDrafting() {
	if c.state == StateDrafting {
		c.Cancel()
	}
}

// Cancel drops the draft and clears the platform selection. It does
// nothing while committing.
func (c *Controller) Cancel() bool {
	if c.state == StateCommitting {
		return false
	}
	c.state = StateIdle
	c.draft = nil
	c.composing = false
	c.memoBody = ""
	c.err = nil
	c.source.Clear()
	return true
}

// OpenMemoCompose switches the toolbar to memo entry.
func (c *Controller) OpenMemoCompose() bool {
	if c.state != StateDrafting {
		return false
	}
	c.composing = true
	return true
}

// SetMemoBody updates the memo being composed.
func (c *Controller) SetMemoBody(body string) {
	if c.composing && c.state == StateDrafting {
		c.memoBody = body
	}
}

// CanCommitMemo reports whether the composed memo can be submitted.
func (c *Controller) CanCommitMemo() bool {
	return c.state == StateDrafting && c.composing && strings.TrimSpace(c.memoBody) != ""
}

// StartHighlight begins committing the draft as a highlight. An empty
// colour uses the default.
func (c *Controller) StartHighlight(color string) (Op, error) {
	if err := c.canStart(); err != nil {
		return Op{}, err
	}
	if color == "" {
		color = c.opts.DefaultColor
	}
	c.state = StateCommitting
	return Op{Kind: OpCreateHighlight, Origin: OriginSelection, Target: c.target(), Color: color}, nil
}

// StartMemo begins committing the draft as a memo on a new anchor.
func (c *Controller) StartMemo() (Op, error) {
	if err := c.canStart(); err != nil {
		return Op{}, err
	}
	if !c.CanCommitMemo() {
		return Op{}, fmt.Errorf("%w: memo body is required", domain.ErrValidation)
	}
	c.state = StateCommitting
	return Op{Kind: OpCreateMemo, Origin: OriginSelection, Target: c.target(), Body: strings.TrimSpace(c.memoBody)}, nil
}

func (c *Controller) canStart() error {
	switch c.state {
	case StateCommitting:
		return domain.ErrSaving
	case StateIdle:
		return fmt.Errorf("%w: nothing is selected", domain.ErrValidation)
	}
	return nil
}

func (c *Controller) target() domain.AnchorTarget {
	rects := make([]domain.NormalizedRect, len(c.draft.Rects))
	copy(rects, c.draft.Rects)
	return domain.AnchorTarget{
		Key:   c.key,
		Rects: rects,
		Quote: domain.TextQuote{Exact: c.draft.Text},
	}
}

// Finish ends a commit. Success clears the draft and the platform
// selection; failure keeps both and records err.
func (c *Controller) Finish(err error) {
	if c.state != StateCommitting {
		return
	}
	if err != nil {
		c.state = StateDrafting
		c.err = err
		return
	}
	c.state = StateDrafting
	c.Cancel()
}
