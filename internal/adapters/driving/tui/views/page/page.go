// Package page provides the annotated page view for the TUI: the page
// drawn as a character grid with its highlights, a keyboard text
// selection, and a side panel listing the page's annotations.
package page

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
	"github.com/custodia-labs/marginalia/internal/viewer"
)

// DefaultRenderWidth is the pixel width pages are laid out at.
const DefaultRenderWidth = 800

// canvasTop is the number of lines above the page grid.
const canvasTop = 2

// Focus identifies which pane receives keys.
type Focus int

const (
	FocusPage Focus = iota
	FocusPanel
)

// InputMode identifies what the memo input is composing.
type InputMode int

const (
	InputNone InputMode = iota
	InputDraftMemo
	InputAnchorMemo
	InputPageMemo
	InputEdit
)

// Options configures the page view.
type Options struct {
	// RenderWidth is the pixel width pages are laid out at.
	RenderWidth float64

	// Controller configures the selection toolbar.
	Controller viewer.ControllerOptions
}

// View shows one page of a document with its annotations.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	ctx    context.Context

	annotations driving.AnnotationService
	documents   driving.DocumentService
	opts        Options

	session *viewer.Session
	sel     *textSelection

	doc     domain.DocumentInfo
	pageNum int

	list  *list.AnnotationList
	input *input.MemoInput
	bar   *status.Bar
	mode  InputMode
	focus Focus

	palette  []string
	colorIdx int

	loading bool
	err     error
	notice  string

	lastCanvas  *canvas
	lastRegions []domain.Region

	width  int
	height int
}

// NewView creates a page view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	annotations driving.AnnotationService,
	documents driving.DocumentService,
	opts Options,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if opts.RenderWidth <= 0 {
		opts.RenderWidth = DefaultRenderWidth
	}

	sel := newTextSelection()
	v := &View{
		styles:      s,
		keymap:      km,
		ctx:         context.Background(),
		annotations: annotations,
		documents:   documents,
		opts:        opts,
		session:     viewer.NewSession(annotations, sel, opts.Controller),
		sel:         sel,
		list:        list.NewAnnotationList(s),
		input:       input.NewMemoInput(s),
		bar:         status.NewBar(s, km),
		palette:     palette(opts.Controller.DefaultColor),
		width:       80,
		height:      24,
	}
	return v
}

// palette returns the highlight colours with def first.
func palette(def string) []string {
	colors := domain.HighlightPalette()
	if def == "" {
		return colors
	}
	for i, c := range colors {
		if strings.EqualFold(c, def) {
			return append(append([]string{c}, colors[:i]...), colors[i+1:]...)
		}
	}
	return append([]string{def}, colors...)
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	if ctx != nil {
		v.ctx = ctx
	}
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Open shows doc at page and starts rendering it.
func (v *View) Open(doc domain.DocumentInfo, page int) tea.Cmd {
	v.doc = doc
	v.focus = FocusPage
	v.closeInput()
	return v.goTo(page)
}

// goTo renders another page of the open document.
func (v *View) goTo(page int) tea.Cmd {
	if page < 1 {
		page = 1
	}
	if v.doc.PageCount > 0 && page > v.doc.PageCount {
		page = v.doc.PageCount
	}
	v.pageNum = page
	v.err = nil
	v.notice = ""
	return v.render()
}

// Key returns the page being shown.
func (v *View) Key() domain.PageKey {
	return domain.PageKey{DocumentHash: v.doc.Hash, Page: v.pageNum}
}

func (v *View) render() tea.Cmd {
	v.loading = true
	ctx, docs, key, width := v.ctx, v.documents, v.Key(), v.opts.RenderWidth
	return func() tea.Msg {
		if docs == nil {
			return messages.PageRendered{Key: key, Err: errors.New("document service not available")}
		}
		page, err := docs.Render(ctx, key, width)
		return messages.PageRendered{Key: key, Page: page, Err: err}
	}
}

func (v *View) fetch(t viewer.FetchTicket) tea.Cmd {
	ctx, svc := v.ctx, v.annotations
	return func() tea.Msg {
		set, err := t.Fetch(ctx, svc)
		return messages.PageFetched{Ticket: t, Set: set, Err: err}
	}
}

func (v *View) execute(op viewer.Op) tea.Cmd {
	ctx, svc := v.ctx, v.annotations
	return func() tea.Msg {
		return messages.OpFinished{Op: op, Err: op.Execute(ctx, svc)}
	}
}

// start runs an op begun by the session, or shows why it could not begin.
func (v *View) start(op viewer.Op, err error) tea.Cmd {
	if err != nil {
		v.notice = domain.UserMessage(err)
		return nil
	}
	v.notice = ""
	logger.Debug("Starting %s", op.Kind)
	return v.execute(op)
}

// Update handles messages for the page view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.PageRendered:
		return v, v.handleRendered(msg)

	case messages.PageFetched:
		if err := v.session.Complete(msg.Ticket, msg.Set, msg.Err); err != nil {
			logger.Warn("Fetching annotations for %s: %v", msg.Ticket.Key, err)
		}
		v.syncList()
		return v, nil

	case messages.OpFinished:
		return v, v.handleFinished(msg)

	case messages.DocumentChanged:
		return v, v.handleDocumentChanged(msg.Document)

	case tea.MouseMsg:
		return v, v.handleMouse(msg)

	case tea.KeyMsg:
		if v.mode != InputNone {
			return v, v.handleInputKey(msg)
		}
		if v.focus == FocusPanel {
			return v, v.handlePanelKey(msg)
		}
		return v, v.handlePageKey(msg)
	}
	return v, nil
}

func (v *View) handleRendered(msg messages.PageRendered) tea.Cmd {
	if msg.Key != v.Key() {
		// A newer page was asked for while this one rendered.
		return nil
	}
	if msg.Err == nil && msg.Page == nil {
		msg.Err = errors.New("empty render result")
	}
	v.loading = false
	if msg.Err != nil {
		v.err = msg.Err
		return nil
	}
	v.err = nil

	prev := v.session.Page()
	v.sel.SetSpans(msg.Page.TextLayer, prev != nil && prev.Key == msg.Page.Key)
	t, ok := v.session.OnPageRendered(msg.Page)
	v.syncList()
	if !ok {
		return nil
	}
	return v.fetch(t)
}

func (v *View) handleFinished(msg messages.OpFinished) tea.Cmd {
	t, ok := v.session.Finish(msg.Op, msg.Err)
	if msg.Err != nil {
		v.notice = domain.UserMessage(msg.Err)
		return nil
	}
	v.notice = ""
	if v.finishedBy(msg.Op) {
		v.closeInput()
	}
	v.syncList()
	if !ok {
		return nil
	}
	return v.fetch(t)
}

// finishedBy reports whether op was submitted from the open input.
func (v *View) finishedBy(op viewer.Op) bool {
	switch v.mode {
	case InputDraftMemo:
		return op.Origin == viewer.OriginSelection && op.Kind == viewer.OpCreateMemo
	case InputAnchorMemo:
		return op.Kind == viewer.OpAddMemo
	case InputPageMemo:
		return op.Origin == viewer.OriginPanel && op.Kind == viewer.OpCreateMemo
	case InputEdit:
		return op.Kind == viewer.OpEditMemo
	case InputNone:
	}
	return false
}

func (v *View) handleDocumentChanged(doc domain.DocumentInfo) tea.Cmd {
	if v.doc.Path == "" || doc.Path != v.doc.Path {
		return nil
	}
	logger.Info("Reloading %s", filepath.Base(doc.Path))
	v.doc = doc
	return v.goTo(v.pageNum)
}

func (v *View) handlePageKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		if v.sel.Move(-1) && v.sel.Marking() {
			v.session.OnSelectionChange()
		}
	case keymap.Matches(k, v.keymap.Down):
		if v.sel.Move(1) && v.sel.Marking() {
			v.session.OnSelectionChange()
		}
	case keymap.Matches(k, v.keymap.NextPage):
		if v.pageNum < v.doc.PageCount {
			return v.goTo(v.pageNum + 1)
		}
	case keymap.Matches(k, v.keymap.PrevPage):
		if v.pageNum > 1 {
			return v.goTo(v.pageNum - 1)
		}
	case keymap.Matches(k, v.keymap.Mark):
		v.toggleMark()
	case keymap.Matches(k, v.keymap.Back):
		if v.session.Controller.State() == viewer.StateIdle {
			return func() tea.Msg { return messages.ViewChanged{View: messages.ViewDocuments} }
		}
		v.session.Controller.Cancel()
	case keymap.Matches(k, v.keymap.Highlight):
		return v.start(v.session.StartHighlight(v.Color()))
	case keymap.Matches(k, v.keymap.Color):
		v.colorIdx = (v.colorIdx + 1) % len(v.palette)
	case keymap.Matches(k, v.keymap.Memo):
		if v.session.Controller.OpenMemoCompose() {
			v.openInput(InputDraftMemo, "Memo", v.session.Controller.MemoBody())
		}
	case keymap.Matches(k, v.keymap.Select):
		if pt, ok := v.sel.CursorPoint(); ok {
			v.click(pt)
		}
	case keymap.Matches(k, v.keymap.PageMemo):
		v.openInput(InputPageMemo, "Page memo", v.session.Panel.PageBody())
	case keymap.Matches(k, v.keymap.Focus):
		v.focus = FocusPanel
	}
	return nil
}

func (v *View) toggleMark() {
	if v.sel.Marking() {
		v.sel.Clear()
		v.session.OnSelectionChange()
		return
	}
	if !v.sel.Mark() {
		v.notice = "No text on this page to select"
		return
	}
	v.notice = ""
	v.session.OnSelectionChange()
}

func (v *View) click(pt domain.Point) {
	if id, ok := v.session.Click(pt); ok {
		v.syncList()
		v.list.SelectAnchor(id)
		return
	}
	v.syncList()
}

func (v *View) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft || v.lastCanvas == nil {
		return nil
	}
	col, row := msg.X, msg.Y-canvasTop
	if col < 0 || col >= v.lastCanvas.cols || row < 0 || row >= v.lastCanvas.rows {
		return nil
	}
	v.focus = FocusPage
	v.click(v.lastCanvas.Target(col, row, v.lastRegions))
	return nil
}

func (v *View) handlePanelKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	row, hasRow := v.list.SelectedRow()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(k, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(k, v.keymap.Focus), keymap.Matches(k, v.keymap.Back):
		v.focus = FocusPage
	case keymap.Matches(k, v.keymap.Select):
		if hasRow {
			v.session.Panel.Toggle(row.AnchorID)
			v.syncList()
		}
	case keymap.Matches(k, v.keymap.AddMemo):
		if v.session.Panel.Expanded() == nil {
			v.notice = "Open an annotation first"
			return nil
		}
		v.openInput(InputAnchorMemo, "Reply", v.session.Panel.AnchorBody())
	case keymap.Matches(k, v.keymap.PageMemo):
		v.openInput(InputPageMemo, "Page memo", v.session.Panel.PageBody())
	case keymap.Matches(k, v.keymap.Edit):
		if !hasRow || row.Kind != list.RowMemo {
			return nil
		}
		if err := v.session.Panel.BeginEdit(row.ID); err != nil {
			v.notice = domain.UserMessage(err)
			return nil
		}
		v.openInput(InputEdit, "Edit", v.session.Panel.EditBody())
	case keymap.Matches(k, v.keymap.Delete):
		if !hasRow {
			return nil
		}
		switch row.Kind {
		case list.RowMemo:
			return v.start(v.session.DeleteMemo(row.ID))
		case list.RowHighlight:
			return v.start(v.session.DeleteHighlight())
		case list.RowBundle:
		}
	}
	return nil
}

func (v *View) openInput(mode InputMode, label, value string) {
	v.mode = mode
	v.input.Open(label, value)
}

func (v *View) closeInput() {
	v.mode = InputNone
	v.input.Close()
}

func (v *View) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		v.cancelInput()
		return nil
	case tea.KeyEnter:
		return v.submitInput()
	default:
		_, cmd := v.input.Update(msg)
		v.storeInput()
		return cmd
	}
}

// storeInput copies the typed text to whichever draft owns it, so it
// survives a failed save.
func (v *View) storeInput() {
	value := v.input.Value()
	switch v.mode {
	case InputDraftMemo:
		v.session.Controller.SetMemoBody(value)
	case InputAnchorMemo:
		v.session.Panel.SetAnchorBody(value)
	case InputPageMemo:
		v.session.Panel.SetPageBody(value)
	case InputEdit:
		v.session.Panel.SetEditBody(value)
	case InputNone:
	}
}

func (v *View) submitInput() tea.Cmd {
	v.storeInput()
	switch v.mode {
	case InputDraftMemo:
		return v.start(v.session.StartMemo())
	case InputAnchorMemo:
		return v.start(v.session.SubmitAnchorMemo())
	case InputPageMemo:
		return v.start(v.session.SubmitPageMemo())
	case InputEdit:
		return v.start(v.session.SubmitEdit())
	case InputNone:
	}
	return nil
}

func (v *View) cancelInput() {
	if v.session.Saving() {
		return
	}
	switch v.mode {
	case InputDraftMemo:
		v.session.Controller.Cancel()
	case InputEdit:
		v.session.Panel.CancelEdit()
	case InputAnchorMemo, InputPageMemo, InputNone:
	}
	v.closeInput()
}

// syncList mirrors the panel into the list component.
func (v *View) syncList() {
	v.list.SetItems(v.session.Panel.Items(), v.session.Repo.Selected())
}

// Color returns the colour the next highlight will use.
func (v *View) Color() string {
	return v.palette[v.colorIdx]
}

// View renders the page view.
func (v *View) View() string {
	v.syncBar()

	panelWidth := v.panelWidth()
	pageWidth := max(v.width-panelWidth-1, 10)
	bodyHeight := max(v.height-canvasTop-1, 3)

	header := v.renderHeader(pageWidth)
	left := v.renderPage(pageWidth, bodyHeight)
	right := v.renderPanel(panelWidth, bodyHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(pageWidth).Render(left),
		v.styles.Panel.Width(panelWidth).Render(right),
	)
	return header + "\n\n" + body + "\n" + v.bar.View()
}

func (v *View) renderHeader(width int) string {
	name := filepath.Base(v.doc.Path)
	if v.doc.Path == "" {
		name = v.doc.Hash
	}
	title := v.styles.Title.Render(name)
	pos := v.styles.Muted.Render(fmt.Sprintf("  page %d of %d", v.pageNum, v.doc.PageCount))
	return lipgloss.NewStyle().MaxWidth(width + v.panelWidth()).Render(title + pos)
}

func (v *View) renderPage(cols, maxRows int) string {
	if v.loading && v.session.Page() == nil {
		return v.styles.Muted.Render("Loading page...")
	}
	if v.err != nil {
		return v.styles.Error.Render("Could not render page: " + domain.UserMessage(v.err))
	}
	page := v.session.Page()
	if page == nil {
		return v.styles.Muted.Render("No page")
	}

	regions := v.session.Regions()
	var cursor *domain.Box
	if span, ok := v.sel.Cursor(); ok && v.focus == FocusPage {
		cursor = &span.Box
	}
	c := newCanvas(page, regions, cursor, cols, gridSize(page.Box, cols, maxRows))
	if pt, ok := v.session.Toolbar(); ok {
		if col, row, inside := c.Cell(pt); inside {
			c.Overlay(col, row, v.toolbarText())
		}
	}
	v.lastCanvas = c
	v.lastRegions = regions
	return c.Render(v.styles, regions)
}

func (v *View) toolbarText() string {
	if v.session.Controller.Composing() {
		return " memo: enter save, esc cancel "
	}
	return fmt.Sprintf(" h highlight %s | c colour | m memo | esc ", v.Color())
}

func (v *View) renderPanel(width, height int) string {
	var b strings.Builder
	listHeight := height
	if v.mode != InputNone {
		listHeight -= 3
	}
	v.list.SetDimensions(width, listHeight)
	v.input.SetWidth(width)

	b.WriteString(v.list.View())
	if v.mode != InputNone {
		b.WriteString("\n\n")
		b.WriteString(v.input.View())
	}
	return b.String()
}

func (v *View) panelWidth() int {
	w := v.width * 2 / 5
	return max(min(w, 60), 24)
}

// syncBar copies the view state into the status bar.
func (v *View) syncBar() {
	v.bar.SetWidth(v.width)
	v.bar.SetPosition(v.pageNum, v.doc.PageCount)
	if set := v.session.Repo.Current(); set != nil {
		v.bar.SetCount(set.Count)
	} else {
		v.bar.SetCount(0)
	}
	v.bar.SetMessage("")

	notice := v.Notice()
	switch {
	case v.loading:
		v.bar.SetState(status.StateLoading)
	case v.session.Saving():
		v.bar.SetState(status.StateSaving)
	case notice != "":
		v.bar.SetState(status.StateError)
		v.bar.SetMessage(notice)
	case v.mode != InputNone:
		v.bar.SetState(status.StateComposing)
	case v.focus == FocusPanel:
		v.bar.SetState(status.StatePanel)
	case v.session.Controller.State() == viewer.StateDrafting:
		v.bar.SetState(status.StateDrafting)
	default:
		v.bar.SetState(status.StateReady)
	}
}

// Notice returns the message to show the user, most recent source first.
func (v *View) Notice() string {
	for _, n := range []string{
		v.notice,
		v.session.Controller.Notice(),
		v.session.Panel.Notice(),
		v.session.FetchNotice(),
	} {
		if n != "" {
			return n
		}
	}
	return ""
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Session returns the annotation session.
func (v *View) Session() *viewer.Session {
	return v.session
}

// Document returns the open document.
func (v *View) Document() domain.DocumentInfo {
	return v.doc
}

// PageNumber returns the page being shown.
func (v *View) PageNumber() int {
	return v.pageNum
}

// FocusedPane returns which pane receives keys.
func (v *View) FocusedPane() Focus {
	return v.focus
}

// Mode returns what the memo input is composing.
func (v *View) Mode() InputMode {
	return v.mode
}

// Loading reports whether a render is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last render error.
func (v *View) Err() error {
	return v.err
}

// InputValue returns the text in the memo input.
func (v *View) InputValue() string {
	return v.input.Value()
}

// List returns the annotation list.
func (v *View) List() *list.AnnotationList {
	return v.list
}
