package viewer

import (
	"context"
	"errors"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Session ties the controller, repository and panel to one rendered page
// and serialises their mutations: at most one op is in flight.
type Session struct {
	Controller *Controller
	Repo       *Repository
	Panel      *Panel

	svc    driving.AnnotationService
	page   *domain.RenderedPage
	saving bool

	fetchErr error
}

// NewSession creates a session over svc, reading selections from source.
func NewSession(svc driving.AnnotationService, source SelectionSource, opts ControllerOptions) *Session {
	repo := NewRepository()
	return &Session{
		Controller: NewController(source, opts),
		Repo:       repo,
		Panel:      NewPanel(repo),
		svc:        svc,
	}
}

// Service returns the annotation service ops run against.
func (s *Session) Service() driving.AnnotationService { return s.svc }

// Page returns the last rendered page, or nil.
func (s *Session) Page() *domain.RenderedPage { return s.page }

// Saving reports whether an op is in flight.
func (s *Session) Saving() bool { return s.saving }

// OnPageRendered records the page box. When the page changed, or has not
// been fetched yet, it returns a ticket to fetch its annotations. A draft
// does not survive a re-render at another size.
func (s *Session) OnPageRendered(page *domain.RenderedPage) (FetchTicket, bool) {
	prev := s.page
	s.page = page

	if prev != nil && prev.Key == page.Key && prev.Box != page.Box {
		s.Controller.Cancel()
	}
	s.Controller.SetPage(page.Key)

	changed := s.Repo.SetActivePage(page.Key)
	if !changed && s.Repo.Current() != nil {
		return FetchTicket{}, false
	}
	s.fetchErr = nil
	t, err := s.Repo.BeginFetch()
	if err != nil {
		logger.Warn("Cannot fetch %s: %v", page.Key, err)
		return FetchTicket{}, false
	}
	return t, true
}

// OnSelectionChange forwards a selection change to the controller.
func (s *Session) OnSelectionChange() {
	if s.page == nil {
		return
	}
	s.Controller.OnSelectionChange(s.page.Box)
}

// Regions returns the stored annotations followed by the draft.
func (s *Session) Regions() []domain.Region {
	if s.page == nil {
		return nil
	}
	regions := Project(s.Repo.Current(), s.page.Box, s.Repo.Selected())
	draft, _ := ProjectDraft(s.Controller.Draft(), s.page.Box)
	return append(regions, draft...)
}

// Toolbar returns the toolbar position while drafting.
func (s *Session) Toolbar() (domain.Point, bool) {
	if s.page == nil || s.Controller.State() == StateIdle {
		return domain.Point{}, false
	}
	_, pt := ProjectDraft(s.Controller.Draft(), s.page.Box)
	return pt, true
}

// Click selects the top-most annotation under pt, or clears the
// selection when there is none. Any draft is discarded.
func (s *Session) Click(pt domain.Point) (string, bool) {
	s.Controller.Cancel()
	if s.page == nil {
		return "", false
	}
	regions := Project(s.Repo.Current(), s.page.Box, s.Repo.Selected())
	r, ok := HitTest(regions, pt)
	if !ok {
		s.Repo.ClearSelection()
		return "", false
	}
	s.Repo.Select(r.AnchorID)
	return r.AnchorID, true
}

// StartHighlight begins committing the draft as a highlight.
func (s *Session) StartHighlight(color string) (Op, error) {
	return s.begin(func() (Op, error) { return s.Controller.StartHighlight(color) })
}

// StartMemo begins committing the draft as a memo.
func (s *Session) StartMemo() (Op, error) {
	return s.begin(s.Controller.StartMemo)
}

// SubmitAnchorMemo begins adding the panel's memo to the expanded anchor.
func (s *Session) SubmitAnchorMemo() (Op, error) {
	return s.begin(s.Panel.SubmitAnchorMemo)
}

// SubmitPageMemo begins creating the panel's page-level memo.
func (s *Session) SubmitPageMemo() (Op, error) {
	return s.begin(s.Panel.SubmitPageMemo)
}

// SubmitEdit begins saving the panel's memo edit.
func (s *Session) SubmitEdit() (Op, error) {
	return s.begin(s.Panel.SubmitEdit)
}

// DeleteMemo begins deleting a memo.
func (s *Session) DeleteMemo(memoID string) (Op, error) {
	return s.begin(func() (Op, error) { return s.Panel.DeleteMemo(memoID) })
}

// DeleteHighlight begins deleting the expanded anchor's highlight.
func (s *Session) DeleteHighlight() (Op, error) {
	return s.begin(s.Panel.DeleteHighlight)
}

func (s *Session) begin(start func() (Op, error)) (Op, error) {
	if s.saving {
		return Op{}, domain.ErrSaving
	}
	op, err := start()
	if err != nil {
		return Op{}, err
	}
	s.saving = true
	return op, nil
}

// Finish reports an op's outcome to the component that started it. On
// success it returns a ticket to refetch the active page.
func (s *Session) Finish(op Op, err error) (FetchTicket, bool) {
	s.saving = false
	switch op.Origin {
	case OriginSelection:
		s.Controller.Finish(err)
	case OriginPanel:
		s.Panel.Finish(op, err)
	}
	if err != nil {
		logger.Debug("%s failed: %v", op.Kind, err)
		return FetchTicket{}, false
	}

	t, terr := s.Repo.BeginFetch()
	if terr != nil {
		return FetchTicket{}, false
	}
	return t, true
}

// Complete stores a fetch result. Stale results are dropped silently.
func (s *Session) Complete(t FetchTicket, set *domain.PageAnnotationSet, err error) error {
	err = s.Repo.Complete(t, set, err)
	if errors.Is(err, domain.ErrConcurrencyDrift) {
		logger.Debug("Dropped stale fetch: %v", err)
		return nil
	}
	s.fetchErr = err
	return err
}

// FetchNotice returns the user-facing text of the last failed fetch.
func (s *Session) FetchNotice() string { return domain.UserMessage(s.fetchErr) }

// Run executes op and refreshes the active page synchronously.
func (s *Session) Run(ctx context.Context, op Op) error {
	err := op.Execute(ctx, s.svc)
	t, ok := s.Finish(op, err)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	set, err := t.Fetch(ctx, s.svc)
	return s.Complete(t, set, err)
}

// Load renders page and fetches its annotations synchronously.
func (s *Session) Load(ctx context.Context, page *domain.RenderedPage) error {
	t, ok := s.OnPageRendered(page)
	if !ok {
		return nil
	}
	set, err := t.Fetch(ctx, s.svc)
	return s.Complete(t, set, err)
}
