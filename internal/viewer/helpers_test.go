package viewer

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/core/services"
)

// fakeSource is a scripted platform selection.
type fakeSource struct {
	sel    domain.RawSelection
	ok     bool
	clears int
}

func (f *fakeSource) Current() (domain.RawSelection, bool) { return f.sel, f.ok }

func (f *fakeSource) Clear() {
	f.clears++
	f.ok = false
	f.sel = domain.RawSelection{}
}

func (f *fakeSource) selectRects(text string, rects ...domain.Box) {
	f.sel = domain.RawSelection{Bounds: union(rects), Rects: rects, Text: text}
	f.ok = true
}

func union(rects []domain.Box) domain.Box {
	if len(rects) == 0 {
		return domain.Box{}
	}
	l, t := rects[0].Left, rects[0].Top
	r, b := rects[0].Right(), rects[0].Bottom()
	for _, x := range rects[1:] {
		l, t = min(l, x.Left), min(t, x.Top)
		r, b = max(r, x.Right()), max(b, x.Bottom())
	}
	return domain.Box{Left: l, Top: t, Width: r - l, Height: b - t}
}

// spyService counts calls and can fail the next mutation.
type spyService struct {
	driving.AnnotationService

	mutations int
	fetches   int
	failNext  error
}

func newSpyService() *spyService {
	svc := services.NewAnnotationService(memory.NewAnnotationStore(), nil, "tester")
	return &spyService{AnnotationService: svc}
}

func (s *spyService) fail() error {
	s.mutations++
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *spyService) CreateHighlight(ctx context.Context, t domain.AnchorTarget, color string) (*domain.HighlightCreated, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	return s.AnnotationService.CreateHighlight(ctx, t, color)
}

func (s *spyService) CreateMemo(ctx context.Context, t domain.AnchorTarget, body string) (*domain.MemoCreated, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	return s.AnnotationService.CreateMemo(ctx, t, body)
}

func (s *spyService) CreateMemoOnAnchor(ctx context.Context, anchorID, body string) (*domain.MemoCreated, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	return s.AnnotationService.CreateMemoOnAnchor(ctx, anchorID, body)
}

func (s *spyService) EditMemo(ctx context.Context, memoID, body string) error {
	if err := s.fail(); err != nil {
		return err
	}
	return s.AnnotationService.EditMemo(ctx, memoID, body)
}

func (s *spyService) DeleteMemo(ctx context.Context, memoID string) error {
	if err := s.fail(); err != nil {
		return err
	}
	return s.AnnotationService.DeleteMemo(ctx, memoID)
}

func (s *spyService) DeleteHighlight(ctx context.Context, id string) error {
	if err := s.fail(); err != nil {
		return err
	}
	return s.AnnotationService.DeleteHighlight(ctx, id)
}

func (s *spyService) FetchPage(ctx context.Context, key domain.PageKey) (*domain.PageAnnotationSet, error) {
	s.fetches++
	return s.AnnotationService.FetchPage(ctx, key)
}

// pageBox is the rendered page used across tests.
var pageBox = domain.Box{Left: 100, Top: 50, Width: 600, Height: 800}

func renderedPage(hash string, page int) *domain.RenderedPage {
	return &domain.RenderedPage{Key: domain.PageKey{DocumentHash: hash, Page: page}, Box: pageBox, Scale: 1}
}
