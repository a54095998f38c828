package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure AnnotationService implements the interface.
var _ driving.AnnotationService = (*AnnotationService)(nil)

// AnnotationService creates and fetches annotations against a store.
// It is the local backend and the handler behind the HTTP API.
type AnnotationService struct {
	store     driven.AnnotationStore
	sanitiser driven.Sanitiser
	author    string

	now   func() time.Time
	newID func() string
}

// NewAnnotationService creates a new annotation service.
// sanitiser may be nil. author is recorded as CreatedBy.
func NewAnnotationService(store driven.AnnotationStore, sanitiser driven.Sanitiser, author string) *AnnotationService {
	return &AnnotationService{
		store:     store,
		sanitiser: sanitiser,
		author:    author,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// CreateHighlight creates an anchor with a highlight.
func (s *AnnotationService) CreateHighlight(
	ctx context.Context, target domain.AnchorTarget, color string,
) (*domain.HighlightCreated, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	if len(target.Rects) == 0 {
		return nil, fmt.Errorf("%w: a highlight needs at least one rect", domain.ErrValidation)
	}
	hex, err := NormalizeColor(color)
	if err != nil {
		return nil, err
	}

	anchor, err := s.newAnchor(target)
	if err != nil {
		return nil, err
	}
	h := domain.Highlight{
		ID:        s.newID(),
		AnchorID:  anchor.ID,
		Color:     hex,
		CreatedBy: s.author,
		CreatedAt: anchor.CreatedAt,
	}
	bundle := &domain.AnnotationBundle{Anchor: *anchor, Highlights: []domain.Highlight{h}}
	if err := s.store.SaveAnchor(ctx, bundle); err != nil {
		return nil, fmt.Errorf("create highlight: %w", err)
	}

	logger.Debug("Created highlight %s on anchor %s (%s, %d rects)", h.ID, anchor.ID, target.Key, len(anchor.Rects))
	return &domain.HighlightCreated{AnchorID: anchor.ID, HighlightID: h.ID}, nil
}

// CreateMemo creates an anchor with a memo. Empty rects attach the memo to
// the page-level anchor, creating it on first use.
func (s *AnnotationService) CreateMemo(
	ctx context.Context, target domain.AnchorTarget, body string,
) (*domain.MemoCreated, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	body, err := s.cleanBody(body)
	if err != nil {
		return nil, err
	}

	if len(target.Rects) == 0 {
		return s.addPageMemo(ctx, target, body)
	}

	anchor, err := s.newAnchor(target)
	if err != nil {
		return nil, err
	}
	m := s.newMemo(anchor.ID, body)
	bundle := &domain.AnnotationBundle{Anchor: *anchor, Memos: []domain.Memo{m}}
	if err := s.store.SaveAnchor(ctx, bundle); err != nil {
		return nil, fmt.Errorf("create memo: %w", err)
	}
	logger.Debug("Created memo %s on new anchor %s (%s)", m.ID, anchor.ID, target.Key)
	return &domain.MemoCreated{AnchorID: anchor.ID, MemoID: m.ID}, nil
}

// CreateMemoOnAnchor adds a memo to an existing anchor.
func (s *AnnotationService) CreateMemoOnAnchor(ctx context.Context, anchorID, body string) (*domain.MemoCreated, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	body, err := s.cleanBody(body)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetAnchor(ctx, anchorID); err != nil {
		return nil, fmt.Errorf("create memo: %w", err)
	}
	return s.addMemo(ctx, anchorID, body)
}

// EditMemo replaces a memo body.
func (s *AnnotationService) EditMemo(ctx context.Context, memoID, body string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	body, err := s.cleanBody(body)
	if err != nil {
		return err
	}
	current, err := s.store.GetMemo(ctx, memoID)
	if err != nil {
		return fmt.Errorf("edit memo: %w", err)
	}
	if current.Body == body {
		return nil
	}
	m := &domain.Memo{ID: memoID, Body: body, UpdatedAt: s.now()}
	if err := s.store.UpdateMemo(ctx, m); err != nil {
		return fmt.Errorf("edit memo: %w", err)
	}
	logger.Debug("Edited memo %s", memoID)
	return nil
}

// DeleteMemo removes a memo.
func (s *AnnotationService) DeleteMemo(ctx context.Context, memoID string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	if err := s.store.DeleteMemo(ctx, memoID); err != nil {
		return fmt.Errorf("delete memo: %w", err)
	}
	logger.Debug("Deleted memo %s", memoID)
	return nil
}

// DeleteHighlight removes a highlight, keeping its anchor and memos.
func (s *AnnotationService) DeleteHighlight(ctx context.Context, highlightID string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	if err := s.store.DeleteHighlight(ctx, highlightID); err != nil {
		return fmt.Errorf("delete highlight: %w", err)
	}
	logger.Debug("Deleted highlight %s", highlightID)
	return nil
}

// FetchPage returns everything annotated on a page. Anchors left with
// neither a highlight nor a memo are omitted.
func (s *AnnotationService) FetchPage(ctx context.Context, key domain.PageKey) (*domain.PageAnnotationSet, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	bundles, err := s.store.ListPage(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", key, err)
	}

	items := make([]domain.AnnotationBundle, 0, len(bundles))
	for _, b := range bundles {
		if len(b.Highlights) == 0 && len(b.Memos) == 0 {
			continue
		}
		items = append(items, b)
	}

	set := domain.NewPageAnnotationSet(key, items)
	logger.Debug("Fetched %s: %d anchors, %d highlights, %d notes",
		key, set.Count, set.Totals.Highlights, set.Totals.Notes)
	return set, nil
}

// NormalizeColor parses a hex colour and returns it as lowercase #rrggbb.
func NormalizeColor(color string) (string, error) {
	c, err := colorful.Hex(strings.TrimSpace(color))
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a hex colour", domain.ErrValidation, color)
	}
	return c.Hex(), nil
}

func (s *AnnotationService) newAnchor(target domain.AnchorTarget) (*domain.Anchor, error) {
	if err := target.Key.Validate(); err != nil {
		return nil, err
	}
	rects := append([]domain.NormalizedRect(nil), target.Rects...)
	for i, r := range rects {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: rect %d lies outside the page", domain.ErrValidation, i)
		}
	}
	domain.SortRects(rects)

	return &domain.Anchor{
		ID:           s.newID(),
		DocumentHash: target.Key.DocumentHash,
		Page:         target.Key.Page,
		Rects:        rects,
		Quote:        target.Quote,
		CreatedAt:    s.now(),
	}, nil
}

// addPageMemo attaches a memo to the page-level anchor, creating the
// anchor together with the memo on first use.
func (s *AnnotationService) addPageMemo(ctx context.Context, target domain.AnchorTarget, body string) (*domain.MemoCreated, error) {
	if err := target.Key.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.store.FindPageAnchor(ctx, target.Key)
	if err == nil {
		return s.addMemo(ctx, existing.ID, body)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("create memo: %w", err)
	}

	anchor, err := s.newAnchor(domain.AnchorTarget{Key: target.Key, Quote: target.Quote})
	if err != nil {
		return nil, err
	}
	m := s.newMemo(anchor.ID, body)
	err = s.store.SaveAnchor(ctx, &domain.AnnotationBundle{Anchor: *anchor, Memos: []domain.Memo{m}})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Lost a race with another writer for the same page
		if existing, ferr := s.store.FindPageAnchor(ctx, target.Key); ferr == nil {
			return s.addMemo(ctx, existing.ID, body)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create memo: %w", err)
	}
	logger.Debug("Created memo %s on page anchor %s (%s)", m.ID, anchor.ID, target.Key)
	return &domain.MemoCreated{AnchorID: anchor.ID, MemoID: m.ID}, nil
}

func (s *AnnotationService) newMemo(anchorID, body string) domain.Memo {
	now := s.now()
	return domain.Memo{
		ID:        s.newID(),
		AnchorID:  anchorID,
		Body:      body,
		CreatedBy: s.author,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *AnnotationService) addMemo(ctx context.Context, anchorID, body string) (*domain.MemoCreated, error) {
	m := s.newMemo(anchorID, body)
	if err := s.store.SaveMemo(ctx, &m); err != nil {
		return nil, fmt.Errorf("create memo: %w", err)
	}
	logger.Debug("Created memo %s on anchor %s", m.ID, anchorID)
	return &domain.MemoCreated{AnchorID: anchorID, MemoID: m.ID}, nil
}

func (s *AnnotationService) cleanBody(body string) (string, error) {
	if s.sanitiser != nil {
		body = s.sanitiser.Sanitise(body)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("%w: memo body is empty", domain.ErrValidation)
	}
	return body, nil
}
