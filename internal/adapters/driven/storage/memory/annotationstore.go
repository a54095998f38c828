package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure AnnotationStore implements the interface.
var _ driven.AnnotationStore = (*AnnotationStore)(nil)

type anchorRecord struct {
	anchor domain.Anchor
	seq    int64
}

type memoRecord struct {
	memo domain.Memo
	seq  int64
}

// AnnotationStore is an in-memory implementation of driven.AnnotationStore.
// Creation order is tracked with a sequence counter rather than timestamps.
type AnnotationStore struct {
	mu                sync.RWMutex
	seq               int64
	anchors           map[string]anchorRecord
	highlights        map[string]domain.Highlight
	highlightByAnchor map[string]string
	memos             map[string]memoRecord
}

// NewAnnotationStore creates a new in-memory annotation store.
func NewAnnotationStore() *AnnotationStore {
	return &AnnotationStore{
		anchors:           make(map[string]anchorRecord),
		highlights:        make(map[string]domain.Highlight),
		highlightByAnchor: make(map[string]string),
		memos:             make(map[string]memoRecord),
	}
}

func (s *AnnotationStore) next() int64 {
	s.seq++
	return s.seq
}

// SaveAnchor stores a new anchor with its highlights and memos.
// Nothing is stored if any part conflicts.
func (s *AnnotationStore) SaveAnchor(_ context.Context, bundle *domain.AnnotationBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	anchor := bundle.Anchor
	if _, ok := s.anchors[anchor.ID]; ok {
		return fmt.Errorf("anchor %s: %w", anchor.ID, domain.ErrAlreadyExists)
	}
	if anchor.IsPageLevel() {
		for _, rec := range s.anchors {
			if rec.anchor.IsPageLevel() && rec.anchor.Key() == anchor.Key() {
				return fmt.Errorf("page anchor for %s: %w", anchor.Key(), domain.ErrAlreadyExists)
			}
		}
	}
	if len(bundle.Highlights) > 1 {
		return fmt.Errorf("highlight on anchor %s: %w", anchor.ID, domain.ErrAlreadyExists)
	}
	for _, h := range bundle.Highlights {
		if _, ok := s.highlights[h.ID]; ok {
			return fmt.Errorf("highlight %s: %w", h.ID, domain.ErrAlreadyExists)
		}
	}
	seen := make(map[string]bool, len(bundle.Memos))
	for _, m := range bundle.Memos {
		if _, ok := s.memos[m.ID]; ok || seen[m.ID] {
			return fmt.Errorf("memo %s: %w", m.ID, domain.ErrAlreadyExists)
		}
		seen[m.ID] = true
	}

	s.anchors[anchor.ID] = anchorRecord{anchor: copyAnchor(anchor), seq: s.next()}
	for _, h := range bundle.Highlights {
		h.AnchorID = anchor.ID
		s.highlights[h.ID] = h
		s.highlightByAnchor[anchor.ID] = h.ID
	}
	for _, m := range bundle.Memos {
		m.AnchorID = anchor.ID
		s.memos[m.ID] = memoRecord{memo: m, seq: s.next()}
	}
	return nil
}

// GetAnchor retrieves an anchor by ID.
func (s *AnnotationStore) GetAnchor(_ context.Context, id string) (*domain.Anchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.anchors[id]
	if !ok {
		return nil, fmt.Errorf("anchor %s: %w", id, domain.ErrNotFound)
	}
	a := copyAnchor(rec.anchor)
	return &a, nil
}

// FindPageAnchor returns the page-level anchor for a page.
func (s *AnnotationStore) FindPageAnchor(_ context.Context, key domain.PageKey) (*domain.Anchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.anchors {
		if rec.anchor.IsPageLevel() && rec.anchor.Key() == key {
			a := copyAnchor(rec.anchor)
			return &a, nil
		}
	}
	return nil, fmt.Errorf("page anchor for %s: %w", key, domain.ErrNotFound)
}

// DeleteHighlight removes a highlight.
func (s *AnnotationStore) DeleteHighlight(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.highlights[id]
	if !ok {
		return fmt.Errorf("highlight %s: %w", id, domain.ErrNotFound)
	}
	delete(s.highlights, id)
	delete(s.highlightByAnchor, h.AnchorID)
	return nil
}

// SaveMemo stores a new memo.
func (s *AnnotationStore) SaveMemo(_ context.Context, m *domain.Memo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.anchors[m.AnchorID]; !ok {
		return fmt.Errorf("anchor %s: %w", m.AnchorID, domain.ErrNotFound)
	}
	if _, ok := s.memos[m.ID]; ok {
		return fmt.Errorf("memo %s: %w", m.ID, domain.ErrAlreadyExists)
	}

	s.memos[m.ID] = memoRecord{memo: *m, seq: s.next()}
	return nil
}

// GetMemo retrieves a memo by ID.
func (s *AnnotationStore) GetMemo(_ context.Context, id string) (*domain.Memo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.memos[id]
	if !ok {
		return nil, fmt.Errorf("memo %s: %w", id, domain.ErrNotFound)
	}
	m := rec.memo
	return &m, nil
}

// UpdateMemo replaces a memo's body and UpdatedAt.
func (s *AnnotationStore) UpdateMemo(_ context.Context, m *domain.Memo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.memos[m.ID]
	if !ok {
		return fmt.Errorf("memo %s: %w", m.ID, domain.ErrNotFound)
	}
	rec.memo.Body = m.Body
	rec.memo.UpdatedAt = m.UpdatedAt
	s.memos[m.ID] = rec
	return nil
}

// DeleteMemo removes a memo.
func (s *AnnotationStore) DeleteMemo(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.memos[id]; !ok {
		return fmt.Errorf("memo %s: %w", id, domain.ErrNotFound)
	}
	delete(s.memos, id)
	return nil
}

// ListPage returns every anchor on a page with its highlight and memos.
func (s *AnnotationStore) ListPage(_ context.Context, key domain.PageKey) ([]domain.AnnotationBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var anchors []anchorRecord
	for _, rec := range s.anchors {
		if rec.anchor.Key() == key {
			anchors = append(anchors, rec)
		}
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].seq < anchors[j].seq })

	memosByAnchor := make(map[string][]memoRecord)
	for _, rec := range s.memos {
		memosByAnchor[rec.memo.AnchorID] = append(memosByAnchor[rec.memo.AnchorID], rec)
	}

	bundles := make([]domain.AnnotationBundle, 0, len(anchors))
	for _, rec := range anchors {
		b := domain.AnnotationBundle{Anchor: copyAnchor(rec.anchor)}
		if hid, ok := s.highlightByAnchor[rec.anchor.ID]; ok {
			b.Highlights = []domain.Highlight{s.highlights[hid]}
		}
		memos := memosByAnchor[rec.anchor.ID]
		sort.Slice(memos, func(i, j int) bool { return memos[i].seq < memos[j].seq })
		for _, m := range memos {
			b.Memos = append(b.Memos, m.memo)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

func copyAnchor(a domain.Anchor) domain.Anchor {
	a.Rects = append([]domain.NormalizedRect(nil), a.Rects...)
	return a
}
