package viewer

import (
	"context"
	"fmt"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// FetchTicket tags a page fetch with the page it targets and its issue
// order. Only the newest ticket for the active page may complete.
type FetchTicket struct {
	Key domain.PageKey
	Seq uint64
}

// Fetch loads the ticket's page from svc.
func (t FetchTicket) Fetch(ctx context.Context, svc driving.AnnotationService) (*domain.PageAnnotationSet, error) {
	return svc.FetchPage(ctx, t.Key)
}

// Repository caches fetched page sets and owns the selected anchor.
type Repository struct {
	active   domain.PageKey
	pages    map[domain.PageKey]*domain.PageAnnotationSet
	seq      uint64
	latest   map[domain.PageKey]uint64
	selected string
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		pages:  make(map[domain.PageKey]*domain.PageAnnotationSet),
		latest: make(map[domain.PageKey]uint64),
	}
}

// Active returns the active page.
func (r *Repository) Active() domain.PageKey { return r.active }

// SetActivePage switches the active page. Changing page clears the
// selection. Returns true if the page changed.
func (r *Repository) SetActivePage(key domain.PageKey) bool {
	if key == r.active {
		return false
	}
	r.active = key
	r.selected = ""
	return true
}

// BeginFetch issues a ticket for the active page.
func (r *Repository) BeginFetch() (FetchTicket, error) {
	if err := r.active.Validate(); err != nil {
		return FetchTicket{}, fmt.Errorf("no active page: %w", err)
	}
	r.seq++
	r.latest[r.active] = r.seq
	return FetchTicket{Key: r.active, Seq: r.seq}, nil
}

// Complete stores the result of a fetch. A ticket that is no longer
// current, because the page changed or a newer fetch was issued, is
// dropped with ErrConcurrencyDrift. A failed fetch leaves the cache as is.
func (r *Repository) Complete(t FetchTicket, set *domain.PageAnnotationSet, err error) error {
	if t.Key != r.active || r.latest[t.Key] != t.Seq {
		return fmt.Errorf("%w: fetch %d for %s", domain.ErrConcurrencyDrift, t.Seq, t.Key)
	}
	if err != nil {
		return err
	}
	if set == nil {
		set = domain.NewPageAnnotationSet(t.Key, nil)
	}
	r.pages[t.Key] = set
	if r.selected != "" && set.Bundle(r.selected) == nil {
		logger.Debug("Selected anchor %s gone after refresh", r.selected)
		r.selected = ""
	}
	return nil
}

// Refresh fetches the active page synchronously.
func (r *Repository) Refresh(ctx context.Context, svc driving.AnnotationService) error {
	t, err := r.BeginFetch()
	if err != nil {
		return err
	}
	set, err := t.Fetch(ctx, svc)
	return r.Complete(t, set, err)
}

// Page returns the cached set for key, or nil.
func (r *Repository) Page(key domain.PageKey) *domain.PageAnnotationSet {
	return r.pages[key]
}

// Current returns the cached set for the active page, or nil.
func (r *Repository) Current() *domain.PageAnnotationSet {
	return r.pages[r.active]
}

// Selected returns the selected anchor ID, or "".
func (r *Repository) Selected() string { return r.selected }

// Select selects an anchor. Selecting the already selected anchor is a
// no-op and returns false.
func (r *Repository) Select(anchorID string) bool {
	if anchorID == "" || anchorID == r.selected {
		return false
	}
	r.selected = anchorID
	return true
}

// ClearSelection deselects any anchor.
func (r *Repository) ClearSelection() bool {
	if r.selected == "" {
		return false
	}
	r.selected = ""
	return true
}
