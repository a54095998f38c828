package api

import (
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Anchor is an anchor as sent on the wire.
type Anchor struct {
	ID        string                  `json:"id"`
	Exact     string                  `json:"exact"`
	Prefix    string                  `json:"prefix,omitempty"`
	Suffix    string                  `json:"suffix,omitempty"`
	Rects     []domain.NormalizedRect `json:"rects"`
	CreatedAt time.Time               `json:"createdAt"`
}

// Highlight is a highlight as sent on the wire.
type Highlight struct {
	ID        string    `json:"id"`
	Color     string    `json:"color"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Note is a memo as sent on the wire.
type Note struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ParentID  string    `json:"parentId,omitempty"`
}

// Item joins an anchor with its highlights and notes.
type Item struct {
	Anchor     Anchor      `json:"anchor"`
	Highlights []Highlight `json:"highlights"`
	Notes      []Note      `json:"notes"`
}

// PageAnnotations is the body of GET /api/pageAnnotations.
type PageAnnotations struct {
	Count            int    `json:"count"`
	Items            []Item `json:"items"`
	TotalHighlights  int    `json:"totalHighlights"`
	TotalNotes       int    `json:"totalNotes"`
	TotalAnnotations int    `json:"totalAnnotations"`
}

// CreateHighlightRequest is the body of POST /api/highlights.
type CreateHighlightRequest struct {
	DocumentID string                  `json:"documentId"`
	Page       int                     `json:"page"`
	Rects      []domain.NormalizedRect `json:"rects"`
	Exact      string                  `json:"exact"`
	Prefix     string                  `json:"prefix,omitempty"`
	Suffix     string                  `json:"suffix,omitempty"`
	Color      string                  `json:"color"`
}

// CreateMemoRequest is the body of POST /api/memos. Either AnchorID or a
// document target is set.
type CreateMemoRequest struct {
	AnchorID   string                  `json:"anchorId,omitempty"`
	DocumentID string                  `json:"documentId,omitempty"`
	Page       int                     `json:"page,omitempty"`
	Rects      []domain.NormalizedRect `json:"rects,omitempty"`
	Exact      string                  `json:"exact,omitempty"`
	Prefix     string                  `json:"prefix,omitempty"`
	Suffix     string                  `json:"suffix,omitempty"`
	Body       string                  `json:"body"`
}

// EditMemoRequest is the body of PATCH /api/memos/{id}.
type EditMemoRequest struct {
	Body string `json:"body"`
}

// Target returns the anchor target of a highlight request.
func (r *CreateHighlightRequest) Target() domain.AnchorTarget {
	return domain.AnchorTarget{
		Key:   domain.PageKey{DocumentHash: r.DocumentID, Page: r.Page},
		Rects: r.Rects,
		Quote: domain.TextQuote{Exact: r.Exact, Prefix: r.Prefix, Suffix: r.Suffix},
	}
}

// Target returns the anchor target of a memo request.
func (r *CreateMemoRequest) Target() domain.AnchorTarget {
	return domain.AnchorTarget{
		Key:   domain.PageKey{DocumentHash: r.DocumentID, Page: r.Page},
		Rects: r.Rects,
		Quote: domain.TextQuote{Exact: r.Exact, Prefix: r.Prefix, Suffix: r.Suffix},
	}
}

// NewHighlightRequest builds a request from a target.
func NewHighlightRequest(t domain.AnchorTarget, color string) CreateHighlightRequest {
	return CreateHighlightRequest{
		DocumentID: t.Key.DocumentHash,
		Page:       t.Key.Page,
		Rects:      t.Rects,
		Exact:      t.Quote.Exact,
		Prefix:     t.Quote.Prefix,
		Suffix:     t.Quote.Suffix,
		Color:      color,
	}
}

// NewMemoRequest builds a request from a target.
func NewMemoRequest(t domain.AnchorTarget, body string) CreateMemoRequest {
	return CreateMemoRequest{
		DocumentID: t.Key.DocumentHash,
		Page:       t.Key.Page,
		Rects:      t.Rects,
		Exact:      t.Quote.Exact,
		Prefix:     t.Quote.Prefix,
		Suffix:     t.Quote.Suffix,
		Body:       body,
	}
}

// FromSet converts a page set to its wire form.
func FromSet(set *domain.PageAnnotationSet) PageAnnotations {
	out := PageAnnotations{
		Count:            set.Count,
		Items:            make([]Item, 0, len(set.Items)),
		TotalHighlights:  set.Totals.Highlights,
		TotalNotes:       set.Totals.Notes,
		TotalAnnotations: set.Totals.Annotations,
	}
	for i := range set.Items {
		b := &set.Items[i]
		item := Item{
			Anchor: Anchor{
				ID:        b.Anchor.ID,
				Exact:     b.Anchor.Quote.Exact,
				Prefix:    b.Anchor.Quote.Prefix,
				Suffix:    b.Anchor.Quote.Suffix,
				Rects:     b.Anchor.Rects,
				CreatedAt: b.Anchor.CreatedAt,
			},
			Highlights: make([]Highlight, 0, len(b.Highlights)),
			Notes:      make([]Note, 0, len(b.Memos)),
		}
		if item.Anchor.Rects == nil {
			item.Anchor.Rects = []domain.NormalizedRect{}
		}
		for _, h := range b.Highlights {
			item.Highlights = append(item.Highlights, Highlight{
				ID: h.ID, Color: h.Color, CreatedBy: h.CreatedBy, CreatedAt: h.CreatedAt,
			})
		}
		for _, m := range b.Memos {
			item.Notes = append(item.Notes, Note{
				ID: m.ID, Body: m.Body, CreatedBy: m.CreatedBy,
				CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt, ParentID: m.ParentID,
			})
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// ToSet converts a wire page back into a domain set for key. Count and
// totals are recomputed rather than trusted.
func (p *PageAnnotations) ToSet(key domain.PageKey) *domain.PageAnnotationSet {
	items := make([]domain.AnnotationBundle, 0, len(p.Items))
	for _, it := range p.Items {
		b := domain.AnnotationBundle{
			Anchor: domain.Anchor{
				ID:           it.Anchor.ID,
				DocumentHash: key.DocumentHash,
				Page:         key.Page,
				Rects:        it.Anchor.Rects,
				Quote:        domain.TextQuote{Exact: it.Anchor.Exact, Prefix: it.Anchor.Prefix, Suffix: it.Anchor.Suffix},
				CreatedAt:    it.Anchor.CreatedAt,
			},
		}
		if len(b.Anchor.Rects) == 0 {
			b.Anchor.Rects = nil
		}
		for _, h := range it.Highlights {
			b.Highlights = append(b.Highlights, domain.Highlight{
				ID: h.ID, AnchorID: it.Anchor.ID, Color: h.Color, CreatedBy: h.CreatedBy, CreatedAt: h.CreatedAt,
			})
		}
		for _, n := range it.Notes {
			b.Memos = append(b.Memos, domain.Memo{
				ID: n.ID, AnchorID: it.Anchor.ID, Body: n.Body, CreatedBy: n.CreatedBy,
				CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt, ParentID: n.ParentID,
			})
		}
		items = append(items, b)
	}
	return domain.NewPageAnnotationSet(key, items)
}
