package domain

import (
	"fmt"
	"strings"
	"time"
)

// PageKey addresses one page of one document. Documents are identified by a
// content hash rather than a mutable ID so annotations survive re-imports.
type PageKey struct {
	// DocumentHash is the content hash of the document file.
	DocumentHash string `json:"documentId"`

	// Page is the 1-based page number.
	Page int `json:"page"`
}

// Validate checks that the key addresses a real page.
func (k PageKey) Validate() error {
	if strings.TrimSpace(k.DocumentHash) == "" {
		return fmt.Errorf("%w: document hash is required", ErrValidation)
	}
	if k.Page < 1 {
		return fmt.Errorf("%w: page must be 1 or greater, got %d", ErrValidation, k.Page)
	}
	return nil
}

// IsZero reports whether the key is unset.
func (k PageKey) IsZero() bool {
	return k.DocumentHash == "" && k.Page == 0
}

// String returns "hash#page".
func (k PageKey) String() string {
	return fmt.Sprintf("%s#%d", k.DocumentHash, k.Page)
}

// TextQuote is the text captured under a selection, with optional context.
type TextQuote struct {
	Exact  string `json:"exact"`
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

// Anchor is a stable reference to a span on a page, or to the page itself
// when Rects is empty. Anchors are immutable once created.
type Anchor struct {
	// ID is the unique identifier for the anchor.
	ID string

	// DocumentHash and Page locate the anchor.
	DocumentHash string
	Page         int

	// Rects are ordered top-to-bottom, left-to-right.
	Rects []NormalizedRect

	// Quote is the selected text.
	Quote TextQuote

	// CreatedAt orders anchors on a page (arrival order).
	CreatedAt time.Time
}

// Key returns the page the anchor lives on.
func (a *Anchor) Key() PageKey {
	return PageKey{DocumentHash: a.DocumentHash, Page: a.Page}
}

// IsPageLevel reports whether the anchor targets the whole page.
func (a *Anchor) IsPageLevel() bool {
	return len(a.Rects) == 0
}

// Highlight is a coloured mark on an anchor.
type Highlight struct {
	ID        string
	AnchorID  string
	Color     string
	CreatedBy string
	CreatedAt time.Time
}

// Memo is a note attached to an anchor.
type Memo struct {
	ID        string
	AnchorID  string
	Body      string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time

	// ParentID links a reply to the memo it answers.
	ParentID string
}

// BundleKind classifies an annotation bundle for rendering.
type BundleKind int

const (
	// BundleHighlight has exactly one highlight and at least one rect.
	BundleHighlight BundleKind = iota
	// BundleMemo has rects, memos and no highlight.
	BundleMemo
	// BundlePageLevel has no rects.
	BundlePageLevel
)

// String returns the string representation of the kind.
func (k BundleKind) String() string {
	switch k {
	case BundleHighlight:
		return "highlight"
	case BundleMemo:
		return "memo"
	case BundlePageLevel:
		return "page"
	default:
		return "unknown"
	}
}

// AnnotationBundle joins one anchor with its highlight and memos.
type AnnotationBundle struct {
	Anchor     Anchor
	Highlights []Highlight
	Memos      []Memo
}

// Kind classifies the bundle.
func (b *AnnotationBundle) Kind() BundleKind {
	switch {
	case b.Anchor.IsPageLevel():
		return BundlePageLevel
	case len(b.Highlights) > 0:
		return BundleHighlight
	default:
		return BundleMemo
	}
}

// Highlight returns the bundle's highlight, or nil.
func (b *AnnotationBundle) Highlight() *Highlight {
	if len(b.Highlights) == 0 {
		return nil
	}
	return &b.Highlights[0]
}

// Memo returns the memo with the given ID, or nil.
func (b *AnnotationBundle) Memo(id string) *Memo {
	for i := range b.Memos {
		if b.Memos[i].ID == id {
			return &b.Memos[i]
		}
	}
	return nil
}

// Totals summarises a page.
type Totals struct {
	Highlights  int
	Notes       int
	Annotations int
}

// PageAnnotationSet is everything annotated on one page, in arrival order.
type PageAnnotationSet struct {
	Key    PageKey
	Count  int
	Items  []AnnotationBundle
	Totals Totals
}

// NewPageAnnotationSet builds a set and computes its count and totals.
func NewPageAnnotationSet(key PageKey, items []AnnotationBundle) *PageAnnotationSet {
	set := &PageAnnotationSet{Key: key, Items: items, Count: len(items)}
	for i := range items {
		set.Totals.Highlights += len(items[i].Highlights)
		set.Totals.Notes += len(items[i].Memos)
	}
	set.Totals.Annotations = set.Totals.Highlights + set.Totals.Notes
	return set
}

// Bundle returns the bundle for the given anchor, or nil.
func (s *PageAnnotationSet) Bundle(anchorID string) *AnnotationBundle {
	if s == nil {
		return nil
	}
	for i := range s.Items {
		if s.Items[i].Anchor.ID == anchorID {
			return &s.Items[i]
		}
	}
	return nil
}

// AnchorTarget is the input for creating a new anchor.
type AnchorTarget struct {
	Key   PageKey
	Rects []NormalizedRect
	Quote TextQuote
}

// HighlightCreated is returned by highlight creation.
type HighlightCreated struct {
	AnchorID    string `json:"anchorId"`
	HighlightID string `json:"highlightId"`
}

// MemoCreated is returned by memo creation.
type MemoCreated struct {
	AnchorID string `json:"anchorId"`
	MemoID   string `json:"memoId"`
}
