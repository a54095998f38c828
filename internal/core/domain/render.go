package domain

import "fmt"

// PageSize is the intrinsic size of a page in document units (points for PDF).
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocumentInfo describes an opened document.
type DocumentInfo struct {
	// Hash is the content hash used as the document identity.
	Hash string `json:"hash"`

	// Path is where the document was read from.
	Path string `json:"path"`

	// PageCount is the number of pages.
	PageCount int `json:"pageCount"`

	// Pages holds the intrinsic size of every page, 1-based page N at index N-1.
	Pages []PageSize `json:"pages"`
}

// TextSpan is one positioned run of text on a rendered page.
type TextSpan struct {
	Text string `json:"text"`
	Box  Box    `json:"box"`
}

// RenderedPage is emitted by the rendering collaborator when a page has been
// laid out. Box is the page element's pixel box.
type RenderedPage struct {
	Key PageKey `json:"key"`

	Box Box `json:"box"`

	// Scale is pixels per document unit.
	Scale float64 `json:"scale"`

	TextLayer []TextSpan `json:"textLayer,omitempty"`
}

// Layout sizes page (1-based) to widthPx, keeping its aspect ratio.
// The returned page has no text layer.
func (d *DocumentInfo) Layout(page int, widthPx float64) (*RenderedPage, error) {
	if page < 1 || page > len(d.Pages) {
		return nil, fmt.Errorf("%w: page %d of %d", ErrNotFound, page, len(d.Pages))
	}
	if widthPx <= 0 {
		return nil, fmt.Errorf("%w: render width must be positive", ErrValidation)
	}
	size := d.Pages[page-1]
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: page %d has no size", ErrValidation, page)
	}

	scale := widthPx / size.Width
	return &RenderedPage{
		Key:   PageKey{DocumentHash: d.Hash, Page: page},
		Box:   Box{Width: widthPx, Height: size.Height * scale},
		Scale: scale,
	}, nil
}
