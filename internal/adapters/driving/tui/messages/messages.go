// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/viewer"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDocuments lists opened documents.
	ViewDocuments ViewType = iota
	// ViewPage shows one page with its overlay and side panel.
	ViewPage
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDocuments:
		return "documents"
	case ViewPage:
		return "page"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// DocumentsLoaded carries the list of opened documents.
type DocumentsLoaded struct {
	Documents []domain.DocumentInfo
	Err       error
}

// DocumentSelected signals a document was chosen, optionally at a page.
type DocumentSelected struct {
	Document domain.DocumentInfo
	Page     int
}

// DocumentChanged signals the file behind the open document was rewritten.
type DocumentChanged struct {
	Document domain.DocumentInfo
}

// PageRendered carries a laid-out page, or why the page at Key could
// not be laid out.
type PageRendered struct {
	Key  domain.PageKey
	Page *domain.RenderedPage
	Err  error
}

// PageFetched carries the annotations of a page for a fetch ticket.
type PageFetched struct {
	Ticket viewer.FetchTicket
	Set    *domain.PageAnnotationSet
	Err    error
}

// OpFinished carries the outcome of a mutation.
type OpFinished struct {
	Op  viewer.Op
	Err error
}
