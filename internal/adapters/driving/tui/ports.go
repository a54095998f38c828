// Package tui provides an interactive terminal viewer for annotated PDFs.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Annotations stores highlights and memos.
	Annotations driving.AnnotationService

	// Documents opens and lays out PDFs.
	Documents driving.DocumentService

	// Settings supplies viewer defaults. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(annotations driving.AnnotationService, documents driving.DocumentService) *Ports {
	return &Ports{
		Annotations: annotations,
		Documents:   documents,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Annotations == nil {
		return ErrMissingAnnotationService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
