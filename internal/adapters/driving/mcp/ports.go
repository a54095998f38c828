package mcp

import (
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// Annotations reads and writes highlights and memos.
	Annotations driving.AnnotationService

	// Documents opens and lays out documents. Optional: without it the
	// document resources are not found.
	Documents driving.DocumentService

	// RenderWidth is the width text boxes are reported at.
	RenderWidth float64
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Annotations == nil {
		return ErrMissingAnnotationService
	}
	return nil
}
