// Package mcp provides an MCP (Model Context Protocol) server adapter for
// marginalia. It lets AI assistants read and write the annotations of a
// page.
package mcp

import "errors"

// ErrMissingAnnotationService is returned when the annotation service is not provided.
var ErrMissingAnnotationService = errors.New("mcp: annotation service is required")
