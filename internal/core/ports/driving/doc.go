// Package driving defines interfaces that external actors (CLI, TUI, HTTP,
// MCP) use to interact with core services. These are the "driving" ports in
// hexagonal architecture terminology - they drive the application.
//
// AnnotationService has two implementations: the store-backed service in
// internal/core/services and the HTTP client in adapters/driven/remote.
package driving
