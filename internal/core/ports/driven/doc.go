// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - AnnotationStore: Anchor, highlight and memo persistence
//   - DocumentStore: Opened document metadata (hash, path, page sizes)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PageRenderer: Page geometry for documents on disk. Without it only
//     documents already recorded in the DocumentStore can be projected.
//   - DocumentWatcher: Change notifications for opened files.
//   - Sanitiser: Memo body cleaning. Without it bodies are stored as typed.
//   - OverlayRasteriser: PNG snapshots of a page overlay.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
