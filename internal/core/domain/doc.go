// Package domain defines the core business entities for marginalia.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Anchor: A stable reference to a text span (or a whole page) on a document page
//   - Highlight: A coloured mark attached to an anchor
//   - Memo: A note attached to an anchor, or to a page
//   - AnnotationBundle: The read-model join of one anchor with its highlight and memos
//   - NormalizedRect: A page-relative rectangle independent of render resolution
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
