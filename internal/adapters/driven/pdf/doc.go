// Package pdf implements the document rendering ports for PDF files.
//
// Renderer reads page sizes with pdfcpu and derives a positioned text layer
// from each page's content stream. Watcher reports rewrites of a document
// file through fsnotify, debounced so a save that touches the file several
// times yields one change.
package pdf
