// Package httpapi serves the annotation service over HTTP.
//
// Routes:
//
//	GET    /health
//	GET    /api/pageAnnotations?documentId=&page=
//	POST   /api/highlights
//	DELETE /api/highlights/{id}
//	POST   /api/memos
//	PATCH  /api/memos/{id}
//	DELETE /api/memos/{id}
//	GET    /api/documents
//	GET    /api/documents/{hash}
//	GET    /api/documents/{hash}/pages/{page}?width=
//	GET    /api/documents/{hash}/pages/{page}/overlay.png?width=&selected=
//
// The document routes are mounted only when a DocumentService is given;
// overlay.png additionally needs a rasteriser. Bodies use the envelope of
// package api.
package httpapi
