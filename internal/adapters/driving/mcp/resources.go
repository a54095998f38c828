package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/marginalia/internal/api"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for marginalia resources.
	uriScheme = "marginalia://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Documents that have been opened",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/pages/{page}/annotations",
		Name:        "page-annotations",
		Description: "Highlights and memos on one page",
		MIMEType:    "application/json",
	}, s.handlePageResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/pages/{page}/text",
		Name:        "page-text",
		Description: "Text of one page with the box of each run, as fractions of the page",
		MIMEType:    "text/plain",
	}, s.handleTextResource)
}

func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID    string `json:"id"`
		Path  string `json:"path"`
		Pages int    `json:"pages"`
	}
	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{ID: docs[i].Hash, Path: docs[i].Path, Pages: docs[i].PageCount}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

func (s *Server) handlePageResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	key, ok := extractPageKey(req.Params.URI, "/annotations")
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	set, err := s.ports.Annotations.FetchPage(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}

	data, err := json.MarshalIndent(api.FromSet(set), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling page: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleTextResource lists the text runs of a page, one per line, with
// boxes normalised to the page so they can be passed to create_highlight.
func (s *Server) handleTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	key, ok := extractPageKey(req.Params.URI, "/text")
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	page, err := s.ports.Documents.Render(ctx, key, s.ports.RenderWidth)
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}

	var sb strings.Builder
	for _, span := range page.TextLayer {
		rects := domain.Normalize(page.Box, []domain.Box{span.Box})
		if len(rects) == 0 {
			continue
		}
		r := rects[0]
		fmt.Fprintf(&sb, "%.4f,%.4f,%.4f,%.4f\t%s\n", r.X, r.Y, r.W, r.H, span.Text)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     sb.String(),
		}},
	}, nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractPageKey reads a URI like
// marginalia://documents/{documentId}/pages/{page}<suffix>.
func extractPageKey(uri, suffix string) (domain.PageKey, bool) {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return domain.PageKey{}, false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)

	hash, page, ok := strings.Cut(rest, "/pages/")
	if !ok || hash == "" || strings.Contains(hash, "/") {
		return domain.PageKey{}, false
	}
	n, err := strconv.Atoi(page)
	if err != nil || n < 1 {
		return domain.PageKey{}, false
	}
	return domain.PageKey{DocumentHash: hash, Page: n}, true
}
