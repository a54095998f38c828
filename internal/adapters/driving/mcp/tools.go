package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// PageInput identifies a page.
type PageInput struct {
	DocumentID string `json:"documentId" jsonschema:"SHA-256 hash of the document"`
	Page       int    `json:"page" jsonschema:"page number, starting at 1"`
}

// PageOutput is the output schema for the page_annotations tool.
type PageOutput struct {
	Count       int                `json:"count"`
	Highlights  int                `json:"totalHighlights"`
	Notes       int                `json:"totalNotes"`
	Annotations []AnnotationOutput `json:"annotations"`
}

// AnnotationOutput is one anchor with its highlights and memos.
type AnnotationOutput struct {
	AnchorID   string                  `json:"anchorId"`
	Kind       string                  `json:"kind"`
	Exact      string                  `json:"exact,omitempty"`
	Rects      []domain.NormalizedRect `json:"rects,omitempty"`
	Highlights []HighlightOutput       `json:"highlights,omitempty"`
	Memos      []MemoOutput            `json:"memos,omitempty"`
}

// HighlightOutput is a highlight.
type HighlightOutput struct {
	ID        string `json:"id"`
	Color     string `json:"color"`
	CreatedBy string `json:"createdBy,omitempty"`
}

// MemoOutput is a memo.
type MemoOutput struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// HighlightInput is the input schema for the create_highlight tool.
type HighlightInput struct {
	DocumentID string                  `json:"documentId" jsonschema:"SHA-256 hash of the document"`
	Page       int                     `json:"page" jsonschema:"page number, starting at 1"`
	Rects      []domain.NormalizedRect `json:"rects" jsonschema:"selected line boxes as fractions of the page, origin top-left"`
	Exact      string                  `json:"exact" jsonschema:"the selected text"`
	Prefix     string                  `json:"prefix,omitempty" jsonschema:"text just before the selection"`
	Suffix     string                  `json:"suffix,omitempty" jsonschema:"text just after the selection"`
	Color      string                  `json:"color,omitempty" jsonschema:"colour as #rrggbb (default yellow)"`
}

// MemoInput is the input schema for the create_memo tool.
type MemoInput struct {
	AnchorID   string                  `json:"anchorId,omitempty" jsonschema:"existing anchor to attach the memo to"`
	DocumentID string                  `json:"documentId,omitempty" jsonschema:"SHA-256 hash of the document, when not using anchorId"`
	Page       int                     `json:"page,omitempty" jsonschema:"page number, when not using anchorId"`
	Rects      []domain.NormalizedRect `json:"rects,omitempty" jsonschema:"selected line boxes; omit for a memo on the whole page"`
	Exact      string                  `json:"exact,omitempty" jsonschema:"the selected text"`
	Body       string                  `json:"body" jsonschema:"memo text"`
}

// EditMemoInput is the input schema for the edit_memo tool.
type EditMemoInput struct {
	ID   string `json:"id" jsonschema:"memo ID"`
	Body string `json:"body" jsonschema:"new memo text"`
}

// DeleteInput is the input schema for the delete tools.
type DeleteInput struct {
	ID string `json:"id" jsonschema:"ID of the memo or highlight"`
}

// ChangeOutput reports an edit or deletion.
type ChangeOutput struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "page_annotations",
		Description: "List the highlights and memos on a page of a document",
	}, s.handlePageAnnotations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_highlight",
		Description: "Highlight a selection on a page",
	}, s.handleCreateHighlight)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_memo",
		Description: "Attach a memo to a selection, an existing anchor, or a whole page",
	}, s.handleCreateMemo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "edit_memo",
		Description: "Replace the text of a memo",
	}, s.handleEditMemo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_memo",
		Description: "Delete a memo",
	}, s.handleDeleteMemo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_highlight",
		Description: "Delete a highlight",
	}, s.handleDeleteHighlight)
}

func (s *Server) handlePageAnnotations(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PageInput,
) (*mcp.CallToolResult, PageOutput, error) {
	key := domain.PageKey{DocumentHash: input.DocumentID, Page: input.Page}
	set, err := s.ports.Annotations.FetchPage(ctx, key)
	if err != nil {
		return nil, PageOutput{}, err
	}
	return nil, pageOutput(set), nil
}

func (s *Server) handleCreateHighlight(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HighlightInput,
) (*mcp.CallToolResult, domain.HighlightCreated, error) {
	color := input.Color
	if color == "" {
		color = domain.DefaultHighlightColor
	}
	target := domain.AnchorTarget{
		Key:   domain.PageKey{DocumentHash: input.DocumentID, Page: input.Page},
		Rects: input.Rects,
		Quote: domain.TextQuote{Exact: input.Exact, Prefix: input.Prefix, Suffix: input.Suffix},
	}

	created, err := s.ports.Annotations.CreateHighlight(ctx, target, color)
	if err != nil {
		return nil, domain.HighlightCreated{}, err
	}
	return nil, *created, nil
}

func (s *Server) handleCreateMemo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MemoInput,
) (*mcp.CallToolResult, domain.MemoCreated, error) {
	var (
		created *domain.MemoCreated
		err     error
	)
	if input.AnchorID != "" {
		created, err = s.ports.Annotations.CreateMemoOnAnchor(ctx, input.AnchorID, input.Body)
	} else {
		created, err = s.ports.Annotations.CreateMemo(ctx, domain.AnchorTarget{
			Key:   domain.PageKey{DocumentHash: input.DocumentID, Page: input.Page},
			Rects: input.Rects,
			Quote: domain.TextQuote{Exact: input.Exact},
		}, input.Body)
	}
	if err != nil {
		return nil, domain.MemoCreated{}, err
	}
	return nil, *created, nil
}

func (s *Server) handleEditMemo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EditMemoInput,
) (*mcp.CallToolResult, ChangeOutput, error) {
	if err := s.ports.Annotations.EditMemo(ctx, input.ID, input.Body); err != nil {
		return nil, ChangeOutput{}, err
	}
	return nil, ChangeOutput{ID: input.ID, Action: "updated"}, nil
}

func (s *Server) handleDeleteMemo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, ChangeOutput, error) {
	if err := s.ports.Annotations.DeleteMemo(ctx, input.ID); err != nil {
		return nil, ChangeOutput{}, err
	}
	return nil, ChangeOutput{ID: input.ID, Action: "deleted"}, nil
}

func (s *Server) handleDeleteHighlight(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, ChangeOutput, error) {
	if err := s.ports.Annotations.DeleteHighlight(ctx, input.ID); err != nil {
		return nil, ChangeOutput{}, err
	}
	return nil, ChangeOutput{ID: input.ID, Action: "deleted"}, nil
}

func pageOutput(set *domain.PageAnnotationSet) PageOutput {
	out := PageOutput{
		Count:       set.Count,
		Highlights:  set.Totals.Highlights,
		Notes:       set.Totals.Notes,
		Annotations: make([]AnnotationOutput, 0, len(set.Items)),
	}
	for i := range set.Items {
		b := &set.Items[i]
		a := AnnotationOutput{
			AnchorID: b.Anchor.ID,
			Kind:     b.Kind().String(),
			Exact:    b.Anchor.Quote.Exact,
			Rects:    b.Anchor.Rects,
		}
		for _, h := range b.Highlights {
			a.Highlights = append(a.Highlights, HighlightOutput{ID: h.ID, Color: h.Color, CreatedBy: h.CreatedBy})
		}
		for _, m := range b.Memos {
			a.Memos = append(a.Memos, MemoOutput{
				ID:        m.ID,
				Body:      m.Body,
				CreatedBy: m.CreatedBy,
				CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		out.Annotations = append(out.Annotations, a)
	}
	return out
}
