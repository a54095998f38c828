package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/marginalia/internal/api"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/viewer"
)

// ==================== Annotations ====================

func (s *Server) handlePageAnnotations(w http.ResponseWriter, r *http.Request) {
	key, err := pageKey(r.URL.Query().Get("documentId"), r.URL.Query().Get("page"))
	if err != nil {
		writeError(w, err)
		return
	}

	set, err := s.annotations.FetchPage(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, api.FromSet(set))
}

func (s *Server) handleCreateHighlight(w http.ResponseWriter, r *http.Request) {
	var req api.CreateHighlightRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.annotations.CreateHighlight(r.Context(), req.Target(), req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteHighlight(w http.ResponseWriter, r *http.Request) {
	if err := s.annotations.DeleteHighlight(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleCreateMemo(w http.ResponseWriter, r *http.Request) {
	var req api.CreateMemoRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		created *domain.MemoCreated
		err     error
	)
	if req.AnchorID != "" {
		created, err = s.annotations.CreateMemoOnAnchor(r.Context(), req.AnchorID, req.Body)
	} else {
		created, err = s.annotations.CreateMemo(r.Context(), req.Target(), req.Body)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, created)
}

func (s *Server) handleEditMemo(w http.ResponseWriter, r *http.Request) {
	var req api.EditMemoRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.annotations.EditMemo(r.Context(), chi.URLParam(r, "id"), req.Body); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteMemo(w http.ResponseWriter, r *http.Request) {
	if err := s.annotations.DeleteMemo(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

// ==================== Documents ====================

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.opts.Documents.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.DocumentInfo{}
	}
	writeOK(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	info, err := s.opts.Documents.Get(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, info)
}

func (s *Server) handleRenderPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.renderPage(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, page)
}

// handleOverlay draws the page's annotations as a PNG.
func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	page, err := s.renderPage(r)
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := s.annotations.FetchPage(r.Context(), page.Key)
	if err != nil {
		writeError(w, err)
		return
	}

	origin := domain.Box{Width: page.Box.Width, Height: page.Box.Height}
	regions := viewer.Project(set, origin, r.URL.Query().Get("selected"))

	// Buffer so a draw failure can still be reported as JSON
	var buf bytes.Buffer
	if err := s.opts.Rasteriser.WritePNG(&buf, origin, regions); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderPage(r *http.Request) (*domain.RenderedPage, error) {
	key, err := pageKey(chi.URLParam(r, "hash"), chi.URLParam(r, "page"))
	if err != nil {
		return nil, err
	}
	width := s.opts.RenderWidth
	if raw := r.URL.Query().Get("width"); raw != "" {
		width, err = strconv.ParseFloat(raw, 64)
		if err != nil || width <= 0 {
			return nil, fmt.Errorf("%w: width must be a positive number, got %q", domain.ErrValidation, raw)
		}
	}
	return s.opts.Documents.Render(r.Context(), key, width)
}

func pageKey(hash, page string) (domain.PageKey, error) {
	n, err := strconv.Atoi(strings.TrimSpace(page))
	if err != nil {
		return domain.PageKey{}, fmt.Errorf("%w: page must be a number, got %q", domain.ErrValidation, page)
	}
	key := domain.PageKey{DocumentHash: strings.TrimSpace(hash), Page: n}
	if err := key.Validate(); err != nil {
		return domain.PageKey{}, err
	}
	return key, nil
}
