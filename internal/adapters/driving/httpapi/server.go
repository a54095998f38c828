package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/marginalia/internal/api"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Options adds optional collaborators to the server.
type Options struct {
	Documents  driving.DocumentService
	Rasteriser driven.OverlayRasteriser

	// RenderWidth is used when a page request has no width.
	RenderWidth float64
}

// Server is the HTTP API.
type Server struct {
	annotations driving.AnnotationService
	opts        Options
	router      chi.Router
}

// NewServer creates a server for annotations.
func NewServer(annotations driving.AnnotationService, opts Options) (*Server, error) {
	if annotations == nil {
		return nil, errors.New("annotation service is required")
	}
	if opts.RenderWidth <= 0 {
		opts.RenderWidth = float64(domain.DefaultAppSettings().Viewer.RenderWidth)
	}

	s := &Server{annotations: annotations, opts: opts}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeOK(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/pageAnnotations", s.handlePageAnnotations)

		r.Post("/highlights", s.handleCreateHighlight)
		r.Delete("/highlights/{id}", s.handleDeleteHighlight)

		r.Post("/memos", s.handleCreateMemo)
		r.Patch("/memos/{id}", s.handleEditMemo)
		r.Delete("/memos/{id}", s.handleDeleteMemo)

		if s.opts.Documents != nil {
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", s.handleListDocuments)
				r.Get("/{hash}", s.handleGetDocument)
				r.Get("/{hash}/pages/{page}", s.handleRenderPage)
				if s.opts.Rasteriser != nil {
					r.Get("/{hash}/pages/{page}/overlay.png", s.handleOverlay)
				}
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, domain.ErrNotFound))
	})
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("Annotation API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// requestLog logs each request with its status and duration.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Info("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Microsecond))
	})
}

// ==================== Responses ====================

func writeEnvelope(w http.ResponseWriter, status int, env *api.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Warn("Write response: %v", err)
	}
}

func writeOK(w http.ResponseWriter, status int, v any) {
	env, err := api.OK(v)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, status, env)
}

func writeError(w http.ResponseWriter, err error) {
	status, env := api.Fail(err)
	if status >= http.StatusInternalServerError {
		logger.Warn("Request failed: %v", err)
	}
	writeEnvelope(w, status, env)
}

// decodeBody reads a JSON body into v. Malformed bodies are validation
// failures.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}
