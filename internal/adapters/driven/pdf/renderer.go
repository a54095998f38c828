package pdf

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure Renderer implements the interface.
var _ driven.PageRenderer = (*Renderer)(nil)

// Renderer lays out PDF pages. Parsed documents are cached by hash so
// rendering several pages of one file parses it once.
type Renderer struct {
	mu    sync.Mutex
	cache map[string]*model.Context
}

// NewRenderer creates a new PDF renderer.
func NewRenderer() *Renderer {
	return &Renderer{cache: make(map[string]*model.Context)}
}

// Open reads a PDF and returns its hash and page sizes.
func (r *Renderer) Open(ctx context.Context, path string) (*domain.DocumentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer logger.Timed("open " + path)()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	dims, err := pdfCtx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("pdfcpu page dims: %w", err)
	}

	info := &domain.DocumentInfo{
		Hash:      hash,
		Path:      path,
		PageCount: pdfCtx.PageCount,
		Pages:     make([]domain.PageSize, 0, len(dims)),
	}
	for _, d := range dims {
		info.Pages = append(info.Pages, domain.PageSize{Width: d.Width, Height: d.Height})
	}

	r.mu.Lock()
	r.cache[hash] = pdfCtx
	r.mu.Unlock()

	return info, nil
}

// Render lays out one page at widthPx. The text layer is best effort:
// a page whose content cannot be read renders without one.
func (r *Renderer) Render(ctx context.Context, info *domain.DocumentInfo, page int, widthPx float64) (*domain.RenderedPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rendered, err := info.Layout(page, widthPx)
	if err != nil {
		return nil, err
	}

	pdfCtx, err := r.context(ctx, info)
	if err != nil {
		logger.Warn("No text layer for %s: %v", rendered.Key, err)
		return rendered, nil
	}

	content, err := pdfcpu.ExtractPageContent(pdfCtx, page)
	if err != nil || content == nil {
		logger.Debug("No content stream for %s", rendered.Key)
		return rendered, nil
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return rendered, nil
	}

	pageHeight := info.Pages[page-1].Height
	for _, run := range ParseTextRuns(data) {
		rendered.TextLayer = append(rendered.TextLayer, domain.TextSpan{
			Text: run.Text,
			Box:  run.Box(pageHeight, rendered.Scale),
		})
	}
	return rendered, nil
}

// context returns the parsed document, re-reading it from info.Path when
// it is not cached.
func (r *Renderer) context(ctx context.Context, info *domain.DocumentInfo) (*model.Context, error) {
	r.mu.Lock()
	pdfCtx, ok := r.cache[info.Hash]
	r.mu.Unlock()
	if ok {
		return pdfCtx, nil
	}

	reopened, err := r.Open(ctx, info.Path)
	if err != nil {
		return nil, err
	}
	if reopened.Hash != info.Hash {
		return nil, fmt.Errorf("%s changed since it was opened", info.Path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[info.Hash], nil
}
