package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/sanitise"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/services"
)

const testDocHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// fakeRenderer opens any .pdf path as a two-page document with a fixed
// text layer.
type fakeRenderer struct{}

var _ driven.PageRenderer = fakeRenderer{}

func (fakeRenderer) Open(_ context.Context, path string) (*domain.DocumentInfo, error) {
	if filepath.Ext(path) != ".pdf" {
		return nil, fmt.Errorf("%w: %s is not a PDF", domain.ErrValidation, path)
	}
	return &domain.DocumentInfo{
		Hash:      testDocHash,
		Path:      path,
		PageCount: 2,
		Pages:     []domain.PageSize{{Width: 600, Height: 800}, {Width: 600, Height: 800}},
	}, nil
}

func (fakeRenderer) Render(
	_ context.Context, info *domain.DocumentInfo, page int, widthPx float64,
) (*domain.RenderedPage, error) {
	rendered, err := info.Layout(page, widthPx)
	if err != nil {
		return nil, err
	}
	s := rendered.Scale
	rendered.TextLayer = []domain.TextSpan{
		{Text: "Attention is all you need", Box: domain.Box{Left: 60 * s, Top: 80 * s, Width: 300 * s, Height: 16 * s}},
		{Text: "Abstract", Box: domain.Box{Left: 60 * s, Top: 120 * s, Width: 80 * s, Height: 12 * s}},
	}
	return rendered, nil
}

// fakeRasteriser records the regions it was asked to draw.
type fakeRasteriser struct {
	page    domain.Box
	regions []domain.Region
	err     error
}

var _ driven.OverlayRasteriser = (*fakeRasteriser)(nil)

func (f *fakeRasteriser) WritePNG(w io.Writer, page domain.Box, regions []domain.Region) error {
	if f.err != nil {
		return f.err
	}
	f.page = page
	f.regions = regions
	_, err := w.Write([]byte("\x89PNG\r\n\x1a\n"))
	return err
}

type testServices struct {
	annotations *services.AnnotationService
	documents   *services.DocumentService
	settings    *services.SettingsService
	config      *memory.ConfigStore
	rasteriser  *fakeRasteriser
}

// setupTestServices installs in-memory services and resets every flag
// when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	resetFlags()

	config := memory.NewConfigStore()
	ts := &testServices{
		annotations: services.NewAnnotationService(memory.NewAnnotationStore(), sanitise.New(), "cli-tester"),
		documents:   services.NewDocumentService(memory.NewDocumentStore(), fakeRenderer{}, nil),
		settings:    services.NewSettingsService(config),
		config:      config,
		rasteriser:  &fakeRasteriser{},
	}
	SetServices(&Services{
		Annotations: ts.annotations,
		Documents:   ts.documents,
		Settings:    ts.settings,
		Rasteriser:  ts.rasteriser,
	})

	t.Cleanup(func() {
		SetServices(nil)
		resetFlags()
	})
	return ts
}

// openTestDoc records the test document and returns it.
func (ts *testServices) openTestDoc(t *testing.T) *domain.DocumentInfo {
	t.Helper()
	info, err := ts.documents.Open(context.Background(), "/papers/attention.pdf")
	require.NoError(t, err)
	return info
}

// highlight stores a highlight across the top half of page 1.
func (ts *testServices) highlight(t *testing.T, color string) *domain.HighlightCreated {
	t.Helper()
	created, err := ts.annotations.CreateHighlight(context.Background(), domain.AnchorTarget{
		Key:   domain.PageKey{DocumentHash: testDocHash, Page: 1},
		Rects: []domain.NormalizedRect{{X: 0.1, Y: 0.1, W: 0.5, H: 0.02}},
		Quote: domain.TextQuote{Exact: "Attention is all you need"},
	}, color)
	require.NoError(t, err)
	return created
}

func (ts *testServices) fetch(t *testing.T, page int) *domain.PageAnnotationSet {
	t.Helper()
	set, err := ts.annotations.FetchPage(context.Background(), domain.PageKey{DocumentHash: testDocHash, Page: page})
	require.NoError(t, err)
	return set
}

// resetFlags restores every package flag to its default, since the
// command tree is shared between tests.
func resetFlags() {
	verbose, useRemote, dataDir = false, false, ""
	highlightTarget.reset()
	highlightColor = ""
	memoTarget.reset()
	memoBody = ""
	pageDoc, pageNumber, pageFormat, pageWidth, pageOut = "", 1, "table", 0, ""
	documentTextPage, documentTextWidth = 1, 0
	serveAddr = ""
	tuiDoc, tuiFile, tuiPage, tuiWatch = "", "", 1, false
}

// execute runs the root command with args and returns everything it
// printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
