package page

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/sanitise"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/core/services"
)

const testHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

var testPageBox = domain.Box{Width: 800, Height: 1000}

func testDoc() domain.DocumentInfo {
	return domain.DocumentInfo{Hash: testHash, Path: "/papers/report.pdf", PageCount: 3}
}

func testSpans() []domain.TextSpan {
	return []domain.TextSpan{
		{Text: "Alpha beta", Box: domain.Box{Left: 100, Top: 100, Width: 200, Height: 20}},
		{Text: "gamma delta", Box: domain.Box{Left: 100, Top: 140, Width: 220, Height: 20}},
		{Text: "epsilon", Box: domain.Box{Left: 100, Top: 180, Width: 120, Height: 20}},
	}
}

// fakeDocuments renders every page with the same text layer.
type fakeDocuments struct {
	err      error
	rendered []domain.PageKey
}

var _ driving.DocumentService = (*fakeDocuments)(nil)

func (f *fakeDocuments) Open(_ context.Context, _ string) (*domain.DocumentInfo, error) {
	doc := testDoc()
	return &doc, nil
}

func (f *fakeDocuments) Get(_ context.Context, _ string) (*domain.DocumentInfo, error) {
	doc := testDoc()
	return &doc, nil
}

func (f *fakeDocuments) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return []domain.DocumentInfo{testDoc()}, nil
}

func (f *fakeDocuments) Render(_ context.Context, key domain.PageKey, widthPx float64) (*domain.RenderedPage, error) {
	f.rendered = append(f.rendered, key)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RenderedPage{Key: key, Box: testPageBox, Scale: widthPx / 600, TextLayer: testSpans()}, nil
}

func (f *fakeDocuments) Watch(_ context.Context, _ string, _ func(*domain.DocumentInfo)) error {
	return nil
}

// failingAnnotations fails every mutation with err.
type failingAnnotations struct {
	driving.AnnotationService
	err error
}

func (f *failingAnnotations) CreateHighlight(context.Context, domain.AnchorTarget, string) (*domain.HighlightCreated, error) {
	return nil, f.err
}

func (f *failingAnnotations) CreateMemo(context.Context, domain.AnchorTarget, string) (*domain.MemoCreated, error) {
	return nil, f.err
}

type fixture struct {
	view        *View
	annotations *services.AnnotationService
	documents   *fakeDocuments
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	annotations := services.NewAnnotationService(memory.NewAnnotationStore(), sanitise.New(), "tester")
	documents := &fakeDocuments{}
	view := NewView(nil, nil, annotations, documents, Options{})
	view.SetDimensions(120, 40)

	f := &fixture{view: view, annotations: annotations, documents: documents}
	f.drive(view.Open(testDoc(), 1))
	require.NotNil(t, view.Session().Page())
	require.NotNil(t, view.Session().Repo.Current())
	return f
}

// drive runs cmd and feeds each resulting message back into the view
// until no command remains. It returns the first message the view does
// not handle itself.
func (f *fixture) drive(cmd tea.Cmd) tea.Msg {
	for cmd != nil {
		msg := cmd()
		switch msg.(type) {
		case nil:
			return nil
		case messages.ViewChanged:
			return msg
		}
		_, cmd = f.view.Update(msg)
	}
	return nil
}

func (f *fixture) key(k string) tea.Msg {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := f.view.Update(msg)
	return f.drive(cmd)
}

func (f *fixture) keys(ks ...string) {
	for _, k := range ks {
		f.key(k)
	}
}

func (f *fixture) typeText(s string) {
	f.view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (f *fixture) page(t *testing.T) *domain.PageAnnotationSet {
	t.Helper()
	set, err := f.annotations.FetchPage(context.Background(), f.view.Key())
	require.NoError(t, err)
	return set
}
