package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/views/page"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/logger"
	"github.com/custodia-labs/marginalia/internal/viewer"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// keymap holds the keybindings.
	keymap *keymap.KeyMap

	// documentsView is the document picker.
	documentsView *documents.View

	// pageView shows one annotated page.
	pageView *page.View

	// initial is opened on start instead of showing the picker.
	initial *messages.DocumentSelected

	// watch re-renders the open document when its file changes.
	watch bool

	// currentView tracks which view is active.
	currentView messages.ViewType

	// previousView is restored when help is closed.
	previousView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		documentsView: documents.NewView(s, ports.Documents),
		pageView:      page.NewView(s, km, ports.Annotations, ports.Documents, pageOptions(ports)),
		currentView:   messages.ViewDocuments,
	}, nil
}

// pageOptions reads the viewer settings, falling back to defaults.
func pageOptions(ports *Ports) page.Options {
	settings := domain.DefaultAppSettings()
	if ports.Settings != nil {
		if s, err := ports.Settings.Get(); err == nil && s != nil {
			settings = *s
		} else if err != nil {
			logger.Warn("Using default viewer settings: %v", err)
		}
	}
	return page.Options{
		RenderWidth: float64(settings.Viewer.RenderWidth),
		Controller: viewer.ControllerOptions{
			ToolbarWidth:  settings.Viewer.ToolbarWidth,
			ToolbarMargin: settings.Viewer.ToolbarMargin,
			DefaultColor:  settings.Viewer.DefaultColor,
		},
	}
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.pageView.WithContext(ctx)
	return a
}

// WithDocument opens doc at pageNum on start.
func (a *App) WithDocument(doc domain.DocumentInfo, pageNum int) *App {
	a.initial = &messages.DocumentSelected{Document: doc, Page: pageNum}
	return a
}

// WithWatch re-renders the open document whenever its file changes.
func (a *App) WithWatch(watch bool) *App {
	a.watch = watch
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	title := tea.SetWindowTitle("marginalia")
	if a.initial != nil {
		sel := *a.initial
		return tea.Batch(title, func() tea.Msg { return sel })
	}
	return tea.Batch(title, a.documentsView.Init())
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewDocuments {
			return a, a.documentsView.Reload()
		}
		return a, nil

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentSelected:
		a.currentView = messages.ViewPage
		return a, a.pageView.Open(msg.Document, msg.Page)

	case messages.PageRendered, messages.PageFetched, messages.OpFinished, messages.DocumentChanged:
		a.pageView, cmd = a.pageView.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		if a.currentView == messages.ViewPage {
			a.pageView, cmd = a.pageView.Update(msg)
		}
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewDocuments {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
		return a, cmd
	}

	return a, nil
}

// handleKey applies global keys, then forwards to the active view.
func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	typing := a.currentView == messages.ViewPage && a.pageView.Mode() != page.InputNone
	if !typing {
		switch {
		case keymap.Matches(msg.String(), a.keymap.Quit):
			return tea.Quit
		case keymap.Matches(msg.String(), a.keymap.Help):
			if a.currentView == messages.ViewHelp {
				a.currentView = a.previousView
			} else {
				a.previousView = a.currentView
				a.currentView = messages.ViewHelp
			}
			return nil
		}
	}

	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewPage:
		a.pageView, cmd = a.pageView.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc {
			a.currentView = a.previousView
		}
	}
	return cmd
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewPage:
		return a.pageView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewDocuments:
		return a.documentsView.View()
	default:
		return a.documentsView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	titles := []string{"Navigation", "Selection", "Annotations", "General"}
	for i, group := range a.keymap.FullHelp() {
		if i < len(titles) {
			b.WriteString(a.styles.Subtitle.Render(titles[i]))
			b.WriteString("\n")
		}
		for _, binding := range group {
			b.WriteString(helpLine(binding))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

func helpLine(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc)
}

// Run starts the TUI application.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()
	a.WithContext(ctx)

	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if a.watch && a.initial != nil && a.initial.Document.Path != "" {
		path := a.initial.Document.Path
		go func() {
			err := a.ports.Documents.Watch(ctx, path, func(info *domain.DocumentInfo) {
				p.Send(messages.DocumentChanged{Document: *info})
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Watching %s stopped: %v", filepath.Base(path), err)
			}
		}()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// PageView returns the page view.
func (a *App) PageView() *page.View {
	return a.pageView
}

// DocumentsView returns the document picker.
func (a *App) DocumentsView() *documents.View {
	return a.documentsView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.documentsView.SetDimensions(width, height)
	a.pageView.SetDimensions(width, height)
}
