package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive page viewer",
	Long: `Launch the interactive terminal viewer.

Pages are drawn as text with highlights blended in, and a side panel
lists the annotations of the page.

Controls:
  ↑/k, ↓/j - Move the text cursor
  n, p     - Next / previous page
  v        - Start or end a text selection
  h, c, m  - Highlight / cycle colour / memo the selection
  Enter    - Open the annotation under the cursor
  Tab      - Switch between page and panel
  P        - Memo on the whole page
  Esc      - Cancel / back
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

var (
	tuiDoc   string
	tuiFile  string
	tuiPage  int
	tuiWatch bool
)

func init() {
	tuiCmd.Flags().StringVar(&tuiDoc, "doc", "", "hash of a document opened before")
	tuiCmd.Flags().StringVar(&tuiFile, "file", "", "PDF file to open")
	tuiCmd.Flags().IntVar(&tuiPage, "page", 1, "page to start on (1-based)")
	tuiCmd.Flags().BoolVar(&tuiWatch, "watch", false, "reload the page when the file changes")
	tuiCmd.MarkFlagsMutuallyExclusive("doc", "file")
	rootCmd.AddCommand(tuiCmd)
}

// newTUIApp builds the app and resolves the document to start on.
func newTUIApp(ctx context.Context) (*tui.App, error) {
	if err := requireAnnotations(); err != nil {
		return nil, err
	}
	if err := requireDocuments(); err != nil {
		return nil, err
	}

	ports := tui.NewPorts(annotationService, documentService)
	ports.Settings = settingsService

	app, err := tui.NewApp(ports)
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	var doc *domain.DocumentInfo
	switch {
	case tuiFile != "":
		doc, err = documentService.Open(ctx, tuiFile)
	case tuiDoc != "":
		doc, err = documentService.Get(ctx, tuiDoc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	if doc != nil {
		app.WithDocument(*doc, tuiPage).WithWatch(tuiWatch)
	}
	return app, nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := newTUIApp(ctx)
	if err != nil {
		return err
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
