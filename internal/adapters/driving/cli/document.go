package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Open and inspect documents",
	Long:  `Open PDF files, list known documents, and print page text with its position.`,
}

var documentInfoCmd = &cobra.Command{
	Use:   "info [file.pdf]",
	Short: "Open a PDF and show its hash and pages",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentInfo,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List opened documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentTextCmd = &cobra.Command{
	Use:   "text [doc-hash]",
	Short: "Print the text of a page with its boxes",
	Long: `Print the text runs of a page with their boxes in pixels, for a page
rendered at --width. The boxes can be passed to "highlight create --rect"
with --container 0,0,<width>,<height>.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentText,
}

var (
	documentTextPage  int
	documentTextWidth float64
)

func init() {
	documentTextCmd.Flags().IntVar(&documentTextPage, "page", 1, "page number (1-based)")
	documentTextCmd.Flags().Float64Var(&documentTextWidth, "width", 0, "render width in pixels (default from config)")

	documentCmd.AddCommand(documentInfoCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentTextCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentInfo(cmd *cobra.Command, args []string) error {
	if err := requireDocuments(); err != nil {
		return err
	}

	info, err := documentService.Open(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}

	printDocument(cmd, info)
	for i, p := range info.Pages {
		cmd.Printf("    %3d  %.0f x %.0f pt\n", i+1, p.Width, p.Height)
	}
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if err := requireDocuments(); err != nil {
		return err
	}

	docs, err := documentService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents opened yet. Use 'marginalia document info <file.pdf>'.")
		return nil
	}

	for i := range docs {
		printDocument(cmd, &docs[i])
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func printDocument(cmd *cobra.Command, info *domain.DocumentInfo) {
	cmd.Printf("Document: %s\n", info.Hash)
	cmd.Printf("  Path:  %s\n", info.Path)
	cmd.Printf("  Pages: %d\n", info.PageCount)
}

func runDocumentText(cmd *cobra.Command, args []string) error {
	key := domain.PageKey{DocumentHash: args[0], Page: documentTextPage}
	if err := key.Validate(); err != nil {
		return err
	}
	width := documentTextWidth
	if width <= 0 {
		width = float64(appSettings().Viewer.RenderWidth)
	}

	page, err := renderPage(context.Background(), key, width)
	if err != nil {
		return err
	}

	cmd.Printf("Page %d at %.0fx%.0f px\n\n", key.Page, page.Box.Width, page.Box.Height)
	if len(page.TextLayer) == 0 {
		cmd.Println("No text found on this page.")
		return nil
	}
	for _, span := range page.TextLayer {
		b := span.Box
		cmd.Printf("  %.1f,%.1f,%.1f,%.1f  %s\n", b.Left, b.Top, b.Width, b.Height, span.Text)
	}
	return nil
}
