package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/marginalia/internal/api"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/viewer"
)

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Inspect the annotations of a page",
}

var pageShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the annotations of a page",
	Long: `List the annotations of a page.

With --width, the overlay regions are also listed in pixels for a page
rendered at that width.`,
	Args: cobra.NoArgs,
	RunE: runPageShow,
}

var pageSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Draw the overlay of a page to a PNG file",
	Args:  cobra.NoArgs,
	RunE:  runPageSnapshot,
}

var (
	pageDoc    string
	pageNumber int
	pageFormat string
	pageWidth  float64
	pageOut    string
)

func init() {
	for _, c := range []*cobra.Command{pageShowCmd, pageSnapshotCmd} {
		c.Flags().StringVar(&pageDoc, "doc", "", "document hash")
		c.Flags().IntVar(&pageNumber, "page", 1, "page number (1-based)")
		c.Flags().Float64Var(&pageWidth, "width", 0, "render width in pixels")
	}
	pageShowCmd.Flags().StringVarP(&pageFormat, "format", "f", "table", "output format: table, json or yaml")
	pageSnapshotCmd.Flags().StringVarP(&pageOut, "out", "o", "", "output PNG file")

	pageCmd.AddCommand(pageShowCmd)
	pageCmd.AddCommand(pageSnapshotCmd)
	rootCmd.AddCommand(pageCmd)
}

func runPageShow(cmd *cobra.Command, _ []string) error {
	if err := requireAnnotations(); err != nil {
		return err
	}
	key := domain.PageKey{DocumentHash: pageDoc, Page: pageNumber}
	if err := key.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	set, err := annotationService.FetchPage(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}

	switch strings.ToLower(pageFormat) {
	case "json":
		return outputPageJSON(cmd, set)
	case "yaml", "yml":
		return outputPageYAML(cmd, set)
	case "table", "":
	default:
		return fmt.Errorf("%w: unknown format %q", domain.ErrValidation, pageFormat)
	}

	outputPageTable(cmd, set)
	if pageWidth <= 0 {
		return nil
	}

	page, err := renderPage(ctx, key, pageWidth)
	if err != nil {
		return err
	}
	regions := viewer.Project(set, page.Box, "")
	cmd.Printf("\nRegions at %.0fx%.0f px:\n", page.Box.Width, page.Box.Height)
	for _, r := range regions {
		cmd.Printf("  %-9s %s  %.1f,%.1f,%.1f,%.1f  %s\n",
			r.Kind, r.AnchorID, r.Box.Left, r.Box.Top, r.Box.Width, r.Box.Height, r.Color)
	}
	return nil
}

func outputPageJSON(cmd *cobra.Command, set *domain.PageAnnotationSet) error {
	data, err := json.MarshalIndent(api.FromSet(set), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// outputPageYAML writes the wire form as block YAML, keeping the JSON
// field names and order.
func outputPageYAML(cmd *cobra.Command, set *domain.PageAnnotationSet) error {
	data, err := json.Marshal(api.FromSet(set))
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("failed to convert page: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	cmd.Print(buf.String())
	return nil
}

// blockStyle clears the flow and quoting styles JSON input carries.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func outputPageTable(cmd *cobra.Command, set *domain.PageAnnotationSet) {
	cmd.Printf("Page %d of %s\n", set.Key.Page, shortHash(set.Key.DocumentHash))
	cmd.Printf("  Anchors: %d  Highlights: %d  Notes: %d\n\n",
		set.Count, set.Totals.Highlights, set.Totals.Notes)

	if len(set.Items) == 0 {
		cmd.Println("No annotations on this page.")
		return
	}

	for i := range set.Items {
		b := &set.Items[i]
		cmd.Printf("[%s] %s\n", b.Kind(), b.Anchor.ID)
		if b.Anchor.Quote.Exact != "" {
			cmd.Printf("    %q\n", truncate(b.Anchor.Quote.Exact, 60))
		}
		if !b.Anchor.IsPageLevel() {
			cmd.Printf("    Rects: %d\n", len(b.Anchor.Rects))
		}
		for _, h := range b.Highlights {
			cmd.Printf("    Highlight %s %s%s\n", h.ID, h.Color, byline(h.CreatedBy))
		}
		for _, m := range b.Memos {
			cmd.Printf("    Memo %s%s: %s\n", m.ID, byline(m.CreatedBy), truncate(m.Body, 60))
		}
		cmd.Println()
	}
}

func runPageSnapshot(cmd *cobra.Command, _ []string) error {
	if err := requireAnnotations(); err != nil {
		return err
	}
	if rasteriser == nil {
		return errors.New("rasteriser not configured")
	}
	if pageOut == "" {
		return fmt.Errorf("%w: --out is required", domain.ErrValidation)
	}
	key := domain.PageKey{DocumentHash: pageDoc, Page: pageNumber}
	if err := key.Validate(); err != nil {
		return err
	}

	width := pageWidth
	if width <= 0 {
		width = float64(appSettings().Viewer.RenderWidth)
	}

	ctx := context.Background()
	page, err := renderPage(ctx, key, width)
	if err != nil {
		return err
	}
	set, err := annotationService.FetchPage(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}

	var buf bytes.Buffer
	if err := rasteriser.WritePNG(&buf, page.Box, viewer.Project(set, page.Box, "")); err != nil {
		return fmt.Errorf("failed to draw overlay: %w", err)
	}
	if err := os.WriteFile(pageOut, buf.Bytes(), 0o644); err != nil { //nolint:gosec // output is meant to be shared
		return fmt.Errorf("failed to write %s: %w", pageOut, err)
	}

	cmd.Printf("Wrote %s (%.0fx%.0f, %d annotations)\n", pageOut, page.Box.Width, page.Box.Height, set.Count)
	return nil
}

func renderPage(ctx context.Context, key domain.PageKey, width float64) (*domain.RenderedPage, error) {
	if err := requireDocuments(); err != nil {
		return nil, err
	}
	page, err := documentService.Render(ctx, key, width)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return page, nil
}

func shortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func byline(author string) string {
	if author == "" {
		return ""
	}
	return " by " + author
}
