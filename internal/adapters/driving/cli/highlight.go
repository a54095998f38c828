package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight",
	Short: "Create and delete highlights",
}

var highlightCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Highlight a selection on a page",
	Long: `Highlight a selection on a page.

Boxes are given in the pixel space of the page container the selection was
made in; they are stored relative to the page.

Example:
  marginalia highlight create --doc 3f2a... --page 1 \
    --container 0,0,800,1035 --rect 94,120,310,16 --rect 94,138,120,16 \
    --text "Attention is all you need" --color "#86efac"`,
	Args: cobra.NoArgs,
	RunE: runHighlightCreate,
}

var highlightDeleteCmd = &cobra.Command{
	Use:   "delete [highlight-id]",
	Short: "Delete a highlight",
	Args:  cobra.ExactArgs(1),
	RunE:  runHighlightDelete,
}

var (
	highlightTarget targetFlags
	highlightColor  string
)

func init() {
	highlightTarget.bind(highlightCreateCmd)
	highlightCreateCmd.Flags().StringVar(&highlightColor, "color", "", "highlight colour as #rrggbb (default from config)")

	highlightCmd.AddCommand(highlightCreateCmd)
	highlightCmd.AddCommand(highlightDeleteCmd)
	rootCmd.AddCommand(highlightCmd)
}

func runHighlightCreate(cmd *cobra.Command, _ []string) error {
	if err := requireAnnotations(); err != nil {
		return err
	}

	target, err := highlightTarget.target(false)
	if err != nil {
		return err
	}
	color := highlightColor
	if color == "" {
		color = appSettings().Viewer.DefaultColor
	}

	created, err := annotationService.CreateHighlight(context.Background(), target, color)
	if err != nil {
		return fmt.Errorf("failed to create highlight: %w", err)
	}

	cmd.Printf("Highlight created: %s\n", created.HighlightID)
	cmd.Printf("  Anchor: %s\n", created.AnchorID)
	cmd.Printf("  Rects:  %d\n", len(target.Rects))
	return nil
}

func runHighlightDelete(cmd *cobra.Command, args []string) error {
	if err := requireAnnotations(); err != nil {
		return err
	}

	if err := annotationService.DeleteHighlight(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete highlight: %w", err)
	}

	cmd.Printf("Highlight deleted: %s\n", args[0])
	return nil
}
