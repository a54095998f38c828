package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var memoCmd = &cobra.Command{
	Use:   "memo",
	Short: "Create, edit and delete memos",
}

var memoCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Attach a memo to a selection or a page",
	Long: `Attach a memo to a selection, or to the whole page when no --rect is given.

Page memos share one anchor per page.`,
	Args: cobra.NoArgs,
	RunE: runMemoCreate,
}

var memoAddCmd = &cobra.Command{
	Use:   "add [anchor-id]",
	Short: "Add a memo to an existing anchor",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoAdd,
}

var memoEditCmd = &cobra.Command{
	Use:   "edit [memo-id]",
	Short: "Replace the body of a memo",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoEdit,
}

var memoDeleteCmd = &cobra.Command{
	Use:   "delete [memo-id]",
	Short: "Delete a memo",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoDelete,
}

var (
	memoTarget targetFlags
	memoBody   string
)

func init() {
	memoTarget.bind(memoCreateCmd)
	for _, c := range []*cobra.Command{memoCreateCmd, memoAddCmd, memoEditCmd} {
		c.Flags().StringVarP(&memoBody, "body", "b", "", "memo text")
	}

	memoCmd.AddCommand(memoCreateCmd)
	memoCmd.AddCommand(memoAddCmd)
	memoCmd.AddCommand(memoEditCmd)
	memoCmd.AddCommand(memoDeleteCmd)
	rootCmd.AddCommand(memoCmd)
}

func runMemoCreate(cmd *cobra.Command, _ []string) error {
	if err := requireAnnotations(); err != nil {
		return err
	}

	target, err := memoTarget.target(true)
	if err != nil {
		return err
	}

	created, err := annotationService.CreateMemo(context.Background(), target, memoBody)
	if err != nil {
		return fmt.Errorf("failed to create memo: %w", err)
	}

	cmd.Printf("Memo created: %s\n", created.MemoID)
	cmd.Printf("  Anchor: %s\n", created.AnchorID)
	if len(target.Rects) == 0 {
		cmd.Printf("  Page:   %d\n", target.Key.Page)
	}
	return nil
}

func runMemoAdd(cmd *cobra.Command, args []string) error {
	if err := requireAnnotations(); err != nil {
		return err
	}

	created, err := annotationService.CreateMemoOnAnchor(context.Background(), args[0], memoBody)
	if err != nil {
		return fmt.Errorf("failed to add memo: %w", err)
	}

	cmd.Printf("Memo created: %s\n", created.MemoID)
	cmd.Printf("  Anchor: %s\n", created.AnchorID)
	return nil
}

func runMemoEdit(cmd *cobra.Command, args []string) error {
	if err := requireAnnotations(); err != nil {
		return err
	}

	if err := annotationService.EditMemo(context.Background(), args[0], memoBody); err != nil {
		return fmt.Errorf("failed to edit memo: %w", err)
	}

	cmd.Printf("Memo updated: %s\n", args[0])
	return nil
}

func runMemoDelete(cmd *cobra.Command, args []string) error {
	if err := requireAnnotations(); err != nil {
		return err
	}

	if err := annotationService.DeleteMemo(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete memo: %w", err)
	}

	cmd.Printf("Memo deleted: %s\n", args[0])
	return nil
}
