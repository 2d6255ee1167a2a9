package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgrundel/reviso/internal/models"
)

var itemsCmd = &cobra.Command{
	Use:   "items <resource-id>",
	Short: "List the extracted review items for a resource",
	Long: `Print a resource's review items in working order.

Examples:
  reviso items paper-42
  reviso items paper-42 --verbose   # include quotes and suggested responses`,
	Args: cobra.ExactArgs(1),
	RunE: runItems,
}

var itemDoneCmd = &cobra.Command{
	Use:   "done <item-id>",
	Short: "Mark a review item as done",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemDone,
}

var itemReopenCmd = &cobra.Command{
	Use:   "reopen <item-id>",
	Short: "Mark a review item as open again",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemReopen,
}

func init() {
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(itemDoneCmd)
	rootCmd.AddCommand(itemReopenCmd)
}

func runItems(cmd *cobra.Command, args []string) error {
	items, err := api.ListItems(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("No review items found")
		return nil
	}

	printItems(items)
	return nil
}

func printItems(items []models.ReviewItem) {
	fmt.Printf("%-3s %-10s %-6s %-8s %-8s %s\n", "#", "ID", "STATUS", "PRIORITY", "SEVERITY", "SUMMARY")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, it := range items {
		flag := ""
		if it.NeedsManualReview {
			flag = " (!)"
		}
		fmt.Printf("%-3d %-10s %-6s %-8s %-8s %s%s\n",
			it.SortOrder, it.ID, it.Status, it.Priority, it.Severity, it.Summary, flag)

		if verbose {
			if it.Reviewer != "" {
				fmt.Printf("    reviewer: %s\n", it.Reviewer)
			}
			if it.Quote != "" {
				fmt.Printf("    quote: %q\n", it.Quote)
			}
			if it.SuggestedResponse != "" {
				fmt.Printf("    suggested response: %s\n", it.SuggestedResponse)
			}
		}
	}
}

func runItemDone(cmd *cobra.Command, args []string) error {
	item, err := api.SetItemStatus(context.Background(), args[0], models.ItemStatusDone)
	if err != nil {
		return fmt.Errorf("mark item done: %w", err)
	}
	fmt.Printf("Done: %s\n", item.Summary)
	return nil
}

func runItemReopen(cmd *cobra.Command, args []string) error {
	item, err := api.SetItemStatus(context.Background(), args[0], models.ItemStatusOpen)
	if err != nil {
		return fmt.Errorf("reopen item: %w", err)
	}
	fmt.Printf("Reopened: %s\n", item.Summary)
	return nil
}
