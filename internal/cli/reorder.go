package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder <resource-id>",
	Short: "Ask the agent to propose a working order for the open items",
	Long: `Send the resource's open review items to the agent and persist the
suggested working order. Done items keep their place and are left out of
the proposal. This blocks on an agent round trip and can take a while.`,
	Args: cobra.ExactArgs(1),
	RunE: runReorder,
}

func init() {
	rootCmd.AddCommand(reorderCmd)
}

func runReorder(cmd *cobra.Command, args []string) error {
	fmt.Println("Asking the agent for a working order, this can take a moment...")

	items, err := api.Reorder(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("reorder: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("No open review items to order")
		return nil
	}

	fmt.Println()
	printItems(items)
	return nil
}
