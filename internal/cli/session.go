package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resetSessionCmd = &cobra.Command{
	Use:   "reset-session <resource-id>",
	Short: "Discard the resource's agent conversation",
	Long: `Drop the accumulated agent conversation for a resource. The next
agent call starts from a clean slate. Useful when the conversation has
drifted or grown too large.`,
	Args: cobra.ExactArgs(1),
	RunE: runResetSession,
}

func init() {
	rootCmd.AddCommand(resetSessionCmd)
}

func runResetSession(cmd *cobra.Command, args []string) error {
	handle, err := api.ResetSession(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	fmt.Printf("Session reset for %s (new handle %s)\n", args[0], handle)
	return nil
}
