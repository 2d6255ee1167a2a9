package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Request cancellation of a running job",
	Long: `Ask a running job to stop. Cancellation is cooperative: the job
finishes the file it is currently processing and keeps the work completed
so far, so a cancelled job can take a moment to wind down.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	if err := api.CancelJob(context.Background(), args[0]); err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	fmt.Printf("Cancellation requested for job %s\n", args[0])
	return nil
}
