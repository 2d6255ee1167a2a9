package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the current state of an extraction job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	snap, err := api.GetJob(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job: %s\n", snap.ID)
	fmt.Printf("  Resource: %s\n", snap.ResourceID)
	fmt.Printf("  Status: %s\n", snap.Status)
	fmt.Printf("  Step: %s\n", snap.CurrentStep)
	fmt.Printf("  Progress: %d%%\n", snap.Progress)
	fmt.Printf("  Started: %s\n", snap.CreatedAt.Format(time.RFC3339))
	if snap.Status.Terminal() {
		fmt.Printf("  Finished: %s\n", snap.UpdatedAt.Format(time.RFC3339))
		fmt.Printf("  Duration: %s\n", snap.UpdatedAt.Sub(snap.CreatedAt).Round(time.Second))
	}
	if snap.Error != "" {
		fmt.Printf("  Error: %s\n", snap.Error)
	}

	if len(snap.Logs) > 0 {
		fmt.Println("\nLog:")
		for _, entry := range snap.Logs {
			if !verbose && entry.Level == "info" {
				continue
			}
			fmt.Printf("  %s %-5s %s\n", entry.Timestamp.Format("15:04:05"), entry.Level, entry.Message)
		}
		if !verbose {
			fmt.Println("  (use --verbose for the full log)")
		}
	}

	return nil
}
