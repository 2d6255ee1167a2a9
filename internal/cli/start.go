package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var startDetach bool

var startCmd = &cobra.Command{
	Use:   "start <resource-id>",
	Short: "Start an extraction job for a resource",
	Long: `Submit the resource's input files (manuscript, reviewer reports,
auxiliary material) to the extraction pipeline.

Only one job can run per resource; a second start while one is running is
rejected. Follows progress interactively on a terminal, polls in plain
text otherwise.

Examples:
  reviso start paper-42
  reviso start paper-42 --detach`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&startDetach, "detach", "d", false, "submit and exit without waiting")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	resourceID := args[0]

	jobID, err := api.StartJob(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("start job: %w", err)
	}
	fmt.Printf("Job %s started for %s\n", jobID, resourceID)

	if startDetach {
		fmt.Printf("Use 'reviso status %s' to follow it.\n", jobID)
		return nil
	}

	snap, err := api.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return RunJobProgress(api, snap)
	}
	return pollPlain(ctx, jobID)
}

// pollPlain follows a job without the interactive UI, printing each step
// change and new log lines. Used when stdout is piped.
func pollPlain(ctx context.Context, jobID string) error {
	var lastStep string
	var seenLogs int

	for {
		snap, err := api.GetJob(ctx, jobID)
		if err != nil {
			return fmt.Errorf("get job: %w", err)
		}

		if string(snap.CurrentStep) != lastStep {
			lastStep = string(snap.CurrentStep)
			fmt.Printf("[%3d%%] %s\n", snap.Progress, snap.CurrentStep)
		}
		for ; seenLogs < len(snap.Logs); seenLogs++ {
			entry := snap.Logs[seenLogs]
			if verbose || entry.Level != "info" {
				fmt.Printf("       %s: %s\n", entry.Level, entry.Message)
			}
		}

		if snap.Status.Terminal() {
			if snap.Error != "" {
				return fmt.Errorf("job failed: %s", snap.Error)
			}
			fmt.Println("Completed")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}
