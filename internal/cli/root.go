// Package cli provides the command-line interface for reviso.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgrundel/reviso/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	verbose   bool

	// API client, created before every command run.
	api *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reviso",
	Short: "Peer-review extraction pipeline",
	Long: `Reviso ingests a paper's revision material (manuscript, reviewer
reports, auxiliary files) through an agent-backed extraction pipeline and
turns it into a normalized, workable list of review items.

Jobs run on the reviso server; this CLI submits them, follows their
progress, and works with the extracted items.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		api = client.New(serverURL)
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "reviso server URL (default REVISO_SERVER_URL or http://localhost:8486)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
