package commands

import (
	"github.com/spf13/cobra"
)

// Global flags
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tvpilot",
	Short: "Voice control hub for TV displays",
	Long: `tvpilot - the connection hub between voice remotes and a TV display.

The hub accepts WebSocket connections from remote clients (/voice) and a
single display client (/tv). Remote audio runs through transcription and
intent inference, and the resulting commands are relayed to the display.

Examples:
  # Run the hub with a config file
  tvpilot serve --config /etc/tvpilot/config.yaml

  # Review what the assistant heard and dispatched
  tvpilot journal --db /var/lib/tvpilot/journal --limit 20`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
