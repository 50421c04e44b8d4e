package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthware/tvpilot/pkg/cli"
	"github.com/hearthware/tvpilot/pkg/journal"
)

var (
	flagJournalDB      string
	flagJournalSession string
	flagJournalLimit   int
	flagJournalOutput  string
	flagJournalFile    string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the voice exchange journal",
	Long: `Inspect the voice exchange journal.

Without --session, lists the session IDs present in the journal. With
--session, lists that session's most recent exchanges oldest first.

The journal directory is locked by a running hub; point this at a copy or
run it while the hub is stopped.

Examples:
  tvpilot journal --db /var/lib/tvpilot/journal
  tvpilot journal --db /var/lib/tvpilot/journal --session 6f1d... --limit 50 -o json
  tvpilot journal --db /var/lib/tvpilot/journal --session 6f1d... --file transcript.yaml`,
	RunE: runJournal,
}

func init() {
	journalCmd.Flags().StringVar(&flagJournalDB, "db", "", "journal directory (required)")
	journalCmd.Flags().StringVar(&flagJournalSession, "session", "", "session ID to list exchanges for")
	journalCmd.Flags().IntVar(&flagJournalLimit, "limit", 20, "max exchanges to list")
	journalCmd.Flags().StringVarP(&flagJournalOutput, "output", "o", "yaml", "output format (yaml, json)")
	journalCmd.Flags().StringVar(&flagJournalFile, "file", "", "write output to a file instead of stdout")
	journalCmd.MarkFlagRequired("db")
	rootCmd.AddCommand(journalCmd)
}

// exchangeView is the operator-facing rendering of a journal exchange.
type exchangeView struct {
	At            string   `json:"at" yaml:"at"`
	Transcription string   `json:"transcription,omitempty" yaml:"transcription,omitempty"`
	Response      string   `json:"response,omitempty" yaml:"response,omitempty"`
	Commands      []string `json:"commands,omitempty" yaml:"commands,omitempty"`
	TVOffline     bool     `json:"tvOffline,omitempty" yaml:"tvOffline,omitempty"`
	Err           string   `json:"err,omitempty" yaml:"err,omitempty"`
}

func runJournal(cmd *cobra.Command, args []string) error {
	cli.PrintVerbose(IsVerbose(), "opening journal at %s", flagJournalDB)
	j, err := journal.NewBadger(journal.BadgerOptions{Dir: flagJournalDB})
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	opts := cli.OutputOptions{Format: cli.OutputFormat(flagJournalOutput), File: flagJournalFile}

	if flagJournalSession == "" {
		sessions, err := j.Sessions(ctx)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			cli.PrintInfo("journal is empty")
			return nil
		}
		return output(map[string][]string{"sessions": sessions}, opts)
	}

	exchanges, err := j.Recent(ctx, flagJournalSession, flagJournalLimit)
	if err != nil {
		return err
	}
	views := make([]exchangeView, 0, len(exchanges))
	for _, x := range exchanges {
		views = append(views, exchangeView{
			At:            x.Time().Format(time.RFC3339),
			Transcription: x.Transcription,
			Response:      x.Response,
			Commands:      x.Commands,
			TVOffline:     x.TVOffline,
			Err:           x.Err,
		})
	}
	return output(views, opts)
}

func output(result any, opts cli.OutputOptions) error {
	if err := cli.Output(result, opts); err != nil {
		return err
	}
	if opts.File != "" {
		cli.PrintSuccess("Saved to: %s", opts.File)
	}
	return nil
}
