package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nansu0425/RandomPitchPlayer/history"
	"github.com/nansu0425/RandomPitchPlayer/timing"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions",
		Long: `List the most recent sessions recorded with --history.

Example:
  pitchplayer history --history ./sessions.db --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "number of sessions to show")

	return cmd
}

func listHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cfg, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	if cfg.HistoryPath == "" {
		return NewExitError(ExitCommandError, "no history database: pass --history or set history in the config")
	}
	if opts.Limit <= 0 {
		return NewExitError(ExitCommandError, "--limit must be positive")
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history", err)
	}
	defer store.Close()

	sessions, err := store.Recent(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}

	return writeHistory(cmd.OutOrStdout(), sessions)
}

func writeHistory(w io.Writer, sessions []history.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tLENGTH\tMODE\tINTERVAL\tBPM\tPITCHES\tMEAN DELAY\tMAX DELAY\t>1S\tSTOP")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.3fs\t%.1f\t%d\t%s\t%s\t%d\t%s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			s.Elapsed().Round(time.Second),
			s.Mode,
			s.IntervalSeconds,
			s.BPM,
			s.Displays,
			timing.FormatSeconds(s.MeanDelay),
			timing.FormatSeconds(s.MaxDelay),
			s.OverCritical,
			s.StopReason,
		)
	}
	return tw.Flush()
}
