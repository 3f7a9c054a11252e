package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nansu0425/RandomPitchPlayer/rhythm"
)

// TempoOptions holds flags for the tempo command.
type TempoOptions struct {
	*RootOptions
	Seconds bool
}

// NewTempoCommand creates the tempo command.
func NewTempoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TempoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tempo <value>",
		Short: "Convert between BPM and seconds per pitch",
		Long: `Convert a tempo in BPM into seconds per pitch, or with --seconds the
other way round, and name its tempo marking.

Example:
  pitchplayer tempo 90
  pitchplayer tempo --seconds 0.75`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := describeTempo(args[0], opts.Seconds)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Seconds, "seconds", "s", false, "the value is seconds per pitch")

	return cmd
}

func describeTempo(text string, seconds bool) (string, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return "", WrapExitError(ExitCommandError, fmt.Sprintf("invalid tempo %q", text), err)
	}

	var bpm, interval float64
	var clamped bool
	if seconds {
		clamped = !rhythm.ValidInterval(v)
		bpm = rhythm.IntervalToBPM(v)
		interval = rhythm.BPMToInterval(bpm)
		if !clamped {
			interval = v
		}
	} else {
		clamped = !rhythm.ValidBPM(v)
		interval = rhythm.BPMToInterval(v)
		bpm = rhythm.IntervalToBPM(interval)
		if !clamped {
			bpm = v
		}
	}

	line := fmt.Sprintf("%.1f BPM = %.3fs per pitch (%s)", bpm, interval, rhythm.DescribeTempo(bpm))
	if clamped {
		line += " [clamped]"
	}
	return line, nil
}
