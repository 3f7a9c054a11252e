package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/logger"
	"github.com/nansu0425/RandomPitchPlayer/tui"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	LogLevel   string
	LogFile    string

	Interval  float64
	BPM       float64
	Mode      string
	Duration  float64
	NoVoice   bool
	VoiceDir  string
	NoAwake   bool
	Reduced   bool
	QueueCap  int
	OSCTarget string
	DMX       bool
	OLA       string
	History   string
}

// NewRootCommand creates the root command. Without a subcommand it runs the
// terminal UI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pitchplayer",
		Short: "RandomPitchPlayer - random pitch ear training",
		Long: `Show a random natural pitch (C D E F G A B) at a fixed interval, never
repeating one back to back, and optionally announce it.

Keys: space start/stop, [ ] tempo, - = duration, m mode, t voice,
a timing analysis, q quit.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file; the timing mode is saved back on exit")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.StringVar(&opts.LogFile, "log-file", "", "write logs to this file (the UI discards them otherwise)")

	flags.Float64Var(&opts.Interval, "interval", 0, "seconds between pitches")
	flags.Float64Var(&opts.BPM, "bpm", 0, "pitches per minute")
	flags.StringVar(&opts.Mode, "mode", "", "tempo entry mode (seconds|bpm)")
	flags.Float64Var(&opts.Duration, "duration", 0, "session length in minutes, 0 runs until stopped")
	flags.BoolVar(&opts.NoVoice, "no-voice", false, "do not announce pitches")
	flags.StringVar(&opts.VoiceDir, "voice-dir", "", "directory of pitch_<NOTE>.wav clips")
	flags.BoolVar(&opts.NoAwake, "no-keep-awake", false, "let the machine sleep during sessions")
	flags.BoolVar(&opts.Reduced, "reduced-logging", false, "disable timing measurement")
	flags.IntVar(&opts.QueueCap, "queue-capacity", 0, "bound the update queue, dropping the oldest (0 is unbounded)")
	flags.StringVar(&opts.OSCTarget, "osc", "", "send each pitch as OSC to host:port")
	flags.BoolVar(&opts.DMX, "dmx", false, "mirror the pitch color to DMX fixtures through OLA")
	flags.StringVar(&opts.OLA, "ola", "", "OLA address (default localhost:9010)")
	flags.StringVar(&opts.History, "history", "", "SQLite database recording stopped sessions")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTempoCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewDMXCommand(opts))

	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

func runTUI(cmd *cobra.Command, opts *RootOptions) error {
	clk := clock.RealClock{}
	display := tui.NewDisplay(clk)

	p, err := newPlayer(cmd, opts, playerSetup{
		clock:       clk,
		display:     display,
		interactive: true,
	})
	if err != nil {
		return err
	}
	defer p.Close()

	model := tui.New(tui.Options{
		Controller:          p.ctl,
		Display:             display,
		Clock:               clk,
		QueuePollInterval:   p.cfg.QueuePollInterval,
		RenderCheckInterval: p.cfg.RenderCheckInterval,
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return WrapExitError(ExitFailure, "terminal UI failed", err)
	}

	logger.GetProjectLogger().Debug("Terminal UI closed")
	return nil
}
