package cli

import (
	"context"
	goerrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/logger"
	"github.com/nansu0425/RandomPitchPlayer/session"
	"github.com/nansu0425/RandomPitchPlayer/surface"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Headless bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a session",
		Long: `Run a pitch session.

With --headless every pitch is printed as a line instead of drawn in the
terminal UI, and the session starts at once. It ends when the duration
elapses or on Ctrl-C.

Example:
  pitchplayer run --headless --bpm 90 --duration 2
  pitchplayer run --headless --interval 0.5 --duration 0 --osc 127.0.0.1:9000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Headless {
				return runTUI(cmd, opts.RootOptions)
			}
			return runHeadless(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "print pitches as lines instead of running the terminal UI")

	return cmd
}

func runHeadless(cmd *cobra.Command, opts *RunOptions) error {
	clk := clock.RealClock{}
	out := cmd.OutOrStdout()

	p, err := newPlayer(cmd, opts.RootOptions, playerSetup{
		clock:    clk,
		display:  surface.NewHeadless(out, clk),
		logOut:   cmd.ErrOrStderr(),
		analysis: out,
	})
	if err != nil {
		return err
	}
	defer p.Close()

	log := logger.GetProjectLogger()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.WithField("signal", sig).Info("Received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := p.ctl.Start(); err != nil {
		if errors.IsError(err, session.ErrInvalidInterval) {
			return WrapExitError(ExitCommandError, "cannot start", err)
		}
		return WrapExitError(ExitFailure, "cannot start", err)
	}
	fmt.Fprintf(out, "%s  (Ctrl-C to stop)\n", p.cfg.Settings.TempoInfo())

	loop := session.NewLoop(p.ctl, session.LoopOptions{
		Clock:               clk,
		QueuePollInterval:   p.cfg.QueuePollInterval,
		RenderCheckInterval: p.cfg.RenderCheckInterval,
		ExitWhenStopped:     true,
	})

	err = loop.Run(ctx)
	if err != nil && !goerrors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "session failed", err)
	}

	if summary := p.ctl.Summary(); summary != "" {
		fmt.Fprintln(out, summary)
	}
	return nil
}
