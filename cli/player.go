package cli

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/engine"
	"github.com/nansu0425/RandomPitchPlayer/fixture"
	"github.com/nansu0425/RandomPitchPlayer/history"
	"github.com/nansu0425/RandomPitchPlayer/logger"
	"github.com/nansu0425/RandomPitchPlayer/session"
	"github.com/nansu0425/RandomPitchPlayer/surface"
	"github.com/nansu0425/RandomPitchPlayer/timing"
)

type playerSetup struct {
	clock   clock.Clock
	display session.Display

	// logOut receives logs when no log file is given. Nil discards them.
	logOut io.Writer

	// analysis receives the timing report at each stop. Nil uses the log output.
	analysis io.Writer

	// interactive players can turn speech on later, so it is always opened.
	interactive bool
}

// player is a controller with every collaborator the config asks for.
type player struct {
	cfg        *config.PlayerConfig
	ctl        *session.Controller
	store      *history.Store
	logFile    *os.File
	configPath string
}

// loadConfig reads the config file and applies flags over it.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.PlayerConfig, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err := applyFlags(cmd, opts, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// applyFlags overrides config values with the flags that were set.
func applyFlags(cmd *cobra.Command, opts *RootOptions, cfg *config.PlayerConfig) error {
	changed := cmd.Flags().Changed
	s := cfg.Settings

	if changed("log-level") {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if changed("log-file") {
		cfg.LogFile = opts.LogFile
	}

	if changed("interval") {
		s.SetIntervalSeconds(opts.Interval)
		if !changed("mode") && !changed("bpm") {
			s.SetMode(config.ModeSeconds)
		}
	}
	if changed("bpm") {
		s.SetBPM(opts.BPM)
		if !changed("mode") {
			s.SetMode(config.ModeBPM)
		}
	}
	if changed("mode") {
		mode := config.Mode(opts.Mode)
		if mode != config.ModeSeconds && mode != config.ModeBPM {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid mode %q: must be seconds or bpm", opts.Mode))
		}
		s.SetMode(mode)
	}
	if changed("duration") {
		s.SetDurationMinutes(opts.Duration)
	}
	if opts.NoVoice {
		s.TTSEnabled = false
	}

	if changed("voice-dir") {
		cfg.VoiceDir = opts.VoiceDir
	}
	if opts.NoAwake {
		cfg.KeepAwake = false
	}
	if opts.Reduced {
		cfg.ReducedLogging = true
	}
	if changed("queue-capacity") {
		cfg.QueueCapacity = opts.QueueCap
	}
	if changed("osc") {
		host, port, err := parseOSCTarget(opts.OSCTarget)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --osc target", err)
		}
		cfg.OSC.Enabled = true
		cfg.OSC.Host = host
		cfg.OSC.Port = port
	}
	if opts.DMX {
		cfg.DMX.Enabled = true
	}
	if changed("ola") {
		cfg.DMX.OLAAddress = opts.OLA
	}
	if changed("history") {
		cfg.HistoryPath = opts.History
	}

	return nil
}

// parseOSCTarget splits host:port.
func parseOSCTarget(target string) (string, int, error) {
	host, portText, err := net.SplitHostPort(target)
	if err != nil {
		return "", 0, errors.WithStackTrace(err)
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, errors.WithStackTrace(fmt.Errorf("port must be 1-65535, got %q", portText))
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return host, port, nil
}

// configureLogging points the project logger at the log file or out.
func configureLogging(cfg *config.PlayerConfig, out io.Writer) (*os.File, error) {
	var f *os.File
	if cfg.LogFile != "" {
		var err error
		f, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open log file", err)
		}
		out = f
	}
	if out == nil {
		out = io.Discard
	}

	if err := logger.Configure(out, cfg.LogLevel); err != nil {
		if f != nil {
			_ = f.Close()
		}
		return nil, WrapExitError(ExitCommandError, "invalid log level", err)
	}
	return f, nil
}

func newPlayer(cmd *cobra.Command, opts *RootOptions, setup playerSetup) (*player, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	logFile, err := configureLogging(cfg, setup.logOut)
	if err != nil {
		return nil, err
	}
	log := logger.GetProjectLogger()

	p := &player{cfg: cfg, logFile: logFile, configPath: opts.ConfigPath}

	var mirrors []session.Mirror
	if cfg.OSC.Enabled {
		mirrors = append(mirrors, surface.NewOSCMirror(cfg.OSC))
		log.WithField("target", net.JoinHostPort(cfg.OSC.Host, strconv.Itoa(cfg.OSC.Port))).Info("OSC mirror enabled")
	}
	if cfg.DMX.Enabled {
		m, err := fixture.Open(cfg.DMX, cfg.FixtureProfiles, setup.clock)
		if err != nil {
			log.WithError(err).Warn("DMX mirror unavailable")
		} else {
			mirrors = append(mirrors, m)
		}
	}

	var store session.HistoryStore
	if cfg.HistoryPath != "" {
		p.store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			p.Close()
			return nil, WrapExitError(ExitCommandError, "failed to open history", err)
		}
		store = p.store
	}

	analysis := setup.analysis
	if analysis == nil {
		analysis = log.Out
	}

	recorder := timing.NewRecorder(setup.clock, !cfg.ReducedLogging)
	scheduler := engine.NewScheduler(engine.Options{
		Clock:         setup.clock,
		TimingLog:     recorder,
		QueueCapacity: cfg.QueueCapacity,
		Logger:        log,
	})

	var speech session.Speech
	if setup.interactive || cfg.Settings.TTSEnabled {
		speech = surface.NewSpeech(cfg.VoiceDir)
	}

	p.ctl = session.NewController(session.Options{
		Clock:     setup.clock,
		Settings:  cfg.Settings,
		Display:   setup.display,
		Speech:    speech,
		Power:     surface.NewKeepAwake(),
		Mirrors:   mirrors,
		Recorder:  recorder,
		Scheduler: scheduler,
		History:   store,
		KeepAwake: cfg.KeepAwake,
		Analysis:  analysis,
		Logger:    log,
	})

	return p, nil
}

// Close stops the session, saves the mode and releases everything.
func (p *player) Close() {
	log := logger.GetProjectLogger()

	if p.ctl != nil {
		p.ctl.Close()
	}
	if p.configPath != "" {
		if err := config.SaveMode(p.configPath, p.cfg.Settings.Mode); err != nil {
			log.WithError(err).WithField("path", p.configPath).Warn("Could not save the mode")
		}
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			log.WithError(err).Warn("Could not close history")
		}
	}
	if p.logFile != nil {
		_ = logger.Configure(os.Stderr, "")
		_ = p.logFile.Close()
	}
}
