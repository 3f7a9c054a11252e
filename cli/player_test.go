package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/session"
)

func parsed(t *testing.T, args ...string) (*RootOptions, *config.PlayerConfig, error) {
	t.Helper()

	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	require.NoError(t, cmd.ParseFlags(args))

	cfg := config.NewPlayerConfig()
	err := applyFlags(cmd, opts, cfg)
	return opts, cfg, err
}

func TestApplyFlagsLeavesDefaults(t *testing.T) {
	t.Parallel()

	_, cfg, err := parsed(t)
	require.NoError(t, err)
	assert.Equal(t, config.NewPlayerConfig().Settings, cfg.Settings)
	assert.False(t, cfg.OSC.Enabled)
	assert.False(t, cfg.DMX.Enabled)
	assert.True(t, cfg.KeepAwake)
}

func TestApplyFlagsTempo(t *testing.T) {
	t.Parallel()

	_, cfg, err := parsed(t, "--bpm", "120")
	require.NoError(t, err)
	assert.Equal(t, config.ModeBPM, cfg.Settings.Mode)
	assert.Equal(t, 0.5, cfg.Settings.Interval())

	_, cfg, err = parsed(t, "--interval", "0.25", "--duration", "0")
	require.NoError(t, err)
	assert.Equal(t, config.ModeSeconds, cfg.Settings.Mode)
	assert.Equal(t, 0.25, cfg.Settings.Interval())
	_, limited := cfg.Settings.Duration()
	assert.False(t, limited)

	_, cfg, err = parsed(t, "--bpm", "90", "--mode", "seconds")
	require.NoError(t, err)
	assert.Equal(t, config.ModeSeconds, cfg.Settings.Mode)
	assert.Equal(t, 0.667, cfg.Settings.Interval())

	_, _, err = parsed(t, "--mode", "beats")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestApplyFlagsSurfaces(t *testing.T) {
	t.Parallel()

	_, cfg, err := parsed(t,
		"--no-voice", "--no-keep-awake", "--reduced-logging", "-v",
		"--osc", "10.0.0.5:7000", "--dmx", "--ola", "ola.local:9010",
		"--history", "/tmp/h.db", "--queue-capacity", "8")
	require.NoError(t, err)

	assert.False(t, cfg.Settings.TTSEnabled)
	assert.False(t, cfg.KeepAwake)
	assert.True(t, cfg.ReducedLogging)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.OSCConfig{Enabled: true, Host: "10.0.0.5", Port: 7000, Address: "/pitch"}, cfg.OSC)
	assert.True(t, cfg.DMX.Enabled)
	assert.Equal(t, "ola.local:9010", cfg.DMX.OLAAddress)
	assert.Equal(t, "/tmp/h.db", cfg.HistoryPath)
	assert.Equal(t, 8, cfg.QueueCapacity)
}

func TestParseOSCTarget(t *testing.T) {
	t.Parallel()

	host, port, err := parseOSCTarget(":9000")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 9000, port)

	for _, bad := range []string{"localhost", "host:0", "host:http", "host:70000"} {
		_, _, err := parseOSCTarget(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settings:\n  mode: bpm\n  bpm: 100\n  duration_minutes: 2\n"), 0o644))

	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--duration", "3"}))

	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, config.ModeBPM, cfg.Settings.Mode)
	assert.Equal(t, 100.0, cfg.Settings.BPM)
	assert.Equal(t, 3.0, cfg.Settings.DurationMinutes)
}

// Not parallel: the run reconfigures the shared logger.
func TestRunHeadlessSession(t *testing.T) {
	if testing.Short() {
		t.Skip("runs a real-time session")
	}

	configPath := filepath.Join(t.TempDir(), "player.yaml")

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{
		"run", "--headless",
		"--config", configPath,
		"--no-voice", "--no-keep-awake",
		"--bpm", "300", "--duration", "0.01",
	})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "300.0 BPM - Prestissimo")
	assert.Contains(t, text, session.StopText)
	assert.Contains(t, text, "timing analysis")

	// the mode was saved back
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, config.ModeBPM, cfg.Settings.Mode)
}

func TestRunHeadlessRejectsBadMode(t *testing.T) {
	t.Parallel()

	cmd := NewRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"run", "--headless", "--mode", "x"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
