package config

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nansu0425/RandomPitchPlayer/logger"
	"github.com/nansu0425/RandomPitchPlayer/profile"
)

// OSCConfig configures the OSC mirror.
type OSCConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
}

// DMXConfig configures the OLA light mirror.
type DMXConfig struct {
	Enabled    bool             `yaml:"enabled"`
	OLAAddress string           `yaml:"ola_address"`
	Tick       time.Duration    `yaml:"tick"`
	Flash      time.Duration    `yaml:"flash"`
	Fixtures   []PatchedFixture `yaml:"fixtures"`
}

// PlayerConfig represents options that configure the global behavior of the program
type PlayerConfig struct {
	// Project logger
	Logger *logrus.Logger `yaml:"-"`

	Settings *Settings `yaml:"settings"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// ReducedLogging disables the timing recorder and render confirmation.
	ReducedLogging bool `yaml:"reduced_logging"`

	// QueueCapacity of 0 leaves the update queue unbounded.
	QueueCapacity int `yaml:"queue_capacity"`

	QueuePollInterval   time.Duration `yaml:"queue_poll_interval"`
	RenderCheckInterval time.Duration `yaml:"render_check_interval"`

	VoiceDir  string `yaml:"voice_dir"`
	KeepAwake bool   `yaml:"keep_awake"`

	OSC OSCConfig `yaml:"osc"`
	DMX DMXConfig `yaml:"dmx"`

	// HistoryPath is the sqlite database stopped sessions are written to.
	// Empty disables history.
	HistoryPath string `yaml:"history"`

	// The fixture profiles
	FixtureProfiles map[string]profile.Profile `yaml:"-"`
}

// NewPlayerConfig creates a new PlayerConfig object with reasonable defaults for real usage
func NewPlayerConfig() *PlayerConfig {
	return &PlayerConfig{
		Logger:              logger.GetProjectLogger(),
		Settings:            DefaultSettings(),
		LogLevel:            "info",
		QueuePollInterval:   2 * time.Millisecond,
		RenderCheckInterval: 5 * time.Millisecond,
		KeepAwake:           true,
		OSC: OSCConfig{
			Host:    "127.0.0.1",
			Port:    9000,
			Address: "/pitch",
		},
		DMX: DMXConfig{
			OLAAddress: "localhost:9010",
			Tick:       40 * time.Millisecond,
			Flash:      300 * time.Millisecond,
			Fixtures:   DefaultPatch(),
		},
		FixtureProfiles: FixtureProfiles(),
	}
}

// Normalize clamps user-supplied values back into range and fills in zero
// durations with defaults.
func (c *PlayerConfig) Normalize() {
	defaults := NewPlayerConfig()

	if c.Settings == nil {
		c.Settings = DefaultSettings()
	}
	c.Settings.Mode = ParseMode(string(c.Settings.Mode))
	c.Settings.SetDurationMinutes(c.Settings.DurationMinutes)
	c.Settings.Sync()

	if c.QueuePollInterval <= 0 {
		c.QueuePollInterval = defaults.QueuePollInterval
	}
	if c.RenderCheckInterval <= 0 {
		c.RenderCheckInterval = defaults.RenderCheckInterval
	}
	if c.QueueCapacity < 0 {
		c.QueueCapacity = 0
	}
	if c.DMX.Tick <= 0 {
		c.DMX.Tick = defaults.DMX.Tick
	}
	if c.DMX.Flash <= 0 {
		c.DMX.Flash = defaults.DMX.Flash
	}
	if c.FixtureProfiles == nil {
		c.FixtureProfiles = FixtureProfiles()
	}
	if c.Logger == nil {
		c.Logger = logger.GetProjectLogger()
	}
}
