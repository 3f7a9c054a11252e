package config

import (
	"fmt"
	"math"
	"time"

	"github.com/nansu0425/RandomPitchPlayer/rhythm"
	"github.com/nansu0425/RandomPitchPlayer/utils"
)

// Mode selects whether the interval is entered in seconds or as a tempo.
type Mode string

const (
	ModeSeconds Mode = "seconds"
	ModeBPM     Mode = "bpm"
)

// ParseMode returns the mode named by s, or ModeSeconds for anything else.
func ParseMode(s string) Mode {
	if Mode(s) == ModeBPM {
		return ModeBPM
	}
	return ModeSeconds
}

// Settings are the user-facing session options. They are owned by the UI
// context; the scheduler only ever sees the interval through the metronome.
type Settings struct {
	IntervalSeconds float64 `yaml:"interval_seconds"`
	BPM             float64 `yaml:"bpm"`
	Mode            Mode    `yaml:"mode"`

	// DurationMinutes of 0 runs until stopped.
	DurationMinutes float64 `yaml:"duration_minutes"`
	TTSEnabled      bool    `yaml:"tts_enabled"`
}

// DefaultSettings returns one pitch per second for five minutes, spoken.
func DefaultSettings() *Settings {
	return &Settings{
		IntervalSeconds: rhythm.DefaultInterval,
		BPM:             rhythm.DefaultBPM,
		Mode:            ModeSeconds,
		DurationMinutes: rhythm.DefaultDurationMinutes,
		TTSEnabled:      true,
	}
}

// Interval returns the interval in seconds implied by the active mode.
func (s *Settings) Interval() float64 {
	if s.Mode == ModeBPM {
		return rhythm.BPMToInterval(s.BPM)
	}
	return s.IntervalSeconds
}

// IntervalDuration is Interval as a time.Duration.
func (s *Settings) IntervalDuration() time.Duration {
	return rhythm.Seconds(s.Interval())
}

// EffectiveBPM returns the tempo implied by the active mode.
func (s *Settings) EffectiveBPM() float64 {
	if s.Mode == ModeBPM {
		return utils.Clamp(s.BPM, rhythm.MinBPM, rhythm.MaxBPM)
	}
	return rhythm.IntervalToBPM(s.IntervalSeconds)
}

// SetIntervalSeconds clamps v into range and keeps BPM in step.
func (s *Settings) SetIntervalSeconds(v float64) {
	if !utils.IsFinite(v) {
		v = rhythm.DefaultInterval
	}
	s.IntervalSeconds = utils.Clamp(v, rhythm.MinInterval, rhythm.MaxInterval)
	s.BPM = rhythm.IntervalToBPM(s.IntervalSeconds)
}

// SetBPM clamps bpm into range and keeps IntervalSeconds in step.
func (s *Settings) SetBPM(bpm float64) {
	if !utils.IsFinite(bpm) {
		bpm = rhythm.DefaultBPM
	}
	s.BPM = utils.Clamp(bpm, rhythm.MinBPM, rhythm.MaxBPM)
	s.IntervalSeconds = rhythm.BPMToInterval(s.BPM)
}

// SetMode switches mode and syncs the inactive value from the active one.
func (s *Settings) SetMode(m Mode) {
	s.Mode = m
	s.Sync()
}

// ToggleMode flips between seconds and BPM entry.
func (s *Settings) ToggleMode() {
	if s.Mode == ModeBPM {
		s.SetMode(ModeSeconds)
		return
	}
	s.SetMode(ModeBPM)
}

// Sync recomputes the inactive value from the active one.
func (s *Settings) Sync() {
	if s.Mode == ModeBPM {
		s.SetBPM(s.BPM)
		return
	}
	s.SetIntervalSeconds(s.IntervalSeconds)
}

// SetDurationMinutes clamps minutes into [0, MaxDurationMinutes].
func (s *Settings) SetDurationMinutes(minutes float64) {
	if !utils.IsFinite(minutes) {
		minutes = rhythm.DefaultDurationMinutes
	}
	s.DurationMinutes = utils.Clamp(minutes, rhythm.UnlimitedDuration, rhythm.MaxDurationMinutes)
}

// Duration returns the session length and whether the session is limited.
func (s *Settings) Duration() (time.Duration, bool) {
	if s.DurationMinutes <= 0 {
		return 0, false
	}
	return time.Duration(math.Round(s.DurationMinutes * float64(time.Minute))), true
}

// TempoInfo is the "<bpm> BPM - <name>" line shown beside the controls.
func (s *Settings) TempoInfo() string {
	bpm := s.EffectiveBPM()
	return fmt.Sprintf("%.1f BPM - %s", bpm, rhythm.DescribeTempo(bpm))
}
