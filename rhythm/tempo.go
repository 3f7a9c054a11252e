package rhythm

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nansu0425/RandomPitchPlayer/utils"
)

const (
	DefaultBPM = 60.0
	MinBPM     = 30.0
	MaxBPM     = 300.0

	// Intervals are in seconds.
	DefaultInterval = 1.0
	MinInterval     = 0.1
	MaxInterval     = 60.0

	DefaultDurationMinutes = 5.0
	MaxDurationMinutes     = 60.0
	UnlimitedDuration      = 0.0
)

// BPMToInterval converts a tempo into seconds per pitch, rounded to the millisecond.
// The tempo is clamped to [MinBPM, MaxBPM]; non-finite input yields DefaultInterval.
func BPMToInterval(bpm float64) float64 {
	if !utils.IsFinite(bpm) {
		return DefaultInterval
	}

	bpm = utils.Clamp(bpm, MinBPM, MaxBPM)
	return utils.RoundTo(60.0/bpm, 3)
}

// IntervalToBPM converts seconds per pitch into a tempo rounded to 0.1 BPM.
// The interval is clamped to [MinInterval, MaxInterval]; non-finite input yields DefaultBPM.
func IntervalToBPM(interval float64) float64 {
	if !utils.IsFinite(interval) {
		return DefaultBPM
	}

	interval = utils.Clamp(interval, MinInterval, MaxInterval)
	return utils.RoundTo(60.0/interval, 1)
}

// ValidBPM reports whether bpm is inside the accepted tempo range.
func ValidBPM(bpm float64) bool {
	return utils.IsFinite(bpm) && bpm >= MinBPM && bpm <= MaxBPM
}

// ValidInterval reports whether interval is inside the accepted range.
func ValidInterval(interval float64) bool {
	return utils.IsFinite(interval) && interval >= MinInterval && interval <= MaxInterval
}

// ParseBPM reads a tempo typed by the user, falling back to DefaultBPM.
func ParseBPM(text string) float64 {
	v, ok := parseFloat(text)
	if !ok {
		return DefaultBPM
	}
	return utils.Clamp(v, MinBPM, MaxBPM)
}

// ParseInterval reads an interval in seconds, falling back to DefaultInterval.
func ParseInterval(text string) float64 {
	v, ok := parseFloat(text)
	if !ok {
		return DefaultInterval
	}
	return utils.Clamp(v, MinInterval, MaxInterval)
}

// ParseDurationMinutes reads a session length in minutes. 0 means unlimited.
func ParseDurationMinutes(text string) float64 {
	v, ok := parseFloat(text)
	if !ok {
		return DefaultDurationMinutes
	}
	return utils.Clamp(v, UnlimitedDuration, MaxDurationMinutes)
}

func parseFloat(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || !utils.IsFinite(v) {
		return 0, false
	}
	return v, true
}

// Seconds converts an interval in seconds into a time.Duration.
func Seconds(interval float64) time.Duration {
	return time.Duration(math.Round(interval * float64(time.Second)))
}

// DescribeTempo returns the classical tempo marking for bpm. Each range
// includes its lower bound.
func DescribeTempo(bpm float64) string {
	switch {
	case bpm < 60:
		return "Largo"
	case bpm < 80:
		return "Adagio"
	case bpm < 100:
		return "Moderato"
	case bpm < 120:
		return "Allegretto"
	case bpm < 160:
		return "Allegro"
	case bpm < 200:
		return "Presto"
	default:
		return "Prestissimo"
	}
}
