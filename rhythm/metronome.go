package rhythm

import (
	"math"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Metronome holds the live beat interval and a timeline origin.
// Originally based on https://github.com/Deep-Symmetry/electro/blob/main/src/main/java/org/deepsymmetry/electro/Metronome.java#L449
//
// It is safe for concurrent use: the UI changes the interval while the
// scheduler goroutine reads it.
type Metronome struct {
	mu        sync.Mutex
	clock     clock.PassiveClock
	startTime time.Time
	interval  time.Duration
}

// NewMetronomeWithInterval creates a Metronome with the given beat interval.
func NewMetronomeWithInterval(c clock.PassiveClock, interval time.Duration) *Metronome {
	return &Metronome{
		clock:     c,
		startTime: c.Now(),
		interval:  interval,
	}
}

// Restart moves the timeline origin to now and sets a new beat interval.
func (m *Metronome) Restart(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.startTime = m.clock.Now()
	m.interval = interval
}

// GetBeatInterval returns how long a beat lasts.
func (m *Metronome) GetBeatInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.interval
}

// GetTempo returns the tempo in beats per minute.
func (m *Metronome) GetTempo() float64 {
	return float64(time.Minute) / float64(m.GetBeatInterval())
}

// SetBeatInterval sets a new beat interval. The start time is adjusted so that
// the current beat and phase are unaffected by the change.
func (m *Metronome) SetBeatInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if interval == m.interval {
		return
	}

	instant := m.clock.Now()
	beat := markerNumber(instant, m.startTime, m.interval)
	phase := markerPhase(instant, m.startTime, m.interval)
	offset := math.Round(float64(interval) * (phase + float64(beat) - 1))
	m.startTime = instant.Add(-time.Duration(offset))
	m.interval = interval
}

// GetSnapshot captures the timeline at the current instant.
func (m *Metronome) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	instant := m.clock.Now()
	return Snapshot{
		Instant:   instant,
		StartTime: m.startTime,
		Interval:  m.interval,
		Beat:      markerNumber(instant, m.startTime, m.interval),
		BeatPhase: markerPhase(instant, m.startTime, m.interval),
	}
}

// Snapshot describes the metronome timeline at one instant.
type Snapshot struct {
	Instant   time.Time
	StartTime time.Time
	Interval  time.Duration

	// Beat is the 1-based beat number containing Instant.
	Beat int64

	// BeatPhase is how far through the beat Instant lies, in [0, 1).
	BeatPhase float64
}

// GetTimeOfBeat determines when a particular beat starts.
func (s Snapshot) GetTimeOfBeat(beat int64) time.Time {
	return s.StartTime.Add(time.Duration(beat-1) * s.Interval)
}

// DistanceFromBeat determines how far the snapshot is from its closest beat.
func (s Snapshot) DistanceFromBeat() time.Duration {
	if s.BeatPhase <= 0.5 {
		return time.Duration(s.BeatPhase * float64(s.Interval))
	}
	return time.Duration((1 - s.BeatPhase) * float64(s.Interval))
}

// markerNumber calculates the marker number
func markerNumber(instant, start time.Time, interval time.Duration) int64 {
	if interval <= 0 {
		return 1
	}
	return int64(math.Floor(float64(instant.Sub(start))/float64(interval))) + 1
}

// markerPhase calculates the phase of a marker
func markerPhase(instant, start time.Time, interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	ratio := float64(instant.Sub(start)) / float64(interval)
	return ratio - math.Floor(ratio)
}
