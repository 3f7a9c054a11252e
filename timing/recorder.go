package timing

import (
	"cmp"
	"fmt"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/logger"
	"github.com/nansu0425/RandomPitchPlayer/pitch"
)

// MaxTimingLogs bounds the event log. On overflow the newest half is kept.
const MaxTimingLogs = 200

const (
	recentDelayWindow  = 5
	recentDetailWindow = 10
)

// Delay thresholds reported by Stats. A delay counts when strictly greater.
const (
	ThresholdNoticeable = 100 * time.Millisecond
	ThresholdSevere     = 500 * time.Millisecond
	ThresholdCritical   = time.Second
)

// EventKind labels a timing log entry.
type EventKind string

const (
	EventTrigger    EventKind = "trigger"
	EventDisplay    EventKind = "display"
	EventSuperseded EventKind = "superseded"
)

// Event is one timing log entry.
type Event struct {
	Kind     EventKind
	Sequence uint64
	Recorded time.Time
	Relative time.Duration
	Expected time.Time
	Actual   time.Time
	Delay    time.Duration
}

// PendingUpdate is a rendered request whose appearance on screen has not been
// confirmed yet.
type PendingUpdate struct {
	Sequence    uint64
	Pitch       pitch.Pitch
	Color       colorful.Color
	TargetTime  time.Time
	RequestTime time.Time
}

// DisplayEvent is a confirmed render. Interval and Delay are zero for the
// first display of a session.
type DisplayEvent struct {
	Pitch      pitch.Pitch
	TargetTime time.Time
	ActualTime time.Time
	Requested  time.Duration
	Interval   time.Duration
	Delay      time.Duration
	First      bool
}

// Stats is a snapshot of the delay and interval series.
type Stats struct {
	Displays        int
	Intervals       int
	LastDelay       time.Duration
	RecentMeanDelay time.Duration
	MinDelay        time.Duration
	MaxDelay        time.Duration
	MeanDelay       time.Duration
	OverNoticeable  int
	OverSevere      int
	OverCritical    int
	MinInterval     time.Duration
	MaxInterval     time.Duration
	MeanInterval    time.Duration
	Pending         int
	Superseded      int
}

type series struct {
	count int
	sum   time.Duration
	min   time.Duration
	max   time.Duration
}

func (s *series) add(d time.Duration) {
	if s.count == 0 || d < s.min {
		s.min = d
	}
	if s.count == 0 || d > s.max {
		s.max = d
	}
	s.count++
	s.sum += d
}

func (s *series) mean() time.Duration {
	if s.count == 0 {
		return 0
	}
	return s.sum / time.Duration(s.count)
}

// Recorder collects scheduled versus actual timestamps for one session.
// A disabled Recorder ignores every call. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	enabled bool
	clock   clock.PassiveClock
	maxLogs int
	logger  *logrus.Logger

	sessionStart time.Time
	events       []Event

	displays    int
	lastDisplay time.Time
	delays      series
	intervals   series
	over100     int
	over500     int
	over1s      int
	severe      []time.Duration
	recent      []DisplayEvent

	pending    map[uint64]PendingUpdate
	superseded int
}

// Discard is a disabled Recorder.
var Discard = NewRecorder(clock.RealClock{}, false)

// NewRecorder creates a Recorder. Passing enabled=false gives the reduced
// logging mode in which nothing is stored.
func NewRecorder(c clock.PassiveClock, enabled bool) *Recorder {
	return &Recorder{
		enabled: enabled,
		clock:   c,
		maxLogs: MaxTimingLogs,
		logger:  logger.GetProjectLogger(),
		pending: map[uint64]PendingUpdate{},
	}
}

// Enabled reports whether the recorder stores anything.
func (r *Recorder) Enabled() bool {
	return r.enabled
}

// StartSession clears all data and marks the session origin.
func (r *Recorder) StartSession() {
	if !r.enabled {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.resetLocked()
	r.sessionStart = r.clock.Now()
}

// Clear drops all measurements.
func (r *Recorder) Clear() {
	if !r.enabled {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.resetLocked()
}

func (r *Recorder) resetLocked() {
	r.events = nil
	r.displays = 0
	r.lastDisplay = time.Time{}
	r.delays = series{}
	r.intervals = series{}
	r.over100, r.over500, r.over1s = 0, 0, 0
	r.severe = nil
	r.recent = nil
	r.pending = map[uint64]PendingUpdate{}
	r.superseded = 0
}

// LogEvent appends a timing log entry.
func (r *Recorder) LogEvent(kind EventKind, seq uint64, expected, actual time.Time) {
	if !r.enabled {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.logEventLocked(kind, seq, expected, actual)
}

func (r *Recorder) logEventLocked(kind EventKind, seq uint64, expected, actual time.Time) {
	now := r.clock.Now()
	e := Event{
		Kind:     kind,
		Sequence: seq,
		Recorded: now,
		Expected: expected,
		Actual:   actual,
	}
	if !r.sessionStart.IsZero() {
		e.Relative = now.Sub(r.sessionStart)
	}
	if !expected.IsZero() && !actual.IsZero() {
		e.Delay = actual.Sub(expected)
	}

	r.events = append(r.events, e)
	if len(r.events) > r.maxLogs {
		keep := r.maxLogs / 2
		r.events = append([]Event(nil), r.events[len(r.events)-keep:]...)
	}
}

// Events returns a copy of the timing log.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}

// AddPending registers a rendered request awaiting confirmation.
func (r *Recorder) AddPending(seq uint64, p pitch.Pitch, color colorful.Color, target time.Time) {
	if !r.enabled {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[seq] = PendingUpdate{
		Sequence:    seq,
		Pitch:       p,
		Color:       color,
		TargetTime:  target,
		RequestTime: r.clock.Now(),
	}
}

// Pending returns the pending updates in sequence order.
func (r *Recorder) Pending() []PendingUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]PendingUpdate, 0, len(r.pending))
	for _, p := range r.pending {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b PendingUpdate) int { return cmp.Compare(a.Sequence, b.Sequence) })

	return out
}

// CompletePending removes a pending update. It reports whether it existed.
func (r *Recorder) CompletePending(seq uint64) bool {
	if !r.enabled {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[seq]; !ok {
		return false
	}
	delete(r.pending, seq)

	return true
}

// ClearPending drops every pending update and returns how many there were.
func (r *Recorder) ClearPending() int {
	if !r.enabled {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.pending)
	r.pending = map[uint64]PendingUpdate{}

	return n
}

// ConfirmRender records the pending update seq as displayed at actual. Pending
// updates older than seq can no longer appear and are dropped as superseded.
func (r *Recorder) ConfirmRender(seq uint64, actual time.Time, requested time.Duration) (DisplayEvent, bool) {
	if !r.enabled {
		return DisplayEvent{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[seq]
	if !ok {
		return DisplayEvent{}, false
	}
	delete(r.pending, seq)

	for older, u := range r.pending {
		if older < seq {
			delete(r.pending, older)
			r.superseded++
			r.logEventLocked(EventSuperseded, older, u.TargetTime, actual)
		}
	}

	return r.recordDisplayLocked(p.Pitch, p.TargetTime, actual, requested, seq), true
}

// RecordDisplay records a render that was not tracked as pending, such as the
// opening pitch of a session.
func (r *Recorder) RecordDisplay(p pitch.Pitch, target, actual time.Time, requested time.Duration) DisplayEvent {
	if !r.enabled {
		return DisplayEvent{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.recordDisplayLocked(p, target, actual, requested, 0)
}

func (r *Recorder) recordDisplayLocked(p pitch.Pitch, target, actual time.Time, requested time.Duration, seq uint64) DisplayEvent {
	ev := DisplayEvent{
		Pitch:      p,
		TargetTime: target,
		ActualTime: actual,
		Requested:  requested,
		First:      r.displays == 0,
	}

	if !ev.First {
		ev.Interval = actual.Sub(r.lastDisplay)
		ev.Delay = ev.Interval - requested

		r.intervals.add(ev.Interval)
		r.delays.add(ev.Delay)
		if ev.Delay > ThresholdNoticeable {
			r.over100++
		}
		if ev.Delay > ThresholdSevere {
			r.over500++
			if len(r.severe) < r.maxLogs {
				r.severe = append(r.severe, ev.Delay)
			}
		}
		if ev.Delay > ThresholdCritical {
			r.over1s++
		}

		r.recent = append(r.recent, ev)
		if len(r.recent) > recentDetailWindow {
			r.recent = r.recent[len(r.recent)-recentDetailWindow:]
		}

		r.logger.WithFields(logrus.Fields{
			"pitch":     p,
			"interval":  ev.Interval,
			"requested": requested,
			"delay":     ev.Delay,
		}).Debug("Pitch displayed")
	} else {
		r.logger.WithField("pitch", p).Debug("First pitch displayed")
	}

	r.displays++
	r.lastDisplay = actual
	r.logEventLocked(EventDisplay, seq, target, actual)

	return ev
}

// Stats returns a snapshot of the collected measurements.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		Displays:       r.displays,
		Intervals:      r.intervals.count,
		MinDelay:       r.delays.min,
		MaxDelay:       r.delays.max,
		MeanDelay:      r.delays.mean(),
		OverNoticeable: r.over100,
		OverSevere:     r.over500,
		OverCritical:   r.over1s,
		MinInterval:    r.intervals.min,
		MaxInterval:    r.intervals.max,
		MeanInterval:   r.intervals.mean(),
		Pending:        len(r.pending),
		Superseded:     r.superseded,
	}

	if n := len(r.recent); n > 0 {
		s.LastDelay = r.recent[n-1].Delay

		window := r.recent
		if n > recentDelayWindow {
			window = r.recent[n-recentDelayWindow:]
		}
		var sum time.Duration
		for _, ev := range window {
			sum += ev.Delay
		}
		s.RecentMeanDelay = sum / time.Duration(len(window))
	}

	return s
}

// Summary returns the one-line status shown under the pitch. It is empty when
// the recorder is disabled.
func (r *Recorder) Summary() string {
	if !r.enabled {
		return ""
	}

	s := r.Stats()
	return fmt.Sprintf("delay: %s | avg: %s | pending: %d",
		FormatSeconds(s.LastDelay), FormatSeconds(s.RecentMeanDelay), s.Pending)
}

// FormatSeconds renders d as seconds with millisecond precision.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
