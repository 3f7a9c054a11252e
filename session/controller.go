package session

import (
	"context"
	goerrors "errors"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/engine"
	"github.com/nansu0425/RandomPitchPlayer/history"
	"github.com/nansu0425/RandomPitchPlayer/logger"
	"github.com/nansu0425/RandomPitchPlayer/pitch"
	"github.com/nansu0425/RandomPitchPlayer/timing"
)

// ErrInvalidInterval is returned by Start when the configured interval is not
// a positive number of seconds.
var ErrInvalidInterval = goerrors.New("interval must be a positive number of seconds")

const (
	// SpeechDelay is how long after a render its announcement is played.
	SpeechDelay = 50 * time.Millisecond

	// DurationCheckInterval is how often the remaining time is refreshed.
	DurationCheckInterval = time.Second

	historyTimeout = 2 * time.Second
)

// Labels shown instead of a pitch.
const (
	StopText  = "STOP"
	ErrorText = "error"
)

// Stop reasons recorded in the session history.
const (
	StopReasonUser     = "user"
	StopReasonDuration = "duration"
	StopReasonShutdown = "shutdown"
)

// Black is the color of the STOP and error labels.
var Black = colorful.Color{}

// Options wires a Controller. Display and Settings are required; every other
// collaborator is optional.
type Options struct {
	Clock     clock.Clock
	Settings  *config.Settings
	Display   Display
	Speech    Speech
	Power     Power
	Mirrors   []Mirror
	Recorder  *timing.Recorder
	Scheduler *engine.Scheduler
	History   HistoryStore

	// KeepAwake asks Power to hold off sleep while running.
	KeepAwake bool

	// Analysis receives the timing report each time a session stops.
	Analysis io.Writer

	MaxPerPoll int
	Logger     *logrus.Logger
}

// Controller runs sessions. All methods must be called from the single UI
// context; only the scheduler it owns runs on another goroutine.
type Controller struct {
	clock     clock.Clock
	settings  *config.Settings
	display   Display
	speech    Speech
	power     Power
	mirrors   []Mirror
	recorder  *timing.Recorder
	scheduler *engine.Scheduler
	history   HistoryStore
	keepAwake bool
	analysis  io.Writer
	logger    *logrus.Logger

	consumer *Consumer
	checker  *Checker
	deferred Deferred

	running      bool
	sessionID    uuid.UUID
	sessionStart time.Time
	sessionEnd   time.Time
	limited      bool
	liveInterval time.Duration
	lastStop     string
}

// NewController creates an idle Controller.
func NewController(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Settings == nil {
		opts.Settings = config.DefaultSettings()
	}
	if opts.Speech == nil {
		opts.Speech = noSpeech{}
	}
	if opts.Power == nil {
		opts.Power = noPower{}
	}
	if opts.Recorder == nil {
		opts.Recorder = timing.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetProjectLogger()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = engine.NewScheduler(engine.Options{
			Clock:     opts.Clock,
			TimingLog: opts.Recorder,
			Logger:    opts.Logger,
		})
	}

	c := &Controller{
		clock:     opts.Clock,
		settings:  opts.Settings,
		display:   opts.Display,
		speech:    opts.Speech,
		power:     opts.Power,
		mirrors:   opts.Mirrors,
		recorder:  opts.Recorder,
		scheduler: opts.Scheduler,
		history:   opts.History,
		keepAwake: opts.KeepAwake,
		analysis:  opts.Analysis,
		logger:    opts.Logger,
	}
	c.consumer = newConsumer(c, opts.MaxPerPoll)
	c.checker = &Checker{ctl: c}

	return c
}

// Running reports whether a session is active.
func (c *Controller) Running() bool {
	return c.running
}

// SessionID identifies the current or most recent session.
func (c *Controller) SessionID() uuid.UUID {
	return c.sessionID
}

// Settings returns the settings the controller reads at start and on every poll.
func (c *Controller) Settings() *config.Settings {
	return c.settings
}

// Scheduler returns the owned scheduler.
func (c *Controller) Scheduler() *engine.Scheduler {
	return c.scheduler
}

// Recorder returns the timing recorder.
func (c *Controller) Recorder() *timing.Recorder {
	return c.recorder
}

// Consumer returns the queue consumer.
func (c *Controller) Consumer() *Consumer {
	return c.consumer
}

// Checker returns the render-completion checker.
func (c *Controller) Checker() *Checker {
	return c.checker
}

// Speech returns the speech collaborator.
func (c *Controller) Speech() Speech {
	return c.speech
}

// Power returns the power collaborator.
func (c *Controller) Power() Power {
	return c.power
}

// LiveInterval is the interval the scheduler is currently running at.
func (c *Controller) LiveInterval() time.Duration {
	return c.liveInterval
}

// LastStopReason is why the previous session ended.
func (c *Controller) LastStopReason() string {
	return c.lastStop
}

// Summary is the one-line timing status, empty in reduced logging mode.
func (c *Controller) Summary() string {
	return c.recorder.Summary()
}

// Remaining returns the time left in a limited session.
func (c *Controller) Remaining(now time.Time) (time.Duration, bool) {
	if !c.running || !c.limited {
		return 0, false
	}
	left := c.sessionEnd.Sub(now)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Start begins a session with the current settings. It is a no-op while a
// session is running. A non-positive interval shows the error label and
// returns ErrInvalidInterval without starting anything.
func (c *Controller) Start() error {
	if c.running {
		return nil
	}

	seconds := c.settings.Interval()
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		c.display.Render(ErrorText, Black)
		c.logger.WithField("interval", seconds).Warn("Refusing to start with an invalid interval")
		return errors.WithStackTrace(ErrInvalidInterval)
	}
	interval := c.settings.IntervalDuration()
	if interval <= 0 {
		c.display.Render(ErrorText, Black)
		return errors.WithStackTrace(ErrInvalidInterval)
	}

	c.recorder.StartSession()
	c.checker.reset()
	c.deferred.Clear()

	now := c.clock.Now()
	c.sessionID = uuid.New()
	c.sessionStart = now
	length, limited := c.settings.Duration()
	c.limited = limited
	if limited {
		c.sessionEnd = now.Add(length)
		c.display.ShowRemainingTime(length.Seconds())
	} else {
		c.sessionEnd = time.Time{}
		c.display.ClearRemainingTime()
	}

	c.running = true
	c.liveInterval = interval

	if c.keepAwake && c.power.Available() {
		if err := c.power.BeginKeepAwake(); err != nil {
			c.logger.WithError(err).Warn("Could not keep the machine awake")
		}
	}

	opening, ok := c.scheduler.Start(interval)
	if !ok {
		c.running = false
		return errors.WithStackTrace(engine.ErrSchedulerRunning)
	}

	actual := c.show(opening, opening.Color())
	c.recorder.RecordDisplay(opening, now, actual, interval)
	c.announce(now, opening)

	c.logger.WithFields(logrus.Fields{
		"session_id": c.sessionID,
		"mode":       c.settings.Mode,
		"interval":   interval,
		"bpm":        c.settings.EffectiveBPM(),
		"limited":    limited,
		"duration":   length,
	}).Info("Session started")

	return nil
}

// Stop ends the running session. It is a no-op when idle.
func (c *Controller) Stop() {
	c.stop(StopReasonUser)
}

func (c *Controller) stop(reason string) {
	if !c.running {
		return
	}
	c.running = false
	c.lastStop = reason

	c.scheduler.Stop()

	if err := c.power.EndKeepAwake(); err != nil {
		c.logger.WithError(err).Warn("Could not release keep-awake")
	}
	c.speech.Stop()
	dropped := c.deferred.Clear()

	c.display.Render(StopText, Black)
	c.display.ClearRemainingTime()

	now := c.clock.Now()
	stats := c.recorder.Stats()

	if c.analysis != nil && c.recorder.Enabled() {
		if err := c.recorder.WriteAnalysis(c.analysis, c.liveInterval); err != nil {
			c.logger.WithError(err).Warn("Could not write timing analysis")
		}
	}
	abandoned := c.recorder.ClearPending()
	c.checker.reset()

	c.recordHistory(now, reason, stats)

	c.logger.WithFields(logrus.Fields{
		"session_id":        c.sessionID,
		"reason":            reason,
		"elapsed":           now.Sub(c.sessionStart),
		"displays":          stats.Displays,
		"abandoned_pending": abandoned,
		"dropped_deferred":  dropped,
	}).Info("Session stopped")

	c.sessionEnd = time.Time{}
	c.limited = false
}

func (c *Controller) recordHistory(now time.Time, reason string, stats timing.Stats) {
	if c.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	err := c.history.Record(ctx, history.Session{
		ID:              c.sessionID,
		StartedAt:       c.sessionStart,
		StoppedAt:       now,
		Mode:            string(c.settings.Mode),
		IntervalSeconds: c.liveInterval.Seconds(),
		BPM:             c.settings.EffectiveBPM(),
		DurationMinutes: c.settings.DurationMinutes,
		StopReason:      reason,
		Displays:        stats.Displays,
		MeanDelay:       stats.MeanDelay,
		MaxDelay:        stats.MaxDelay,
		OverNoticeable:  stats.OverNoticeable,
		OverSevere:      stats.OverSevere,
		OverCritical:    stats.OverCritical,
		Superseded:      stats.Superseded,
	})
	if err != nil {
		c.logger.WithError(err).WithField("session_id", c.sessionID).Warn("Could not record session history")
	}
}

// Close stops any session and releases the collaborators. Errors are logged
// and teardown always completes.
func (c *Controller) Close() {
	c.stop(StopReasonShutdown)

	if err := c.speech.Close(); err != nil {
		c.logger.WithError(err).Warn("Speech shutdown failed")
	}
	for _, m := range c.mirrors {
		if err := m.Close(); err != nil {
			c.logger.WithError(err).Warn("Mirror shutdown failed")
		}
	}
}

// CheckDuration refreshes the remaining time and stops the session once the
// configured duration has elapsed. It reports whether it stopped the session.
func (c *Controller) CheckDuration(now time.Time) bool {
	if !c.running || !c.limited {
		return false
	}

	if !now.Before(c.sessionEnd) {
		c.logger.WithField("session_id", c.sessionID).Info("Session duration reached")
		c.stop(StopReasonDuration)
		return true
	}

	c.display.ShowRemainingTime(c.sessionEnd.Sub(now).Seconds())
	return false
}

// RunDeferred runs deferred calls that are due.
func (c *Controller) RunDeferred(now time.Time) int {
	return c.deferred.Run(now)
}

// WriteAnalysis writes the timing report for the current or last session.
func (c *Controller) WriteAnalysis(w io.Writer) error {
	return c.recorder.WriteAnalysis(w, c.liveInterval)
}

// show renders a pitch on the display and every mirror.
func (c *Controller) show(p pitch.Pitch, color colorful.Color) time.Time {
	actual := c.display.Render(p.String(), color)
	for _, m := range c.mirrors {
		m.Show(p, color)
	}
	return actual
}

// announce schedules speech for p when it is enabled and available.
func (c *Controller) announce(now time.Time, p pitch.Pitch) {
	if !c.settings.TTSEnabled || !c.speech.Available() {
		return
	}

	c.deferred.After(now.Add(SpeechDelay), func() {
		if c.running {
			c.speech.Speak(p)
		}
	})
}

// syncInterval pushes a changed interval setting to the scheduler.
func (c *Controller) syncInterval() {
	seconds := c.settings.Interval()
	if math.IsNaN(seconds) || seconds <= 0 {
		return
	}

	interval := c.settings.IntervalDuration()
	if interval <= 0 || interval == c.liveInterval {
		return
	}

	c.logger.WithFields(logrus.Fields{"from": c.liveInterval, "to": interval}).Info("Interval changed")
	c.liveInterval = interval
	c.scheduler.UpdateInterval(interval)
}
