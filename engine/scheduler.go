package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/logger"
	"github.com/nansu0425/RandomPitchPlayer/pitch"
	"github.com/nansu0425/RandomPitchPlayer/rhythm"
	"github.com/nansu0425/RandomPitchPlayer/timing"
)

const (
	// DefaultPollInterval is how often the timing loop checks the clock.
	DefaultPollInterval = time.Millisecond

	// DefaultJoinTimeout bounds how long Stop waits for the loop to exit.
	DefaultJoinTimeout = time.Second
)

// ErrSchedulerRunning is reported by callers when Start refuses to launch a
// second loop.
var ErrSchedulerRunning = errors.New("scheduler already running")

// TimingLog receives one entry per fire. timing.Recorder implements it.
type TimingLog interface {
	LogEvent(kind timing.EventKind, seq uint64, expected, actual time.Time)
}

// Options configures a Scheduler. Zero values select the defaults.
type Options struct {
	Clock         clock.Clock
	Selector      *pitch.Selector
	TimingLog     TimingLog
	PollInterval  time.Duration
	JoinTimeout   time.Duration
	QueueCapacity int
	Logger        *logrus.Logger
}

// Scheduler fires pitch updates at a fixed rate from its own goroutine and
// hands them to the UI through a Queue. It never calls display code.
type Scheduler struct {
	clock        clock.Clock
	selector     *pitch.Selector
	queue        *Queue[UpdateRequest]
	timingLog    TimingLog
	metronome    *rhythm.Metronome
	pollInterval time.Duration
	joinTimeout  time.Duration
	logger       *logrus.Logger

	// mu serializes Start and Stop.
	mu      sync.Mutex
	running atomic.Bool
	current *run

	sequence atomic.Uint64
}

// run is the state of one Start to Stop cycle. A loop that outlives its Stop
// keeps its own run and cannot touch the next one.
type run struct {
	quit chan struct{}
	done chan struct{}

	// mu guards stopped. Selector, sequence and queue are only written while
	// holding it with stopped false.
	mu      sync.Mutex
	stopped bool

	// owned by the loop goroutine
	nextFireTime   time.Time
	lastAdjustTime time.Time
	liveInterval   time.Duration
}

func (r *run) stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	close(r.quit)
}

// NewScheduler creates a stopped Scheduler.
func NewScheduler(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Selector == nil {
		opts.Selector = pitch.NewSelector()
	}
	if opts.TimingLog == nil {
		opts.TimingLog = timing.Discard
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = DefaultJoinTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetProjectLogger()
	}

	return &Scheduler{
		clock:        opts.Clock,
		selector:     opts.Selector,
		queue:        NewQueue[UpdateRequest](opts.QueueCapacity),
		timingLog:    opts.TimingLog,
		metronome:    rhythm.NewMetronomeWithInterval(opts.Clock, time.Second),
		pollInterval: opts.PollInterval,
		joinTimeout:  opts.JoinTimeout,
		logger:       opts.Logger,
	}
}

// Queue returns the queue the UI drains.
func (s *Scheduler) Queue() *Queue[UpdateRequest] {
	return s.queue
}

// Metronome exposes the live beat timeline.
func (s *Scheduler) Metronome() *rhythm.Metronome {
	return s.metronome
}

// Running reports whether the timing loop is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Sequence returns the sequence number of the most recent fire.
func (s *Scheduler) Sequence() uint64 {
	return s.sequence.Load()
}

// Interval returns the live interval.
func (s *Scheduler) Interval() time.Duration {
	return s.metronome.GetBeatInterval()
}

// Start launches the timing loop. The first fire is due one interval from now.
// It returns the opening pitch, drawn from a freshly reset selector, for the
// caller to show straight away. Start is a no-op returning ok=false when the
// loop is already running or interval is not positive.
func (s *Scheduler) Start(interval time.Duration) (opening pitch.Pitch, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil || interval <= 0 {
		return opening, false
	}

	r, opening := s.prepare(interval)
	s.current = r
	s.running.Store(true)

	go s.loop(r)

	s.logger.WithFields(logrus.Fields{"interval": interval, "opening": opening}).Info("Scheduler started")
	return opening, true
}

// prepare resets the shared state and returns a fresh run for a new session.
func (s *Scheduler) prepare(interval time.Duration) (*run, pitch.Pitch) {
	s.selector.Reset()
	opening := s.selector.Next()

	now := s.clock.Now()
	s.sequence.Store(0)
	s.queue.Clear()
	s.metronome.Restart(interval)

	r := &run{
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		nextFireTime:   now.Add(interval),
		lastAdjustTime: now,
		liveInterval:   interval,
	}
	return r, opening
}

// Stop halts the loop and waits up to the join timeout for it to exit. Fires
// that have not been enqueued yet are suppressed and the queue is cleared.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.current
	if r == nil {
		return
	}

	s.running.Store(false)
	r.stop()

	timeout := s.clock.NewTimer(s.joinTimeout)
	defer timeout.Stop()

	select {
	case <-r.done:
	case <-timeout.C():
		s.logger.WithField("timeout", s.joinTimeout).Warn("Scheduler loop did not exit in time, continuing shutdown")
	}

	s.current = nil

	abandoned := s.queue.Clear()
	s.logger.WithFields(logrus.Fields{"sequence": s.sequence.Load(), "abandoned": abandoned}).Info("Scheduler stopped")
}

// UpdateInterval changes the cadence for fire times computed from now on. The
// already scheduled next fire keeps its time.
func (s *Scheduler) UpdateInterval(interval time.Duration) {
	if interval <= 0 || interval == s.metronome.GetBeatInterval() {
		return
	}

	s.metronome.SetBeatInterval(interval)
	s.logger.WithField("interval", interval).Debug("Scheduler interval changed")
}

func (s *Scheduler) loop(r *run) {
	defer close(r.done)

	t := s.clock.NewTimer(s.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-t.C():
			s.fireDue(r, s.clock.Now())
			t.Reset(s.pollInterval)
		}
	}
}

// fireDue emits one update for r if its next fire time has been reached. A
// late fire keeps its original target; the following target is computed from
// it, so a stall is followed by one catch-up fire per poll tick. Nothing is
// emitted once r has been stopped.
func (s *Scheduler) fireDue(r *run, now time.Time) bool {
	if now.Before(r.nextFireTime) {
		return false
	}

	interval := s.metronome.GetBeatInterval()
	target := r.nextFireTime

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return false
	}
	seq := s.sequence.Add(1)
	req := NewUpdateRequest(s.selector.Next(), target, seq)
	dropped := s.queue.Enqueue(req)
	r.mu.Unlock()

	if interval != r.liveInterval {
		s.logger.WithFields(logrus.Fields{
			"from":              r.liveInterval,
			"to":                interval,
			"since_last_change": now.Sub(r.lastAdjustTime),
		}).Debug("Applying new interval")
		r.liveInterval = interval
		r.lastAdjustTime = now
	}

	if dropped {
		s.logger.WithFields(logrus.Fields{"sequence": seq, "dropped_total": s.queue.Dropped()}).
			Warn("Update queue full, dropped oldest request")
	}
	s.timingLog.LogEvent(timing.EventTrigger, seq, target, now)

	s.logger.WithFields(logrus.Fields{
		"sequence": seq,
		"pitch":    req.Pitch,
		"lateness": now.Sub(target),
	}).Debug("Trigger")

	r.nextFireTime = target.Add(interval)
	return true
}
