package session

import (
	"context"
	"time"

	"k8s.io/utils/clock"
)

// LoopOptions sets the cadences of a headless Loop. Zero values use the
// package defaults.
type LoopOptions struct {
	Clock               clock.Clock
	QueuePollInterval   time.Duration
	RenderCheckInterval time.Duration
	DurationInterval    time.Duration

	// ExitWhenStopped ends Run once the session is no longer running.
	ExitWhenStopped bool
}

// Loop is the UI context used without a terminal UI. It runs the consumer,
// the checker, the duration countdown and deferred calls from one goroutine.
type Loop struct {
	ctl  *Controller
	opts LoopOptions
}

// NewLoop creates a Loop driving ctl.
func NewLoop(ctl *Controller, opts LoopOptions) *Loop {
	if opts.Clock == nil {
		opts.Clock = ctl.clock
	}
	if opts.QueuePollInterval <= 0 {
		opts.QueuePollInterval = QueuePollInterval
	}
	if opts.RenderCheckInterval <= 0 {
		opts.RenderCheckInterval = RenderCheckInterval
	}
	if opts.DurationInterval <= 0 {
		opts.DurationInterval = DurationCheckInterval
	}

	return &Loop{ctl: ctl, opts: opts}
}

// Run processes until ctx is cancelled or, with ExitWhenStopped, the session
// ends. It returns nil when the session ended on its own.
func (l *Loop) Run(ctx context.Context) error {
	c := l.opts.Clock

	queueT := c.NewTimer(l.opts.QueuePollInterval)
	defer queueT.Stop()
	renderT := c.NewTimer(l.opts.RenderCheckInterval)
	defer renderT.Stop()
	durationT := c.NewTimer(l.opts.DurationInterval)
	defer durationT.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-queueT.C():
			now := c.Now()
			l.ctl.Consumer().Poll(now)
			l.ctl.RunDeferred(now)
			queueT.Reset(l.opts.QueuePollInterval)

		case <-renderT.C():
			l.ctl.Checker().Check(c.Now())
			renderT.Reset(l.opts.RenderCheckInterval)

		case <-durationT.C():
			l.ctl.CheckDuration(c.Now())
			durationT.Reset(l.opts.DurationInterval)
		}

		if l.opts.ExitWhenStopped && !l.ctl.Running() {
			return nil
		}
	}
}
