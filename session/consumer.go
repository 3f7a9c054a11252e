package session

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// QueuePollInterval is how often the consumer drains the update queue.
	QueuePollInterval = 2 * time.Millisecond

	// MaxPerPoll caps how many updates one poll renders.
	MaxPerPoll = 3
)

// Consumer drains scheduler output on the UI context and renders it.
type Consumer struct {
	ctl        *Controller
	maxPerPoll int
}

func newConsumer(ctl *Controller, maxPerPoll int) *Consumer {
	if maxPerPoll <= 0 {
		maxPerPoll = MaxPerPoll
	}
	return &Consumer{ctl: ctl, maxPerPoll: maxPerPoll}
}

// Poll renders up to MaxPerPoll queued updates without blocking and applies a
// changed interval setting. It returns how many updates were rendered.
func (c *Consumer) Poll(now time.Time) int {
	ctl := c.ctl
	if !ctl.running {
		return 0
	}

	queue := ctl.scheduler.Queue()
	n := 0
	for n < c.maxPerPoll {
		req, ok := queue.TryDequeue()
		if !ok {
			break
		}

		framesBefore := ctl.display.Frames()
		ctl.show(req.Pitch, req.Color)
		if ctl.recorder.Enabled() {
			ctl.recorder.AddPending(req.Sequence, req.Pitch, req.Color, req.TargetTime)
			ctl.checker.track(req.Sequence, framesBefore)
		}
		ctl.announce(now, req.Pitch)

		ctl.logger.WithFields(logrus.Fields{
			"sequence": req.Sequence,
			"pitch":    req.Pitch,
			"target":   req.TargetTime.Format("15:04:05.000"),
			"lag":      now.Sub(req.TargetTime),
		}).Debug("Rendered update")
		n++
	}

	ctl.syncInterval()

	return n
}
