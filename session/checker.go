package session

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RenderCheckInterval is how often the checker polls the display.
const RenderCheckInterval = 5 * time.Millisecond

// Checker confirms that rendered updates actually reached the screen by
// polling the displayed text, and records when they did.
type Checker struct {
	ctl *Controller
	// rendered maps a pending sequence to the frame count seen just before
	// it was rendered. Only a later frame can contain it.
	rendered map[uint64]uint64
}

// track notes the frame count taken before seq was rendered.
func (c *Checker) track(seq, framesBefore uint64) {
	if c.rendered == nil {
		c.rendered = map[uint64]uint64{}
	}
	c.rendered[seq] = framesBefore
}

func (c *Checker) reset() {
	c.rendered = nil
}

// drawn reports whether a frame has been produced since seq was rendered.
func (c *Checker) drawn(seq, frames uint64) bool {
	before, ok := c.rendered[seq]
	return !ok || frames > before
}

// Check compares the displayed text against pending updates, newest first.
// The newest match is confirmed and anything older is superseded, since only
// the latest render can still be on screen. It returns how many updates were
// confirmed.
func (c *Checker) Check(now time.Time) int {
	ctl := c.ctl
	if !ctl.running || !ctl.recorder.Enabled() {
		return 0
	}

	pending := ctl.recorder.Pending()
	if len(pending) == 0 {
		return 0
	}

	text := ctl.display.CurrentText()
	frames := ctl.display.Frames()
	for i := len(pending) - 1; i >= 0; i-- {
		p := pending[i]
		if p.Pitch.String() != text || !c.drawn(p.Sequence, frames) {
			continue
		}

		ev, ok := ctl.recorder.ConfirmRender(p.Sequence, now, ctl.liveInterval)
		if !ok {
			return 0
		}
		for seq := range c.rendered {
			if seq <= p.Sequence {
				delete(c.rendered, seq)
			}
		}

		ctl.logger.WithFields(logrus.Fields{
			"sequence": p.Sequence,
			"pitch":    p.Pitch,
			"latency":  now.Sub(p.RequestTime),
			"delay":    ev.Delay,
		}).Debug("Render confirmed")

		return 1
	}

	return 0
}
