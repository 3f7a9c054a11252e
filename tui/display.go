package tui

import (
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/effect"
)

// LabelFlash is how long the label glows after a pitch change.
const LabelFlash = 250 * time.Millisecond

// labelFloor is the label brightness once the flash has decayed.
const labelFloor = 0.7

// Display is the session display backing the terminal UI. A rendered label
// only counts as current once a frame containing it has been produced by View.
type Display struct {
	mu    sync.Mutex
	clock clock.PassiveClock
	flash *effect.Flash

	text   string
	color  colorful.Color
	shown  string
	frames uint64

	remaining    float64
	hasRemaining bool
}

// NewDisplay creates an empty display.
func NewDisplay(c clock.PassiveClock) *Display {
	return &Display{
		clock: c,
		flash: effect.NewFlash(LabelFlash, labelFloor),
	}
}

func (d *Display) Render(text string, color colorful.Color) time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	if text != d.text {
		d.flash.Trigger(now)
	}
	d.text = text
	d.color = color
	return now
}

func (d *Display) CurrentText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown
}

func (d *Display) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

func (d *Display) ShowRemainingTime(seconds float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remaining = seconds
	d.hasRemaining = true
}

func (d *Display) ClearRemainingTime() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remaining = 0
	d.hasRemaining = false
}

type frame struct {
	text         string
	color        colorful.Color
	level        float64
	remaining    float64
	hasRemaining bool
}

// frame snapshots what to draw and marks the label as shown.
func (d *Display) frame() frame {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.shown = d.text
	d.frames++
	return frame{
		text:         d.text,
		color:        d.color,
		level:        d.flash.Level(d.clock.Now()),
		remaining:    d.remaining,
		hasRemaining: d.hasRemaining,
	}
}
