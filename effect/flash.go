package effect

import (
	"sync"
	"time"

	"github.com/fogleman/ease"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/nansu0425/RandomPitchPlayer/utils"
)

// FPS returns the frame period for n frames per second.
func FPS(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Second / time.Duration(n)
}

// Flash decays a level from 1 down to Floor over Duration after each trigger.
// It is safe for concurrent use.
type Flash struct {
	// EasingFunc shapes the decay. It maps progress in [0, 1] to [0, 1].
	EasingFunc ease.Function

	Duration time.Duration

	// Floor is the resting level once the flash has decayed.
	Floor float64

	mu        sync.Mutex
	triggered time.Time
}

// NewFlash creates a flash with an OutQuad decay.
func NewFlash(duration time.Duration, floor float64) *Flash {
	return &Flash{
		EasingFunc: ease.OutQuad,
		Duration:   duration,
		Floor:      clamp(floor),
	}
}

// Trigger restarts the flash at the given time.
func (f *Flash) Trigger(at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggered = at
}

// Level returns the flash level at now.
func (f *Flash) Level(now time.Time) float64 {
	f.mu.Lock()
	triggered := f.triggered
	f.mu.Unlock()

	if triggered.IsZero() {
		return f.Floor
	}

	elapsed := now.Sub(triggered)
	switch {
	case elapsed <= 0:
		return 1
	case f.Duration <= 0 || elapsed >= f.Duration:
		return f.Floor
	}

	progress := float64(elapsed) / float64(f.Duration)
	easing := f.EasingFunc
	if easing == nil {
		easing = ease.Linear
	}
	return 1 - (1-f.Floor)*clamp(easing(progress))
}

// Active reports whether the flash is still decaying at now.
func (f *Flash) Active(now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggered.IsZero() {
		return false
	}
	return now.Sub(f.triggered) < f.Duration
}

// Dim scales a color towards black by level.
func Dim(c colorful.Color, level float64) colorful.Color {
	return colorful.Color{}.BlendRgb(c, clamp(level)).Clamped()
}

func clamp(v float64) float64 {
	return utils.Clamp(v, 0, 1)
}
