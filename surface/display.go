package surface

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/session"
)

var (
	stampStyle = lipgloss.NewStyle().Faint(true)
	labelStyle = lipgloss.NewStyle().Bold(true).Width(6)
)

// Headless is a line-oriented display for terminals without the TUI. Each
// render is one line written straight to out, so it is visible as soon as
// Render returns.
type Headless struct {
	mu        sync.Mutex
	out       io.Writer
	clock     clock.PassiveClock
	text      string
	remaining string
	lines     uint64
}

// NewHeadless creates a display writing to out.
func NewHeadless(out io.Writer, c clock.PassiveClock) *Headless {
	return &Headless{out: out, clock: c}
}

func (d *Headless) Render(text string, color colorful.Color) time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	label := labelStyle.Foreground(lipgloss.Color(color.Hex())).Render(text)
	line := stampStyle.Render(now.Format("15:04:05.000")) + " " + label
	if d.remaining != "" {
		line += " " + d.remaining
	}
	fmt.Fprintln(d.out, line)
	d.text = text
	d.lines++
	return now
}

func (d *Headless) CurrentText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Frames counts the lines written so far.
func (d *Headless) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines
}

// ShowRemainingTime updates the countdown printed next to each pitch.
func (d *Headless) ShowRemainingTime(seconds float64) {
	formatted := session.FormatRemaining(seconds)
	d.mu.Lock()
	defer d.mu.Unlock()
	if formatted == "" {
		d.remaining = ""
		return
	}
	d.remaining = lipgloss.NewStyle().
		Foreground(lipgloss.Color(session.RemainingColor(seconds).Hex())).
		Render("(" + formatted + ")")
}

func (d *Headless) ClearRemainingTime() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remaining = ""
}
