package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/effect"
	"github.com/nansu0425/RandomPitchPlayer/session"
)

func (m model) View() string {
	f := m.display.frame()

	var s strings.Builder

	title := titleStyle.Render("RandomPitchPlayer")
	if m.ctl.Running() {
		title = m.spinner.View() + " " + title
	}
	s.WriteString(title + "\n\n")

	label := labelStyle
	if f.color != session.Black {
		c := lipgloss.Color(effect.Dim(f.color, f.level).Hex())
		label = label.Copy().Foreground(c).BorderForeground(c)
	}
	text := f.text
	if text == "" {
		text = " "
	}
	s.WriteString(label.Render(text) + "\n")

	if f.hasRemaining {
		if formatted := session.FormatRemaining(f.remaining); formatted != "" {
			remaining := lipgloss.NewStyle().
				Foreground(lipgloss.Color(session.RemainingColor(f.remaining).Hex())).
				Render(formatted)
			s.WriteString(fmt.Sprintf("%s %s\n", remaining, m.progress.ViewAs(m.fraction(f.remaining))))
		}
	}
	if m.ctl.Running() {
		s.WriteString(m.beatLine() + "\n")
	}
	s.WriteString("\n")

	s.WriteString(m.settingsLine() + "\n")
	s.WriteString(dimStyle.Render(m.settings.TempoInfo()) + "\n")
	s.WriteString(dimStyle.Render(m.statusLine()) + "\n")

	if summary := m.ctl.Summary(); summary != "" {
		s.WriteString(dimStyle.Render(summary) + "\n")
	}
	if m.status != "" {
		s.WriteString(m.status + "\n")
	}
	if m.showAnalysis && m.analysis != "" {
		s.WriteString("\n" + m.analysis)
	}

	s.WriteString(helpStyle.Render("(space) start/stop  ([,]) tempo -/+  (-,=) duration -/+\n(m) mode  (t) voice  (a) analysis  (q) quit"))

	if m.quitting {
		s.WriteString("\n")
	}
	return appStyle.Render(s.String())
}

func (m model) settingsLine() string {
	tempo := fmt.Sprintf("Interval: %.3fs", m.settings.IntervalSeconds)
	if m.settings.Mode == config.ModeBPM {
		tempo = fmt.Sprintf("BPM: %.1f", m.settings.BPM)
	}

	duration := "unlimited"
	if m.settings.DurationMinutes > 0 {
		duration = fmt.Sprintf("%g min", m.settings.DurationMinutes)
	}

	return fmt.Sprintf("%s  Mode: %s  Duration: %s", tempo, m.settings.Mode, duration)
}

// beatLine shows which pitch of the session is up and when the next is due.
func (m model) beatLine() string {
	metronome := m.ctl.Scheduler().Metronome()
	snap := metronome.GetSnapshot()

	dot := dimStyle.Render("○")
	if snap.DistanceFromBeat() < BeatWindow {
		dot = titleStyle.Render("●")
	}
	next := snap.GetTimeOfBeat(snap.Beat + 1).Sub(snap.Instant)

	return fmt.Sprintf("%s pitch #%d  next in %.2fs  live %.1f BPM", dot, snap.Beat, next.Seconds(), metronome.GetTempo())
}

func (m model) statusLine() string {
	return fmt.Sprintf("Voice: %s  Keep awake: %s",
		onOff(m.settings.TTSEnabled, m.ctl.Speech().Available()),
		onOff(true, m.ctl.Power().Available()))
}

func onOff(enabled, available bool) string {
	switch {
	case !available:
		return "unavailable"
	case enabled:
		return "on"
	default:
		return "off"
	}
}

// fraction is the share of the session still left.
func (m model) fraction(remaining float64) float64 {
	if m.total <= 0 {
		return 0
	}
	return remaining / m.total.Seconds()
}
