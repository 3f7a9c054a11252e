package tui

import (
	"bytes"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/effect"
	"github.com/nansu0425/RandomPitchPlayer/session"
)

const (
	// IntervalStep is how far [ and ] move the interval in seconds mode.
	IntervalStep = 0.1

	// BPMStep is how far [ and ] move the tempo in BPM mode.
	BPMStep = 5.0

	// DurationStep is how far - and = move the session length, in minutes.
	DurationStep = 1.0

	// FrameRate drives redraws so the label flash animates.
	FrameRate = 30

	// BeatWindow is how close to a pitch change the beat dot lights up.
	BeatWindow = 60 * time.Millisecond
)

// Options wires the terminal UI to a controller.
type Options struct {
	Controller *session.Controller
	Display    *Display
	Clock      clock.Clock

	QueuePollInterval   time.Duration
	RenderCheckInterval time.Duration
}

type model struct {
	ctl      *session.Controller
	display  *Display
	settings *config.Settings
	clock    clock.Clock

	queueEvery  time.Duration
	renderEvery time.Duration

	spinner  spinner.Model
	progress progress.Model

	total        time.Duration
	status       string
	showAnalysis bool
	analysis     string
	quitting     bool
}

// New creates the bubbletea model for the player.
func New(opts Options) tea.Model {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.QueuePollInterval <= 0 {
		opts.QueuePollInterval = session.QueuePollInterval
	}
	if opts.RenderCheckInterval <= 0 {
		opts.RenderCheckInterval = session.RenderCheckInterval
	}

	s := spinner.New()
	s.Style = spinnerStyle

	return model{
		ctl:         opts.Controller,
		display:     opts.Display,
		settings:    opts.Controller.Settings(),
		clock:       opts.Clock,
		queueEvery:  opts.QueuePollInterval,
		renderEvery: opts.RenderCheckInterval,
		spinner:     s,
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
	}
}

type (
	queueTickMsg    time.Time
	renderTickMsg   time.Time
	durationTickMsg time.Time
	frameTickMsg    time.Time
)

func queueTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return queueTickMsg(t) })
}

func renderTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return renderTickMsg(t) })
}

func durationTick() tea.Cmd {
	return tea.Tick(session.DurationCheckInterval, func(t time.Time) tea.Msg { return durationTickMsg(t) })
}

func frameTick() tea.Cmd {
	return tea.Tick(effect.FPS(FrameRate), func(t time.Time) tea.Msg { return frameTickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		queueTick(m.queueEvery),
		renderTick(m.renderEvery),
		durationTick(),
		frameTick(),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-20, 10), 60)
		return m, nil

	case queueTickMsg:
		now := m.clock.Now()
		m.ctl.Consumer().Poll(now)
		m.ctl.RunDeferred(now)
		return m, queueTick(m.queueEvery)

	case renderTickMsg:
		m.ctl.Checker().Check(m.clock.Now())
		return m, renderTick(m.renderEvery)

	case durationTickMsg:
		if m.ctl.CheckDuration(m.clock.Now()) {
			m.status = "Session complete"
		}
		if m.showAnalysis {
			m.refreshAnalysis()
		}
		return m, durationTick()

	case frameTickMsg:
		return m, frameTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ", "enter":
		m.toggleSession()
	case "[":
		m.adjustTempo(-1)
	case "]":
		m.adjustTempo(1)
	case "-":
		m.settings.SetDurationMinutes(m.settings.DurationMinutes - DurationStep)
	case "=", "+":
		m.settings.SetDurationMinutes(m.settings.DurationMinutes + DurationStep)
	case "m":
		m.settings.ToggleMode()
	case "t":
		m.settings.TTSEnabled = !m.settings.TTSEnabled
	case "a":
		m.showAnalysis = !m.showAnalysis
		if m.showAnalysis {
			m.refreshAnalysis()
		}
	case "q", "esc", "ctrl+c":
		m.quitting = true
		m.ctl.Stop()
		return m, tea.Quit
	}

	return m, nil
}

func (m *model) toggleSession() {
	if m.ctl.Running() {
		m.ctl.Stop()
		m.status = "Stopped"
		return
	}

	if err := m.ctl.Start(); err != nil {
		m.status = err.Error()
		return
	}
	m.total, _ = m.settings.Duration()
	m.status = ""
}

// adjustTempo speeds up (dir > 0) or slows down the active mode's value.
func (m *model) adjustTempo(dir int) {
	if m.settings.Mode == config.ModeBPM {
		m.settings.SetBPM(m.settings.BPM + float64(dir)*BPMStep)
		return
	}
	next := m.settings.IntervalSeconds - float64(dir)*IntervalStep
	m.settings.SetIntervalSeconds(math.Round(next*1000) / 1000)
}

func (m *model) refreshAnalysis() {
	var buf bytes.Buffer
	if err := m.ctl.WriteAnalysis(&buf); err != nil {
		m.analysis = err.Error()
		return
	}
	m.analysis = buf.String()
}

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	dimStyle     = helpStyle.Copy().UnsetMargins()
	titleStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder())
	appStyle     = lipgloss.NewStyle().Margin(1, 2, 0, 2)
)
