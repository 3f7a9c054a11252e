package session

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/engine"
	"github.com/nansu0425/RandomPitchPlayer/pitch"
	"github.com/nansu0425/RandomPitchPlayer/timing"
)

var t0 = time.Unix(20000, 0)

type rig struct {
	clock    *clocktesting.FakeClock
	settings *config.Settings
	display  *fakeDisplay
	speech   *fakeSpeech
	power    *fakePower
	mirror   *fakeMirror
	history  *fakeHistory
	analysis *bytes.Buffer
	ctl      *Controller
	seq      uint64
}

func newRig(t *testing.T, recorderEnabled bool) *rig {
	t.Helper()

	fc := clocktesting.NewFakeClock(t0)
	r := &rig{
		clock:    fc,
		settings: config.DefaultSettings(),
		display:  &fakeDisplay{clock: fc},
		speech:   &fakeSpeech{available: true},
		power:    &fakePower{},
		mirror:   &fakeMirror{},
		history:  &fakeHistory{},
		analysis: &bytes.Buffer{},
	}
	r.ctl = NewController(Options{
		Clock:     fc,
		Settings:  r.settings,
		Display:   r.display,
		Speech:    r.speech,
		Power:     r.power,
		Mirrors:   []Mirror{r.mirror},
		Recorder:  timing.NewRecorder(fc, recorderEnabled),
		History:   r.history,
		KeepAwake: true,
		Analysis:  r.analysis,
	})
	t.Cleanup(r.ctl.Close)

	return r
}

// others returns the pitches in scale order, skipping p.
func others(p pitch.Pitch) []pitch.Pitch {
	var out []pitch.Pitch
	for _, q := range pitch.All {
		if q != p {
			out = append(out, q)
		}
	}
	return out
}

// enqueue pushes requests as the scheduler would, one per pitch.
func (r *rig) enqueue(ps ...pitch.Pitch) {
	q := r.ctl.Scheduler().Queue()
	for _, p := range ps {
		r.seq++
		q.Enqueue(engine.NewUpdateRequest(p, t0.Add(time.Duration(r.seq)*time.Second), r.seq))
	}
}

func (r *rig) opening() pitch.Pitch {
	p, err := pitch.Parse(r.display.renders[0])
	if err != nil {
		panic(err)
	}
	return p
}

func TestStartShowsOpeningPitch(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	require.NoError(t, r.ctl.Start())

	require.True(t, r.ctl.Running())
	require.True(t, r.ctl.Scheduler().Running())
	require.Len(t, r.display.renders, 1)

	opening := r.opening()
	assert.Equal(t, opening.Color(), r.display.colors[0])
	assert.Equal(t, []pitch.Pitch{opening}, r.mirror.shown)
	assert.Equal(t, 1, r.ctl.Recorder().Stats().Displays)
	assert.Equal(t, 1, r.power.begins)
	assert.Equal(t, []float64{300}, r.display.remaining)
	assert.Equal(t, time.Second, r.ctl.LiveInterval())

	// speech waits for the deferral
	assert.Zero(t, r.ctl.RunDeferred(t0.Add(SpeechDelay-time.Millisecond)))
	assert.Empty(t, r.speech.spoken)
	assert.Equal(t, 1, r.ctl.RunDeferred(t0.Add(SpeechDelay)))
	assert.Equal(t, []pitch.Pitch{opening}, r.speech.spoken)

	// a second start while running changes nothing
	id := r.ctl.SessionID()
	require.NoError(t, r.ctl.Start())
	assert.Equal(t, id, r.ctl.SessionID())
	assert.Len(t, r.display.renders, 1)
}

func TestStartWithInvalidInterval(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	r.settings.IntervalSeconds = 0

	err := r.ctl.Start()
	require.Error(t, err)
	assert.True(t, errors.IsError(err, ErrInvalidInterval))

	assert.False(t, r.ctl.Running())
	assert.False(t, r.ctl.Scheduler().Running())
	assert.Equal(t, []string{ErrorText}, r.display.renders)
	assert.Zero(t, r.power.begins)
	assert.Empty(t, r.mirror.shown)
}

func TestStartWithoutSpeech(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	r.settings.TTSEnabled = false
	require.NoError(t, r.ctl.Start())

	assert.Zero(t, r.ctl.RunDeferred(t0.Add(time.Second)))
	assert.Empty(t, r.speech.spoken)

	r.settings.TTSEnabled = true
	r.speech.available = false
	r.enqueue(others(r.opening())[0])
	r.ctl.Consumer().Poll(t0)
	assert.Zero(t, r.ctl.RunDeferred(t0.Add(time.Second)))
}

func TestConsumerCapsEachPoll(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	require.NoError(t, r.ctl.Start())
	ps := others(r.opening())[:5]
	r.enqueue(ps...)

	assert.Equal(t, MaxPerPoll, r.ctl.Consumer().Poll(t0))
	assert.Equal(t, 2, r.ctl.Scheduler().Queue().Len())
	assert.Equal(t, 2, r.ctl.Consumer().Poll(t0))
	assert.Zero(t, r.ctl.Consumer().Poll(t0))

	assert.Equal(t, ps, r.mirror.shown[1:])
	assert.Len(t, r.ctl.Recorder().Pending(), 5)

	assert.Equal(t, 6, r.ctl.RunDeferred(t0.Add(SpeechDelay)))
	assert.Equal(t, ps, r.speech.spoken[1:])
}

func TestConsumerAppliesIntervalChange(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	require.NoError(t, r.ctl.Start())

	r.settings.SetIntervalSeconds(0.5)
	r.ctl.Consumer().Poll(t0)
	assert.Equal(t, 500*time.Millisecond, r.ctl.LiveInterval())
	assert.Equal(t, 500*time.Millisecond, r.ctl.Scheduler().Interval())

	r.settings.SetBPM(240)
	r.settings.SetMode(config.ModeBPM)
	r.ctl.Consumer().Poll(t0)
	assert.Equal(t, 250*time.Millisecond, r.ctl.Scheduler().Interval())
}

func TestCheckerConfirmsNewestAndSupersedesOlder(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	require.NoError(t, r.ctl.Start())
	ps := others(r.opening())[:3]
	r.enqueue(ps...)
	r.ctl.Consumer().Poll(t0)

	r.clock.Step(30 * time.Millisecond)
	assert.Equal(t, 1, r.ctl.Checker().Check(r.clock.Now()))

	stats := r.ctl.Recorder().Stats()
	assert.Equal(t, 2, stats.Displays)
	assert.Equal(t, 2, stats.Superseded)
	assert.Zero(t, stats.Pending)
	assert.Equal(t, 30*time.Millisecond-time.Second, stats.LastDelay)
}

func TestCheckerWaitsForFrame(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	r.display.lag = true
	require.NoError(t, r.ctl.Start())
	r.display.flush()

	next := others(r.opening())[0]
	r.enqueue(next)
	r.ctl.Consumer().Poll(t0)

	assert.Zero(t, r.ctl.Checker().Check(t0))
	assert.Len(t, r.ctl.Recorder().Pending(), 1)

	r.display.flush()
	r.clock.Step(time.Second)
	assert.Equal(t, 1, r.ctl.Checker().Check(r.clock.Now()))
	assert.Empty(t, r.ctl.Recorder().Pending())
	assert.Zero(t, r.ctl.Recorder().Stats().LastDelay)
}

func TestCheckerIgnoresUndrawnRepeatOfShownLabel(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	r.display.lag = true
	require.NoError(t, r.ctl.Start())
	r.display.flush()

	opening := r.opening()
	r.enqueue(others(opening)[0], opening)
	r.ctl.Consumer().Poll(t0)

	// the screen still shows the opening label from the previous frame
	assert.Equal(t, opening.String(), r.display.CurrentText())
	assert.Zero(t, r.ctl.Checker().Check(t0))
	assert.Len(t, r.ctl.Recorder().Pending(), 2)

	r.display.flush()
	r.clock.Step(10 * time.Millisecond)
	assert.Equal(t, 1, r.ctl.Checker().Check(r.clock.Now()))

	stats := r.ctl.Recorder().Stats()
	assert.Equal(t, 1, stats.Superseded)
	assert.Zero(t, stats.Pending)
}

func TestReducedLoggingSkipsTracking(t *testing.T) {
	t.Parallel()

	r := newRig(t, false)
	require.NoError(t, r.ctl.Start())
	r.enqueue(others(r.opening())[0])

	assert.Equal(t, 1, r.ctl.Consumer().Poll(t0))
	assert.Zero(t, r.ctl.Checker().Check(t0))
	assert.Empty(t, r.ctl.Recorder().Pending())
	assert.Empty(t, r.ctl.Summary())

	r.ctl.Stop()
	assert.Zero(t, r.analysis.Len())
}

func TestStopTearsDown(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	require.NoError(t, r.ctl.Start())
	ps := others(r.opening())
	r.enqueue(ps[0], ps[1])
	r.ctl.Consumer().Poll(t0)
	r.enqueue(ps[2])

	r.clock.Step(2 * time.Second)
	r.ctl.Stop()

	assert.False(t, r.ctl.Running())
	assert.False(t, r.ctl.Scheduler().Running())
	assert.Zero(t, r.ctl.Scheduler().Queue().Len())
	assert.Empty(t, r.ctl.Recorder().Pending())
	assert.Equal(t, StopText, r.display.last())
	assert.Equal(t, Black, r.display.colors[len(r.display.colors)-1])
	assert.Equal(t, 1, r.display.cleared)
	assert.Equal(t, 1, r.power.ends)
	assert.Equal(t, 1, r.speech.stops)
	assert.Equal(t, StopReasonUser, r.ctl.LastStopReason())

	// deferred speech was dropped and polling does nothing now
	assert.Zero(t, r.ctl.RunDeferred(t0.Add(time.Minute)))
	assert.Empty(t, r.speech.spoken)
	assert.Zero(t, r.ctl.Consumer().Poll(t0))
	assert.Zero(t, r.ctl.Checker().Check(t0))

	assert.Contains(t, r.analysis.String(), "=== RandomPitchPlayer timing analysis ===")
	assert.Contains(t, r.analysis.String(), "Pending renders: 2")

	require.Len(t, r.history.sessions, 1)
	h := r.history.sessions[0]
	assert.Equal(t, r.ctl.SessionID(), h.ID)
	assert.Equal(t, StopReasonUser, h.StopReason)
	assert.Equal(t, 2*time.Second, h.Elapsed())
	assert.Equal(t, "seconds", h.Mode)

	// stopping again is a no-op
	r.ctl.Stop()
	assert.Len(t, r.history.sessions, 1)
	assert.Equal(t, 1, r.power.ends)
}

func TestRestartBeginsFreshSession(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	require.NoError(t, r.ctl.Start())
	first := r.ctl.SessionID()
	r.ctl.Stop()

	require.NoError(t, r.ctl.Start())
	assert.NotEqual(t, first, r.ctl.SessionID())
	assert.Equal(t, 1, r.ctl.Recorder().Stats().Displays)
	assert.Zero(t, r.ctl.Scheduler().Sequence())
}

func TestDurationCountdownStopsSession(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	r.settings.SetDurationMinutes(1)
	require.NoError(t, r.ctl.Start())

	left, ok := r.ctl.Remaining(t0.Add(45 * time.Second))
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, left)

	assert.False(t, r.ctl.CheckDuration(t0.Add(30*time.Second)))
	assert.Equal(t, []float64{60, 30}, r.display.remaining)

	r.clock.Step(time.Minute)
	assert.True(t, r.ctl.CheckDuration(r.clock.Now()))
	assert.False(t, r.ctl.Running())
	assert.Equal(t, StopText, r.display.last())
	assert.Equal(t, StopReasonDuration, r.ctl.LastStopReason())
	require.Len(t, r.history.sessions, 1)
	assert.Equal(t, StopReasonDuration, r.history.sessions[0].StopReason)

	_, ok = r.ctl.Remaining(r.clock.Now())
	assert.False(t, ok)
}

func TestUnlimitedDuration(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	r.settings.SetDurationMinutes(0)
	require.NoError(t, r.ctl.Start())

	assert.Equal(t, 1, r.display.cleared)
	assert.Empty(t, r.display.remaining)
	assert.False(t, r.ctl.CheckDuration(t0.Add(24*time.Hour)))
	assert.True(t, r.ctl.Running())
}

func TestCloseReleasesCollaborators(t *testing.T) {
	t.Parallel()

	r := newRig(t, true)
	require.NoError(t, r.ctl.Start())
	r.ctl.Close()

	assert.False(t, r.ctl.Running())
	assert.True(t, r.speech.closed)
	assert.True(t, r.mirror.closed)
	assert.Equal(t, StopReasonShutdown, r.ctl.LastStopReason())
}

func TestLoopRunsSessionToCompletion(t *testing.T) {
	if testing.Short() {
		t.Skip("real-time test")
	}
	t.Parallel()

	settings := config.DefaultSettings()
	settings.IntervalSeconds = 0.1
	settings.DurationMinutes = 0.01 // 600ms
	settings.TTSEnabled = false

	display := &fakeDisplay{clock: clock.RealClock{}}
	ctl := NewController(Options{
		Settings: settings,
		Display:  display,
		Recorder: timing.NewRecorder(clock.RealClock{}, true),
	})
	defer ctl.Close()

	require.NoError(t, ctl.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	loop := NewLoop(ctl, LoopOptions{DurationInterval: 50 * time.Millisecond, ExitWhenStopped: true})
	require.NoError(t, loop.Run(ctx))

	assert.False(t, ctl.Running())
	assert.Equal(t, StopText, display.last())
	assert.Equal(t, StopReasonDuration, ctl.LastStopReason())

	// opening pitch, several updates, STOP
	assert.GreaterOrEqual(t, len(display.renders), 4)
	for i := 1; i < len(display.renders)-1; i++ {
		assert.NotEqual(t, display.renders[i-1], display.renders[i])
	}
	assert.GreaterOrEqual(t, ctl.Recorder().Stats().Displays, 3)
}

func TestLoopStopsOnCancel(t *testing.T) {
	t.Parallel()

	display := &fakeDisplay{clock: clock.RealClock{}}
	ctl := NewController(Options{Display: display})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLoop(ctl, LoopOptions{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
