package timing

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/nansu0425/RandomPitchPlayer/pitch"
)

var t0 = time.Unix(1000, 0)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// playSession renders an opening pitch and three confirmed updates whose
// delays are 150ms, 600ms and 1.2s, with one superseded and one still pending.
func playSession(t *testing.T) (*Recorder, *clocktesting.FakeClock) {
	t.Helper()

	fc := clocktesting.NewFakeClock(t0)
	rec := NewRecorder(fc, true)
	rec.StartSession()

	rec.RecordDisplay(pitch.C, t0, t0, time.Second)

	fc.SetTime(t0.Add(ms(1150)))
	rec.AddPending(1, pitch.D, pitch.D.Color(), t0.Add(ms(1000)))
	_, ok := rec.ConfirmRender(1, fc.Now(), time.Second)
	require.True(t, ok)

	fc.SetTime(t0.Add(ms(2750)))
	rec.AddPending(2, pitch.E, pitch.E.Color(), t0.Add(ms(2000)))
	_, ok = rec.ConfirmRender(2, fc.Now(), time.Second)
	require.True(t, ok)

	fc.SetTime(t0.Add(ms(4950)))
	rec.AddPending(3, pitch.F, pitch.F.Color(), t0.Add(ms(3000)))
	rec.AddPending(4, pitch.G, pitch.G.Color(), t0.Add(ms(4000)))
	ev, ok := rec.ConfirmRender(4, fc.Now(), time.Second)
	require.True(t, ok)
	assert.Equal(t, ms(2200), ev.Interval)
	assert.Equal(t, ms(1200), ev.Delay)

	fc.SetTime(t0.Add(ms(5000)))
	rec.AddPending(5, pitch.A, pitch.A.Color(), t0.Add(ms(5000)))
	fc.SetTime(t0.Add(ms(5250)))

	return rec, fc
}

func TestRecorderDelayThresholds(t *testing.T) {
	t.Parallel()

	rec, _ := playSession(t)
	s := rec.Stats()

	assert.Equal(t, 4, s.Displays)
	assert.Equal(t, 3, s.Intervals)
	assert.Equal(t, 3, s.OverNoticeable)
	assert.Equal(t, 2, s.OverSevere)
	assert.Equal(t, 1, s.OverCritical)
	assert.Equal(t, ms(150), s.MinDelay)
	assert.Equal(t, ms(1200), s.MaxDelay)
	assert.Equal(t, ms(650), s.MeanDelay)
	assert.Equal(t, ms(1150), s.MinInterval)
	assert.Equal(t, ms(2200), s.MaxInterval)
	assert.Equal(t, ms(1650), s.MeanInterval)
	assert.Equal(t, ms(1200), s.LastDelay)
	assert.Equal(t, ms(650), s.RecentMeanDelay)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 1, s.Superseded)
}

func TestRecorderThresholdsAreStrict(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(t0)
	rec := NewRecorder(fc, true)
	rec.StartSession()

	rec.RecordDisplay(pitch.C, t0, t0, time.Second)
	rec.RecordDisplay(pitch.D, t0.Add(ms(1000)), t0.Add(ms(1100)), time.Second)
	rec.RecordDisplay(pitch.E, t0.Add(ms(2000)), t0.Add(ms(2600)), time.Second)
	rec.RecordDisplay(pitch.F, t0.Add(ms(3000)), t0.Add(ms(4600)), time.Second)

	s := rec.Stats()
	// 100ms, 500ms and 1s exactly sit on the thresholds and are not counted
	assert.Equal(t, 3, s.Intervals)
	assert.Zero(t, s.OverNoticeable)
	assert.Zero(t, s.OverSevere)
	assert.Zero(t, s.OverCritical)
}

func TestRecorderRecentMeanUsesLastFive(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(t0)
	rec := NewRecorder(fc, true)
	rec.StartSession()

	at := t0
	rec.RecordDisplay(pitch.C, at, at, time.Second)
	for i, extra := range []int{900, 10, 20, 30, 40, 50} {
		at = at.Add(time.Second + ms(extra))
		rec.RecordDisplay(pitch.All[(i+1)%pitch.Count], at, at, time.Second)
	}

	s := rec.Stats()
	assert.Equal(t, ms(50), s.LastDelay)
	assert.Equal(t, ms(30), s.RecentMeanDelay)
	assert.Equal(t, ms(175), s.MeanDelay)
}

func TestRecorderSummary(t *testing.T) {
	t.Parallel()

	rec := NewRecorder(clocktesting.NewFakeClock(t0), true)
	assert.Equal(t, "delay: 0.000s | avg: 0.000s | pending: 0", rec.Summary())

	rec, _ = playSession(t)
	assert.Equal(t, "delay: 1.200s | avg: 0.650s | pending: 1", rec.Summary())
}

func TestRecorderPendingOrderAndClear(t *testing.T) {
	t.Parallel()

	rec := NewRecorder(clocktesting.NewFakeClock(t0), true)
	for _, seq := range []uint64{9, 3, 7} {
		rec.AddPending(seq, pitch.B, pitch.B.Color(), t0)
	}

	pending := rec.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, []uint64{3, 7, 9}, []uint64{pending[0].Sequence, pending[1].Sequence, pending[2].Sequence})

	assert.True(t, rec.CompletePending(7))
	assert.False(t, rec.CompletePending(7))
	assert.Equal(t, 2, rec.ClearPending())
	assert.Empty(t, rec.Pending())

	_, ok := rec.ConfirmRender(3, t0, time.Second)
	assert.False(t, ok)
}

func TestRecorderEventLogOverflowKeepsNewestHalf(t *testing.T) {
	t.Parallel()

	rec := NewRecorder(clocktesting.NewFakeClock(t0), true)
	rec.StartSession()

	for seq := uint64(1); seq <= MaxTimingLogs+1; seq++ {
		rec.LogEvent(EventTrigger, seq, t0, t0.Add(ms(1)))
	}

	events := rec.Events()
	require.Len(t, events, MaxTimingLogs/2)
	assert.Equal(t, uint64(MaxTimingLogs/2+2), events[0].Sequence)
	assert.Equal(t, uint64(MaxTimingLogs+1), events[len(events)-1].Sequence)
	assert.Equal(t, ms(1), events[0].Delay)
}

func TestRecorderDisabledIsNoop(t *testing.T) {
	t.Parallel()

	rec := NewRecorder(clocktesting.NewFakeClock(t0), false)
	rec.StartSession()
	rec.LogEvent(EventTrigger, 1, t0, t0)
	rec.AddPending(1, pitch.C, pitch.C.Color(), t0)
	rec.RecordDisplay(pitch.C, t0, t0, time.Second)
	rec.RecordDisplay(pitch.D, t0, t0.Add(ms(3000)), time.Second)

	assert.Empty(t, rec.Events())
	assert.Empty(t, rec.Pending())
	assert.Equal(t, Stats{}, rec.Stats())
	assert.Empty(t, rec.Summary())

	var buf bytes.Buffer
	require.NoError(t, rec.WriteAnalysis(&buf, time.Second))
	assert.Zero(t, buf.Len())
}

func TestRecorderStartSessionClears(t *testing.T) {
	t.Parallel()

	rec, _ := playSession(t)
	rec.StartSession()

	assert.Equal(t, Stats{}, rec.Stats())
	assert.Empty(t, rec.Events())
}

func TestWriteAnalysis(t *testing.T) {
	t.Parallel()

	rec, _ := playSession(t)

	var buf bytes.Buffer
	require.NoError(t, rec.WriteAnalysis(&buf, time.Second))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "analysis", buf.Bytes())
}
