package rhythm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestMetronome(t *testing.T) {
	t.Parallel()

	// Create a new metronome at 120 bpm
	m := NewMetronomeWithInterval(clocktesting.NewFakeClock(time.Unix(0, 0)), 500*time.Millisecond)

	// The beat interval should be every 500ms
	assert.Equal(t, 500*time.Millisecond, m.GetBeatInterval())
	assert.Equal(t, 120.0, m.GetTempo())

	// Try to change the tempo to 128 bpm
	m.SetBeatInterval(468750 * time.Microsecond)
	assert.Equal(t, 128.0, m.GetTempo())
}

func TestMetronomeKeepsBeatAndPhase(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Unix(100, 0))
	m := NewMetronomeWithInterval(fc, time.Second)

	fc.Step(2500 * time.Millisecond)
	before := m.GetSnapshot()
	require.Equal(t, int64(3), before.Beat)
	require.InDelta(t, 0.5, before.BeatPhase, 1e-9)

	m.SetBeatInterval(2 * time.Second)
	after := m.GetSnapshot()
	assert.Equal(t, int64(3), after.Beat)
	assert.InDelta(t, 0.5, after.BeatPhase, 1e-9)
	assert.Equal(t, time.Unix(100, 0).Add(-2500*time.Millisecond), after.StartTime)

	fc.Step(time.Second)
	assert.Equal(t, int64(4), m.GetSnapshot().Beat)
}

func TestMetronomeRestartAndSnapshotHelpers(t *testing.T) {
	t.Parallel()

	fc := clocktesting.NewFakeClock(time.Unix(0, 0))
	m := NewMetronomeWithInterval(fc, 500*time.Millisecond)

	fc.Step(10 * time.Second)
	m.Restart(200 * time.Millisecond)

	fc.Step(450 * time.Millisecond)
	snap := m.GetSnapshot()
	assert.Equal(t, int64(3), snap.Beat)
	assert.Equal(t, time.Unix(10, 400*int64(time.Millisecond)), snap.GetTimeOfBeat(3))
	assert.Equal(t, 50*time.Millisecond, snap.DistanceFromBeat())

	// non-positive intervals are ignored
	m.SetBeatInterval(0)
	assert.Equal(t, 200*time.Millisecond, m.GetBeatInterval())
}
