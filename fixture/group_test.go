package fixture

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nansu0425/RandomPitchPlayer/config"
)

func TestFixtureInMultipleGroups(t *testing.T) {
	t.Parallel()

	fix := newTestFixture(t, "fix1", "shehds-par", 138)

	// add the fixture to two fixture groups
	fg1 := NewGroup()
	fg2 := NewGroup()
	fg1.AddFixture("fix1", fix)
	fg2.AddFixture("left_par", fix)

	// set a value
	fix1, err := fg1.GetFixture("fix1")
	require.NoError(t, err)
	fix1.SetIntensity(0.65)

	// check its correct in the other fixture group
	par, err := fg2.GetFixture("left_par")
	require.NoError(t, err)
	require.Equal(t, 0.65, par.GetIntensity())

	_, err = fg2.GetFixture("fix1")
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	fix1 := newTestFixture(t, "fix1", "shehds-par", 1)
	fix2 := newTestFixture(t, "fix2", "shehds-par", 10)
	fix3 := newTestFixture(t, "fix3", "rgb-3ch", 20)

	// add the fixtures to three separate groups
	fg1 := NewGroup()
	fg2 := NewGroup()
	fg3 := NewGroup()
	fg1.AddFixture("fix1", fix1)
	fg2.AddFixture("fix2", fix2)
	fg3.AddFixture("fix2", fix3) // name collision (will replace)

	// set some values
	fix1.SetIntensity(0.3)
	fix2.SetIntensity(0.6)
	fix3.SetIntensity(0.8)

	// merge them over the first group
	fg := fg1.Merge(fg2, fg3)

	// check everything is correct
	require.True(t, fg.HasFixture("fix1"))
	require.True(t, fg.HasFixture("fix2"))
	require.Equal(t, 2, fg.Count())
	require.Equal(t, []string{"fix1", "fix2"}, fg.Names())
	require.Equal(t, 1, fg1.Count())

	fix, err := fg.GetFixture("fix2")
	require.NoError(t, err)
	require.Equal(t, "fix3", fix.Name)
	require.Equal(t, 20, fix.Address)
	require.Equal(t, 0.8, fix.GetIntensity())
	require.True(t, fix.NeedsUpdate())
}

func TestNewGroupFromPatch(t *testing.T) {
	t.Parallel()

	fg, err := NewGroupFromPatch(config.DefaultPatch(), config.FixtureProfiles())
	require.NoError(t, err)
	require.Equal(t, []string{"left_middle_par", "right_middle_par"}, fg.Names())

	_, err = NewGroupFromPatch([]config.PatchedFixture{{Name: "x", Address: 1, Profile: "nope"}}, config.FixtureProfiles())
	require.Error(t, err)
}
