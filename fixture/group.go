package fixture

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/profile"
)

type Group struct {
	Fixtures map[string]*Fixture
}

// Create a new Group object with reasonable defaults for real usage.
func NewGroup() *Group {
	return &Group{
		Fixtures: make(map[string]*Fixture),
	}
}

// NewGroupFromPatch creates one fixture per patch entry.
func NewGroupFromPatch(patch []config.PatchedFixture, profiles map[string]profile.Profile) (*Group, error) {
	if err := config.ValidatePatch(patch, profiles); err != nil {
		return nil, err
	}

	fg := NewGroup()
	for _, pf := range patch {
		fg.AddFixture(pf.Name, NewFixture(pf, profiles[pf.Profile]))
	}
	return fg, nil
}

func (fg *Group) GetFixture(id string) (*Fixture, error) {
	if fixture, found := fg.Fixtures[id]; found {
		return fixture, nil
	}
	return nil, fmt.Errorf("the fixture group does not contain a fixture with the id: %s", id)
}

func (fg *Group) AddFixture(id string, fixture *Fixture) {
	fg.Fixtures[id] = fixture
}

// HasFixture returns true if the group contains id
func (fg *Group) HasFixture(id string) bool {
	_, ok := fg.Fixtures[id]
	return ok
}

// HasFixtures returns true if there are fixtures in the group
func (fg *Group) HasFixtures() bool {
	return len(fg.Fixtures) > 0
}

// Count returns the number of fixtures in the group
func (fg *Group) Count() int {
	return len(fg.Fixtures)
}

// Names returns the fixture ids in sorted order.
func (fg *Group) Names() []string {
	names := make([]string, 0, len(fg.Fixtures))
	for id := range fg.Fixtures {
		names = append(names, id)
	}
	slices.Sort(names)
	return names
}

// Merge returns a new group holding the fixtures of fg and others. Later
// groups replace fixtures with the same id.
func (fg *Group) Merge(others ...*Group) *Group {
	merged := NewGroup()
	for id, fix := range fg.Fixtures {
		merged.AddFixture(id, fix)
	}
	for _, other := range others {
		for id, fix := range other.Fixtures {
			merged.AddFixture(id, fix)
		}
	}
	return merged
}
