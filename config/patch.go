package config

import (
	"fmt"

	"github.com/nansu0425/RandomPitchPlayer/profile"
)

// DMXUniverseSize is the number of channels in one DMX512 universe.
const DMXUniverseSize = 512

// PatchedFixture stores config info for a dmx fixture
type PatchedFixture struct {
	Name     string `yaml:"name"`
	Address  int    `yaml:"address"`
	Universe int    `yaml:"universe"`
	Profile  string `yaml:"profile"`
}

// DefaultPatch is the pair of front pars the pitch color is mirrored to.
func DefaultPatch() []PatchedFixture {
	return []PatchedFixture{
		// left middle par
		{
			Name:     "left_middle_par",
			Address:  115,
			Universe: 1,
			Profile:  "shehds-par",
		},
		// right middle par
		{
			Name:     "right_middle_par",
			Address:  139,
			Universe: 1,
			Profile:  "shehds-par",
		},
	}
}

// ValidatePatch checks that every fixture names a known profile and fits in
// its universe.
func ValidatePatch(patch []PatchedFixture, profiles map[string]profile.Profile) error {
	seen := make(map[string]bool, len(patch))
	for _, pf := range patch {
		if seen[pf.Name] {
			return fmt.Errorf("fixture %q patched twice", pf.Name)
		}
		seen[pf.Name] = true

		p, ok := profiles[pf.Profile]
		if !ok {
			return fmt.Errorf("fixture %q uses unknown profile %q", pf.Name, pf.Profile)
		}
		if pf.Universe < 0 {
			return fmt.Errorf("fixture %q has negative universe %d", pf.Name, pf.Universe)
		}
		last := pf.Address + p.Footprint() - 1
		if pf.Address < 1 || last > DMXUniverseSize {
			return fmt.Errorf("fixture %q at address %d does not fit in a universe (last channel %d)", pf.Name, pf.Address, last)
		}
	}

	return nil
}
