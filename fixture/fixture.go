package fixture

import (
	"cmp"
	"fmt"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/exp/slices"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/profile"
)

// Fixture is a patched light whose channels are laid out by a profile.
type Fixture struct {
	Name string

	// The DMX universe and starting address
	Universe int
	Address  int

	Profile profile.Profile

	mu          sync.Mutex
	channels    map[string]*Channel
	intensity   float64
	color       colorful.Color
	needsUpdate bool
}

// NewFixture creates a fixture from its patch entry and profile.
func NewFixture(pf config.PatchedFixture, p profile.Profile) *Fixture {
	channels := make(map[string]*Channel, len(p.Channels))
	for channelType, offset := range p.Channels {
		channels[channelType] = &Channel{Type: channelType, Offset: offset}
	}

	return &Fixture{
		Name:     pf.Name,
		Universe: pf.Universe,
		Address:  pf.Address,
		Profile:  p,
		channels: channels,
	}
}

// SetIntensity sets the master level. Fixtures without an intensity channel
// scale their color channels instead.
func (f *Fixture) SetIntensity(value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.intensity == value {
		return
	}
	f.intensity = value
	f.apply()
}

// GetIntensity returns the master level.
func (f *Fixture) GetIntensity() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.intensity
}

// SetColor sets the fixture color.
func (f *Fixture) SetColor(c colorful.Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.color == c {
		return
	}
	f.color = c
	f.apply()
}

// GetColor returns the fixture color.
func (f *Fixture) GetColor() colorful.Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.color
}

// Channel returns the channel of the given type.
func (f *Fixture) Channel(channelType string) (*Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.channels[channelType]; ok {
		return ch, nil
	}
	return nil, fmt.Errorf("fixture %s has no %s channel", f.Name, channelType)
}

// NeedsUpdate reports whether channel values changed since HasUpdated.
func (f *Fixture) NeedsUpdate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.needsUpdate
}

// HasUpdated marks the current values as sent.
func (f *Fixture) HasUpdated() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.needsUpdate = false
}

// apply writes intensity and color into the channels. Callers hold mu.
func (f *Fixture) apply() {
	c := f.color.Clamped()
	scale := 1.0
	if ch, ok := f.channels[profile.ChannelTypeIntensity]; ok {
		ch.SetValue(f.intensity)
	} else {
		scale = f.intensity
	}

	r, g, b := c.R*scale, c.G*scale, c.B*scale
	if ch, ok := f.channels[profile.ChannelTypeWhite]; ok {
		// pull the shared component into the white channel
		w := min(r, g, b)
		ch.SetValue(w)
		r, g, b = r-w, g-w, b-w
	}
	for channelType, v := range map[string]float64{
		profile.ChannelTypeRed:   r,
		profile.ChannelTypeGreen: g,
		profile.ChannelTypeBlue:  b,
	} {
		if ch, ok := f.channels[channelType]; ok {
			ch.SetValue(v)
		}
	}

	f.needsUpdate = true
}

// dmxOperations returns the absolute channel writes for the fixture.
func (f *Fixture) dmxOperations() []dmxOperation {
	f.mu.Lock()
	defer f.mu.Unlock()

	ops := make([]dmxOperation, 0, len(f.channels))
	for _, ch := range f.channels {
		ops = append(ops, dmxOperation{
			universe: f.Universe,
			channel:  f.Address + ch.Offset - 1,
			value:    int(ch.DMX()),
		})
	}
	slices.SortFunc(ops, func(a, b dmxOperation) int { return cmp.Compare(a.channel, b.channel) })
	return ops
}
