package fixture

import "github.com/nansu0425/RandomPitchPlayer/utils"

// Channel represents a channel on the fixture
type Channel struct {
	Type string

	// Offset is the 1-based position of the channel from the fixture address.
	Offset int

	// Values are stored as float64 so they can sit between 0 and 1.
	Value float64
}

// SetValue stores value clamped into 0..1.
func (c *Channel) SetValue(value float64) {
	c.Value = utils.Clamp(value, 0, 1)
}

// DMX returns the channel value as a DMX byte.
func (c *Channel) DMX() byte {
	return utils.ToDMX(c.Value)
}
