package profile

const (
	ChannelTypeIntensity = "channel:type:intensity"
	ChannelTypeStrobe    = "channel:type:strobe"

	ChannelTypeRed   = "channel:type:red"
	ChannelTypeGreen = "channel:type:green"
	ChannelTypeBlue  = "channel:type:blue"
	ChannelTypeWhite = "channel:type:white"
)

// Profile holds info for a fixture profile including the channel mappings.
type Profile struct {
	Name string `yaml:"name"`

	// Channels maps a channel type to its 1-based offset from the fixture address.
	Channels map[string]int `yaml:"channels"`
}

// Footprint returns how many DMX channels the fixture occupies.
func (p Profile) Footprint() int {
	n := 0
	for _, offset := range p.Channels {
		if offset > n {
			n = offset
		}
	}
	return n
}

// Has reports whether the profile maps the channel type.
func (p Profile) Has(channelType string) bool {
	_, ok := p.Channels[channelType]
	return ok
}
