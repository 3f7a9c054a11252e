package config

import "github.com/nansu0425/RandomPitchPlayer/profile"

// FixtureProfiles returns the built-in profiles a patched fixture can name.
func FixtureProfiles() map[string]profile.Profile {
	return map[string]profile.Profile{
		"shehds-par": {
			Name: "Shehds LED Flat PAR 12x3W RGBW",
			Channels: map[string]int{
				profile.ChannelTypeIntensity: 1,
				profile.ChannelTypeRed:       2,
				profile.ChannelTypeGreen:     3,
				profile.ChannelTypeBlue:      4,
			},
		},
		"rgb-3ch": {
			Name: "Generic RGB 3 channel",
			Channels: map[string]int{
				profile.ChannelTypeRed:   1,
				profile.ChannelTypeGreen: 2,
				profile.ChannelTypeBlue:  3,
			},
		},
		"rgbw-5ch": {
			Name: "Generic RGBW 5 channel",
			Channels: map[string]int{
				profile.ChannelTypeIntensity: 1,
				profile.ChannelTypeRed:       2,
				profile.ChannelTypeGreen:     3,
				profile.ChannelTypeBlue:      4,
				profile.ChannelTypeWhite:     5,
			},
		},
	}
}
