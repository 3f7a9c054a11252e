package utils

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]string{
	"black": "#000000",
	"white": "#FFFFFF",
	"red":   "#FF0000",
	"blue":  "#0000FF",
}

// GetRGBFromString parses a hex string ("#FFD700") or a basic color name. Unknown
// input yields black.
func GetRGBFromString(s string) colorful.Color {
	if hex, ok := namedColors[strings.ToLower(s)]; ok {
		s = hex
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}
	}
	return c
}
