package pitch

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/exp/slices"

	"github.com/nansu0425/RandomPitchPlayer/utils"
)

// Pitch is one natural note of the C major scale.
type Pitch int

const (
	C Pitch = iota
	D
	E
	F
	G
	A
	B
)

// Count is the size of the pitch alphabet.
const Count = 7

// All lists the alphabet in scale order.
var All = []Pitch{C, D, E, F, G, A, B}

var names = []string{"C", "D", "E", "F", "G", "A", "B"}

// Solfege names, used for spoken prompts in Korean-style fixed-do.
var solfege = []string{"do", "re", "mi", "fa", "sol", "la", "si"}

var hexColors = []string{
	"#FF0000", // red
	"#FF8C00", // dark orange
	"#FFD700", // gold
	"#32CD32", // lime green
	"#00CED1", // dark turquoise
	"#4169E1", // royal blue
	"#8A2BE2", // blue violet
}

// Frequencies of the fourth octave, in Hz.
var frequencies = []float64{261.63, 293.66, 329.63, 349.23, 392.00, 440.00, 493.88}

// Valid reports whether p is inside the alphabet.
func (p Pitch) Valid() bool {
	return p >= C && p <= B
}

func (p Pitch) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Pitch(%d)", int(p))
	}
	return names[p]
}

// Solfege returns the fixed-do syllable for the pitch.
func (p Pitch) Solfege() string {
	if !p.Valid() {
		return ""
	}
	return solfege[p]
}

// Color is the display hint for the pitch. Each pitch maps to exactly one color.
func (p Pitch) Color() colorful.Color {
	if !p.Valid() {
		return colorful.Color{}
	}
	return utils.GetRGBFromString(hexColors[p])
}

// Hex returns the display color as "#rrggbb".
func (p Pitch) Hex() string {
	return p.Color().Hex()
}

// Frequency is the pitch's fourth-octave frequency in Hz.
func (p Pitch) Frequency() float64 {
	if !p.Valid() {
		return 0
	}
	return frequencies[p]
}

// Parse resolves a note name ("c", "G") into a Pitch.
func Parse(s string) (Pitch, error) {
	idx := slices.Index(names, strings.ToUpper(strings.TrimSpace(s)))
	if idx < 0 {
		return 0, fmt.Errorf("unknown pitch %q", s)
	}
	return Pitch(idx), nil
}
