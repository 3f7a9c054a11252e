package utils

// ToDMX converts a unit value (0..1) into a DMX channel byte.
func ToDMX(unit float64) byte {
	return byte(Clamp(unit, 0, 1)*255 + 0.5)
}
