package render

import "image/color"

// RGBA unpacks a 0xRRGGBBAA value into a color.RGBA.
func RGBA(c uint32) color.RGBA {
	return color.RGBA{
		R: uint8(c >> 24),
		G: uint8(c >> 16),
		B: uint8(c >> 8),
		A: uint8(c),
	}
}
