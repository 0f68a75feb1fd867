package camera

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// groundColor picks a surface tint for a ground track point: deep blue
// near the poles shading to green-brown in the tropics, with hue drifting
// along the longitude so consecutive frames differ
func groundColor(latitude, longitude float64, depth float64) color.RGBA {
	tropical := 1 - math.Min(1, math.Abs(latitude)/60)

	hue := math.Mod(math.Mod(220-tropical*150+longitude/18, 360)+360, 360)
	tint := colorful.Hsv(hue, 0.45+0.35*tropical, 0.25+0.55*math.Pow(math.Max(0, math.Min(1, depth)), 0.7))

	r, g, b := tint.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
