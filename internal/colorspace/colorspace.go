// Package colorspace implements the sRGB gamma round-trip and the
// RGB<->LMS cone-space transform used by the color vision stage.
// All functions take and return values in [0,1].
package colorspace

import (
	"math"

	"github.com/example/infantsight/internal/preset"
)

func pow(x, p float64) float64 { return math.Pow(x, p) }

// SRGBToLinear removes the sRGB transfer function (IEC 61966-2-1).
func SRGBToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return pow((v+0.055)/1.055, 2.4)
}

// LinearToSRGB applies the sRGB transfer function.
func LinearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*pow(v, 1.0/2.4) - 0.055
}

// Rec.709 luma coefficients on linear light.
const (
	LumR = 0.2126
	LumG = 0.7152
	LumB = 0.0722
)

// Luminance computes Rec.709 relative luminance from linear RGB.
func Luminance(r, g, b float64) float64 {
	return LumR*r + LumG*g + LumB*b
}

// Hunt-Pointer-Estevez style matrices between linear sRGB and cone space,
// normalized so unity cone sensitivities round-trip within float noise.
var (
	rgbToLMS = [3][3]float64{
		{0.31399022, 0.63951294, 0.04649755},
		{0.15537241, 0.75789446, 0.08670142},
		{0.01775239, 0.10944209, 0.87256922},
	}
	lmsToRGB = [3][3]float64{
		{5.47221206, -4.64196010, 0.16963708},
		{-1.12524190, 2.29317094, -0.16789520},
		{0.02980165, -0.19318073, 1.16364789},
	}
)

// RGBToLMS converts linear RGB to cone responses.
func RGBToLMS(r, g, b float64) (l, m, s float64) {
	l = rgbToLMS[0][0]*r + rgbToLMS[0][1]*g + rgbToLMS[0][2]*b
	m = rgbToLMS[1][0]*r + rgbToLMS[1][1]*g + rgbToLMS[1][2]*b
	s = rgbToLMS[2][0]*r + rgbToLMS[2][1]*g + rgbToLMS[2][2]*b
	return
}

// LMSToRGB converts cone responses back to linear RGB. The result may fall
// outside [0,1] for out-of-gamut cone triples; callers clamp.
func LMSToRGB(l, m, s float64) (r, g, b float64) {
	r = lmsToRGB[0][0]*l + lmsToRGB[0][1]*m + lmsToRGB[0][2]*s
	g = lmsToRGB[1][0]*l + lmsToRGB[1][1]*m + lmsToRGB[1][2]*s
	b = lmsToRGB[2][0]*l + lmsToRGB[2][1]*m + lmsToRGB[2][2]*s
	return
}

// ApplyConeSensitivity scales each cone channel by its maturation factor.
func ApplyConeSensitivity(l, m, s float64, c preset.ConeSensitivity) (float64, float64, float64) {
	return l * c.L, m * c.M, s * c.S
}

// VonKries blends each cone channel toward a neutral 0.5 by amount in
// [0,1], modeling incomplete chromatic adaptation: 0 leaves the input
// untouched, 1 collapses to the neutral point.
func VonKries(l, m, s, amount float64) (float64, float64, float64) {
	if amount <= 0 {
		return l, m, s
	}
	if amount > 1 {
		amount = 1
	}
	const neutral = 0.5
	return l + (neutral-l)*amount,
		m + (neutral-m)*amount,
		s + (neutral-s)*amount
}
