package stage

import (
	"github.com/example/infantsight/internal/colorspace"
	"github.com/example/infantsight/internal/frame"
	"github.com/example/infantsight/internal/preset"
)

// ColorModel selects the color-vision formulation.
type ColorModel int

const (
	// ColorModelStaged uses the stage-keyed closed forms: a red-biased
	// desaturated signal at stage 1, per-channel cone scaling afterwards.
	ColorModelStaged ColorModel = iota
	// ColorModelLMS routes every stage through the full LMS conversion
	// with von Kries adaptation. Both models yield monotonically
	// improving color discrimination with age.
	ColorModelLMS
)

// ColorVision remaps the frame's colors for the preset's cone maturity.
// Pointwise and self-contained per pixel, so it mutates buf in place.
func ColorVision(buf *frame.Buffer, age int, p preset.Preset, model ColorModel) {
	switch model {
	case ColorModelLMS:
		colorVisionLMS(buf, p)
	default:
		colorVisionStaged(buf, age, p)
	}
}

func colorVisionStaged(buf *frame.Buffer, age int, p preset.Preset) {
	for i := 0; i < len(buf.Pix); i += 4 {
		r := colorspace.SRGBToLinear(float64(buf.Pix[i]) / 255)
		g := colorspace.SRGBToLinear(float64(buf.Pix[i+1]) / 255)
		b := colorspace.SRGBToLinear(float64(buf.Pix[i+2]) / 255)
		lum := colorspace.Luminance(r, g, b)

		var outR, outG, outB float64
		if age <= 1 {
			// Largely luminance-driven with a weak red contribution:
			// the least mature stage sees brightness, barely hue.
			outR = lum*0.85 + r*p.Cones.L*0.25
			outG = lum * 0.85 * p.Cones.M
			outB = lum * 0.85 * p.Cones.S
		} else {
			outR = r * p.Cones.L
			outG = g * p.Cones.M
			outB = b * p.Cones.S
			if age == 2 {
				// Short-wavelength response still trails; cap blue
				// against luminance.
				if blueCap := lum * 0.3; outB > blueCap {
					outB = blueCap
				}
			}
		}

		buf.Pix[i] = frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(outR)) * 255)
		buf.Pix[i+1] = frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(outG)) * 255)
		buf.Pix[i+2] = frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(outB)) * 255)
		buf.Pix[i+3] = 0xff
	}
}

func colorVisionLMS(buf *frame.Buffer, p preset.Preset) {
	// Adaptation completeness tracks overall cone maturity: immature
	// cones also adapt less, pulling colors toward neutral.
	adapt := 1 - (p.Cones.L+p.Cones.M+p.Cones.S)/3
	for i := 0; i < len(buf.Pix); i += 4 {
		r := colorspace.SRGBToLinear(float64(buf.Pix[i]) / 255)
		g := colorspace.SRGBToLinear(float64(buf.Pix[i+1]) / 255)
		b := colorspace.SRGBToLinear(float64(buf.Pix[i+2]) / 255)

		l, m, s := colorspace.RGBToLMS(r, g, b)
		l, m, s = colorspace.ApplyConeSensitivity(l, m, s, p.Cones)
		l, m, s = colorspace.VonKries(l, m, s, adapt)
		r, g, b = colorspace.LMSToRGB(l, m, s)

		buf.Pix[i] = frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(r)) * 255)
		buf.Pix[i+1] = frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(g)) * 255)
		buf.Pix[i+2] = frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(b)) * 255)
		buf.Pix[i+3] = 0xff
	}
}
