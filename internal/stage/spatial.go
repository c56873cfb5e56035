// Package stage holds the per-frame processing stages, one canonical
// formulation each. Stage order and buffer handoff are owned by the
// pipeline package; stages only transform the buffers they are given.
package stage

import (
	"github.com/example/infantsight/internal/colorspace"
	"github.com/example/infantsight/internal/convolve"
	"github.com/example/infantsight/internal/frame"
	"github.com/example/infantsight/internal/kernel"
)

// Spatial applies the CSF-derived acuity limit: a separable Gaussian blur
// (kernel precomputed by the caller from the preset's cutoff and the
// frame's pixels-per-degree) followed by global contrast compression in
// linear light. dst receives the result; tmp is scratch.
func Spatial(dst, tmp, src *frame.Buffer, blur kernel.Kernel1D, contrastSlope float64) error {
	if err := convolve.Separable(dst, tmp, src, blur); err != nil {
		return err
	}
	CompressContrast(dst, contrastSlope)
	return nil
}

// CompressContrast blends every channel toward its Rec.709 luminance in
// linear light. slope 1 keeps full contrast, 0 flattens the frame to
// luminance gray. This models reduced CSF amplitude as reduced apparent
// contrast rather than only reduced resolution.
func CompressContrast(buf *frame.Buffer, slope float64) {
	if slope >= 1 {
		return
	}
	if slope < 0 {
		slope = 0
	}
	for i := 0; i < len(buf.Pix); i += 4 {
		r := colorspace.SRGBToLinear(float64(buf.Pix[i]) / 255)
		g := colorspace.SRGBToLinear(float64(buf.Pix[i+1]) / 255)
		b := colorspace.SRGBToLinear(float64(buf.Pix[i+2]) / 255)
		lum := colorspace.Luminance(r, g, b)

		r = lum + (r-lum)*slope
		g = lum + (g-lum)*slope
		b = lum + (b-lum)*slope

		buf.Pix[i] = frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(r)) * 255)
		buf.Pix[i+1] = frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(g)) * 255)
		buf.Pix[i+2] = frame.ClampU8(colorspace.LinearToSRGB(frame.Clamp01(b)) * 255)
		buf.Pix[i+3] = 0xff
	}
}
