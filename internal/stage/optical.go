package stage

import (
	"math"

	"github.com/example/infantsight/internal/convolve"
	"github.com/example/infantsight/internal/frame"
	"github.com/example/infantsight/internal/kernel"
)

// Scatter simulates intraocular light scatter as a soft glow: the buffer
// is blurred into scratch (via tmp) and screen-composited back over the
// original at alpha = min(1, factor). factor <= 0 is a no-op.
func Scatter(buf, scratch, tmp *frame.Buffer, glow kernel.Kernel1D, factor float64) error {
	if factor <= 0 {
		return nil
	}
	alpha := math.Min(1, factor)
	if err := convolve.Separable(scratch, tmp, buf, glow); err != nil {
		return err
	}
	for i := 0; i < len(buf.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			base := float64(buf.Pix[i+c]) / 255
			veil := float64(scratch.Pix[i+c]) / 255 * alpha
			// Screen blend: additive glow that saturates instead of clipping.
			out := 1 - (1-base)*(1-veil)
			buf.Pix[i+c] = frame.ClampU8(out * 255)
		}
		buf.Pix[i+3] = 0xff
	}
	return nil
}

// ChromaticAberration displaces the red channel's sampling position
// inward and the blue channel's outward along the radial direction from
// image center, by strength*radialNorm pixels; green stays put. Sampling
// is nearest-neighbor with clamped coordinates. Strength shrinks as the
// eye matures.
func ChromaticAberration(dst, src *frame.Buffer, strength float64) error {
	if err := dst.CopyFrom(src); err != nil {
		return err
	}
	if strength <= 0 {
		return nil
	}
	cx := float64(src.W-1) / 2
	cy := float64(src.H-1) / 2
	halfDiag := math.Hypot(cx, cy)
	if halfDiag < 1e-6 {
		return nil
	}
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist := math.Hypot(dx, dy)
			if dist < 1e-6 {
				continue // center pixel has no radial direction
			}
			ux := dx / dist
			uy := dy / dist
			shift := strength * dist / halfDiag

			// Red sampled toward center, blue away from it.
			rx := int(math.Round(float64(x) - ux*shift))
			ry := int(math.Round(float64(y) - uy*shift))
			bx := int(math.Round(float64(x) + ux*shift))
			by := int(math.Round(float64(y) + uy*shift))

			r, _, _ := src.SampleClamped(rx, ry)
			_, g, _ := src.RGB(x, y)
			_, _, b := src.SampleClamped(bx, by)
			dst.SetRGB(x, y, r, g, b)
		}
	}
	return nil
}

// AberrationStrength derives the displacement scale (pixels at the frame
// corner) from the preset's scattering factor, which like aberration
// decays with ocular maturity.
func AberrationStrength(scatteringFactor float64) float64 {
	return 2.5 * scatteringFactor
}

// ScatterSigma maps the preset's scattering factor to the glow blur
// radius in pixels.
func ScatterSigma(scatteringFactor float64) float64 {
	return 1 + 6*scatteringFactor
}
