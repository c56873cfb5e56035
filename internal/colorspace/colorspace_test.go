package colorspace_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/infantsight/internal/colorspace"
	"github.com/example/infantsight/internal/preset"
)

// An error in the gamma round-trip silently shifts every frame's tones.
func TestGammaRoundTrip(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		x := float64(i) / 1000
		got := colorspace.SRGBToLinear(colorspace.LinearToSRGB(x))
		assert.InDelta(t, x, got, 1e-3, "linear->srgb->linear at %f", x)
		got = colorspace.LinearToSRGB(colorspace.SRGBToLinear(x))
		assert.InDelta(t, x, got, 1e-3, "srgb->linear->srgb at %f", x)
	}
}

func TestGammaEndpoints(t *testing.T) {
	assert.InDelta(t, 0.0, colorspace.SRGBToLinear(0), 1e-9)
	assert.InDelta(t, 1.0, colorspace.SRGBToLinear(1), 1e-9)
	assert.InDelta(t, 0.0, colorspace.LinearToSRGB(0), 1e-9)
	assert.InDelta(t, 1.0, colorspace.LinearToSRGB(1), 1e-9)
}

// A matrix error here silently desaturates or recolors every frame, so the
// round-trip with unity cones must reproduce the input closely.
func TestLMSMatrixRoundTrip(t *testing.T) {
	unity := preset.ConeSensitivity{L: 1, M: 1, S: 1}
	samples := []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1}
	for _, r := range samples {
		for _, g := range samples {
			for _, b := range samples {
				l, m, s := colorspace.RGBToLMS(r, g, b)
				l, m, s = colorspace.ApplyConeSensitivity(l, m, s, unity)
				rr, gg, bb := colorspace.LMSToRGB(l, m, s)
				assert.InDelta(t, r, rr, 1e-2)
				assert.InDelta(t, g, gg, 1e-2)
				assert.InDelta(t, b, bb, 1e-2)
			}
		}
	}
}

func TestLuminanceWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, colorspace.Luminance(1, 1, 1), 1e-9)
}

func TestVonKries(t *testing.T) {
	l, m, s := colorspace.VonKries(0.9, 0.1, 0.5, 0)
	assert.Equal(t, 0.9, l)
	assert.Equal(t, 0.1, m)
	assert.Equal(t, 0.5, s)

	l, m, s = colorspace.VonKries(0.9, 0.1, 0.5, 1)
	assert.InDelta(t, 0.5, l, 1e-9)
	assert.InDelta(t, 0.5, m, 1e-9)
	assert.InDelta(t, 0.5, s, 1e-9)

	l, _, _ = colorspace.VonKries(0.9, 0.1, 0.5, 0.5)
	assert.InDelta(t, 0.7, l, 1e-9)

	// Over-range amounts clamp rather than overshooting past neutral.
	l, _, _ = colorspace.VonKries(0.9, 0.1, 0.5, 2)
	assert.False(t, math.Abs(l-0.5) > 1e-9)
}
