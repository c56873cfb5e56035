// Package kernel bridges degree-denominated psychophysical parameters and
// pixel-denominated filtering: it estimates pixels-per-degree for a frame,
// evaluates the model's contrast sensitivity function, and builds the
// normalized 1-D kernels the convolution engine applies.
package kernel

import (
	"math"

	"github.com/example/infantsight/internal/preset"
)

// DefaultHorizontalFOVDeg is the assumed camera horizontal field of view.
// No calibration is available; this is always an assumption.
const DefaultHorizontalFOVDeg = 60.0

const minSigma = 0.5 // below this the kernel degenerates to near-identity

// PixelsPerDegree estimates the pixel-to-visual-angle scale for a frame.
// Vertical FOV follows from the aspect ratio via the standard relation
// vfov = 2*atan(tan(hfov/2) * h/w). The result is clamped to >= 1 so
// degenerate inputs never zero out downstream kernel sizes.
func PixelsPerDegree(width, height int, hfovDeg float64) float64 {
	if width <= 0 || height <= 0 || hfovDeg <= 0 {
		return 1
	}
	hfovRad := hfovDeg * math.Pi / 180
	vfovRad := 2 * math.Atan(math.Tan(hfovRad/2)*float64(height)/float64(width))
	vfovDeg := vfovRad * 180 / math.Pi
	if vfovDeg < 1e-6 {
		return 1
	}
	ppd := math.Min(float64(width)/hfovDeg, float64(height)/vfovDeg)
	return math.Max(1, ppd)
}

// ContrastSensitivity evaluates the closed-form CSF for the preset: zero
// above the cutoff, otherwise a rising low-frequency ramp times a falling
// high-frequency lobe, scaled by the preset's peak gain. fCPD is in
// cycles/degree.
func ContrastSensitivity(fCPD float64, p preset.Preset) float64 {
	if fCPD < 0 || fCPD >= p.SpatialCutoffCPD {
		return 0
	}
	peak := math.Max(p.PeakSensitivityCPD, 1e-6)
	ramp := math.Min(1, fCPD/peak)
	den := p.SpatialCutoffCPD - peak
	if den < 1e-6 {
		den = 1e-6
	}
	t := (fCPD - peak) / den
	lobe := math.Max(0, 1-t*t)
	return p.ContrastSensitivityPeak * ramp * lobe
}

// SigmaFromCutoff converts a cutoff in cycles/degree to the Gaussian sigma
// (pixels) whose half-power point lands on that cutoff:
// sigma = sqrt(ln 2) / (2*pi*fc), fc in cycles/pixel. Floored at 0.5 px.
func SigmaFromCutoff(cutoffCPD, ppd float64) float64 {
	if ppd < 1 {
		ppd = 1
	}
	cyclesPerPixel := cutoffCPD / ppd
	if cyclesPerPixel < 1e-6 {
		cyclesPerPixel = 1e-6
	}
	sigma := math.Sqrt(math.Ln2) / (2 * math.Pi * cyclesPerPixel)
	return math.Max(minSigma, sigma)
}

// Kernel1D is a normalized (sum=1) symmetric tap array. Stateless and
// cacheable by its generating parameters; any cache must be flushed when
// the pixels-per-degree estimate changes.
type Kernel1D struct {
	Weights []float64
}

// Radius is the tap offset covered on each side of center.
func (k Kernel1D) Radius() int { return (len(k.Weights) - 1) / 2 }

// Sum is the total kernel weight; 1 within float tolerance after construction.
func (k Kernel1D) Sum() float64 {
	s := 0.0
	for _, w := range k.Weights {
		s += w
	}
	return s
}

func normalize(w []float64) []float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	if s < 1e-12 {
		// Degenerate parameters collapse to an identity kernel instead of
		// dividing by zero.
		w[len(w)/2] = 1
		return w
	}
	for i := range w {
		w[i] /= s
	}
	return w
}

// Gaussian builds a normalized Gaussian kernel for the given sigma.
// Radius is max(1, floor(3*sigma)).
func Gaussian(sigma float64) Kernel1D {
	if sigma < minSigma {
		sigma = minSigma
	}
	radius := int(3 * sigma)
	if radius < 1 {
		radius = 1
	}
	w := make([]float64, 2*radius+1)
	inv := -1 / (2 * sigma * sigma)
	for i := -radius; i <= radius; i++ {
		w[i+radius] = math.Exp(float64(i*i) * inv)
	}
	return Kernel1D{Weights: normalize(w)}
}

// CSFShaped builds a kernel whose taps combine a Gaussian envelope with
// the CSF evaluated at each tap's implied spatial frequency: tap offsets
// map linearly onto [peak, cutoff], so outer taps carry the attenuated
// high-frequency response and the center tap the peak response.
// Normalized to sum 1.
func CSFShaped(p preset.Preset, ppd float64) Kernel1D {
	sigma := SigmaFromCutoff(p.SpatialCutoffCPD, ppd)
	radius := int(3 * sigma)
	if radius < 1 {
		radius = 1
	}
	peakGain := ContrastSensitivity(p.PeakSensitivityCPD, p)
	if peakGain < 1e-6 {
		return Gaussian(sigma)
	}
	w := make([]float64, 2*radius+1)
	inv := -1 / (2 * sigma * sigma)
	for i := -radius; i <= radius; i++ {
		env := math.Exp(float64(i*i) * inv)
		var resp float64
		if i == 0 {
			resp = 1
		} else {
			f := p.PeakSensitivityCPD +
				(p.SpatialCutoffCPD-p.PeakSensitivityCPD)*math.Abs(float64(i))/float64(radius)
			resp = ContrastSensitivity(f, p) / peakGain
		}
		w[i+radius] = env * resp
	}
	return Kernel1D{Weights: normalize(w)}
}
